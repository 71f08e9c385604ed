package es

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Reducer[T any] interface {
	Reduce(state *T, evt *RecordedEvent) error
}

type ReducerFunc[T any, E any] func(state *T, evt *E) error

func (f ReducerFunc[T, E]) Reduce(state *T, evt *RecordedEvent) error {
	var event E
	if err := evt.Decode(&event); err != nil {
		return err
	}

	return f(state, &event)
}

type Reducers[T any] map[EventType]Reducer[T]

// Renderer folds a stream into entity state. Events without a reducer are skipped.
type Renderer[T any] struct {
	Reducers Reducers[T]
}

func (r *Renderer[T]) Render(ctx context.Context, stream Stream) (Entity[T], error) {
	var state T

	_, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("render %s", NameOf(state)))
	defer span.End()

	for i := range stream.Events {
		event := &stream.Events[i]

		reducer := r.Reducers[event.EventType]
		if reducer == nil {
			continue
		}

		if err := reducer.Reduce(&state, event); err != nil {
			return Entity[T]{}, errors.Wrapf(err, "failed to process update with %s", event.EventType)
		}
	}

	return Entity[T]{
		ID:       stream.ID,
		Revision: stream.Revision,
		Type:     EntityTypeOf(state),
		State:    &state,
	}, nil
}

type Loader[T any] struct {
	Load     EventLoader
	Renderer *Renderer[T]
}

func NewLoader[T any](store EventStore, reducers Reducers[T]) *Loader[T] {
	return &Loader[T]{Load: store.Load, Renderer: &Renderer[T]{Reducers: reducers}}
}

func (l *Loader[T]) Entity(ctx context.Context, id StreamID) (Entity[T], error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "load entity", trace.WithAttributes(attribute.String("stream.id", id.String())))
	defer span.End()

	stream, err := l.Load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return Entity[T]{}, err
	}

	return l.Renderer.Render(ctx, stream)
}
