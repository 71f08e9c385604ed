package es

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tasbih-events"

type Service[T any] interface {
	Load(ctx context.Context, id StreamID) (Entity[T], error)
	Execute(ctx context.Context, id StreamID, command Command) (Entity[T], error)
}

func NewService[T any](loader *Loader[T], router *Router[T]) Service[T] {
	return &service[T]{loader: loader, router: router}
}

// Descriptor bundles what an aggregate package contributes to a service.
type Descriptor[T any] struct {
	Reducers Reducers[T]
	Handlers Handlers[T]
}

func (d Descriptor[T]) Service(store EventStore) Service[T] {
	loader := NewLoader(store, d.Reducers)
	router := &Router[T]{Publish: store.Publish, Handlers: d.Handlers}

	return NewService(loader, router)
}

type service[T any] struct {
	loader *Loader[T]
	router *Router[T]
}

func (s *service[T]) Load(ctx context.Context, id StreamID) (Entity[T], error) {
	return s.loader.Entity(ctx, id)
}

func (s *service[T]) Execute(ctx context.Context, id StreamID, command Command) (Entity[T], error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "execute command", trace.WithAttributes(
		attribute.String("stream.id", id.String()),
		attribute.String("command.name", string(CommandNameOf(command))),
	))
	defer span.End()

	entity, err := s.Load(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "load failed")
		return Entity[T]{}, err
	}

	published, err := s.router.Dispatch(ctx, entity, command)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		return Entity[T]{}, err
	}

	if !published {
		return entity, nil
	}

	return s.Load(ctx, id)
}
