package es

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
)

type Handlers[T any] map[CommandName]Handler[T]

type Router[T any] struct {
	Publish  EventPublisher
	Handlers Handlers[T]
}

// Dispatch routes the command to its handler and reports whether any events were published.
func (r *Router[T]) Dispatch(ctx context.Context, entity Entity[T], command Command) (bool, error) {
	name := CommandNameOf(command)

	ctx, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("dispatch %s", name))
	defer span.End()

	handler := r.Handlers[name]
	if handler == nil {
		return false, CommandNotFound(name)
	}

	tracking := &trackingPublisher{publish: r.Publish}

	var err error
	switch cmd := command.(type) {
	case RemoteCommand:
		err = handler.HandleRemote(ctx, cmd, entity, tracking.Publish)
	default:
		err = handler.Handle(ctx, cmd, entity, tracking.Publish)
	}

	return tracking.published, err
}

func CommandNotFound(command CommandName) CommandNotFoundError {
	return CommandNotFoundError{Command: command}
}

type CommandNotFoundError struct {
	Command CommandName
}

func (e CommandNotFoundError) Error() string {
	return fmt.Sprintf("unknown command: %s", e.Command)
}

type trackingPublisher struct {
	publish   EventPublisher
	published bool
}

func (p *trackingPublisher) Publish(ctx context.Context, id StreamID, options PublishOptions, events ...DomainEvent) error {
	if err := p.publish(ctx, id, options, events...); err != nil {
		return err
	}

	p.published = p.published || len(events) > 0

	return nil
}
