package es

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

type CommandName string

type Command any

// RemoteCommand carries a command across a transport boundary with its payload still encoded.
type RemoteCommand struct {
	Name    CommandName `json:"command"`
	Payload Data        `json:"payload"`
}

func CommandNameOf(command Command) CommandName {
	if remote, ok := command.(RemoteCommand); ok {
		return remote.Name
	}

	return CommandName(NameOf(command))
}

type Handler[T any] interface {
	Handle(ctx context.Context, cmd Command, state Entity[T], publish EventPublisher) error
	HandleRemote(ctx context.Context, cmd RemoteCommand, state Entity[T], publish EventPublisher) error
}

type HandlerFunc[T any, C any] func(ctx context.Context, cmd C, state Entity[T], publish EventPublisher) error

func (f HandlerFunc[T, C]) Handle(ctx context.Context, cmd Command, state Entity[T], publish EventPublisher) error {
	command, ok := cmd.(C)
	if !ok {
		return UnexpectedCommand(cmd)
	}

	if err := Validate(command); err != nil {
		return err
	}

	return f(ctx, command, state, publish)
}

func (f HandlerFunc[T, C]) HandleRemote(ctx context.Context, cmd RemoteCommand, state Entity[T], publish EventPublisher) error {
	var command C

	if cmd.Payload.Encoding != JSONEncoding {
		return InvalidEncoding(JSONEncoding, cmd.Payload.Encoding)
	}

	if err := json.UnmarshalContext(ctx, cmd.Payload.Data, &command); err != nil {
		return MalformedCommand{Command: cmd.Name, Err: err}
	}

	if err := Validate(command); err != nil {
		return err
	}

	return f(ctx, command, state, publish)
}

func UnexpectedCommand(command Command) error {
	return fmt.Errorf("unexpected command %s", CommandNameOf(command))
}

type MalformedCommand struct {
	Command CommandName
	Err     error
}

func (e MalformedCommand) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Command, e.Err)
}

func (e MalformedCommand) Unwrap() error {
	return e.Err
}
