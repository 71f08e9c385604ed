package es

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// InvalidCommand wraps the validator.ValidationErrors for a command whose
// fields failed their `validate` tags.
type InvalidCommand struct {
	Command CommandName
	Err     error
}

func (e InvalidCommand) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Command, e.Err)
}

func (e InvalidCommand) Unwrap() error {
	return e.Err
}

// Validate checks struct commands against their `validate` tags.
func Validate(command Command) error {
	value := reflect.ValueOf(command)
	for value.Kind() == reflect.Ptr {
		value = value.Elem()
	}

	if value.Kind() != reflect.Struct {
		return nil
	}

	if err := validate.Struct(command); err != nil {
		return InvalidCommand{Command: CommandNameOf(command), Err: err}
	}

	return nil
}

// CommandRejected reports a well formed command the entity's current state
// does not accept.
type CommandRejected struct {
	Command CommandName
	Reason  string
}

func (e CommandRejected) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Command, e.Reason)
}

func Reject(command Command, reason string) error {
	return CommandRejected{Command: CommandNameOf(command), Reason: reason}
}
