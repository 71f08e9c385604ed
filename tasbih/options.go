package tasbih

import "github.com/rs/zerolog"

type Option func(*Counter)

func WithClock(clock Clock) Option {
	return func(c *Counter) {
		c.clock = clock
	}
}

func WithSpeaker(speaker Speaker) Option {
	return func(c *Counter) {
		c.speaker = speaker
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Counter) {
		c.log = logger
	}
}

// OnChange registers a handler called after every tap, undo and reset.
func OnChange(handler func(Change)) Option {
	return func(c *Counter) {
		c.onChange = append(c.onChange, handler)
	}
}

// OnComplete registers a handler called each time the count reaches the goal.
func OnComplete(handler func(Completion)) Option {
	return func(c *Counter) {
		c.onComplete = append(c.onComplete, handler)
	}
}

func OnUndoExpired(handler func()) Option {
	return func(c *Counter) {
		c.onUndoExpired = append(c.onUndoExpired, handler)
	}
}
