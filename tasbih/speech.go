package tasbih

import "context"

// Speaker reads an item's text aloud. Speak blocks until playback finishes or
// ctx is cancelled.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type SpeakerFunc func(ctx context.Context, text string) error

func (f SpeakerFunc) Speak(ctx context.Context, text string) error {
	return f(ctx, text)
}
