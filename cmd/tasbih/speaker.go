package main

import (
	"context"
	"os/exec"

	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

var voices = []string{"espeak-ng", "espeak", "say"}

// commandSpeaker reads text with the first speech synthesizer on PATH.
type commandSpeaker struct {
	path string
}

func findSpeaker() (tasbih.Speaker, bool) {
	for _, voice := range voices {
		if path, err := exec.LookPath(voice); err == nil {
			return commandSpeaker{path: path}, true
		}
	}

	return nil, false
}

func (s commandSpeaker) Speak(ctx context.Context, text string) error {
	err := exec.CommandContext(ctx, s.path, text).Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}
