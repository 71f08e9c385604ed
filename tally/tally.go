// Package tally persists a counter's progress as an event stream, one stream
// per user and counter identity.
package tally

import (
	"time"

	"github.com/ahmed11551/tasbix09-sub001/es"
	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

const Kind = "tally"

func StreamID(user string, counter string) es.StreamID {
	return es.StreamID{Kind: Kind, Key: user + "." + counter}
}

type Tally struct {
	Item          string    `json:"item"`
	Text          string    `json:"text,omitempty"`
	Count         int       `json:"count"`
	Rounds        int       `json:"rounds"`
	Target        int       `json:"target,omitempty"`
	Taps          int       `json:"taps"`
	Completions   int       `json:"completions"`
	LastChange    time.Time `json:"lastChange"`
	LastCompleted time.Time `json:"lastCompleted"`
}

func (t *Tally) Progress() tasbih.Progress {
	return tasbih.Progress{Count: t.Count, Target: t.Target}
}

// Config seeds a counter tracking this tally under key.
func (t *Tally) Config(key string) tasbih.Config {
	rounds := t.Rounds

	return tasbih.Config{
		Key:           key,
		ItemID:        t.Item,
		Text:          t.Text,
		InitialCount:  t.Count,
		InitialRounds: &rounds,
		TargetCount:   t.Target,
	}
}
