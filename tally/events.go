package tally

import (
	"time"

	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

type Started struct {
	Item   string    `json:"item"`
	Text   string    `json:"text,omitempty"`
	Count  int       `json:"count"`
	Rounds int       `json:"rounds"`
	Target int       `json:"target,omitempty"`
	At     time.Time `json:"at"`
}

type Recorded struct {
	Count  int          `json:"count"`
	Delta  int          `json:"delta"`
	Rounds int          `json:"rounds"`
	Cause  tasbih.Cause `json:"cause"`
	At     time.Time    `json:"at"`
}

type GoalSet struct {
	Target int `json:"target"`
}

type Completed struct {
	Count  int       `json:"count"`
	Target int       `json:"target"`
	At     time.Time `json:"at"`
}
