package tally

import "github.com/ahmed11551/tasbix09-sub001/tasbih"

type Start struct {
	Item   string `json:"item" validate:"required"`
	Text   string `json:"text,omitempty"`
	Count  int    `json:"count" validate:"gte=0"`
	Rounds int    `json:"rounds" validate:"gte=0"`
	Target int    `json:"target" validate:"gte=0"`
}

type Record struct {
	Count  int          `json:"count" validate:"gte=0"`
	Delta  int          `json:"delta"`
	Rounds int          `json:"rounds" validate:"gte=0"`
	Cause  tasbih.Cause `json:"cause" validate:"oneof=tap undo reset-count reset-all"`
}

type SetGoal struct {
	Target int `json:"target" validate:"gte=0"`
}

type Complete struct {
	Count  int `json:"count" validate:"gte=0"`
	Target int `json:"target" validate:"gt=0"`
}
