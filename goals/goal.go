// Package goals tracks repetition goals that follow a linked tally.
package goals

import (
	"time"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

const Kind = "goal"

func StreamID(user string, goal string) es.StreamID {
	return es.StreamID{Kind: Kind, Key: user + "." + goal}
}

type Status string

const (
	Active    Status = "active"
	Achieved  Status = "achieved"
	Abandoned Status = "abandoned"
)

type Goal struct {
	Title    string    `json:"title"`
	Tally    string    `json:"tally,omitempty"`
	Target   int       `json:"target"`
	Progress int       `json:"progress"`
	Status   Status    `json:"status"`
	Created  time.Time `json:"created"`
	Closed   time.Time `json:"closed"`
}

func (g *Goal) Remaining() int {
	return max(0, g.Target-g.Progress)
}

func (g *Goal) Percent() float64 {
	if g.Target <= 0 {
		return 0
	}

	return min(100, float64(g.Progress)/float64(g.Target)*100)
}
