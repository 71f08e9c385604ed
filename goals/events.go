package goals

import "time"

type Created struct {
	Title  string    `json:"title"`
	Tally  string    `json:"tally,omitempty"`
	Target int       `json:"target"`
	At     time.Time `json:"at"`
}

type Progressed struct {
	Progress int `json:"progress"`
}

type GoalAchieved struct {
	At time.Time `json:"at"`
}

type GoalAbandoned struct {
	At time.Time `json:"at"`
}
