package goals

type Create struct {
	Title  string `json:"title" validate:"required,max=200"`
	Tally  string `json:"tally,omitempty"`
	Target int    `json:"target" validate:"gt=0"`
}

// Progress reports the linked counter's count; the goal keeps min(target, count).
type Progress struct {
	Count int `json:"count" validate:"gte=0"`
}

type Abandon struct{}
