package es

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type StreamID struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

type EncodedStreamID string

func (id StreamID) Encode() EncodedStreamID {
	return EncodedStreamID(id.Kind + "." + id.Key)
}

func (id StreamID) String() string {
	return id.Encode().String()
}

func (id EncodedStreamID) String() string {
	return string(id)
}

// Decode splits on the first delimiter only; keys may contain dots.
func (id EncodedStreamID) Decode() (StreamID, error) {
	kind, key, ok := strings.Cut(string(id), ".")
	if !ok || kind == "" || key == "" {
		return StreamID{}, errors.New("expected . delimiter in stream id")
	}

	return StreamID{Kind: kind, Key: key}, nil
}

type Stream struct {
	ID       StreamID        `json:"id"`
	Events   []RecordedEvent `json:"events,omitempty"`
	Revision Revision        `json:"revision"`
}

func (s Stream) Empty() bool {
	return len(s.Events) == 0
}

type Revision string

const InitialRevision = Revision("00000000000000000000000000")

func (r Revision) String() string {
	return string(r)
}

func (r Revision) Timestamp() Timestamp {
	v := ulid.MustParse(string(r))
	return TimestampFromTime(ulid.Time(v.Time()))
}

// RevisionOf returns the revision of the last event, or InitialRevision.
func RevisionOf(events []RecordedEvent) Revision {
	if len(events) == 0 {
		return InitialRevision
	}

	return events[len(events)-1].Revision
}

type RevisionGenerator struct {
	lk      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewRevisionGenerator() *RevisionGenerator {
	return &RevisionGenerator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (g *RevisionGenerator) NewRevision(t time.Time) Revision {
	g.lk.Lock()
	defer g.lk.Unlock()

	return Revision(ulid.MustNew(ulid.Timestamp(t), g.entropy).String())
}

type Timestamp string

const RFC3339Milli = "2006-01-02T15:04:05.999Z07:00"

func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UTC().Format(RFC3339Milli))
}

func (t Timestamp) Time() (time.Time, error) {
	return time.Parse(RFC3339Milli, string(t))
}
