package jetstream

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

type EventStoreOption func(*EventStore)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	Create() es.EventID
}

type Marshaller interface {
	Unmarshal(data []byte, v any) error
	Marshal(v any) ([]byte, error)
}

func WithClock(clock Clock) EventStoreOption {
	return func(store *EventStore) {
		store.clock = clock
	}
}

func WithIDGenerator(generator IDGenerator) EventStoreOption {
	return func(store *EventStore) {
		store.id = generator
	}
}

func WithMarshaller(marshaller Marshaller) EventStoreOption {
	return func(store *EventStore) {
		store.marshaller = marshaller
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

type ulidGenerator struct {
	clock    Clock
	revision *es.RevisionGenerator
}

func (g *ulidGenerator) Create() es.EventID {
	return es.EventID(g.revision.NewRevision(g.clock.Now()))
}

type JSONMarshaller struct{}

func (JSONMarshaller) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONMarshaller) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
