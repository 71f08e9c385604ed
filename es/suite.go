package es

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/jaswdr/faker"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreSuite is the behaviour every EventStore implementation must share.
type StoreSuite struct {
	ctx     context.Context
	store   EventStore
	faker   faker.Faker
	entropy *ulid.MonotonicEntropy
}

func NewStoreSuite(ctx context.Context, store EventStore) *StoreSuite {
	return &StoreSuite{
		ctx:     ctx,
		store:   store,
		faker:   faker.New(),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

type SuiteEvent struct {
	Dhikr string `json:"dhikr"`
	Count int    `json:"count"`
}

func (s *StoreSuite) Run(t *testing.T) {
	t.Run("loads an initial revision", s.LoadsInitial)
	t.Run("loads a revision with events", s.LoadsRevisionWithEvents)
	t.Run("publishes multiple events in one change set", s.PublishesMultipleEvents)
	t.Run("rejects an empty publish", s.RejectsEmptyPublish)
	t.Run("returns a revision conflict with an initial revision", s.ConflictOnInitialRevision)
	t.Run("returns a revision conflict on a stale revision", s.ConflictOnStaleRevision)
	t.Run("accepts the current revision", s.AcceptsCurrentRevision)
	t.Run("records causation metadata", s.Causation)
}

func (s *StoreSuite) StreamID() StreamID {
	return StreamID{
		Kind: "go-test",
		Key:  ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String(),
	}
}

func (s *StoreSuite) Event() SuiteEvent {
	return SuiteEvent{
		Dhikr: s.faker.Lorem().Sentence(4),
		Count: s.faker.IntBetween(1, 1000),
	}
}

func (s *StoreSuite) Events(count int) []DomainEvent {
	events := make([]DomainEvent, count)
	for i := range events {
		events[i] = s.Event()
	}

	return events
}

func (s *StoreSuite) LoadsInitial(t *testing.T) {
	id := s.StreamID()

	stream, err := s.store.Load(s.ctx, id)
	require.NoError(t, err)

	assert.Empty(t, stream.Events)
	assert.Equal(t, InitialRevision, stream.Revision)
	assert.Equal(t, id, stream.ID)
}

func (s *StoreSuite) LoadsRevisionWithEvents(t *testing.T) {
	id := s.StreamID()
	event := s.Event()

	require.NoError(t, s.store.Publish(s.ctx, id, Options(), event))

	stream, err := s.store.Load(s.ctx, id)
	require.NoError(t, err)

	require.Len(t, stream.Events, 1)
	assert.Equal(t, id, stream.ID)
	assert.NotEqual(t, InitialRevision, stream.Revision)
	assert.Equal(t, stream.Events[0].Revision, stream.Revision)
	assert.Equal(t, EventTypeOf(event), stream.Events[0].EventType)

	var decoded SuiteEvent
	require.NoError(t, stream.Events[0].Decode(&decoded))
	assert.Equal(t, event, decoded)
}

func (s *StoreSuite) PublishesMultipleEvents(t *testing.T) {
	id := s.StreamID()

	require.NoError(t, s.store.Publish(s.ctx, id, Options(), s.Events(17)...))
	require.NoError(t, s.store.Publish(s.ctx, id, Options(), s.Events(3)...))

	stream, err := s.store.Load(s.ctx, id)
	require.NoError(t, err)

	assert.Len(t, stream.Events, 20)
	for i := 1; i < len(stream.Events); i++ {
		assert.Less(t, stream.Events[i-1].Revision.String(), stream.Events[i].Revision.String())
	}
}

func (s *StoreSuite) RejectsEmptyPublish(t *testing.T) {
	err := s.store.Publish(s.ctx, s.StreamID(), Options())
	assert.ErrorIs(t, err, NoEvents)
}

func (s *StoreSuite) ConflictOnInitialRevision(t *testing.T) {
	id := s.StreamID()
	event := s.Event()

	require.NoError(t, s.store.Publish(s.ctx, id, Options(WithExpectedRevision(InitialRevision)), event))

	err := s.store.Publish(s.ctx, id, Options(WithExpectedRevision(InitialRevision)), event)
	assert.Equal(t, RevisionConflict, err)
}

func (s *StoreSuite) ConflictOnStaleRevision(t *testing.T) {
	id := s.StreamID()
	event := s.Event()

	require.NoError(t, s.store.Publish(s.ctx, id, Options(), event))

	first, err := s.store.Load(s.ctx, id)
	require.NoError(t, err)

	require.NoError(t, s.store.Publish(s.ctx, id, Options(), event))

	err = s.store.Publish(s.ctx, id, Options(WithExpectedRevision(first.Revision)), event)
	assert.Equal(t, RevisionConflict, err)
}

func (s *StoreSuite) AcceptsCurrentRevision(t *testing.T) {
	id := s.StreamID()
	event := s.Event()

	require.NoError(t, s.store.Publish(s.ctx, id, Options(), event))

	current, err := s.store.Load(s.ctx, id)
	require.NoError(t, err)

	assert.NoError(t, s.store.Publish(s.ctx, id, Options(WithExpectedRevision(current.Revision)), event))
}

func (s *StoreSuite) Causation(t *testing.T) {
	id := s.StreamID()
	event := s.Event()

	require.NoError(t, s.store.Publish(s.ctx, id, Options(), event))

	first, err := s.store.Load(s.ctx, id)
	require.NoError(t, err)
	cause := first.Events[len(first.Events)-1]

	correlation := CorrelationID("event/" + cause.EventID.String())
	require.NoError(t, s.store.Publish(s.ctx, id, Options(WithCausationID(correlation, cause.EventID)), event))

	second, err := s.store.Load(s.ctx, id)
	require.NoError(t, err)
	last := second.Events[len(second.Events)-1]

	assert.Equal(t, correlation, last.Metadata.CorrelationID)
	assert.Equal(t, cause.EventID, last.Metadata.CausationID)
}
