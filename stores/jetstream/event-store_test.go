package jetstream_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmed11551/tasbix09-sub001/es"
	"github.com/ahmed11551/tasbix09-sub001/stores/jetstream"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time {
	return time.Time(c)
}

func TestEventStore(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx := context.Background()
	at := time.Date(2026, time.March, 1, 4, 30, 0, 0, time.UTC)
	store, cleanup, err := jetstream.NewTestStore(ctx, jetstream.WithClock(fixedClock(at)))
	require.NoError(t, err)
	defer cleanup()

	suite := es.NewStoreSuite(ctx, store)
	suite.Run(t)

	t.Run("event ids follow the injected clock", func(t *testing.T) {
		id := suite.StreamID()
		require.NoError(t, store.Publish(ctx, id, es.Options(), suite.Event()))

		stream, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, stream.Events, 1)

		ts, err := es.Revision(stream.Events[0].EventID).Timestamp().Time()
		require.NoError(t, err)
		assert.True(t, at.Equal(ts))
	})
}
