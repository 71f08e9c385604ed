package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

type Tested struct {
	Value string `json:"value"`
}

func TestEventStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewEventStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer store.Close()

	t.Run("sqlite event store validation", func(t *testing.T) {
		es.NewStoreSuite(ctx, store).Run(t)
	})

	t.Run("survives a reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reopen", "events.db")
		id := es.StreamID{Kind: "tally", Key: "reopen"}

		first, err := NewEventStore(path)
		require.NoError(t, err)
		require.NoError(t, first.Publish(ctx, id, es.Options(), Tested{Value: "subhanallah"}))
		require.NoError(t, first.Close())

		second, err := NewEventStore(path)
		require.NoError(t, err)
		defer second.Close()

		stream, err := second.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, stream.Events, 1)

		var decoded Tested
		require.NoError(t, stream.Events[0].Decode(&decoded))
		assert.Equal(t, "subhanallah", decoded.Value)
	})

	t.Run("stamps events with the injected clock", func(t *testing.T) {
		at := time.Date(2026, 3, 1, 5, 30, 0, 0, time.UTC)
		clocked, err := NewEventStore(filepath.Join(t.TempDir(), "clocked.db"), WithClock(func() time.Time { return at }))
		require.NoError(t, err)
		defer clocked.Close()

		id := es.StreamID{Kind: "tally", Key: "clocked"}
		require.NoError(t, clocked.Publish(ctx, id, es.Options(), Tested{Value: "alhamdulillah"}))

		stream, err := clocked.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, es.TimestampFromTime(at), stream.Events[0].Timestamp)
	})
}
