package tasbih_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

const spacing = 150 * time.Millisecond

type recorder struct {
	lk          sync.Mutex
	changes     []tasbih.Change
	completions []tasbih.Completion
	expired     int
}

func (r *recorder) options() []tasbih.Option {
	return []tasbih.Option{
		tasbih.OnChange(func(change tasbih.Change) {
			r.lk.Lock()
			defer r.lk.Unlock()
			r.changes = append(r.changes, change)
		}),
		tasbih.OnComplete(func(completion tasbih.Completion) {
			r.lk.Lock()
			defer r.lk.Unlock()
			r.completions = append(r.completions, completion)
		}),
		tasbih.OnUndoExpired(func() {
			r.lk.Lock()
			defer r.lk.Unlock()
			r.expired++
		}),
	}
}

func (r *recorder) Changes() []tasbih.Change {
	r.lk.Lock()
	defer r.lk.Unlock()
	return append([]tasbih.Change(nil), r.changes...)
}

func (r *recorder) Completions() int {
	r.lk.Lock()
	defer r.lk.Unlock()
	return len(r.completions)
}

func (r *recorder) Expired() int {
	r.lk.Lock()
	defer r.lk.Unlock()
	return r.expired
}

func (r *recorder) Last() tasbih.Change {
	changes := r.Changes()
	return changes[len(changes)-1]
}

type fixture struct {
	clock    *fakeClock
	recorder *recorder
	counter  *tasbih.Counter
}

func newFixture(t *testing.T, cfg tasbih.Config, options ...tasbih.Option) *fixture {
	f := &fixture{clock: newFakeClock(), recorder: &recorder{}}

	options = append(options, tasbih.WithClock(f.clock), tasbih.WithLogger(zerolog.Nop()))
	options = append(options, f.recorder.options()...)
	f.counter = tasbih.NewCounter(cfg, options...)
	t.Cleanup(f.counter.Close)

	return f
}

// tap spaces each tap past the debounce window.
func (f *fixture) tap(times int, delta int) int {
	accepted := 0
	for i := 0; i < times; i++ {
		f.clock.Advance(spacing)
		if f.counter.Tap(delta) {
			accepted++
		}
	}

	return accepted
}

func rounds(n int) *int {
	return &n
}

func TestTap(t *testing.T) {
	t.Run("counts spaced taps and derives rounds", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah"})

		assert.Equal(t, 250, f.tap(250, 1))

		s := f.counter.Snapshot()
		assert.Equal(t, 250, s.Count)
		assert.Equal(t, 2, s.Rounds)
		assert.Len(t, f.recorder.Changes(), 250)
		assert.Equal(t, tasbih.Change{Identity: "subhanallah", Count: 250, Delta: 1, Rounds: 2, Cause: tasbih.CauseTap}, f.recorder.Last())
	})

	t.Run("debounces rapid taps", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "alhamdulillah"})

		assert.True(t, f.counter.Tap(1))
		f.clock.Advance(50 * time.Millisecond)
		assert.False(t, f.counter.Tap(1))
		assert.Equal(t, 1, f.counter.Snapshot().Count)

		// the dropped tap does not extend the window
		f.clock.Advance(60 * time.Millisecond)
		assert.True(t, f.counter.Tap(1))
		assert.Equal(t, 2, f.counter.Snapshot().Count)
		assert.Len(t, f.recorder.Changes(), 2)
	})

	t.Run("clamps to the goal", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "allahu-akbar", InitialCount: 8, TargetCount: 10})

		assert.Equal(t, 1, f.tap(1, 5))
		assert.Equal(t, 10, f.counter.Snapshot().Count)
		assert.Equal(t, 2, f.recorder.Last().Delta)

		assert.Equal(t, 0, f.tap(1, 1))
		assert.Equal(t, 10, f.counter.Snapshot().Count)
		assert.Len(t, f.recorder.Changes(), 1)
	})

	t.Run("never goes below zero", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "istighfar", InitialCount: 2})

		assert.Equal(t, 1, f.tap(1, -5))
		assert.Equal(t, 0, f.counter.Snapshot().Count)
		assert.Equal(t, -2, f.recorder.Last().Delta)

		assert.Equal(t, 0, f.tap(1, -1))
		assert.Equal(t, 0, f.tap(1, 0))
	})

	t.Run("a forward tap never lowers rounds", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "salawat", InitialCount: 10, InitialRounds: rounds(4)})

		f.tap(1, 1)
		assert.Equal(t, 4, f.counter.Snapshot().Rounds)
	})

	t.Run("pulses briefly", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "salawat"})

		f.tap(1, 1)
		assert.True(t, f.counter.Snapshot().Pulsing)

		f.clock.Advance(tasbih.PulseDuration)
		assert.False(t, f.counter.Snapshot().Pulsing)
	})

	t.Run("keeps one undo and one pulse timer", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "salawat"})

		f.counter.Tap(1)
		assert.Equal(t, 2, f.clock.Pending())

		f.clock.Advance(120 * time.Millisecond)
		f.counter.Tap(1)
		assert.Equal(t, 2, f.clock.Pending())
	})

	t.Run("drops concurrent taps within the window", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "tahlil"})

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.counter.Tap(1)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, f.counter.Snapshot().Count)
		assert.Len(t, f.recorder.Changes(), 1)
	})
}

func TestUndo(t *testing.T) {
	t.Run("restores the count before the last tap", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", InitialCount: 7})

		f.tap(1, 3)
		require.Equal(t, 10, f.counter.Snapshot().Count)
		require.True(t, f.counter.Snapshot().UndoAvailable)
		assert.Equal(t, 3, f.counter.Snapshot().UndoDelta)

		assert.True(t, f.counter.Undo())
		s := f.counter.Snapshot()
		assert.Equal(t, 7, s.Count)
		assert.Equal(t, 0, s.Rounds)
		assert.False(t, s.UndoAvailable)
		assert.Equal(t, tasbih.Change{Identity: "subhanallah", Count: 7, Delta: -3, Rounds: 0, Cause: tasbih.CauseUndo}, f.recorder.Last())

		assert.False(t, f.counter.Undo())
		assert.Len(t, f.recorder.Changes(), 2)
	})

	t.Run("recomputes rounds", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", InitialCount: 199})

		f.tap(1, 1)
		assert.Equal(t, 2, f.counter.Snapshot().Rounds)

		f.counter.Undo()
		assert.Equal(t, 1, f.counter.Snapshot().Rounds)
	})

	t.Run("expires after the undo window", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah"})

		f.tap(1, 1)
		f.clock.Advance(tasbih.UndoWindow - time.Millisecond)
		assert.True(t, f.counter.Snapshot().UndoAvailable)

		f.clock.Advance(time.Millisecond)
		assert.False(t, f.counter.Snapshot().UndoAvailable)
		assert.Equal(t, 1, f.recorder.Expired())

		assert.False(t, f.counter.Undo())
		assert.Equal(t, 1, f.counter.Snapshot().Count)
	})

	t.Run("a new tap restarts the window", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah"})

		f.tap(1, 1)
		f.clock.Advance(3 * time.Second)
		f.tap(1, 1)
		f.clock.Advance(3 * time.Second)

		assert.True(t, f.counter.Snapshot().UndoAvailable)
		assert.Equal(t, 0, f.recorder.Expired())

		assert.True(t, f.counter.Undo())
		assert.Equal(t, 1, f.counter.Snapshot().Count)
	})

	t.Run("cancels the expiry timer", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah"})

		f.tap(1, 1)
		f.counter.Undo()
		f.clock.Advance(tasbih.UndoWindow)

		assert.Equal(t, 0, f.recorder.Expired())
		assert.Equal(t, 0, f.clock.Pending())
	})
}

func TestReset(t *testing.T) {
	t.Run("reset count keeps rounds and goal", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", InitialCount: 150, TargetCount: 200})

		f.tap(1, 1)
		f.counter.ResetCount()

		s := f.counter.Snapshot()
		assert.Equal(t, 0, s.Count)
		assert.Equal(t, 1, s.Rounds)
		assert.Equal(t, 200, s.Target)
		assert.False(t, s.UndoAvailable)
		assert.Equal(t, tasbih.Change{Identity: "subhanallah", Count: 0, Delta: -151, Rounds: 1, Cause: tasbih.CauseResetCount}, f.recorder.Last())

		f.tap(1, 1)
		assert.Equal(t, 1, f.counter.Snapshot().Rounds)
	})

	t.Run("reset all clears everything", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", InitialCount: 150, TargetCount: 200})

		f.tap(1, 1)
		f.counter.ResetAll()

		s := f.counter.Snapshot()
		assert.Equal(t, 0, s.Count)
		assert.Equal(t, 0, s.Rounds)
		assert.Equal(t, 0, s.Target)
		assert.False(t, s.UndoAvailable)
		assert.Equal(t, tasbih.Change{Identity: "subhanallah", Count: 0, Delta: -151, Rounds: 0, Cause: tasbih.CauseResetAll}, f.recorder.Last())
		assert.False(t, f.counter.Undo())
	})
}

func TestGoal(t *testing.T) {
	t.Run("completes 33 taps exactly once", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", TargetCount: 33})

		for i := 1; i <= 33; i++ {
			f.tap(1, 1)
			if i < 33 {
				require.Equal(t, 0, f.recorder.Completions(), "tap %d", i)
			}
		}

		s := f.counter.Snapshot()
		assert.Equal(t, 33, s.Count)
		assert.Equal(t, 0, s.Display)
		assert.Equal(t, 100.0, s.Percent)
		assert.True(t, s.Complete)
		assert.Equal(t, 1, f.recorder.Completions())

		f.tap(5, 1)
		assert.Equal(t, 33, f.counter.Snapshot().Count)
		assert.Equal(t, 1, f.recorder.Completions())
	})

	t.Run("refires after a reset", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", TargetCount: 3})

		f.tap(3, 1)
		f.counter.ResetCount()
		assert.Equal(t, 1, f.recorder.Completions())

		f.tap(3, 1)
		assert.Equal(t, 2, f.recorder.Completions())
	})

	t.Run("refires after undo leaves completion", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", TargetCount: 3})

		f.tap(3, 1)
		f.counter.Undo()
		assert.False(t, f.counter.Snapshot().Complete)

		f.tap(1, 1)
		assert.Equal(t, 2, f.recorder.Completions())
	})

	t.Run("does not clamp an existing count", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", InitialCount: 50})

		f.counter.SetGoal(10)

		s := f.counter.Snapshot()
		assert.Equal(t, 50, s.Count)
		assert.Equal(t, 0, s.Display)
		assert.True(t, s.Complete)
		assert.Equal(t, 1, f.recorder.Completions())
		assert.Empty(t, f.recorder.Changes())

		assert.Equal(t, 0, f.tap(1, 1))
	})

	t.Run("clears with a non-positive target", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", InitialCount: 5, TargetCount: 5})

		f.counter.SetGoal(0)
		s := f.counter.Snapshot()
		assert.Equal(t, 0, s.Target)
		assert.Equal(t, 5, s.Display)
		assert.False(t, s.Complete)

		assert.Equal(t, 1, f.tap(1, 1))
	})

	t.Run("loading a complete state does not fire", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "subhanallah", InitialCount: 33, TargetCount: 33})

		assert.True(t, f.counter.Snapshot().Complete)
		assert.Equal(t, 0, f.recorder.Completions())
	})
}

type blockingSpeaker struct {
	started   chan string
	cancelled chan string
}

func newBlockingSpeaker() *blockingSpeaker {
	return &blockingSpeaker{started: make(chan string, 4), cancelled: make(chan string, 4)}
}

func (s *blockingSpeaker) Speak(ctx context.Context, text string) error {
	s.started <- text
	<-ctx.Done()
	s.cancelled <- text
	return ctx.Err()
}

func TestIdentity(t *testing.T) {
	t.Run("prefers the explicit key", func(t *testing.T) {
		assert.Equal(t, "morning", tasbih.Config{Key: "morning", ItemID: "item-1"}.Identity())
		assert.Equal(t, "item-1", tasbih.Config{ItemID: "item-1"}.Identity())
	})

	t.Run("resets on identity change", func(t *testing.T) {
		speaker := newBlockingSpeaker()
		f := newFixture(t, tasbih.Config{ItemID: "a", Text: "subhan allah", TargetCount: 33}, tasbih.WithSpeaker(speaker))

		f.tap(20, 1)
		require.True(t, f.counter.Speak())
		assert.Equal(t, "subhan allah", <-speaker.started)

		assert.True(t, f.counter.Track(tasbih.Config{ItemID: "b", Text: "al hamdu lillah", InitialCount: 250, TargetCount: 300}))
		assert.Equal(t, "subhan allah", <-speaker.cancelled)

		s := f.counter.Snapshot()
		assert.Equal(t, "b", s.Identity)
		assert.Equal(t, 250, s.Count)
		assert.Equal(t, 2, s.Rounds)
		assert.Equal(t, 300, s.Target)
		assert.False(t, s.UndoAvailable)
		assert.False(t, s.Pulsing)
		assert.False(t, s.Speaking)
		assert.Equal(t, 0, f.clock.Pending())
		assert.False(t, f.counter.Undo())
	})

	t.Run("uses explicit initial rounds", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "a"})

		f.counter.Track(tasbih.Config{ItemID: "b", InitialCount: 250, InitialRounds: rounds(7)})
		assert.Equal(t, 7, f.counter.Snapshot().Rounds)
	})

	t.Run("same identity is a no-op", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{Key: "morning", ItemID: "a"})

		f.tap(3, 1)
		assert.False(t, f.counter.Track(tasbih.Config{Key: "morning", ItemID: "b", InitialCount: 99}))
		assert.Equal(t, 3, f.counter.Snapshot().Count)
		assert.True(t, f.counter.Snapshot().UndoAvailable)
	})

	t.Run("resets the debouncer", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "a"})

		f.counter.Tap(1)
		f.counter.Track(tasbih.Config{ItemID: "b"})
		assert.True(t, f.counter.Tap(1))
	})

	t.Run("stale timers do not touch the new identity", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "a"})

		f.tap(1, 1)
		f.counter.Track(tasbih.Config{ItemID: "b"})
		f.clock.Advance(tasbih.UndoWindow)

		assert.Equal(t, 0, f.recorder.Expired())
	})
}

func TestSpeech(t *testing.T) {
	t.Run("a new playback cancels the previous one", func(t *testing.T) {
		speaker := newBlockingSpeaker()
		f := newFixture(t, tasbih.Config{ItemID: "a", Text: "la ilaha illallah"}, tasbih.WithSpeaker(speaker))

		require.True(t, f.counter.Speak())
		<-speaker.started
		require.True(t, f.counter.Speak())

		assert.Equal(t, "la ilaha illallah", <-speaker.cancelled)
		<-speaker.started
		assert.True(t, f.counter.Snapshot().Speaking)

		f.counter.StopSpeaking()
		<-speaker.cancelled
		assert.False(t, f.counter.Snapshot().Speaking)
	})

	t.Run("failures reset the playing flag", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "a", Text: "allahu akbar"}, tasbih.WithSpeaker(tasbih.SpeakerFunc(
			func(ctx context.Context, text string) error {
				return errors.New("no audio device")
			},
		)))

		require.True(t, f.counter.Speak())
		assert.Eventually(t, func() bool {
			return !f.counter.Snapshot().Speaking
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, 0, f.counter.Snapshot().Count)
	})

	t.Run("needs a speaker and text", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{ItemID: "a", Text: "allahu akbar"})
		assert.False(t, f.counter.Speak())

		g := newFixture(t, tasbih.Config{ItemID: "a"}, tasbih.WithSpeaker(newBlockingSpeaker()))
		assert.False(t, g.counter.Speak())
	})
}

func TestClose(t *testing.T) {
	t.Run("cancels playback and ignores later calls", func(t *testing.T) {
		speaker := newBlockingSpeaker()
		f := newFixture(t, tasbih.Config{ItemID: "a", Text: "subhan allah"}, tasbih.WithSpeaker(speaker))

		f.tap(1, 1)
		f.counter.Speak()
		<-speaker.started

		f.counter.Close()
		assert.Equal(t, "subhan allah", <-speaker.cancelled)

		f.clock.Advance(tasbih.UndoWindow)
		assert.Equal(t, 0, f.recorder.Expired())
		assert.False(t, f.counter.Tap(1))
		assert.False(t, f.counter.Undo())
		assert.False(t, f.counter.Speak())
		assert.Len(t, f.recorder.Changes(), 1)

		f.counter.Close()
	})
}

func TestHandlers(t *testing.T) {
	t.Run("read the counter while another goroutine mutates it", func(t *testing.T) {
		entered := make(chan struct{})
		reset := make(chan struct{})
		var seen tasbih.Snapshot

		var f *fixture
		f = newFixture(t, tasbih.Config{ItemID: "tasbih"}, tasbih.OnChange(func(change tasbih.Change) {
			if change.Cause != tasbih.CauseTap {
				return
			}

			close(entered)
			select {
			case <-reset:
			case <-time.After(2 * time.Second):
			}
			seen = f.counter.Snapshot()
		}))

		done := make(chan struct{})
		go func() {
			defer close(done)
			f.counter.Tap(1)
		}()

		<-entered
		go func() {
			defer close(reset)
			f.counter.ResetCount()
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("counter deadlocked")
		}

		assert.Equal(t, 0, seen.Count)

		changes := f.recorder.Changes()
		require.Len(t, changes, 2)
		assert.Equal(t, tasbih.CauseTap, changes[0].Cause)
		assert.Equal(t, tasbih.CauseResetCount, changes[1].Cause)
	})

	t.Run("mutate the counter after the current delivery", func(t *testing.T) {
		var f *fixture
		f = newFixture(t, tasbih.Config{ItemID: "tasbih", TargetCount: 1}, tasbih.OnComplete(func(tasbih.Completion) {
			f.counter.ResetCount()
		}))

		require.True(t, f.counter.Tap(1))

		assert.Equal(t, 0, f.counter.Snapshot().Count)
		assert.Equal(t, 1, f.recorder.Completions())

		changes := f.recorder.Changes()
		require.Len(t, changes, 2)
		assert.Equal(t, tasbih.CauseTap, changes[0].Cause)
		assert.Equal(t, tasbih.CauseResetCount, changes[1].Cause)
	})

	t.Run("set goal returns the state it was applied to", func(t *testing.T) {
		f := newFixture(t, tasbih.Config{Key: "user-1.morning", ItemID: "tasbih"})

		snapshot := f.counter.SetGoal(33)
		assert.Equal(t, "user-1.morning", snapshot.Identity)
		assert.Equal(t, 33, snapshot.Target)
		assert.Equal(t, 33, snapshot.Display)
	})
}
