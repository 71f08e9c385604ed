// Package tasbih implements a dhikr tap counter with rounds, an optional goal,
// a short undo window and identity tracking.
package tasbih

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	RoundSize      = 100
	DebounceWindow = 100 * time.Millisecond
	UndoWindow     = 5 * time.Second
	PulseDuration  = 150 * time.Millisecond
)

type Cause string

const (
	CauseTap        Cause = "tap"
	CauseUndo       Cause = "undo"
	CauseResetCount Cause = "reset-count"
	CauseResetAll   Cause = "reset-all"
)

type Change struct {
	Identity string `json:"identity"`
	Count    int    `json:"count"`
	Delta    int    `json:"delta"`
	Rounds   int    `json:"rounds"`
	Cause    Cause  `json:"cause"`
}

type Completion struct {
	Identity string `json:"identity"`
	Count    int    `json:"count"`
	Target   int    `json:"target"`
}

// Config describes the item being counted. The identity is Key when set,
// otherwise ItemID.
type Config struct {
	Key           string
	ItemID        string
	Text          string
	InitialCount  int
	InitialRounds *int
	TargetCount   int
}

func (c Config) Identity() string {
	if c.Key != "" {
		return c.Key
	}

	return c.ItemID
}

type action struct {
	delta int
	at    time.Time
}

type Snapshot struct {
	Identity      string  `json:"identity"`
	Text          string  `json:"text,omitempty"`
	Count         int     `json:"count"`
	Rounds        int     `json:"rounds"`
	Target        int     `json:"target,omitempty"`
	Display       int     `json:"display"`
	Percent       float64 `json:"percent"`
	Complete      bool    `json:"complete"`
	UndoAvailable bool    `json:"undoAvailable"`
	UndoDelta     int     `json:"undoDelta,omitempty"`
	Pulsing       bool    `json:"pulsing"`
	Speaking      bool    `json:"speaking"`
}

// Counter is safe for concurrent use. Handlers run outside the state lock in
// mutation order and may call back into the counter. Notifications raised
// from a handler are delivered after the one being handled.
type Counter struct {
	lk sync.Mutex

	queue    sync.Mutex
	pending  []func()
	draining bool

	clock   Clock
	speaker Speaker
	log     zerolog.Logger

	onChange      []func(Change)
	onComplete    []func(Completion)
	onUndoExpired []func()

	identity string
	text     string
	count    int
	rounds   int
	target   int
	last     *action

	debounce  *rate.Limiter
	completed bool

	undoTimer  Timer
	undoGen    uint64
	pulseTimer Timer
	pulseGen   uint64
	pulsing    bool

	speechCancel context.CancelFunc
	speechGen    uint64
	speaking     bool
	playback     sync.WaitGroup

	closed bool
}

func NewCounter(cfg Config, options ...Option) *Counter {
	c := &Counter{
		clock: SystemClock,
		log:   log.Logger,
	}

	for _, option := range options {
		option(c)
	}

	c.load(cfg)

	return c
}

func newDebouncer() *rate.Limiter {
	return rate.NewLimiter(rate.Every(DebounceWindow), 1)
}

func (c *Counter) load(cfg Config) {
	c.identity = cfg.Identity()
	c.text = cfg.Text
	c.count = max(0, cfg.InitialCount)
	c.rounds = roundsOf(c.count)
	if cfg.InitialRounds != nil {
		c.rounds = max(0, *cfg.InitialRounds)
	}
	c.target = max(0, cfg.TargetCount)
	c.debounce = newDebouncer()
	c.completed = c.progress().Complete()
}

func (c *Counter) progress() Progress {
	return Progress{Count: c.count, Target: c.target}
}

// Tap applies delta after clamping it against the goal and zero. Taps that
// clamp to nothing or arrive within DebounceWindow of the previous accepted
// tap are dropped.
func (c *Counter) Tap(delta int) bool {
	c.lk.Lock()
	if c.closed {
		c.lk.Unlock()
		return false
	}

	effective := c.progress().Clamp(delta)
	if effective == 0 {
		c.lk.Unlock()
		return false
	}

	now := c.clock.Now()
	if !c.debounce.AllowN(now, 1) {
		identity := c.identity
		c.lk.Unlock()
		c.log.Debug().Str("identity", identity).Int("delta", delta).Msg("tap debounced")
		return false
	}

	c.count += effective
	if rounds := roundsOf(c.count); rounds > c.rounds {
		c.rounds = rounds
	}
	c.last = &action{delta: effective, at: now}
	c.armUndo()
	c.armPulse()

	c.publish(CauseTap, effective)
	return true
}

// Undo reverses the last tap while the undo window is open.
func (c *Counter) Undo() bool {
	c.lk.Lock()
	if c.closed || c.last == nil {
		c.lk.Unlock()
		return false
	}

	before := c.count
	c.count = max(0, c.count-c.last.delta)
	c.rounds = roundsOf(c.count)
	c.clearUndo()

	c.publish(CauseUndo, c.count-before)
	return true
}

// ResetCount zeroes the count, keeping rounds and the goal.
func (c *Counter) ResetCount() {
	c.lk.Lock()
	if c.closed {
		c.lk.Unlock()
		return
	}

	before := c.count
	c.count = 0
	c.clearUndo()

	c.publish(CauseResetCount, -before)
}

// ResetAll zeroes the count and rounds and clears the goal.
func (c *Counter) ResetAll() {
	c.lk.Lock()
	if c.closed {
		c.lk.Unlock()
		return
	}

	before := c.count
	c.count = 0
	c.rounds = 0
	c.target = 0
	c.clearUndo()

	c.publish(CauseResetAll, -before)
}

// SetGoal replaces the goal; a target of zero or less clears it. The current
// count is not clamped to the new target. It returns the state the goal was
// applied to.
func (c *Counter) SetGoal(target int) Snapshot {
	c.lk.Lock()
	if c.closed {
		defer c.lk.Unlock()
		return c.snapshot()
	}

	c.target = max(0, target)
	snapshot := c.snapshot()
	if completion := c.settle(); completion != nil {
		c.notify(func() {
			c.complete(completion)
		})
	}
	c.lk.Unlock()

	c.deliver()
	return snapshot
}

// Track switches the counter to cfg's identity. When the identity differs
// from the current one, playback is cancelled, timers are stopped and all
// state is reloaded from cfg. It reports whether a reset happened.
func (c *Counter) Track(cfg Config) bool {
	c.lk.Lock()
	defer c.lk.Unlock()

	if c.closed || cfg.Identity() == c.identity {
		return false
	}

	previous := c.identity
	c.cancelSpeech()
	c.clearUndo()
	c.stopPulse()
	c.load(cfg)

	c.log.Debug().Str("from", previous).Str("to", c.identity).Int("count", c.count).Msg("counter identity changed")
	return true
}

// Speak starts reading the current item's text, cancelling any playback
// already in flight.
func (c *Counter) Speak() bool {
	c.lk.Lock()
	if c.closed || c.speaker == nil || c.text == "" {
		c.lk.Unlock()
		return false
	}

	c.cancelSpeech()
	ctx, cancel := context.WithCancel(context.Background())
	c.speechCancel = cancel
	c.speechGen++
	generation := c.speechGen
	c.speaking = true
	text, identity := c.text, c.identity
	c.playback.Add(1)
	c.lk.Unlock()

	go func() {
		defer c.playback.Done()
		defer cancel()

		if err := c.speaker.Speak(ctx, text); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Warn().Err(err).Str("identity", identity).Msg("speech playback failed")
		}

		c.lk.Lock()
		if generation == c.speechGen {
			c.speaking = false
			c.speechCancel = nil
		}
		c.lk.Unlock()
	}()

	return true
}

func (c *Counter) StopSpeaking() {
	c.lk.Lock()
	defer c.lk.Unlock()

	c.cancelSpeech()
}

// Close stops all timers, cancels playback and waits for the playback
// goroutine to exit. Operations after Close are no-ops.
func (c *Counter) Close() {
	c.lk.Lock()
	if !c.closed {
		c.closed = true
		c.cancelSpeech()
		c.clearUndo()
		c.stopPulse()
	}
	c.lk.Unlock()

	c.playback.Wait()
}

func (c *Counter) Snapshot() Snapshot {
	c.lk.Lock()
	defer c.lk.Unlock()

	return c.snapshot()
}

func (c *Counter) snapshot() Snapshot {
	p := c.progress()
	s := Snapshot{
		Identity:      c.identity,
		Text:          c.text,
		Count:         c.count,
		Rounds:        c.rounds,
		Target:        c.target,
		Display:       p.Display(),
		Percent:       p.Percent(),
		Complete:      p.Complete(),
		UndoAvailable: c.last != nil,
		Pulsing:       c.pulsing,
		Speaking:      c.speaking,
	}
	if c.last != nil {
		s.UndoDelta = c.last.delta
	}

	return s
}

// publish is called with the state lock held. It queues the notifications
// and releases the lock before delivering them.
func (c *Counter) publish(cause Cause, delta int) {
	change := Change{Identity: c.identity, Count: c.count, Delta: delta, Rounds: c.rounds, Cause: cause}
	completion := c.settle()

	c.notify(func() {
		for _, handler := range c.onChange {
			handler(change)
		}
		c.complete(completion)
	})
	c.lk.Unlock()

	c.deliver()
}

// notify queues a delivery. Callers hold the state lock so the queue keeps
// mutation order.
func (c *Counter) notify(delivery func()) {
	c.queue.Lock()
	defer c.queue.Unlock()

	c.pending = append(c.pending, delivery)
}

// deliver runs queued deliveries without holding any lock. One goroutine
// drains at a time; the others leave their deliveries to it.
func (c *Counter) deliver() {
	c.queue.Lock()
	if c.draining {
		c.queue.Unlock()
		return
	}
	c.draining = true

	for len(c.pending) > 0 {
		delivery := c.pending[0]
		c.pending[0] = nil
		c.pending = c.pending[1:]

		c.queue.Unlock()
		delivery()
		c.queue.Lock()
	}

	c.draining = false
	c.queue.Unlock()
}

func (c *Counter) complete(completion *Completion) {
	if completion == nil {
		return
	}

	for _, handler := range c.onComplete {
		handler(*completion)
	}
}

// settle updates the completion latch and returns a completion only on the
// transition into the complete state.
func (c *Counter) settle() *Completion {
	complete := c.progress().Complete()
	fire := complete && !c.completed
	c.completed = complete

	if !fire {
		return nil
	}

	return &Completion{Identity: c.identity, Count: c.count, Target: c.target}
}

func (c *Counter) armUndo() {
	if c.undoTimer != nil {
		c.undoTimer.Stop()
	}

	c.undoGen++
	generation := c.undoGen
	c.undoTimer = c.clock.AfterFunc(UndoWindow, func() {
		c.expireUndo(generation)
	})
}

func (c *Counter) clearUndo() {
	if c.undoTimer != nil {
		c.undoTimer.Stop()
		c.undoTimer = nil
	}

	c.undoGen++
	c.last = nil
}

func (c *Counter) expireUndo(generation uint64) {
	c.lk.Lock()
	if c.closed || generation != c.undoGen || c.last == nil {
		c.lk.Unlock()
		return
	}

	c.last = nil
	c.undoTimer = nil

	c.notify(func() {
		for _, handler := range c.onUndoExpired {
			handler()
		}
	})
	c.lk.Unlock()

	c.deliver()
}

func (c *Counter) armPulse() {
	if c.pulseTimer != nil {
		c.pulseTimer.Stop()
	}

	c.pulseGen++
	generation := c.pulseGen
	c.pulsing = true
	c.pulseTimer = c.clock.AfterFunc(PulseDuration, func() {
		c.lk.Lock()
		defer c.lk.Unlock()

		if generation == c.pulseGen {
			c.pulsing = false
			c.pulseTimer = nil
		}
	})
}

func (c *Counter) stopPulse() {
	if c.pulseTimer != nil {
		c.pulseTimer.Stop()
		c.pulseTimer = nil
	}

	c.pulseGen++
	c.pulsing = false
}

func (c *Counter) cancelSpeech() {
	if c.speechCancel != nil {
		c.speechCancel()
		c.speechCancel = nil
	}

	c.speechGen++
	c.speaking = false
}
