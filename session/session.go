// Package session connects a live tasbih.Counter to its persisted tally and
// linked goal.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ahmed11551/tasbix09-sub001/es"
	"github.com/ahmed11551/tasbix09-sub001/goals"
	"github.com/ahmed11551/tasbix09-sub001/tally"
	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

const defaultQueueSize = 64

// Item is the dhikr a session counts when its tally does not exist yet.
type Item struct {
	ID     string
	Text   string
	Target int
}

type Option func(*Session)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.log = logger
	}
}

// WithGoal links the opened tally to a goal that follows its count.
func WithGoal(service goals.Service, id es.StreamID) Option {
	return func(s *Session) {
		s.goals = service
		s.pendingGoal = &id
	}
}

func WithCounterOptions(options ...tasbih.Option) Option {
	return func(s *Session) {
		s.counterOptions = append(s.counterOptions, options...)
	}
}

func WithQueueSize(size int) Option {
	return func(s *Session) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

type job func(ctx context.Context)

// Session records every counter change through a single ordered worker.
// Persistence failures are logged and never reach the counter.
type Session struct {
	tallies tally.Service
	goals   goals.Service
	counter *tasbih.Counter
	log     zerolog.Logger

	counterOptions []tasbih.Option
	queueSize      int
	pendingGoal    *es.StreamID

	lk     sync.RWMutex
	linked map[string]es.StreamID
	jobs   chan job
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Open loads (or starts) the tally at id and returns a session counting it.
func Open(ctx context.Context, tallies tally.Service, id es.StreamID, item Item, options ...Option) (*Session, error) {
	s := &Session{
		tallies:   tallies,
		log:       log.Logger,
		queueSize: defaultQueueSize,
		linked:    map[string]es.StreamID{},
		done:      make(chan struct{}),
	}

	for _, option := range options {
		option(s)
	}

	if s.pendingGoal != nil {
		s.linked[id.Key] = *s.pendingGoal
	}

	entity, err := s.open(ctx, id, item)
	if err != nil {
		return nil, err
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.jobs = make(chan job, s.queueSize)

	counterOptions := append([]tasbih.Option{
		tasbih.WithLogger(s.log),
		tasbih.OnChange(s.changed),
		tasbih.OnComplete(s.completed),
	}, s.counterOptions...)
	s.counter = tasbih.NewCounter(entity.State.Config(id.Key), counterOptions...)

	go s.run()

	return s, nil
}

func (s *Session) Counter() *tasbih.Counter {
	return s.counter
}

func (s *Session) Snapshot() tasbih.Snapshot {
	return s.counter.Snapshot()
}

// Switch moves the counter to another tally, starting it from item when it
// does not exist. Writes queued for the previous tally are applied first.
func (s *Session) Switch(ctx context.Context, id es.StreamID, item Item) error {
	var entity es.Entity[tally.Tally]
	var err error

	waited := s.wait(ctx, func(ctx context.Context) {
		entity, err = s.open(ctx, id, item)
	})
	if waited != nil {
		return waited
	}
	if err != nil {
		return err
	}

	s.counter.Track(entity.State.Config(id.Key))
	return nil
}

// SetGoal changes the counter's goal and records it on the current tally.
func (s *Session) SetGoal(target int) {
	id := s.tallyOf(s.counter.SetGoal(target).Identity)
	s.enqueue(func(ctx context.Context) {
		s.persist(ctx, id, tally.SetGoal{Target: max(0, target)})
	})
}

// Close stops the counter, applies every queued write and stops the worker.
func (s *Session) Close() {
	s.counter.Close()

	s.lk.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.lk.Unlock()

	<-s.done
	s.cancel()
}

func (s *Session) open(ctx context.Context, id es.StreamID, item Item) (es.Entity[tally.Tally], error) {
	entity, err := s.tallies.Load(ctx, id)
	if err != nil {
		return entity, err
	}

	if entity.Initialized() {
		return entity, nil
	}

	s.log.Info().Str("tally", id.String()).Str("item", item.ID).Msg("starting tally")

	return s.tallies.Execute(ctx, id, tally.Start{Item: item.ID, Text: item.Text, Target: item.Target})
}

func (s *Session) tallyOf(identity string) es.StreamID {
	return es.StreamID{Kind: tally.Kind, Key: identity}
}

func (s *Session) changed(change tasbih.Change) {
	id := s.tallyOf(change.Identity)
	goal, linked := s.goalOf(change.Identity)

	s.enqueue(func(ctx context.Context) {
		s.persist(ctx, id, tally.Record{Count: change.Count, Delta: change.Delta, Rounds: change.Rounds, Cause: change.Cause})

		if linked {
			s.progress(ctx, goal, change.Count)
		}
	})
}

func (s *Session) completed(completion tasbih.Completion) {
	id := s.tallyOf(completion.Identity)

	s.enqueue(func(ctx context.Context) {
		s.persist(ctx, id, tally.Complete{Count: completion.Count, Target: completion.Target})
	})
}

func (s *Session) goalOf(identity string) (es.StreamID, bool) {
	s.lk.RLock()
	defer s.lk.RUnlock()

	id, ok := s.linked[identity]
	return id, ok && s.goals != nil
}

func (s *Session) persist(ctx context.Context, id es.StreamID, command es.Command) {
	err := conflictRetry(ctx, func() error {
		_, err := s.tallies.Execute(ctx, id, command)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("tally", id.String()).Str("command", string(es.CommandNameOf(command))).Msg("failed to persist tally change")
	}
}

func (s *Session) progress(ctx context.Context, id es.StreamID, count int) {
	err := conflictRetry(ctx, func() error {
		_, err := s.goals.Execute(ctx, id, goals.Progress{Count: count})
		return err
	})

	var rejected es.CommandRejected
	switch {
	case err == nil:
	case errors.As(err, &rejected):
		s.log.Debug().Str("goal", id.String()).Str("reason", rejected.Reason).Msg("goal progress ignored")
	default:
		s.log.Error().Err(err).Str("goal", id.String()).Msg("failed to update goal progress")
	}
}

func conflictRetry(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(10*time.Millisecond),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, es.RevisionConflict)
		}),
		retry.LastErrorOnly(true),
	)
}

func (s *Session) enqueue(j job) bool {
	s.lk.RLock()
	defer s.lk.RUnlock()

	if s.closed {
		return false
	}

	s.jobs <- j
	return true
}

// wait runs j on the worker and blocks until it has finished.
func (s *Session) wait(ctx context.Context, j job) error {
	finished := make(chan struct{})
	queued := s.enqueue(func(context.Context) {
		defer close(finished)
		j(ctx)
	})
	if !queued {
		return errors.New("session is closed")
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) run() {
	defer close(s.done)

	for j := range s.jobs {
		j(s.ctx)
	}
}
