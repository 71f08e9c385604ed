package goals

import (
	"context"
	"time"

	"github.com/google/wire"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

type Dependencies struct {
	Now func() time.Time
}

func SystemDependencies() Dependencies {
	return Dependencies{Now: time.Now}
}

func Reducers() es.Reducers[Goal] {
	var created es.ReducerFunc[Goal, Created] = func(state *Goal, evt *Created) error {
		*state = Goal{Title: evt.Title, Tally: evt.Tally, Target: evt.Target, Status: Active, Created: evt.At}
		return nil
	}

	var progressed es.ReducerFunc[Goal, Progressed] = func(state *Goal, evt *Progressed) error {
		state.Progress = evt.Progress
		return nil
	}

	var achieved es.ReducerFunc[Goal, GoalAchieved] = func(state *Goal, evt *GoalAchieved) error {
		state.Status = Achieved
		state.Closed = evt.At
		return nil
	}

	var abandoned es.ReducerFunc[Goal, GoalAbandoned] = func(state *Goal, evt *GoalAbandoned) error {
		state.Status = Abandoned
		state.Closed = evt.At
		return nil
	}

	return es.Reducers[Goal]{
		es.EventTypeOf(Created{}):       created,
		es.EventTypeOf(Progressed{}):    progressed,
		es.EventTypeOf(GoalAchieved{}):  achieved,
		es.EventTypeOf(GoalAbandoned{}): abandoned,
	}
}

func create(deps Dependencies) es.Handler[Goal] {
	var handler es.HandlerFunc[Goal, Create] = func(ctx context.Context, cmd Create, state es.Entity[Goal], publish es.EventPublisher) error {
		if state.Initialized() {
			return es.Reject(cmd, "goal already exists")
		}

		return publish(ctx, state.ID, es.Options(es.WithExpectedRevision(state.Revision)), Created{
			Title:  cmd.Title,
			Tally:  cmd.Tally,
			Target: cmd.Target,
			At:     deps.Now(),
		})
	}

	return handler
}

func progress(deps Dependencies) es.Handler[Goal] {
	var handler es.HandlerFunc[Goal, Progress] = func(ctx context.Context, cmd Progress, state es.Entity[Goal], publish es.EventPublisher) error {
		if !state.Initialized() {
			return es.Reject(cmd, "goal does not exist")
		}

		goal := state.State
		if goal.Status != Active {
			return es.Reject(cmd, "goal is "+string(goal.Status))
		}

		value := min(goal.Target, cmd.Count)
		if value == goal.Progress {
			return nil
		}

		events := []es.DomainEvent{Progressed{Progress: value}}
		if value == goal.Target {
			events = append(events, GoalAchieved{At: deps.Now()})
		}

		return publish(ctx, state.ID, es.Options(es.WithExpectedRevision(state.Revision)), events...)
	}

	return handler
}

func abandon(deps Dependencies) es.Handler[Goal] {
	var handler es.HandlerFunc[Goal, Abandon] = func(ctx context.Context, cmd Abandon, state es.Entity[Goal], publish es.EventPublisher) error {
		if !state.Initialized() || state.State.Status != Active {
			return es.Reject(cmd, "only active goals can be abandoned")
		}

		return publish(ctx, state.ID, es.Options(es.WithExpectedRevision(state.Revision)), GoalAbandoned{At: deps.Now()})
	}

	return handler
}

func Descriptor(deps Dependencies) es.Descriptor[Goal] {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return es.Descriptor[Goal]{
		Reducers: Reducers(),
		Handlers: es.Handlers[Goal]{
			es.CommandNameOf(Create{}):   create(deps),
			es.CommandNameOf(Progress{}): progress(deps),
			es.CommandNameOf(Abandon{}):  abandon(deps),
		},
	}
}

type Service es.Service[Goal]

func NewService(store es.EventStore, deps Dependencies) Service {
	return Descriptor(deps).Service(store)
}

var Set = wire.NewSet(SystemDependencies, NewService)
