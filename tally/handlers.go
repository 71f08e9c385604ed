package tally

import (
	"context"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

func start(deps Dependencies) es.Handler[Tally] {
	var handler es.HandlerFunc[Tally, Start] = func(ctx context.Context, cmd Start, state es.Entity[Tally], publish es.EventPublisher) error {
		if state.Initialized() {
			return nil
		}

		return publish(ctx, state.ID, es.Options(es.WithExpectedRevision(state.Revision)), Started{
			Item:   cmd.Item,
			Text:   cmd.Text,
			Count:  cmd.Count,
			Rounds: cmd.Rounds,
			Target: cmd.Target,
			At:     deps.Now(),
		})
	}

	return handler
}

func record(deps Dependencies) es.Handler[Tally] {
	var handler es.HandlerFunc[Tally, Record] = func(ctx context.Context, cmd Record, state es.Entity[Tally], publish es.EventPublisher) error {
		if !state.Initialized() {
			return es.Reject(cmd, "tally has not been started")
		}

		return publish(ctx, state.ID, es.Options(es.WithExpectedRevision(state.Revision)), Recorded{
			Count:  cmd.Count,
			Delta:  cmd.Delta,
			Rounds: cmd.Rounds,
			Cause:  cmd.Cause,
			At:     deps.Now(),
		})
	}

	return handler
}

func setGoal() es.Handler[Tally] {
	var handler es.HandlerFunc[Tally, SetGoal] = func(ctx context.Context, cmd SetGoal, state es.Entity[Tally], publish es.EventPublisher) error {
		if !state.Initialized() {
			return es.Reject(cmd, "tally has not been started")
		}

		if state.State.Target == cmd.Target {
			return nil
		}

		return publish(ctx, state.ID, es.Options(es.WithExpectedRevision(state.Revision)), GoalSet{Target: cmd.Target})
	}

	return handler
}

func complete(deps Dependencies) es.Handler[Tally] {
	var handler es.HandlerFunc[Tally, Complete] = func(ctx context.Context, cmd Complete, state es.Entity[Tally], publish es.EventPublisher) error {
		if !state.Initialized() {
			return es.Reject(cmd, "tally has not been started")
		}

		if cmd.Count < cmd.Target {
			return es.Reject(cmd, "count has not reached the target")
		}

		return publish(ctx, state.ID, es.Options(es.WithExpectedRevision(state.Revision)), Completed{
			Count:  cmd.Count,
			Target: cmd.Target,
			At:     deps.Now(),
		})
	}

	return handler
}
