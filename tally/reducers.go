package tally

import (
	"github.com/ahmed11551/tasbix09-sub001/es"
	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

func Reducers() es.Reducers[Tally] {
	var started es.ReducerFunc[Tally, Started] = func(state *Tally, evt *Started) error {
		*state = Tally{
			Item:       evt.Item,
			Text:       evt.Text,
			Count:      evt.Count,
			Rounds:     evt.Rounds,
			Target:     evt.Target,
			LastChange: evt.At,
		}
		return nil
	}

	var recorded es.ReducerFunc[Tally, Recorded] = func(state *Tally, evt *Recorded) error {
		state.Count = evt.Count
		state.Rounds = evt.Rounds
		state.LastChange = evt.At
		switch evt.Cause {
		case tasbih.CauseTap:
			state.Taps++
		case tasbih.CauseResetAll:
			state.Target = 0
		}
		return nil
	}

	var goalSet es.ReducerFunc[Tally, GoalSet] = func(state *Tally, evt *GoalSet) error {
		state.Target = evt.Target
		return nil
	}

	var completed es.ReducerFunc[Tally, Completed] = func(state *Tally, evt *Completed) error {
		state.Completions++
		state.LastCompleted = evt.At
		return nil
	}

	return es.Reducers[Tally]{
		es.EventTypeOf(Started{}):   started,
		es.EventTypeOf(Recorded{}):  recorded,
		es.EventTypeOf(GoalSet{}):   goalSet,
		es.EventTypeOf(Completed{}): completed,
	}
}
