package tally

import (
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

func Descriptor(deps Dependencies) es.Descriptor[Tally] {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return es.Descriptor[Tally]{
		Reducers: Reducers(),
		Handlers: es.Handlers[Tally]{
			es.CommandNameOf(Start{}):    start(deps),
			es.CommandNameOf(Record{}):   record(deps),
			es.CommandNameOf(SetGoal{}):  setGoal(),
			es.CommandNameOf(Complete{}): complete(deps),
		},
	}
}

type Service es.Service[Tally]

func NewService(store es.EventStore, deps Dependencies) Service {
	return Descriptor(deps).Service(store)
}

var Set = wire.NewSet(SystemDependencies, NewService)
