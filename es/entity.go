package es

type EntityType string

func (et EntityType) String() string {
	return string(et)
}

type EntityTyped interface {
	EntityType() EntityType
}

func EntityTypeOf(state any) EntityType {
	if typed, ok := state.(EntityTyped); ok {
		return typed.EntityType()
	}

	return EntityType(NameOf(state))
}

type Entity[T any] struct {
	ID       StreamID
	Revision Revision
	Type     EntityType
	State    *T
}

func (e *Entity[T]) Initialized() bool {
	return e.Revision != InitialRevision
}
