package es

type EventID string

func (id EventID) String() string {
	return string(id)
}

type EventType string

func (et EventType) String() string {
	return string(et)
}

type CorrelationID string

func (id CorrelationID) String() string {
	return string(id)
}

type DomainEvent any

type EventTyped interface {
	EventType() EventType
}

func EventTypeOf(event DomainEvent) EventType {
	if typed, ok := event.(EventTyped); ok {
		return typed.EventType()
	}

	return EventType(NameOf(event))
}

type Metadata struct {
	CausationID   EventID       `json:"causationId,omitempty"`
	CorrelationID CorrelationID `json:"correlationId,omitempty"`
}

type RecordedEvent struct {
	StreamID  StreamID  `json:"stream"`
	Revision  Revision  `json:"revision"`
	EventID   EventID   `json:"id"`
	EventType EventType `json:"type"`
	Timestamp Timestamp `json:"timestamp"`
	Metadata  Metadata  `json:"metadata"`
	Data      Data      `json:"data"`
}

func (e *RecordedEvent) Decode(value any) error {
	return UnmarshalData(e.Data, value)
}
