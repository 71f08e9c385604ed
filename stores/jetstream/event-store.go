package jetstream

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ahmed11551/tasbix09-sub001/es"
	"github.com/ahmed11551/tasbix09-sub001/internal"
)

const prefix = "change-set."

type EventRecord struct {
	StreamID  es.StreamID  `json:"stream"`
	EventID   es.EventID   `json:"id"`
	EventType es.EventType `json:"type"`
	Data      es.Data      `json:"data"`
	Metadata  es.Metadata  `json:"metadata"`
}

type ChangeSet struct {
	Events []EventRecord `json:"events"`
}

// EventStore keeps one JetStream message per change set; the message's
// per-subject sequence provides optimistic concurrency.
type EventStore struct {
	name       string
	manager    nats.JetStreamManager
	stream     nats.JetStreamContext
	clock      Clock
	id         IDGenerator
	marshaller Marshaller
}

func NewEventStore(name string, connection *nats.Conn, options ...EventStoreOption) (*EventStore, error) {
	stream, err := connection.JetStream()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to open jetstream context")
	}

	_, err = stream.AddStream(&nats.StreamConfig{
		Name:        name,
		Description: "change set stream for " + name,
		Subjects:    []string{prefix + ">"},
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil, pkgerrors.Wrapf(err, "failed to add stream %s", name)
	}

	store := &EventStore{
		name:    name,
		manager: stream,
		stream:  stream,
	}

	for _, option := range options {
		option(store)
	}

	if store.clock == nil {
		store.clock = systemClock{}
	}

	if store.id == nil {
		store.id = &ulidGenerator{clock: store.clock, revision: es.NewRevisionGenerator()}
	}

	if store.marshaller == nil {
		store.marshaller = JSONMarshaller{}
	}

	return store, nil
}

func subject(id es.StreamID) string {
	return prefix + id.Encode().String()
}

func (store *EventStore) Publish(ctx context.Context, id es.StreamID, options es.PublishOptions, events ...es.DomainEvent) error {
	if len(events) == 0 {
		return es.NoEvents
	}

	records := make([]EventRecord, len(events))
	for index, event := range events {
		data, err := es.MarshalData(event)
		if err != nil {
			return pkgerrors.Wrap(err, "failed to marshal event")
		}

		records[index] = EventRecord{
			StreamID:  id,
			EventID:   store.id.Create(),
			EventType: es.EventTypeOf(event),
			Data:      data,
			Metadata:  options.Metadata,
		}
	}

	encoded, err := store.marshaller.Marshal(ChangeSet{Events: records})
	if err != nil {
		return err
	}

	opts := []nats.PubOpt{nats.Context(ctx)}
	switch expected := options.ExpectedRevision; expected {
	case "":
	case es.InitialRevision:
		opts = append(opts, nats.ExpectLastSequencePerSubject(0))
	default:
		sequence, err := internal.SequenceOf(expected)
		if err != nil {
			return pkgerrors.Wrapf(err, "invalid expected revision %q", expected)
		}

		opts = append(opts, nats.ExpectLastSequencePerSubject(sequence))
	}

	_, err = store.stream.Publish(subject(id), encoded, opts...)
	if err != nil {
		var api *nats.APIError
		if errors.As(err, &api) && api.ErrorCode == nats.JSErrCodeStreamWrongLastSequence {
			return es.RevisionConflict
		}

		return err
	}

	return nil
}

func (store *EventStore) Load(ctx context.Context, id es.StreamID) (es.Stream, error) {
	events, err := store.read(ctx, subject(id))
	if err != nil {
		return es.Stream{}, err
	}

	return es.Stream{ID: id, Events: events, Revision: es.RevisionOf(events)}, nil
}

func (store *EventStore) latest(ctx context.Context, subject string) (uint64, bool, error) {
	msg, err := store.manager.GetLastMsg(store.name, subject, nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrMsgNotFound) {
			return 0, false, nil
		}

		return 0, false, err
	}

	return msg.Sequence, true, nil
}

func (store *EventStore) read(ctx context.Context, subject string) ([]es.RecordedEvent, error) {
	latest, found, err := store.latest(ctx, subject)
	if err != nil || !found {
		return nil, err
	}

	subscription, err := store.stream.SubscribeSync(subject, nats.DeliverAll(), nats.OrderedConsumer())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := subscription.Unsubscribe(); err != nil {
			log.Err(err).Msg("ephemeral stream subscription failed to unsubscribe cleanly")
		}
	}()

	var events []es.RecordedEvent
	for {
		msg, err := subscription.NextMsgWithContext(ctx)
		if err != nil {
			return nil, err
		}

		metadata, err := msg.Metadata()
		if err != nil {
			return nil, err
		}

		recorded, err := store.decode(msg.Data, metadata)
		if err != nil {
			return nil, err
		}

		events = append(events, recorded...)

		if metadata.Sequence.Stream >= latest {
			break
		}
	}

	return events, nil
}

func (store *EventStore) decode(data []byte, metadata *nats.MsgMetadata) ([]es.RecordedEvent, error) {
	cs := ChangeSet{}
	if err := store.marshaller.Unmarshal(data, &cs); err != nil {
		return nil, err
	}

	ts := ulid.Timestamp(metadata.Timestamp)
	timestamp := es.TimestampFromTime(metadata.Timestamp)

	result := make([]es.RecordedEvent, 0, len(cs.Events))
	for i, event := range cs.Events {
		revision, err := internal.SequenceRevision(ts, metadata.Sequence.Stream, uint16(i))
		if err != nil {
			return nil, err
		}

		result = append(result, es.RecordedEvent{
			StreamID:  event.StreamID,
			EventID:   event.EventID,
			Revision:  revision,
			Timestamp: timestamp,
			EventType: event.EventType,
			Data:      event.Data,
			Metadata:  event.Metadata,
		})
	}

	return result, nil
}
