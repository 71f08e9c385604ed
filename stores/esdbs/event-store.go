package esdbs

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/EventStore/EventStore-Client-Go/esdb"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

type EventStoreOption func(*EventStore)

const defaultPageSize = 97

func PageSize(size int) EventStoreOption {
	return func(store *EventStore) {
		if size <= 0 {
			size = defaultPageSize
		}

		store.pageSize = size
	}
}

type EventStore struct {
	db       *esdb.Client
	pageSize int
}

func NewEventStore(client *esdb.Client, options ...EventStoreOption) *EventStore {
	store := &EventStore{
		db:       client,
		pageSize: defaultPageSize,
	}

	for _, option := range options {
		option(store)
	}

	return store
}

// Connect parses an esdb:// connection string and returns a store using it.
func Connect(connection string, options ...EventStoreOption) (*EventStore, error) {
	settings, err := esdb.ParseConnectionString(connection)
	if err != nil {
		return nil, errors.Wrap(err, "invalid eventstore connection string")
	}

	client, err := esdb.NewClient(settings)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create eventstore client")
	}

	return NewEventStore(client, options...), nil
}

func (store *EventStore) Close() error {
	return store.db.Close()
}

// revisionOf maps an esdb event number onto a fixed width revision. Event
// numbers start at zero, so they are shifted by one to keep zero as the
// initial revision.
func revisionOf(number uint64) es.Revision {
	return es.Revision(fmt.Sprintf("%026x", number+1))
}

func expectedRevision(revision es.Revision) (esdb.ExpectedRevision, error) {
	switch revision {
	case "":
		return esdb.Any{}, nil
	case es.InitialRevision:
		return esdb.NoStream{}, nil
	}

	number, err := strconv.ParseUint(revision.String(), 16, 64)
	if err != nil || number == 0 {
		return nil, errors.Errorf("invalid expected revision %q", revision)
	}

	return esdb.Revision(number - 1), nil
}

func (store *EventStore) Publish(ctx context.Context, id es.StreamID, options es.PublishOptions, events ...es.DomainEvent) error {
	if len(events) == 0 {
		return es.NoEvents
	}

	metadata := map[string]string{}
	if options.CorrelationID != "" {
		metadata["$correlationId"] = options.CorrelationID.String()
	}
	if options.CausationID != "" {
		metadata["$causationId"] = options.CausationID.String()
	}

	var md []byte
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return errors.Wrap(err, "failed to marshal metadata")
		}
		md = encoded
	}

	data := make([]esdb.EventData, len(events))
	for i, event := range events {
		encoded, err := json.Marshal(event)
		if err != nil {
			return errors.Wrap(err, "failed to marshal event")
		}

		data[i] = esdb.EventData{
			ContentType: esdb.JsonContentType,
			EventType:   es.EventTypeOf(event).String(),
			Data:        encoded,
			Metadata:    md,
		}
	}

	revision, err := expectedRevision(options.ExpectedRevision)
	if err != nil {
		return err
	}

	_, err = store.db.AppendToStream(ctx, id.Encode().String(), esdb.AppendToStreamOptions{ExpectedRevision: revision}, data...)
	if err != nil {
		if errors.Is(err, esdb.ErrWrongExpectedStreamRevision) {
			return es.RevisionConflict
		}

		return errors.Wrap(err, "failed to append to stream")
	}

	return nil
}

func (store *EventStore) Load(ctx context.Context, id es.StreamID) (es.Stream, error) {
	var events []es.RecordedEvent

	var position esdb.StreamPosition = esdb.Start{}
	for {
		page, last, err := store.read(ctx, id, position)
		if err != nil {
			return es.Stream{}, err
		}

		events = append(events, page...)
		if len(page) < store.pageSize {
			break
		}

		position = last
	}

	return es.Stream{ID: id, Events: events, Revision: es.RevisionOf(events)}, nil
}

func (store *EventStore) read(ctx context.Context, id es.StreamID, from esdb.StreamPosition) ([]es.RecordedEvent, esdb.StreamPosition, error) {
	if revision, ok := from.(esdb.StreamRevision); ok {
		from = esdb.StreamRevision{Value: revision.Value + 1}
	}

	stream, err := store.db.ReadStream(ctx, id.Encode().String(), esdb.ReadStreamOptions{From: from}, uint64(store.pageSize))
	if err != nil {
		if errors.Is(err, esdb.ErrStreamNotFound) || errors.Is(err, io.EOF) {
			return nil, esdb.End{}, nil
		}

		return nil, esdb.End{}, errors.Wrap(err, "failed to read stream")
	}
	defer stream.Close()

	var events []es.RecordedEvent
	var last esdb.StreamPosition = esdb.End{}

	for {
		resolved, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, esdb.ErrStreamNotFound) {
			return nil, esdb.End{}, nil
		}
		if err != nil {
			return nil, esdb.End{}, errors.Wrap(err, "failed to read event")
		}

		event := resolved.OriginalEvent()

		var metadata map[string]string
		if len(event.UserMetadata) > 0 {
			if err := json.Unmarshal(event.UserMetadata, &metadata); err != nil {
				return nil, esdb.End{}, errors.Wrap(err, "failed to unmarshal metadata")
			}
		}

		events = append(events, es.RecordedEvent{
			StreamID:  id,
			EventID:   es.EventID(event.EventID.String()),
			Revision:  revisionOf(event.EventNumber),
			Timestamp: es.TimestampFromTime(event.CreatedDate),
			EventType: es.EventType(event.EventType),
			Metadata: es.Metadata{
				CorrelationID: es.CorrelationID(metadata["$correlationId"]),
				CausationID:   es.EventID(metadata["$causationId"]),
			},
			Data: es.Data{Encoding: event.ContentType, Data: event.Data},
		})

		last = esdb.Revision(event.EventNumber)
	}

	return events, last, nil
}
