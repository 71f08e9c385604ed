// Package sqlite is an embedded event store for single-node deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

var openDB = sql.Open

type EventStoreOption func(*EventStore)

func WithClock(now func() time.Time) EventStoreOption {
	return func(store *EventStore) {
		store.now = now
	}
}

type EventStore struct {
	db       *sql.DB
	revision *es.RevisionGenerator
	now      func() time.Time
}

func NewEventStore(path string, options ...EventStoreOption) (*EventStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrap(err, "failed to create data directory")
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// a single connection serialises change sets, which is what makes the revision check safe
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "pragma %q", p)
		}
	}

	store := &EventStore{db: db, revision: es.NewRevisionGenerator(), now: time.Now}
	for _, option := range options {
		option(store)
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migration failed")
	}

	return store, nil
}

func (s *EventStore) Close() error {
	return s.db.Close()
}

func (s *EventStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			stream     TEXT    NOT NULL,
			position   INTEGER NOT NULL,
			revision   TEXT    NOT NULL,
			event_id   TEXT    NOT NULL,
			event_type TEXT    NOT NULL,
			timestamp  TEXT    NOT NULL,
			metadata   TEXT    NOT NULL,
			encoding   TEXT    NOT NULL,
			data       BLOB    NOT NULL,
			PRIMARY KEY (stream, position)
		);
		CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
	`)
	return err
}

func (s *EventStore) Load(ctx context.Context, id es.StreamID) (es.Stream, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT revision, event_id, event_type, timestamp, metadata, encoding, data
		FROM events WHERE stream = ? ORDER BY position`,
		id.Encode().String(),
	)
	if err != nil {
		return es.Stream{}, errors.Wrap(err, "failed to read stream")
	}
	defer rows.Close()

	var events []es.RecordedEvent
	for rows.Next() {
		var metadata string
		event := es.RecordedEvent{StreamID: id}

		if err := rows.Scan(
			&event.Revision, &event.EventID, &event.EventType, &event.Timestamp,
			&metadata, &event.Data.Encoding, &event.Data.Data,
		); err != nil {
			return es.Stream{}, errors.Wrap(err, "failed to scan event")
		}

		if err := json.Unmarshal([]byte(metadata), &event.Metadata); err != nil {
			return es.Stream{}, errors.Wrap(err, "failed to unmarshal metadata")
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return es.Stream{}, errors.Wrap(err, "failed to read stream")
	}

	return es.Stream{ID: id, Events: events, Revision: es.RevisionOf(events)}, nil
}

func (s *EventStore) Publish(ctx context.Context, id es.StreamID, options es.PublishOptions, events ...es.DomainEvent) error {
	if len(events) == 0 {
		return es.NoEvents
	}

	metadata, err := json.Marshal(options.Metadata)
	if err != nil {
		return errors.Wrap(err, "failed to marshal metadata")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin change set")
	}
	defer tx.Rollback()

	stream := id.Encode().String()

	var position int64
	latest := es.InitialRevision
	err = tx.QueryRowContext(ctx,
		`SELECT position, revision FROM events WHERE stream = ? ORDER BY position DESC LIMIT 1`, stream,
	).Scan(&position, &latest)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, "failed to read latest revision")
	}

	if options.ExpectedRevision != "" && options.ExpectedRevision != latest {
		return es.RevisionConflict
	}

	now := s.now()
	timestamp := es.TimestampFromTime(now)

	for _, event := range events {
		data, err := es.MarshalData(event)
		if err != nil {
			return errors.Wrap(err, "failed to marshal event")
		}

		position++
		revision := s.revision.NewRevision(now)

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (stream, position, revision, event_id, event_type, timestamp, metadata, encoding, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			stream, position, revision.String(), revision.String(), es.EventTypeOf(event).String(),
			string(timestamp), string(metadata), data.Encoding, data.Data,
		); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to append %s", es.EventTypeOf(event)))
		}
	}

	return tx.Commit()
}
