package support

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/ahmed11551/tasbix09-sub001/es"
	"github.com/ahmed11551/tasbix09-sub001/stores/ds"
	"github.com/ahmed11551/tasbix09-sub001/stores/esdbs"
	"github.com/ahmed11551/tasbix09-sub001/stores/jetstream"
	"github.com/ahmed11551/tasbix09-sub001/stores/sqlite"
)

// OpenStore connects the event store named by cfg.Store. The returned cleanup
// releases its connections.
func OpenStore(ctx context.Context, cfg Config) (es.EventStore, func(), error) {
	switch cfg.Store {
	case "sqlite":
		store, err := sqlite.NewEventStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to open %s", cfg.SQLitePath)
		}
		return store, func() { _ = store.Close() }, nil

	case "dynamodb":
		if cfg.DynamoEndpoint != "" {
			store, err := ds.LocalDynamoStore(ctx, cfg.DynamoEndpoint)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "failed to connect to %s", cfg.DynamoEndpoint)
			}
			return store, func() {}, nil
		}

		aws, err := ds.DefaultAWSConfig(ctx)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to load aws configuration")
		}
		return ds.NewEventStore(ds.Client(aws), ds.EventStoreTableName(cfg.EventsTable)), func() {}, nil

	case "esdb":
		store, err := esdbs.Connect(cfg.ESDBConnection)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to connect to eventstoredb")
		}
		return store, func() { _ = store.Close() }, nil

	case "jetstream":
		conn, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to connect to %s", cfg.NatsURL)
		}

		store, err := jetstream.NewEventStore(cfg.NatsStream, conn)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store, conn.Close, nil
	}

	return nil, nil, errors.Errorf("unknown store %q", cfg.Store)
}
