package ds

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/wire"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

// Live expects an EventStoreTableName provider from the host.
var Live = wire.NewSet(
	DefaultAWSConfig,
	Client,
	NewEventStore,
	wire.Bind(new(es.EventStore), new(*DynamoEventStore)),
)

var Test = wire.NewSet(
	DynamoTestStore,
	wire.Bind(new(es.EventStore), new(*DynamoEventStore)),
)

func DefaultAWSConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx)
}

func Client(cfg aws.Config) *dynamodb.Client {
	otelaws.AppendMiddlewares(&cfg.APIOptions)
	return dynamodb.NewFromConfig(cfg)
}
