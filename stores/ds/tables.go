package ds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const LocalTableName = EventStoreTableName("tasbih-events")

// LocalDynamoStore connects to dynamodb-local on the given endpoint, creating
// the events table when it is missing.
func LocalDynamoStore(ctx context.Context, endpoint string) (*DynamoEventStore, error) {
	cfg, err := staticConfig(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	client := Client(cfg)
	if err := EnsureTable(ctx, client, LocalTableName); err != nil {
		return nil, err
	}

	return NewEventStore(client, LocalTableName), nil
}

func DynamoTestStore(ctx context.Context) (*DynamoEventStore, func(), error) {
	db, err := testcontainers.GenericContainer(
		ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "amazon/dynamodb-local",
				ExposedPorts: []string{"8000/tcp"},
				WaitingFor:   wait.ForListeningPort("8000"),
			},
			Started: true,
		},
	)
	if err != nil {
		return nil, nil, err
	}

	terminate := func() {
		if err := db.Terminate(ctx); err != nil {
			log.Error().Err(err).Msg("failed to terminate dynamodb container")
		}
	}

	host, err := db.Host(ctx)
	if err != nil {
		terminate()
		return nil, nil, err
	}

	port, err := db.MappedPort(ctx, "8000")
	if err != nil {
		terminate()
		return nil, nil, err
	}

	cfg, err := staticConfig(ctx, fmt.Sprintf("http://%s:%s", host, port.Port()))
	if err != nil {
		terminate()
		return nil, nil, err
	}

	client := Client(cfg)
	if err := EnsureTable(ctx, client, "test-events"); err != nil {
		terminate()
		return nil, nil, err
	}

	return NewEventStore(client, "test-events"), terminate, nil
}

func staticConfig(ctx context.Context, endpoint string) (aws.Config, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if service == dynamodb.ServiceID {
				return aws.Endpoint{PartitionID: "aws", URL: endpoint, SigningRegion: region}, nil
			}
			return aws.Endpoint{}, fmt.Errorf("unknown endpoint requested for %s", service)
		},
	)

	return config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
	)
}

// EnsureTable creates the pk/sk events table if it does not exist and waits
// for it to become active.
func EnsureTable(ctx context.Context, client *dynamodb.Client, name EventStoreTableName) error {
	exists, err := tableExists(ctx, client, name.String())
	if err != nil || exists {
		return err
	}

	log.Info().Str("table", name.String()).Msg("creating events table")

	_, err = client.CreateTable(
		ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(name.String()),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
			},
			BillingMode: types.BillingModePayPerRequest,
		},
	)
	if err != nil {
		return err
	}

	required := &dynamodb.DescribeTableInput{TableName: aws.String(name.String())}
	return dynamodb.NewTableExistsWaiter(client).Wait(ctx, required, 2*time.Minute)
}

func tableExists(ctx context.Context, client *dynamodb.Client, name string) (bool, error) {
	description, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		var missing *types.ResourceNotFoundException
		if errors.As(err, &missing) {
			return false, nil
		}
		return false, err
	}

	if description.Table.TableStatus != types.TableStatusActive {
		return false, errors.New("events table exists but is not active")
	}

	return true, nil
}
