package ds

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	pkgerrors "github.com/pkg/errors"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

type EventStoreTableName string

func (name EventStoreTableName) String() string {
	return string(name)
}

type DynamoEventStore struct {
	db       *dynamodb.Client
	table    string
	revision *es.RevisionGenerator
}

func NewEventStore(db *dynamodb.Client, table EventStoreTableName) *DynamoEventStore {
	return &DynamoEventStore{db: db, table: table.String(), revision: es.NewRevisionGenerator()}
}

func (ds *DynamoEventStore) Load(ctx context.Context, id es.StreamID) (es.Stream, error) {
	events, err := ds.read(ctx, id)
	if err != nil {
		return es.Stream{}, err
	}

	return es.Stream{ID: id, Events: events, Revision: es.RevisionOf(events)}, nil
}

func (ds *DynamoEventStore) Publish(ctx context.Context, id es.StreamID, options es.PublishOptions, events ...es.DomainEvent) error {
	if len(events) == 0 {
		return es.NoEvents
	}

	return retry.Do(
		func() error {
			return ds.publish(ctx, id, options, events)
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.RetryIf(func(err error) bool {
			// only unconditional publishes can safely be replayed against a newer revision
			return err == es.RevisionConflict && options.ExpectedRevision == ""
		}),
		retry.LastErrorOnly(true),
	)
}

// Remove deletes every item for the stream and reports how many were removed.
func (ds *DynamoEventStore) Remove(ctx context.Context, id es.StreamID) (int, error) {
	type record struct {
		PartitionKey string `dynamodbav:"pk"`
		SortKey      string `dynamodbav:"sk"`
	}

	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("pk").Equal(expression.Value(partitionKey(id)))).
		WithProjection(expression.NamesList(expression.Name("pk"), expression.Name("sk"))).
		Build()
	if err != nil {
		return 0, err
	}

	var count int
	var start map[string]types.AttributeValue
	for {
		out, err := ds.db.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(ds.table),
			ExclusiveStartKey:         start,
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			Limit:                     aws.Int32(25),
		})
		if err != nil {
			return count, describe(err)
		}

		if len(out.Items) > 0 {
			var items []record
			if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
				return count, err
			}

			actions := make([]types.TransactWriteItem, 0, len(items))
			for _, item := range items {
				key, err := attributevalue.MarshalMap(item)
				if err != nil {
					return count, err
				}

				actions = append(actions, types.TransactWriteItem{
					Delete: &types.Delete{Key: key, TableName: aws.String(ds.table)},
				})
			}

			if _, err := ds.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: actions}); err != nil {
				return count, describe(err)
			}

			count += len(items)
		}

		start = out.LastEvaluatedKey
		if start == nil {
			break
		}
	}

	return count, nil
}

func (ds *DynamoEventStore) read(ctx context.Context, id es.StreamID) ([]es.RecordedEvent, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("pk").Equal(expression.Value(partitionKey(id))).And(
			expression.Key("sk").BeginsWith(changeSetPrefix),
		)).
		WithProjection(expression.NamesList(expression.Name("events"))).
		Build()
	if err != nil {
		return nil, err
	}

	var events []es.RecordedEvent
	var start map[string]types.AttributeValue
	for {
		out, err := ds.db.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(ds.table),
			ExclusiveStartKey:         start,
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			ConsistentRead:            aws.Bool(true),
		})
		if err != nil {
			return nil, describe(err)
		}

		var changes []ChangeSet
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &changes); err != nil {
			return nil, err
		}

		for i := range changes {
			recorded, err := changes[i].RecordedEvents()
			if err != nil {
				return nil, err
			}
			events = append(events, recorded...)
		}

		start = out.LastEvaluatedKey
		if start == nil {
			break
		}
	}

	return events, nil
}

func (ds *DynamoEventStore) record(id es.StreamID, options es.PublishOptions, events []es.DomainEvent) ([]es.RecordedEvent, error) {
	now := time.Now()
	timestamp := es.TimestampFromTime(now)

	recorded := make([]es.RecordedEvent, len(events))
	for i, event := range events {
		data, err := es.MarshalData(event)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to marshal event")
		}

		revision := ds.revision.NewRevision(now)
		recorded[i] = es.RecordedEvent{
			StreamID:  id,
			Revision:  revision,
			EventID:   es.EventID(revision),
			EventType: es.EventTypeOf(event),
			Timestamp: timestamp,
			Metadata:  options.Metadata,
			Data:      data,
		}
	}

	return recorded, nil
}

func latestCondition(revision es.Revision, expected es.Revision) expression.ConditionBuilder {
	switch expected {
	case "":
		return expression.Name("revision").LessThan(expression.Value(revision)).Or(
			expression.AttributeNotExists(expression.Name("revision")),
		)
	case es.InitialRevision:
		return expression.AttributeNotExists(expression.Name("revision"))
	default:
		return expression.Name("revision").Equal(expression.Value(expected))
	}
}

func (ds *DynamoEventStore) publish(ctx context.Context, id es.StreamID, options es.PublishOptions, events []es.DomainEvent) error {
	recorded, err := ds.record(id, options, events)
	if err != nil {
		return err
	}

	changes, err := newChangeSet(id, recorded)
	if err != nil {
		return err
	}

	latest, err := attributevalue.MarshalMap(changes.Latest())
	if err != nil {
		return err
	}

	record, err := attributevalue.MarshalMap(changes)
	if err != nil {
		return err
	}

	condition, err := expression.NewBuilder().
		WithCondition(latestCondition(changes.Revision, options.ExpectedRevision)).
		Build()
	if err != nil {
		return err
	}

	_, err = ds.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					Item:                                latest,
					TableName:                           aws.String(ds.table),
					ConditionExpression:                 condition.Condition(),
					ExpressionAttributeNames:            condition.Names(),
					ExpressionAttributeValues:           condition.Values(),
					ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureNone,
				},
			},
			{
				Put: &types.Put{Item: record, TableName: aws.String(ds.table)},
			},
		},
	})
	if err != nil {
		return describe(err)
	}

	return nil
}

// describe maps a failed conditional write to RevisionConflict and names the
// failing operation for everything else.
func describe(err error) error {
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return es.RevisionConflict
			}
		}
	}

	var operation *smithy.OperationError
	if errors.As(err, &operation) {
		return pkgerrors.Wrapf(err, "dynamodb %s", operation.Operation())
	}

	return err
}
