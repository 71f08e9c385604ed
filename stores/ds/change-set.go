package ds

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

const (
	changeSetPrefix = "change-set#"
	latestSortKey   = "latest-revision"
)

// ChangeSet is one published batch. Events are kept as a JSON document so the
// item stays a handful of attributes regardless of payload shape.
type ChangeSet struct {
	PartitionKey string       `dynamodbav:"pk"`
	SortKey      string       `dynamodbav:"sk"`
	Events       string       `dynamodbav:"events"`
	Revision     es.Revision  `dynamodbav:"revision"`
	Timestamp    es.Timestamp `dynamodbav:"timestamp"`
}

type LatestRecord struct {
	PartitionKey string       `dynamodbav:"pk"`
	SortKey      string       `dynamodbav:"sk"`
	Revision     es.Revision  `dynamodbav:"revision"`
	Timestamp    es.Timestamp `dynamodbav:"timestamp"`
}

func newChangeSet(id es.StreamID, events []es.RecordedEvent) (*ChangeSet, error) {
	encoded, err := json.Marshal(events)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal events")
	}

	last := events[len(events)-1]

	return &ChangeSet{
		PartitionKey: partitionKey(id),
		SortKey:      changeSetPrefix + last.Revision.String(),
		Events:       string(encoded),
		Revision:     last.Revision,
		Timestamp:    last.Timestamp,
	}, nil
}

func (cs *ChangeSet) Latest() *LatestRecord {
	return &LatestRecord{
		PartitionKey: cs.PartitionKey,
		SortKey:      latestSortKey,
		Revision:     cs.Revision,
		Timestamp:    cs.Timestamp,
	}
}

func (cs *ChangeSet) RecordedEvents() ([]es.RecordedEvent, error) {
	var events []es.RecordedEvent
	if err := json.Unmarshal([]byte(cs.Events), &events); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal events")
	}

	return events, nil
}

func (cs *ChangeSet) StreamID() (es.StreamID, error) {
	return es.EncodedStreamID(cs.PartitionKey).Decode()
}

func partitionKey(id es.StreamID) string {
	return id.Encode().String()
}
