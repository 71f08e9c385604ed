package es

import (
	"context"
	"errors"
)

type EventLoader = func(ctx context.Context, id StreamID) (Stream, error)
type EventPublisher = func(ctx context.Context, id StreamID, options PublishOptions, events ...DomainEvent) error

type EventStore interface {
	Load(ctx context.Context, id StreamID) (Stream, error)
	Publish(ctx context.Context, id StreamID, options PublishOptions, events ...DomainEvent) error
}

var RevisionConflict = errors.New("revision-conflict")

var NoEvents = errors.New("attempted to publish empty list of events")

type PublishOptions struct {
	Metadata
	ExpectedRevision Revision
}

type PublishOption func(options *PublishOptions)

func Options(options ...PublishOption) PublishOptions {
	opts := PublishOptions{}
	for _, option := range options {
		option(&opts)
	}

	return opts
}

func WithExpectedRevision(revision Revision) PublishOption {
	return func(options *PublishOptions) {
		options.ExpectedRevision = revision
	}
}

func WithCorrelationID(id CorrelationID) PublishOption {
	return func(options *PublishOptions) {
		options.CorrelationID = id
	}
}

func WithCausationID(correlation CorrelationID, causation EventID) PublishOption {
	return func(options *PublishOptions) {
		options.CausationID = causation
		options.CorrelationID = correlation
	}
}
