package tally

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/ahmed11551/tasbix09-sub001/es"
	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

const dayLayout = "2006-01-02"

// Day totals the recorded changes of one calendar day.
type Day struct {
	Date        string `json:"date"`
	Delta       int    `json:"delta"`
	Taps        int    `json:"taps"`
	Completions int    `json:"completions"`
}

// Daily projects a tally stream into per-day totals in loc, oldest first.
func Daily(ctx context.Context, load es.EventLoader, id es.StreamID, loc *time.Location) ([]Day, error) {
	if loc == nil {
		loc = time.UTC
	}

	stream, err := load(ctx, id)
	if err != nil {
		return nil, err
	}

	days := map[string]*Day{}
	day := func(at time.Time) *Day {
		date := at.In(loc).Format(dayLayout)
		if days[date] == nil {
			days[date] = &Day{Date: date}
		}
		return days[date]
	}

	for i := range stream.Events {
		event := &stream.Events[i]

		switch event.EventType {
		case es.EventTypeOf(Recorded{}):
			var recorded Recorded
			if err := event.Decode(&recorded); err != nil {
				return nil, errors.Wrapf(err, "failed to decode %s", event.EventType)
			}

			d := day(recorded.At)
			d.Delta += recorded.Delta
			if recorded.Cause == tasbih.CauseTap {
				d.Taps++
			}

		case es.EventTypeOf(Completed{}):
			var completed Completed
			if err := event.Decode(&completed); err != nil {
				return nil, errors.Wrapf(err, "failed to decode %s", event.EventType)
			}

			day(completed.At).Completions++
		}
	}

	result := make([]Day, 0, len(days))
	for _, d := range days {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result, nil
}
