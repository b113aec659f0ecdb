package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name   string
	events []Event
	err    error
	calls  int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) EventsBetween(ctx context.Context, from, to time.Time) ([]Event, error) {
	p.calls++
	return p.events, p.err
}

func TestAggregator_BusyBetween(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	at := func(d time.Time, hour, minute int) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
	}

	t.Run("merges busy events from all providers sorted by time", func(t *testing.T) {
		caldav := &fakeProvider{name: "caldav", events: []Event{
			{Provider: "caldav", Summary: "standup", Start: at(day, 14, 0), End: at(day, 14, 30), Busy: true},
		}}
		google := &fakeProvider{name: "google", events: []Event{
			{Provider: "google", Summary: "1:1", Start: at(day, 9, 30), End: at(day, 10, 0), Busy: true},
			{Provider: "google", Summary: "focus time", Start: at(day, 11, 0), End: at(day, 12, 0), Busy: false},
		}}

		agg := NewAggregator([]Provider{caldav, google}, nil)
		slots, err := agg.BusyBetween(ctx, userID, day, day)
		require.NoError(t, err)

		// The free-marked event is dropped.
		require.Len(t, slots, 2)
		assert.Equal(t, "09:30", slots[0].StartTime)
		assert.Equal(t, "10:00", slots[0].EndTime)
		assert.Equal(t, "14:00", slots[1].StartTime)
	})

	t.Run("splits multi-day events per day and clips to the range", func(t *testing.T) {
		provider := &fakeProvider{name: "caldav", events: []Event{
			{Start: at(day, 18, 0), End: at(day.AddDate(0, 0, 2), 10, 0), Busy: true},
		}}

		agg := NewAggregator([]Provider{provider}, nil)
		slots, err := agg.BusyBetween(ctx, userID, day, day.AddDate(0, 0, 1))
		require.NoError(t, err)

		require.Len(t, slots, 2)
		assert.Equal(t, "18:00", slots[0].StartTime)
		assert.Equal(t, "24:00", slots[0].EndTime)
		// The middle day is fully occupied; the third day is out of range.
		assert.True(t, slots[1].Date.Equal(day.AddDate(0, 0, 1)))
		assert.Equal(t, "00:00", slots[1].StartTime)
		assert.Equal(t, "24:00", slots[1].EndTime)
	})

	t.Run("propagates provider failures", func(t *testing.T) {
		broken := &fakeProvider{name: "google", err: errors.New("token expired")}

		agg := NewAggregator([]Provider{broken}, nil)
		_, err := agg.BusyBetween(ctx, userID, day, day)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "google")
	})

	t.Run("circuit breaker opens after repeated failures", func(t *testing.T) {
		broken := &fakeProvider{name: "caldav", err: errors.New("connection refused")}
		agg := NewAggregator([]Provider{broken}, nil)

		for i := 0; i < 10; i++ {
			_, err := agg.BusyBetween(ctx, userID, day, day)
			require.Error(t, err)
		}
		// Once open, calls fail fast without reaching the provider.
		assert.Less(t, broken.calls, 10)
	})

	t.Run("no providers means no busy time", func(t *testing.T) {
		agg := NewAggregator(nil, nil)
		slots, err := agg.BusyBetween(ctx, userID, day, day)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})
}
