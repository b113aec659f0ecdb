package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

// Event is a calendar event as reported by a provider.
type Event struct {
	Provider string
	Summary  string
	Start    time.Time
	End      time.Time
	// Busy is false for events marked free (transparent); those never block
	// scheduling.
	Busy bool
}

// Provider reads events from one connected calendar.
type Provider interface {
	Name() string
	EventsBetween(ctx context.Context, from, to time.Time) ([]Event, error)
}

// Aggregator merges busy time from every connected calendar provider into
// the flat slot list the scheduler consumes. Each provider sits behind a
// circuit breaker so a flapping calendar server fails fast instead of
// stalling every scheduling request. Provider failures propagate: scheduling
// against partial busy data would silently double-book.
type Aggregator struct {
	providers []Provider
	breakers  map[string]*gobreaker.CircuitBreaker[[]Event]
	logger    *slog.Logger
}

// NewAggregator creates an aggregator over the given providers.
func NewAggregator(providers []Provider, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	breakers := make(map[string]*gobreaker.CircuitBreaker[[]Event], len(providers))
	for _, p := range providers {
		breakers[p.Name()] = gobreaker.NewCircuitBreaker[[]Event](gobreaker.Settings{
			Name:    "calendar-" + p.Name(),
			Timeout: 30 * time.Second,
		})
	}
	return &Aggregator{providers: providers, breakers: breakers, logger: logger}
}

// BusyBetween returns every busy interval in the inclusive date range,
// split per day and sorted by date then start time.
func (a *Aggregator) BusyBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]planningDomain.BusySlot, error) {
	from = planningDomain.DateOnly(from)
	to = planningDomain.DateOnly(to)

	var slots []planningDomain.BusySlot
	for _, provider := range a.providers {
		events, err := a.breakers[provider.Name()].Execute(func() ([]Event, error) {
			return provider.EventsBetween(ctx, from, to.AddDate(0, 0, 1))
		})
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", provider.Name(), err)
		}

		count := 0
		for _, event := range events {
			if !event.Busy {
				continue
			}
			daily := splitEvent(event, from, to)
			slots = append(slots, daily...)
			count += len(daily)
		}
		a.logger.Debug("calendar events merged",
			"provider", provider.Name(),
			"events", len(events),
			"busy_slots", count,
		)
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		return slots[i].StartTime < slots[j].StartTime
	})
	return slots, nil
}

// splitEvent clips an event to the date range and breaks it into same-day
// slots. A multi-day event occupies each covered day in full.
func splitEvent(event Event, from, to time.Time) []planningDomain.BusySlot {
	if !event.End.After(event.Start) {
		return nil
	}

	var slots []planningDomain.BusySlot
	for day := planningDomain.DateOnly(event.Start); !day.After(planningDomain.DateOnly(event.End)); day = day.AddDate(0, 0, 1) {
		// Event times arrive in the provider's zone, the range in the
		// caller's, so clip by wall date rather than instant.
		if planningDomain.BeforeDate(day, from) || planningDomain.BeforeDate(to, day) {
			continue
		}

		startMin := 0
		if planningDomain.SameDate(day, event.Start) {
			startMin = event.Start.Hour()*60 + event.Start.Minute()
		}
		endMin := 24 * 60
		if planningDomain.SameDate(day, event.End) {
			endMin = event.End.Hour()*60 + event.End.Minute()
		}
		if endMin <= startMin {
			continue
		}

		slot, err := planningDomain.NewBusySlot(day, startMin, endMin)
		if err != nil {
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}
