package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	calendarApp "github.com/waypointhq/waypoint/internal/calendar/application"
)

// Common CalDAV server URLs.
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// Provider reads events from a CalDAV calendar (Apple Calendar, Fastmail,
// Nextcloud, etc.).
type Provider struct {
	baseURL      string
	username     string
	password     string // app-specific password for Apple
	calendarPath string // specific calendar path, or empty for the default
	logger       *slog.Logger
}

// NewProvider creates a CalDAV calendar provider.
func NewProvider(baseURL, username, password string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
	}
}

// WithCalendarPath sets the specific calendar path to use.
func (p *Provider) WithCalendarPath(path string) *Provider {
	p.calendarPath = path
	return p
}

func (p *Provider) Name() string { return "caldav" }

// EventsBetween queries the calendar for events in [from, to).
func (p *Provider) EventsBetween(ctx context.Context, from, to time.Time) ([]calendarApp.Event, error) {
	client, err := p.getClient()
	if err != nil {
		return nil, err
	}

	calPath, err := p.findCalendarPath(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  "VCALENDAR",
			Props: []string{"VERSION"},
			Comps: []caldav.CalendarCompRequest{
				{
					Name:  "VEVENT",
					Props: []string{"SUMMARY", "DTSTART", "DTEND", "UID", "STATUS", "TRANSP"},
				},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: from,
					End:   to,
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	events := make([]calendarApp.Event, 0, len(objects))
	for i := range objects {
		event, ok := p.parseCalendarObject(&objects[i])
		if !ok {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (p *Provider) getClient() (*caldav.Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, p.username, p.password), p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (p *Provider) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if p.calendarPath != "" {
		return p.calendarPath, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	// Use first calendar as default
	return cals[0].Path, nil
}

func (p *Provider) parseCalendarObject(obj *caldav.CalendarObject) (calendarApp.Event, bool) {
	if obj == nil || obj.Data == nil {
		return calendarApp.Event{}, false
	}

	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}

		event := calendarApp.Event{Provider: p.Name(), Busy: true}
		if props := child.Props[ical.PropSummary]; len(props) > 0 {
			event.Summary = props[0].Value
		}
		if props := child.Props[ical.PropStatus]; len(props) > 0 {
			if strings.EqualFold(props[0].Value, "CANCELLED") {
				return calendarApp.Event{}, false
			}
		}
		// TRANSP:TRANSPARENT marks events that do not block time.
		if props := child.Props["TRANSP"]; len(props) > 0 {
			if strings.EqualFold(props[0].Value, "TRANSPARENT") {
				event.Busy = false
			}
		}

		icalEvent := &ical.Event{Component: child}
		start, err := icalEvent.DateTimeStart(time.UTC)
		if err != nil {
			p.logger.Warn("caldav event without start", "path", obj.Path, "error", err)
			return calendarApp.Event{}, false
		}
		end, err := icalEvent.DateTimeEnd(time.UTC)
		if err != nil {
			p.logger.Warn("caldav event without end", "path", obj.Path, "error", err)
			return calendarApp.Event{}, false
		}
		event.Start = start
		event.End = end

		return event, true
	}
	return calendarApp.Event{}, false
}
