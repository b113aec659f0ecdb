package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	calendarApp "github.com/waypointhq/waypoint/internal/calendar/application"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

type tokenSourceProvider interface {
	TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error)
}

// Provider reads busy time from a user's Google Calendar.
type Provider struct {
	oauthService tokenSourceProvider
	userID       uuid.UUID
	logger       *slog.Logger
	baseURL      string
	calendarID   string
}

// NewProvider creates a Google Calendar provider for one user.
func NewProvider(oauthService tokenSourceProvider, userID uuid.UUID, logger *slog.Logger) *Provider {
	return NewProviderWithBaseURL(oauthService, userID, logger, defaultBaseURL)
}

// NewProviderWithBaseURL creates a Google Calendar provider with a custom base URL.
func NewProviderWithBaseURL(oauthService tokenSourceProvider, userID uuid.UUID, logger *slog.Logger, baseURL string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		oauthService: oauthService,
		userID:       userID,
		logger:       logger,
		baseURL:      baseURL,
		calendarID:   "primary",
	}
}

// WithCalendarID selects a calendar other than the user's primary one.
func (p *Provider) WithCalendarID(calendarID string) *Provider {
	if calendarID != "" {
		p.calendarID = calendarID
	}
	return p
}

// Name identifies this provider in aggregator logs and circuit breakers.
func (p *Provider) Name() string {
	return "google"
}

// EventsBetween lists events overlapping [from, to) from the configured
// calendar, with recurring events expanded into single instances.
func (p *Provider) EventsBetween(ctx context.Context, from, to time.Time) ([]calendarApp.Event, error) {
	if p.oauthService == nil {
		return nil, fmt.Errorf("oauth service not configured")
	}
	tokenSource, err := p.oauthService.TokenSource(ctx, p.userID)
	if err != nil {
		return nil, err
	}
	client := http.Client{
		Timeout: 15 * time.Second,
		Transport: &oauthTransport{
			base:   http.DefaultTransport,
			source: tokenSource,
		},
	}

	query := fmt.Sprintf("timeMin=%s&timeMax=%s&singleEvents=true&orderBy=startTime",
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	)
	listURL := fmt.Sprintf("%s/calendars/%s/events?%s", p.baseURL, p.calendarID, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var payload struct {
		Items []struct {
			Summary      string `json:"summary"`
			Status       string `json:"status"`
			Transparency string `json:"transparency"`
			Start        struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"end"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	events := make([]calendarApp.Event, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.Status == "cancelled" {
			continue
		}
		event := calendarApp.Event{
			Provider: p.Name(),
			Summary:  item.Summary,
			Busy:     item.Transparency != "transparent",
		}

		// Handle both timed and all-day events.
		if item.Start.DateTime != "" && item.End.DateTime != "" {
			start, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, item.End.DateTime)
			if err != nil {
				continue
			}
			event.Start = start.UTC()
			event.End = end.UTC()
		} else if item.Start.Date != "" && item.End.Date != "" {
			start, err := time.Parse("2006-01-02", item.Start.Date)
			if err != nil {
				continue
			}
			end, err := time.Parse("2006-01-02", item.End.Date)
			if err != nil {
				continue
			}
			event.Start = start
			event.End = end
		} else {
			continue
		}
		events = append(events, event)
	}

	p.logger.Debug("listed google calendar events",
		slog.String("calendar_id", p.calendarID),
		slog.Int("count", len(events)),
	)
	return events, nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("calendar request failed: status=%d body=%s", resp.StatusCode, string(body))
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(req)
}
