package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type stubTokenSourceProvider struct {
	source oauth2.TokenSource
	err    error
}

func (s stubTokenSourceProvider) TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error) {
	return s.source, s.err
}

func TestProvider_EventsBetween(t *testing.T) {
	lastAuth := ""
	lastQuery := ""

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		lastQuery = r.URL.RawQuery
		if !strings.HasPrefix(r.URL.Path, "/calendars/primary/events") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"summary": "standup",
					"start":   map[string]any{"dateTime": "2026-03-02T09:00:00Z"},
					"end":     map[string]any{"dateTime": "2026-03-02T09:30:00Z"},
				},
				{
					"summary":      "focus reminder",
					"transparency": "transparent",
					"start":        map[string]any{"dateTime": "2026-03-02T10:00:00Z"},
					"end":          map[string]any{"dateTime": "2026-03-02T11:00:00Z"},
				},
				{
					"summary": "cancelled sync",
					"status":  "cancelled",
					"start":   map[string]any{"dateTime": "2026-03-02T12:00:00Z"},
					"end":     map[string]any{"dateTime": "2026-03-02T13:00:00Z"},
				},
				{
					"summary": "conference",
					"start":   map[string]any{"date": "2026-03-03"},
					"end":     map[string]any{"date": "2026-03-05"},
				},
			},
		})
	}))
	defer server.Close()

	oauthService := stubTokenSourceProvider{
		source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}),
	}
	provider := NewProviderWithBaseURL(oauthService, uuid.New(), nil, server.URL)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	events, err := provider.EventsBetween(context.Background(), from, to)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, "Bearer test", lastAuth)
	assert.Contains(t, lastQuery, "singleEvents=true")
	assert.Contains(t, lastQuery, "timeMin=2026-03-02T00%3A00%3A00Z")

	assert.Equal(t, "standup", events[0].Summary)
	assert.Equal(t, "google", events[0].Provider)
	assert.True(t, events[0].Busy)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), events[0].Start)

	assert.Equal(t, "focus reminder", events[1].Summary)
	assert.False(t, events[1].Busy)

	assert.Equal(t, "conference", events[2].Summary)
	assert.True(t, events[2].Busy)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), events[2].Start)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), events[2].End)
}

func TestProvider_EventsBetween_CustomCalendar(t *testing.T) {
	lastPath := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{}})
	}))
	defer server.Close()

	oauthService := stubTokenSourceProvider{
		source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}),
	}
	provider := NewProviderWithBaseURL(oauthService, uuid.New(), nil, server.URL).
		WithCalendarID("work@example.com")

	_, err := provider.EventsBetween(context.Background(),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, "/calendars/work@example.com/events", lastPath)
}

func TestProvider_EventsBetween_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	oauthService := stubTokenSourceProvider{
		source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}),
	}
	provider := NewProviderWithBaseURL(oauthService, uuid.New(), nil, server.URL)

	_, err := provider.EventsBetween(context.Background(),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=403")
}

func TestProvider_EventsBetween_TokenSourceFailure(t *testing.T) {
	oauthService := stubTokenSourceProvider{err: errors.New("no stored credentials")}
	provider := NewProvider(oauthService, uuid.New(), nil)

	_, err := provider.EventsBetween(context.Background(),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored credentials")
}
