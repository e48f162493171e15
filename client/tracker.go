package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"portfolio/api/models"
)

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
)

// PageInfo describes the page view being reported.
type PageInfo struct {
	URL      string
	Referrer string
	Viewport string
	Timezone string
}

// Snapshot is what the display layer renders. Stale is true when the numbers
// come from the local fallback counter instead of the server.
type Snapshot struct {
	Counters models.VisitorCounters
	Stale    bool
}

// Tracker reports visits to the API. On repeated failure it keeps a local
// display-only count; the local numbers are never written back to the server.
type Tracker struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Sessions   *SessionManager
	// Backoff overrides the initial retry delay; zero keeps the default.
	Backoff time.Duration

	mu         sync.Mutex
	lastKnown  models.VisitorCounters
	haveServer bool
	localViews int64
}

func NewTracker(baseURL string, sessions *SessionManager) *Tracker {
	return &Tracker{
		BaseURL:    baseURL,
		UserAgent:  "portfolio-tracker/1.0",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Sessions:   sessions,
	}
}

// TrackVisit initializes the session, sends one track_visit event with up to
// three attempts and exponential backoff, and returns the freshest counters
// available. The error reports the delivery failure; the Snapshot is still
// usable for display.
func (t *Tracker) TrackVisit(ctx context.Context, page PageInfo) (Snapshot, error) {
	session := t.Sessions.InitSession()

	body := models.TrackVisitRequest{
		Action: "track_visit",
		Data: models.TrackVisitPayload{
			SessionID:    &session.ID,
			IsNewVisitor: &session.IsNewVisitor,
			Timestamp:    float64Ptr(float64(time.Now().UnixMilli())),
			UserAgent:    t.UserAgent,
			Referrer:     page.Referrer,
			URL:          page.URL,
			Viewport:     page.Viewport,
			Timezone:     page.Timezone,
		},
	}

	var lastErr error
	backoff := t.Backoff
	if backoff <= 0 {
		backoff = initialBackoff
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := t.postVisit(ctx, body)
		if err == nil {
			t.mu.Lock()
			t.lastKnown = resp.Counters
			t.haveServer = true
			t.mu.Unlock()
			return Snapshot{Counters: resp.Counters}, nil
		}
		lastErr = err
		log.Printf("Visit delivery attempt %d/%d failed: %v", attempt, maxAttempts, err)

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return t.localSnapshot(), ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	// Fall back to local-only counting for display.
	t.mu.Lock()
	t.localViews++
	t.mu.Unlock()
	return t.localSnapshot(), fmt.Errorf("failed to deliver visit after %d attempts: %w", maxAttempts, lastErr)
}

// Counters fetches the aggregate from the read path, falling back to the
// local snapshot on failure.
func (t *Tracker) Counters(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BaseURL+"/api/visitors", nil)
	if err != nil {
		return t.localSnapshot(), err
	}
	req.Header.Set("User-Agent", t.UserAgent)

	httpResp, err := t.HTTPClient.Do(req)
	if err != nil {
		return t.localSnapshot(), err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return t.localSnapshot(), fmt.Errorf("unexpected status %d from visitors endpoint", httpResp.StatusCode)
	}

	var resp models.VisitorsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return t.localSnapshot(), fmt.Errorf("malformed visitors response: %w", err)
	}

	t.mu.Lock()
	t.lastKnown = resp.Counters
	t.haveServer = true
	t.mu.Unlock()
	return Snapshot{Counters: resp.Counters}, nil
}

func (t *Tracker) postVisit(ctx context.Context, body models.TrackVisitRequest) (*models.VisitorsResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/api/visitors", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", t.UserAgent)

	httpResp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusOK:
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited by server")
	default:
		return nil, fmt.Errorf("unexpected status %d from visitors endpoint", httpResp.StatusCode)
	}

	var resp models.VisitorsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("malformed visitors response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("server reported failure")
	}
	return &resp, nil
}

// localSnapshot layers the local fallback views on top of the last counters
// the server confirmed.
func (t *Tracker) localSnapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	counters := t.lastKnown
	counters.TotalPageViews += t.localViews
	return Snapshot{Counters: counters, Stale: !t.haveServer || t.localViews > 0}
}

func float64Ptr(f float64) *float64 { return &f }
