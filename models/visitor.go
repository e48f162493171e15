package models

import "time"

// VisitEvent is a single page view as reported by a client. The fingerprint
// and server-side fields are filled in by the ingestion handler, never by the
// client.
type VisitEvent struct {
	EntryID      string    `json:"entryId"`
	SessionID    string    `json:"sessionId"`
	IsNewVisitor bool      `json:"isNewVisitor"`
	Timestamp    time.Time `json:"timestamp"`
	UserAgent    string    `json:"userAgent"`
	Referrer     string    `json:"referrer"`
	URL          string    `json:"url"`
	Viewport     string    `json:"viewport"`
	Timezone     string    `json:"timezone"`
	IPAddress    string    `json:"-"`
	Fingerprint  string    `json:"fingerprint"`
}

// VisitorCounters is the singleton aggregate returned by the read path and
// updated on every accepted visit.
type VisitorCounters struct {
	UniqueVisitors int64     `json:"uniqueVisitors"`
	TotalPageViews int64     `json:"totalPageViews"`
	ReturnVisitors int64     `json:"returnVisitors"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// TrackVisitPayload is the client-supplied portion of a track_visit request.
// Timestamp is epoch milliseconds, matching what browsers send.
type TrackVisitPayload struct {
	SessionID    *string  `json:"sessionId"`
	IsNewVisitor *bool    `json:"isNewVisitor"`
	Timestamp    *float64 `json:"timestamp"`
	UserAgent    string   `json:"userAgent"`
	Referrer     string   `json:"referrer"`
	URL          string   `json:"url"`
	Viewport     string   `json:"viewport"`
	Timezone     string   `json:"timezone"`
}

// TrackVisitRequest is the POST /api/visitors body.
type TrackVisitRequest struct {
	Action string            `json:"action"`
	Data   TrackVisitPayload `json:"data"`
}

// VisitorsResponse is returned by both the read and ingestion paths.
type VisitorsResponse struct {
	Success   bool            `json:"success"`
	Counters  VisitorCounters `json:"counters"`
	Timestamp time.Time       `json:"timestamp"`
}

type TopPathResult struct {
	URL   string `json:"url"`
	Count uint64 `json:"count"`
}
