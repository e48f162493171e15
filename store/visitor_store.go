package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"portfolio/api/database"
	"portfolio/api/models"
)

// NewVisitorLookback is the trailing window used to decide whether a session
// or fingerprint counts as a returning visitor. Fixed business rule.
const NewVisitorLookback = 24 * time.Hour

// VisitorsByTime is one time bucket of the visitors-over-time stats query.
type VisitorsByTime struct {
	Time  time.Time `json:"time"`
	Count uint64    `json:"count"`
}

// VisitorStore abstracts the persistence backend for visit events and the
// aggregate counters. Both implementations normalize to the same shapes; the
// handlers never see backend-specific field naming.
type VisitorStore interface {
	// GetCounters returns the aggregate, lazily initializing it with zero
	// values if it has never been written.
	GetCounters(ctx context.Context) (models.VisitorCounters, error)

	// UpdateCounters applies one accepted visit to the aggregate: total page
	// views always advance by one, and exactly one of unique/return visitors
	// advances depending on isNewVisitor. Returns the updated aggregate.
	UpdateCounters(ctx context.Context, isNewVisitor bool) (models.VisitorCounters, error)

	// AppendLogEntry writes the full event to the append-only log.
	AppendLogEntry(ctx context.Context, event models.VisitEvent) error

	// SeenRecently reports whether any log entry since the given time matches
	// the session ID or the fingerprint.
	SeenRecently(ctx context.Context, sessionID, fingerprint string, since time.Time) (bool, error)

	// TopPaths returns the most viewed URLs in the given range.
	TopPaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error)

	// VisitorsOverTime buckets distinct sessions by the given interval.
	VisitorsOverTime(ctx context.Context, interval string, start, end time.Time) ([]VisitorsByTime, error)
}

// NewVisitorStore selects and connects the backend named by VISITOR_BACKEND
// ("postgres" or "clickhouse"). This is the only place the flag is consulted;
// everything downstream works against the VisitorStore interface.
func NewVisitorStore() (VisitorStore, func(), error) {
	backend := os.Getenv("VISITOR_BACKEND")
	if backend == "" {
		backend = "postgres"
	}

	switch backend {
	case "postgres":
		dbClient, err := database.NewPostgresDB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL backend: %w", err)
		}
		return NewPostgresVisitorStore(dbClient.DB), dbClient.Close, nil
	case "clickhouse":
		chClient, err := database.NewClickHouseDB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize ClickHouse backend: %w", err)
		}
		return NewClickHouseVisitorStore(chClient), chClient.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown VISITOR_BACKEND %q (want postgres or clickhouse)", backend)
	}
}
