package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"portfolio/api/models"
	"portfolio/api/utils"
)

type PostgresVisitorStore struct {
	db *sql.DB
}

func NewPostgresVisitorStore(db *sql.DB) *PostgresVisitorStore {
	return &PostgresVisitorStore{db: db}
}

// ensureCountersRow inserts the zero-valued singleton if it is missing.
func (s *PostgresVisitorStore) ensureCountersRow(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitor_counters (id) VALUES (1)
		ON CONFLICT (id) DO NOTHING;
	`)
	return err
}

func (s *PostgresVisitorStore) GetCounters(ctx context.Context) (models.VisitorCounters, error) {
	var counters models.VisitorCounters

	if err := s.ensureCountersRow(ctx); err != nil {
		return counters, fmt.Errorf("failed to initialize counters row: %w", err)
	}

	query := `
		SELECT unique_visitors, total_page_views, return_visitors, last_updated
		FROM visitor_counters
		WHERE id = 1;
	`
	err := s.db.QueryRowContext(ctx, query).Scan(
		&counters.UniqueVisitors,
		&counters.TotalPageViews,
		&counters.ReturnVisitors,
		&counters.LastUpdated,
	)
	if err != nil {
		return counters, fmt.Errorf("failed to get visitor counters: %w", err)
	}

	return counters, nil
}

func (s *PostgresVisitorStore) UpdateCounters(ctx context.Context, isNewVisitor bool) (models.VisitorCounters, error) {
	var counters models.VisitorCounters

	if err := s.ensureCountersRow(ctx); err != nil {
		return counters, fmt.Errorf("failed to initialize counters row: %w", err)
	}

	// In-place increments keep the update atomic; concurrent requests cannot
	// lose counts the way a read-modify-write cycle would.
	query := `
		UPDATE visitor_counters
		SET total_page_views = total_page_views + 1,
		    unique_visitors = unique_visitors + CASE WHEN $1 THEN 1 ELSE 0 END,
		    return_visitors = return_visitors + CASE WHEN $1 THEN 0 ELSE 1 END,
		    last_updated = now()
		WHERE id = 1
		RETURNING unique_visitors, total_page_views, return_visitors, last_updated;
	`
	err := s.db.QueryRowContext(ctx, query, isNewVisitor).Scan(
		&counters.UniqueVisitors,
		&counters.TotalPageViews,
		&counters.ReturnVisitors,
		&counters.LastUpdated,
	)
	if err != nil {
		return counters, fmt.Errorf("failed to update visitor counters: %w", err)
	}

	return counters, nil
}

func (s *PostgresVisitorStore) AppendLogEntry(ctx context.Context, event models.VisitEvent) error {
	query := `
		INSERT INTO visitor_log (
			entry_id, session_id, fingerprint, is_new_visitor, event_timestamp,
			user_agent, referrer, url, viewport, timezone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := s.db.ExecContext(ctx, query,
		event.EntryID,
		event.SessionID,
		event.Fingerprint,
		event.IsNewVisitor,
		event.Timestamp,
		event.UserAgent,
		event.Referrer,
		event.URL,
		event.Viewport,
		event.Timezone,
	)
	if err != nil {
		return fmt.Errorf("failed to append visitor log entry: %w", err)
	}
	return nil
}

func (s *PostgresVisitorStore) SeenRecently(ctx context.Context, sessionID, fingerprint string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM visitor_log
			WHERE (session_id = $1 OR fingerprint = $2) AND created_at >= $3
		);
	`
	var seen bool
	err := s.db.QueryRowContext(ctx, query, sessionID, fingerprint, since).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("failed to query recent visitors: %w", err)
	}
	return seen, nil
}

func (s *PostgresVisitorStore) TopPaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error) {
	if limit == 0 {
		limit = 10
	}

	query := `
		SELECT url, count(*) AS view_count
		FROM visitor_log
		WHERE created_at >= $1 AND created_at <= $2 AND url <> ''
		GROUP BY url
		ORDER BY view_count DESC
		LIMIT $3;
	`
	rows, err := s.db.QueryContext(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top paths: %w", err)
	}
	defer rows.Close()

	var results []models.TopPathResult
	for rows.Next() {
		var r models.TopPathResult
		if err := rows.Scan(&r.URL, &r.Count); err != nil {
			log.Printf("Error scanning row for top paths: %v", err)
			continue
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during top paths query: %w", err)
	}

	return results, nil
}

func (s *PostgresVisitorStore) VisitorsOverTime(ctx context.Context, interval string, start, end time.Time) ([]VisitorsByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	// date_trunc takes the lowercased interval name ("day", "hour", ...).
	query := fmt.Sprintf(`
		SELECT date_trunc('%s', created_at) AS time_bucket, count(DISTINCT session_id) AS visitors
		FROM visitor_log
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY time_bucket
		ORDER BY time_bucket ASC;
	`, strings.ToLower(interval))

	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query visitors over time: %w", err)
	}
	defer rows.Close()

	var results []VisitorsByTime
	for rows.Next() {
		var bucket time.Time
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			log.Printf("Error scanning row for visitors over time: %v", err)
			continue
		}
		results = append(results, VisitorsByTime{Time: bucket, Count: uint64(count)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during visitors over time query: %w", err)
	}

	return results, nil
}
