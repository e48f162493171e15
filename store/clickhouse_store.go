package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"portfolio/api/database"
	"portfolio/api/models"
	"portfolio/api/utils"
)

// ClickHouseVisitorStore keeps only the append-only log and derives the
// aggregate counters by aggregation over it. Inserts commute, so concurrent
// writers cannot lose counts and the unique+return == total invariant holds
// by construction.
type ClickHouseVisitorStore struct {
	DB *database.ClickHouseClient
}

func NewClickHouseVisitorStore(chClient *database.ClickHouseClient) *ClickHouseVisitorStore {
	return &ClickHouseVisitorStore{DB: chClient}
}

func (s *ClickHouseVisitorStore) GetCounters(ctx context.Context) (models.VisitorCounters, error) {
	var counters models.VisitorCounters

	query := `
		SELECT
			countIf(is_new_visitor = 1) AS unique_visitors,
			count() AS total_page_views,
			countIf(is_new_visitor = 0) AS return_visitors,
			max(created_at) AS last_updated
		FROM visitor_log
	`

	var (
		uniqueVisitors uint64
		totalPageViews uint64
		returnVisitors uint64
		lastUpdated    time.Time
	)
	err := s.DB.Conn.QueryRow(ctx, query).Scan(&uniqueVisitors, &totalPageViews, &returnVisitors, &lastUpdated)
	if err != nil {
		return counters, fmt.Errorf("failed to query visitor counters: %w", err)
	}

	counters.UniqueVisitors = int64(uniqueVisitors)
	counters.TotalPageViews = int64(totalPageViews)
	counters.ReturnVisitors = int64(returnVisitors)
	if totalPageViews == 0 {
		// max() over an empty table yields the epoch; report "now" instead,
		// matching the lazily-initialized zero aggregate of the other backend.
		lastUpdated = time.Now().UTC()
	}
	counters.LastUpdated = lastUpdated

	return counters, nil
}

// UpdateCounters is a read on this backend: the preceding AppendLogEntry
// already moved the aggregates, because they are derived from the log.
func (s *ClickHouseVisitorStore) UpdateCounters(ctx context.Context, isNewVisitor bool) (models.VisitorCounters, error) {
	return s.GetCounters(ctx)
}

func (s *ClickHouseVisitorStore) AppendLogEntry(ctx context.Context, event models.VisitEvent) error {
	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO visitor_log (
			entry_id, session_id, fingerprint, is_new_visitor, event_timestamp,
			user_agent, referrer, url, viewport, timezone, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare visitor log insert: %w", err)
	}

	var isNew uint8
	if event.IsNewVisitor {
		isNew = 1
	}

	err = batch.Append(
		event.EntryID,
		event.SessionID,
		event.Fingerprint,
		isNew,
		event.Timestamp,
		event.UserAgent,
		event.Referrer,
		event.URL,
		event.Viewport,
		event.Timezone,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append visitor log entry (EntryID: %s): %w", event.EntryID, err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send visitor log batch: %w", err)
	}
	return nil
}

func (s *ClickHouseVisitorStore) SeenRecently(ctx context.Context, sessionID, fingerprint string, since time.Time) (bool, error) {
	query := `
		SELECT count() FROM visitor_log
		WHERE (session_id = ? OR fingerprint = ?) AND created_at >= ?
	`
	var matches uint64
	err := s.DB.Conn.QueryRow(ctx, query, sessionID, fingerprint, since).Scan(&matches)
	if err != nil {
		return false, fmt.Errorf("failed to query recent visitors: %w", err)
	}
	return matches > 0, nil
}

func (s *ClickHouseVisitorStore) TopPaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error) {
	if limit == 0 {
		limit = 10
	}

	query := `
		SELECT url, count() AS view_count
		FROM visitor_log
		WHERE created_at >= ? AND created_at <= ? AND url != ''
		GROUP BY url
		ORDER BY view_count DESC
		LIMIT ?
	`
	rows, err := s.DB.Conn.Query(ctx, query, start, end, limit)
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

func (s *ClickHouseVisitorStore) VisitorsOverTime(ctx context.Context, interval string, start, end time.Time) ([]VisitorsByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	query := fmt.Sprintf(`
		SELECT toStartOf%s(created_at) AS time_bucket, uniq(session_id) AS visitors
		FROM visitor_log
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY time_bucket
		ORDER BY time_bucket ASC
	`, interval)

	rows, err := s.DB.Conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query visitors over time: %w", err)
	}
	defer rows.Close()

	var results []VisitorsByTime
	for rows.Next() {
		var bucket time.Time
		var visitors uint64
		if err := rows.Scan(&bucket, &visitors); err != nil {
			log.Printf("Error scanning row for visitors over time: %v", err)
			continue
		}
		results = append(results, VisitorsByTime{Time: bucket, Count: visitors})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during visitors over time query: %w", err)
	}

	return results, nil
}
