package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ai-travel-planner/internal/database"
	"ai-travel-planner/internal/shared"
)

// ExecutionMetric records metadata for a single agent execution.
type ExecutionMetric struct {
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// SessionOutcome is the persisted verdict of one planning session. The plan
// itself is not stored.
type SessionOutcome struct {
	SessionID       string
	OriginCity      string
	DestinationCity string
	CheckIn         string
	CheckOut        string
	Travelers       int
	Budget          float64
	Passed          bool
	Iterations      int
	ViolationCount  int
	FailedRules     []string
	CreatedAt       time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(m ExecutionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO agent_executions (agent_name, model, prompt_tokens, completion_tokens, latency_ms, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.AgentName, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, ts.UTC().Format(database.TimeLayout))
	if err != nil {
		return fmt.Errorf("failed to record execution metric: %w", err)
	}
	return nil
}

// RecordMeta records metrics directly from shared.AgentMeta. Executions that
// made no model call are skipped.
func (s *Store) RecordMeta(meta shared.AgentMeta) error {
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return nil
	}
	return s.Record(MapUsage(meta.AgentName, meta.Usage, meta.Latency))
}

// RecordSession saves the outcome of one planning session.
func (s *Store) RecordSession(ctx context.Context, o SessionOutcome) error {
	created := o.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO plan_sessions
		 (session_id, origin_city, destination_city, check_in_date, check_out_date, num_people, total_budget,
		  passed, iterations, violation_count, failed_rules, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.SessionID, o.OriginCity, o.DestinationCity, o.CheckIn, o.CheckOut, o.Travelers, o.Budget,
		o.Passed, o.Iterations, o.ViolationCount, strings.Join(o.FailedRules, ","),
		created.UTC().Format(database.TimeLayout))
	if err != nil {
		return fmt.Errorf("failed to record plan session %s: %w", o.SessionID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(database.TimeLayout)
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT date(timestamp) AS day, SUM(prompt_tokens), SUM(completion_tokens), COUNT(*)
		 FROM agent_executions
		 WHERE timestamp >= ?
		 GROUP BY day
		 ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		var day sql.NullString
		if err := rows.Scan(&day, &u.TotalPrompt, &u.TotalCompletion, &u.TotalExecution); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		u.Date = "Unknown"
		if day.Valid {
			u.Date = day.String
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// SessionStats summarizes recent planning sessions.
type SessionStats struct {
	Total         int
	Passed        int
	AvgIterations float64
	TopFailures   map[string]int
}

// PassRate is the share of sessions that passed validation.
func (s SessionStats) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// GetSessionStats aggregates the sessions of the last N days.
func (s *Store) GetSessionStats(days int) (SessionStats, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(database.TimeLayout)
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT passed, iterations, failed_rules FROM plan_sessions WHERE created_at >= ?`, since)
	if err != nil {
		return SessionStats{}, fmt.Errorf("failed to query plan sessions: %w", err)
	}
	defer rows.Close()

	stats := SessionStats{TopFailures: map[string]int{}}
	iterations := 0
	for rows.Next() {
		var passed bool
		var iters int
		var failed string
		if err := rows.Scan(&passed, &iters, &failed); err != nil {
			return SessionStats{}, fmt.Errorf("failed to scan plan session: %w", err)
		}
		stats.Total++
		if passed {
			stats.Passed++
		}
		iterations += iters
		for _, rule := range strings.Split(failed, ",") {
			if rule != "" {
				stats.TopFailures[rule]++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return SessionStats{}, err
	}

	if stats.Total > 0 {
		stats.AvgIterations = float64(iterations) / float64(stats.Total)
	}
	return stats, nil
}

// Cleanup removes records older than the specified number of days and
// reports how many rows were deleted.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(database.TimeLayout)

	var total int64
	for _, q := range []string{
		`DELETE FROM agent_executions WHERE timestamp < ?`,
		`DELETE FROM plan_sessions WHERE created_at < ?`,
	} {
		res, err := s.db.ExecContext(context.Background(), q, threshold)
		if err != nil {
			return total, fmt.Errorf("failed to clean up metrics: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// MapUsage helper to convert shared.TokenUsage to ExecutionMetric.
func MapUsage(agentName string, usage shared.TokenUsage, latency time.Duration) ExecutionMetric {
	return ExecutionMetric{
		AgentName:        agentName,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
}
