// Package analytics aggregates run statistics from the event log.
package analytics

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
}

// StepDuration holds duration stats for one pipeline step.
type StepDuration struct {
	Step  string  `json:"step"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg_seconds"`
	P50   float64 `json:"p50_seconds"`
	P95   float64 `json:"p95_seconds"`
}

// timestamp formats to try when parsing timestamps from the database
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, f := range timestampFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// QueryStepDurations returns average and percentile wall-clock durations
// per step. Each completed event is paired with the earliest running event
// for the same run and step, so retries count toward the total.
func QueryStepDurations(database DB, since string) ([]StepDuration, error) {
	query := `
		SELECT e1.run_id, e1.step, e1.timestamp as end_ts,
			(SELECT MIN(e2.timestamp) FROM run_events e2
			 WHERE e2.run_id = e1.run_id
			 AND e2.step = e1.step
			 AND e2.status = 'running') as start_ts
		FROM run_events e1
		WHERE e1.status = 'completed'`

	args := []interface{}{}
	if since != "" {
		query += ` AND e1.timestamp >= ?`
		args = append(args, since)
	}

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query step durations: %w", err)
	}
	defer rows.Close()

	stepDurations := make(map[string][]float64)
	for rows.Next() {
		var runID, step, endTS string
		var startTS sql.NullString
		if err := rows.Scan(&runID, &step, &endTS, &startTS); err != nil {
			return nil, fmt.Errorf("scan step duration: %w", err)
		}
		if !startTS.Valid {
			continue
		}
		start, err := parseTimestamp(startTS.String)
		if err != nil {
			continue
		}
		end, err := parseTimestamp(endTS)
		if err != nil {
			continue
		}
		seconds := end.Sub(start).Seconds()
		if seconds >= 0 {
			stepDurations[step] = append(stepDurations[step], seconds)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []StepDuration
	for step, durations := range stepDurations {
		sort.Float64s(durations)
		results = append(results, StepDuration{
			Step:  step,
			Count: len(durations),
			Avg:   avg(durations),
			P50:   percentile(durations, 50),
			P95:   percentile(durations, 95),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Step < results[j].Step
	})
	return results, nil
}

// Outcomes summarizes run-level results.
type Outcomes struct {
	Started  int `json:"started"`
	Finished int `json:"finished"`
	Aborted  int `json:"aborted"`
	Retries  int `json:"retries"`
}

// QueryOutcomes counts run starts, finishes, aborts, and step retries.
func QueryOutcomes(database DB, since string) (Outcomes, error) {
	query := `
		SELECT
			SUM(CASE WHEN status = 'run_started' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'run_finished' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'run_aborted' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'retrying' THEN 1 ELSE 0 END)
		FROM run_events`

	args := []interface{}{}
	if since != "" {
		query += ` WHERE timestamp >= ?`
		args = append(args, since)
	}

	var started, finished, aborted, retries sql.NullInt64
	err := database.Conn().QueryRow(query, args...).Scan(&started, &finished, &aborted, &retries)
	if err != nil {
		return Outcomes{}, fmt.Errorf("query outcomes: %w", err)
	}
	return Outcomes{
		Started:  int(started.Int64),
		Finished: int(finished.Int64),
		Aborted:  int(aborted.Int64),
		Retries:  int(retries.Int64),
	}, nil
}

// StepFailureRate holds failure stats per step.
type StepFailureRate struct {
	Step      string  `json:"step"`
	Total     int     `json:"total"`
	FailedPct float64 `json:"failed_pct"`
}

// QueryStepFailureRates returns the share of terminal failures per step.
func QueryStepFailureRates(database DB, since string) ([]StepFailureRate, error) {
	query := `
		SELECT step,
			COUNT(*) as total,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed
		FROM run_events
		WHERE status IN ('completed', 'failed')`

	args := []interface{}{}
	if since != "" {
		query += ` AND timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY step ORDER BY step`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query step failure rates: %w", err)
	}
	defer rows.Close()

	var results []StepFailureRate
	for rows.Next() {
		var step string
		var total, failed int
		if err := rows.Scan(&step, &total, &failed); err != nil {
			return nil, fmt.Errorf("scan step failure rate: %w", err)
		}
		results = append(results, StepFailureRate{
			Step:      step,
			Total:     total,
			FailedPct: pct(failed, total),
		})
	}
	return results, rows.Err()
}

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
