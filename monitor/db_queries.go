package monitor

import (
	"fmt"
)

type EventStatsSummary struct {
	TotalEventCount int64            `json:"total_event_count"`
	KindStats       []KindEventStats `json:"kinds"`
}

type KindEventStats struct {
	Kind       string `json:"kind"`
	EventCount int64  `json:"event_count"`
	FirstBlock int64  `json:"first_block"`
	LastBlock  int64  `json:"last_block"`
}

// GetDbEventStats summarizes the archive per event kind.
func (m *Monitor) GetDbEventStats() (*EventStatsSummary, error) {
	rows, err := m.db.Query(`
		SELECT kind, COUNT(*), MIN(block_number), MAX(block_number)
		FROM raw_events
		GROUP BY kind
		ORDER BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	summary := &EventStatsSummary{KindStats: []KindEventStats{}}
	for rows.Next() {
		var s KindEventStats
		if err := rows.Scan(&s.Kind, &s.EventCount, &s.FirstBlock, &s.LastBlock); err != nil {
			return summary, fmt.Errorf("scan error: %w", err)
		}
		summary.TotalEventCount += s.EventCount
		summary.KindStats = append(summary.KindStats, s)
	}
	if err := rows.Err(); err != nil {
		return summary, fmt.Errorf("rows error: %w", err)
	}
	return summary, nil
}
