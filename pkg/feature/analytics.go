package feature

import (
	"context"
	"sort"
)

// GroupStats aggregates events that carried one A/B group label.
type GroupStats struct {
	Events      int     `json:"events"`
	UniqueUsers int     `json:"unique_users"`
	SuccessRate float64 `json:"success_rate"`
}

// ErrorTypeCount is one entry of the ranked error breakdown.
type ErrorTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Report is the aggregated usage picture of one feature over a window.
type Report struct {
	FeatureID   string  `json:"feature_id"`
	WindowDays  int     `json:"window_days"`
	TotalEvents int     `json:"total_events"`
	UniqueUsers int     `json:"unique_users"`
	Accesses    int     `json:"accesses"`
	Successes   int     `json:"successes"`
	Errors      int     `json:"errors"`
	SuccessRate float64 `json:"success_rate"`
	ErrorRate   float64 `json:"error_rate"`

	// DailyUsage buckets event counts by UTC day, keyed "2006-01-02".
	DailyUsage map[string]int `json:"daily_usage"`

	// Groups is present only when any event in the window carried an
	// A/B group label.
	Groups map[string]GroupStats `json:"ab_test_groups,omitempty"`

	// TopErrors ranks error events by their metadata error_type,
	// descending by count, at most five entries. Ties keep first-seen
	// order.
	TopErrors []ErrorTypeCount `json:"top_errors,omitempty"`
}

// Analytics aggregates the feature's usage events from the last daysBack
// days into a Report. Store failures yield an empty report for the
// feature rather than an error.
func (s *Service) Analytics(ctx context.Context, featureID string, daysBack int) *Report {
	report := &Report{
		FeatureID:  featureID,
		WindowDays: daysBack,
		DailyUsage: make(map[string]int),
	}

	since := s.now().AddDate(0, 0, -daysBack)
	events, err := s.store.ListUsageEvents(ctx, featureID, since)
	if err != nil {
		s.log.ErrorContext(ctx, "usage event query failed", "feature_id", featureID, "error", err)
		return report
	}

	users := make(map[int64]struct{})
	groupUsers := make(map[string]map[int64]struct{})
	groupAccess := make(map[string]int)
	groupSuccess := make(map[string]int)
	errorCounts := make(map[string]int)
	var errorOrder []string

	for _, e := range events {
		report.TotalEvents++
		users[e.TelegramID] = struct{}{}
		report.DailyUsage[e.CreatedAt.UTC().Format("2006-01-02")]++

		switch e.Type {
		case EventAccess:
			report.Accesses++
		case EventSuccess:
			report.Successes++
		case EventError:
			report.Errors++
			errType := "unknown"
			if v, ok := e.Metadata["error_type"].(string); ok && v != "" {
				errType = v
			}
			if _, seen := errorCounts[errType]; !seen {
				errorOrder = append(errorOrder, errType)
			}
			errorCounts[errType]++
		}

		if e.ABGroup == "" {
			continue
		}
		if report.Groups == nil {
			report.Groups = make(map[string]GroupStats)
		}
		stats := report.Groups[e.ABGroup]
		stats.Events++
		report.Groups[e.ABGroup] = stats

		if groupUsers[e.ABGroup] == nil {
			groupUsers[e.ABGroup] = make(map[int64]struct{})
		}
		groupUsers[e.ABGroup][e.TelegramID] = struct{}{}
		switch e.Type {
		case EventAccess:
			groupAccess[e.ABGroup]++
		case EventSuccess:
			groupSuccess[e.ABGroup]++
		}
	}

	report.UniqueUsers = len(users)
	if report.Accesses > 0 {
		report.SuccessRate = float64(report.Successes) / float64(report.Accesses)
		report.ErrorRate = float64(report.Errors) / float64(report.Accesses)
	}

	for name, stats := range report.Groups {
		stats.UniqueUsers = len(groupUsers[name])
		if groupAccess[name] > 0 {
			stats.SuccessRate = float64(groupSuccess[name]) / float64(groupAccess[name])
		}
		report.Groups[name] = stats
	}

	// Stable sort keeps first-seen order among equal counts.
	sort.SliceStable(errorOrder, func(i, j int) bool {
		return errorCounts[errorOrder[i]] > errorCounts[errorOrder[j]]
	})
	for i, errType := range errorOrder {
		if i == 5 {
			break
		}
		report.TopErrors = append(report.TopErrors, ErrorTypeCount{Type: errType, Count: errorCounts[errType]})
	}

	return report
}
