package model

// LineSnapshot is the per-line slice of the dashboard rollup.
type LineSnapshot struct {
	Number     int    `json:"number"`
	Label      string `json:"label"`
	DailyLimit int    `json:"daily_limit"`
	Total      int64  `json:"total"`
	Sent       int64  `json:"sent"`
	Failed     int64  `json:"failed"`
	Pending    int64  `json:"pending"`
	CurrentDay int64  `json:"current_day"` // 1-based campaign day, clamped to total_days
	TotalDays  int64  `json:"total_days"`  // ceil(total / daily_limit)
}

// DashboardSnapshot is the derived, on-demand rollup of queue state.
// A chapter with no queue entries yields the all-zero snapshot.
type DashboardSnapshot struct {
	Lines         []LineSnapshot `json:"lines"`
	Total         int64          `json:"total"`
	Sent          int64          `json:"sent"`
	Failed        int64          `json:"failed"`
	Pending       int64          `json:"pending"`
	DaysRemaining int64          `json:"days_remaining"` // max over lines of ceil(pending / daily_limit)
	TotalDays     int64          `json:"total_days"`
}
