package insights

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// Flow names, used in logs, archive records and parse errors.
const (
	FlowWeekly          = "weekly_insight"
	FlowAnalysis        = "spending_analysis"
	FlowRecommendations = "budget_recommendations"
	FlowOverspending    = "overspending"
	FlowMonthlySummary  = "monthly_summary"
	FlowAdjustments     = "budget_adjustments"
)

// Fallback copy for descriptive flows.
const (
	FallbackWeeklySummary  = "Keep up the good work tracking your expenses!"
	FallbackRecommendation = "Continue monitoring your spending habits."
	OverallStatusOnTrack   = "on_track"
)

// NotificationSummaryLength is the rune limit for insight text in a push body.
const NotificationSummaryLength = 100
