package models

import "time"

// Period selects the look-back window of an analytics query
type Period string

// Supported periods
const (
	Period7Days    Period = "7days"
	Period30Days   Period = "30days"
	Period12Months Period = "12months"
)

// TimeBucket is the submission count of one calendar day or month
type TimeBucket struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// StatusCount is the number of submissions in one status
type StatusCount struct {
	Status SubmissionStatus `json:"status"`
	Count  int64            `json:"count"`
}

// ReplyInterval is the creation and first-reply time of one replied submission
type ReplyInterval struct {
	CreatedAt time.Time
	RepliedAt time.Time
}

// ResponseTimeMetrics describes time-to-first-reply in hours
type ResponseTimeMetrics struct {
	AvgHours float64 `json:"avgHours"`
	MinHours float64 `json:"minHours"`
	MaxHours float64 `json:"maxHours"`
}

// AnalyticsOverview is the payload of the overview chart
type AnalyticsOverview struct {
	Period             Period              `json:"period"`
	TimeSeries         []TimeBucket        `json:"timeSeries"`
	StatusDistribution []StatusCount       `json:"statusDistribution"`
	ResponseTime       ResponseTimeMetrics `json:"responseTimeMetrics"`
}

// ConversionMetrics relates replies and reads to the submission volume of a period
type ConversionMetrics struct {
	Period               Period  `json:"period"`
	TotalSubmissions     int64   `json:"totalSubmissions"`
	RepliedCount         int64   `json:"repliedCount"`
	ReadCount            int64   `json:"readCount"`
	ConversionRate       float64 `json:"conversionRate"`
	ReadRate             float64 `json:"readRate"`
	AvgSubmissionsPerDay float64 `json:"avgSubmissionsPerDay"`
}

// ContentCounts are the CMS totals shown on the dashboard
type ContentCounts struct {
	Projects     int64 `json:"projects"`
	Services     int64 `json:"services"`
	Testimonials int64 `json:"testimonials"`
}

// DashboardSnapshot merges submission totals, CMS totals and 30-day growth
type DashboardSnapshot struct {
	Submissions         SubmissionStats `json:"submissions"`
	Projects            int64           `json:"projects"`
	Services            int64           `json:"services"`
	Testimonials        int64           `json:"testimonials"`
	RecentSubmissions   int64           `json:"recentSubmissions"`
	PreviousSubmissions int64           `json:"previousSubmissions"`
	Growth              float64         `json:"growth"`
	Trend               string          `json:"trend"`
}

// MonthlySummary counts submissions of one calendar month by status
type MonthlySummary struct {
	Year       int   `json:"year"`
	Month      int   `json:"month"`
	Total      int64 `json:"total"`
	New        int64 `json:"new"`
	Read       int64 `json:"read"`
	Replied    int64 `json:"replied"`
	Archived   int64 `json:"archived"`
	ActiveDays int   `json:"activeDays"`
}
