package services

import (
	"context"
	"math"
	"sort"
	"time"

	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"github.com/welldanyogia/brochure-contact-backend/internal/repository"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AnalyticsService aggregates submission history for the dashboard
type AnalyticsService interface {
	Overview(ctx context.Context, period models.Period) (*models.AnalyticsOverview, error)
	Conversion(ctx context.Context, period models.Period) (*models.ConversionMetrics, error)
	Dashboard(ctx context.Context) (*models.DashboardSnapshot, error)
	MonthlySummary(ctx context.Context, year, month int) (*models.MonthlySummary, error)
}

// analyticsService implements AnalyticsService
type analyticsService struct {
	submissions repository.SubmissionRepository
	content     repository.ContentRepository
	location    *time.Location
	now         func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService instance. Day and month
// buckets follow loc (local time when nil).
func NewAnalyticsService(submissions repository.SubmissionRepository, content repository.ContentRepository, loc *time.Location) AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &analyticsService{submissions: submissions, content: content, location: loc, now: time.Now}
}

// periodStart resolves period to the start of its window and the bucket layout
func (s *analyticsService) periodStart(period models.Period) (models.Period, time.Time, string, error) {
	now := s.now().In(s.location)
	switch period {
	case "", models.Period30Days:
		return models.Period30Days, now.AddDate(0, 0, -30), "2006-01-02", nil
	case models.Period7Days:
		return period, now.AddDate(0, 0, -7), "2006-01-02", nil
	case models.Period12Months:
		return period, now.AddDate(0, -12, 0), "2006-01", nil
	default:
		return "", time.Time{}, "", apperrors.NewValidationError("period", "must be one of: 7days 30days 12months")
	}
}

// Overview returns the time series, status distribution and response times
func (s *analyticsService) Overview(ctx context.Context, period models.Period) (*models.AnalyticsOverview, error) {
	period, from, layout, err := s.periodStart(period)
	if err != nil {
		return nil, err
	}

	series, err := s.timeSeries(ctx, from, layout)
	if err != nil {
		return nil, err
	}

	distribution, err := s.submissions.CountByStatus(ctx, models.SubmissionFilter{})
	if err != nil {
		return nil, err
	}

	intervals, err := s.submissions.ReplyIntervals(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AnalyticsOverview{
		Period:             period,
		TimeSeries:         series,
		StatusDistribution: distribution,
		ResponseTime:       responseTime(intervals),
	}, nil
}

// timeSeries groups submissions created since from into sparse buckets, ascending
func (s *analyticsService) timeSeries(ctx context.Context, from time.Time, layout string) ([]models.TimeBucket, error) {
	times, err := s.submissions.CreatedTimes(ctx, models.SubmissionFilter{DateFrom: &from})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, t := range times {
		counts[t.In(s.location).Format(layout)]++
	}

	series := make([]models.TimeBucket, 0, len(counts))
	for bucket, count := range counts {
		series = append(series, models.TimeBucket{Bucket: bucket, Count: count})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Bucket < series[j].Bucket })
	return series, nil
}

// responseTime summarises time to first reply in hours
func responseTime(intervals []models.ReplyInterval) models.ResponseTimeMetrics {
	if len(intervals) == 0 {
		return models.ResponseTimeMetrics{}
	}
	hours := make([]float64, len(intervals))
	for i, iv := range intervals {
		hours[i] = iv.RepliedAt.Sub(iv.CreatedAt).Hours()
	}
	return models.ResponseTimeMetrics{
		AvgHours: round2(stat.Mean(hours, nil)),
		MinHours: round2(floats.Min(hours)),
		MaxHours: round2(floats.Max(hours)),
	}
}

// Conversion relates replies and reads to the submissions of period
func (s *analyticsService) Conversion(ctx context.Context, period models.Period) (*models.ConversionMetrics, error) {
	period, from, layout, err := s.periodStart(period)
	if err != nil {
		return nil, err
	}

	counts, err := s.submissions.CountByStatus(ctx, models.SubmissionFilter{DateFrom: &from})
	if err != nil {
		return nil, err
	}

	result := &models.ConversionMetrics{Period: period}
	for _, c := range counts {
		result.TotalSubmissions += c.Count
		switch c.Status {
		case models.StatusReplied:
			result.RepliedCount = c.Count
		case models.StatusRead:
			result.ReadCount = c.Count
		}
	}
	result.ConversionRate = percentage(result.RepliedCount, result.TotalSubmissions)
	result.ReadRate = percentage(result.ReadCount, result.TotalSubmissions)

	series, err := s.timeSeries(ctx, from, layout)
	if err != nil {
		return nil, err
	}
	if len(series) > 0 {
		perBucket := make([]float64, len(series))
		for i, b := range series {
			perBucket[i] = float64(b.Count)
		}
		result.AvgSubmissionsPerDay = round2(stat.Mean(perBucket, nil))
	}

	return result, nil
}

// Dashboard merges submission totals, CMS totals and 30-day growth
func (s *analyticsService) Dashboard(ctx context.Context) (*models.DashboardSnapshot, error) {
	counts, err := s.submissions.CountByStatus(ctx, models.SubmissionFilter{})
	if err != nil {
		return nil, err
	}
	snapshot := &models.DashboardSnapshot{Submissions: tally(counts)}

	content, err := s.content.Counts(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.Projects = content.Projects
	snapshot.Services = content.Services
	snapshot.Testimonials = content.Testimonials

	now := s.now()
	recentFrom := now.AddDate(0, 0, -30)
	previousFrom := now.AddDate(0, 0, -60)

	recent, err := s.submissions.Count(ctx, models.SubmissionFilter{DateFrom: &recentFrom})
	if err != nil {
		return nil, err
	}
	previous, err := s.submissions.Count(ctx, models.SubmissionFilter{DateFrom: &previousFrom, DateTo: &recentFrom})
	if err != nil {
		return nil, err
	}

	snapshot.RecentSubmissions = recent
	snapshot.PreviousSubmissions = previous
	if previous > 0 {
		snapshot.Growth = round2(float64(recent-previous) / float64(previous) * 100)
	}
	snapshot.Trend = "down"
	if recent >= previous {
		snapshot.Trend = "up"
	}

	return snapshot, nil
}

// MonthlySummary counts the submissions of one local calendar month by status
func (s *analyticsService) MonthlySummary(ctx context.Context, year, month int) (*models.MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.NewValidationError("month", "must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, apperrors.NewValidationError("year", "must be between 1970 and 9999")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.location)
	to := from.AddDate(0, 1, 0)
	filter := models.SubmissionFilter{DateFrom: &from, DateTo: &to}

	counts, err := s.submissions.CountByStatus(ctx, filter)
	if err != nil {
		return nil, err
	}
	totals := tally(counts)
	summary := &models.MonthlySummary{
		Year:     year,
		Month:    month,
		Total:    totals.Total,
		New:      totals.New,
		Read:     totals.Read,
		Replied:  totals.Replied,
		Archived: totals.Archived,
	}

	times, err := s.submissions.CreatedTimes(ctx, filter)
	if err != nil {
		return nil, err
	}
	days := make(map[string]struct{})
	for _, t := range times {
		days[t.In(s.location).Format("2006-01-02")] = struct{}{}
	}
	summary.ActiveDays = len(days)

	return summary, nil
}

// percentage returns part/total*100 rounded to two decimals, 0 when total is 0
func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
