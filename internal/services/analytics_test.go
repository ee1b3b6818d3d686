package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"github.com/welldanyogia/brochure-contact-backend/internal/repository"
	"gorm.io/gorm"
)

var analyticsNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newAnalytics(t *testing.T) (*analyticsService, *gorm.DB) {
	db := setupServiceDB(t)
	svc := NewAnalyticsService(repository.NewSubmissionRepository(db), new(MockContentRepository), time.UTC).(*analyticsService)
	svc.now = func() time.Time { return analyticsNow }
	return svc, db
}

func TestConversion_Rates(t *testing.T) {
	svc, db := newAnalytics(t)
	dayA := analyticsNow.Add(-2 * 24 * time.Hour)
	dayB := analyticsNow.Add(-5 * 24 * time.Hour)
	statuses := []models.SubmissionStatus{
		models.StatusReplied, models.StatusReplied, models.StatusReplied,
		models.StatusRead, models.StatusRead,
		models.StatusNew, models.StatusNew, models.StatusNew, models.StatusNew, models.StatusArchived,
	}
	for i, status := range statuses {
		day := dayA
		if i%2 == 1 {
			day = dayB
		}
		insertSubmission(t, db, status, day.Add(time.Duration(i)*time.Minute), nil)
	}
	// outside the 30 day window
	insertSubmission(t, db, models.StatusReplied, analyticsNow.AddDate(0, -3, 0), nil)

	result, err := svc.Conversion(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, models.Period30Days, result.Period)
	assert.Equal(t, int64(10), result.TotalSubmissions)
	assert.Equal(t, int64(3), result.RepliedCount)
	assert.Equal(t, int64(2), result.ReadCount)
	assert.Equal(t, 30.0, result.ConversionRate)
	assert.Equal(t, 20.0, result.ReadRate)
	assert.Equal(t, 5.0, result.AvgSubmissionsPerDay)
}

func TestConversion_EmptyPeriod(t *testing.T) {
	svc, _ := newAnalytics(t)

	result, err := svc.Conversion(context.Background(), models.Period7Days)

	require.NoError(t, err)
	assert.Zero(t, result.TotalSubmissions)
	assert.Zero(t, result.ConversionRate)
	assert.Zero(t, result.ReadRate)
	assert.Zero(t, result.AvgSubmissionsPerDay)
}

func TestOverview_DailyBucketsAndResponseTime(t *testing.T) {
	svc, db := newAnalytics(t)
	march13 := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	march14 := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

	reply1 := march13.Add(2 * time.Hour)
	reply2 := march14.Add(4 * time.Hour)
	insertSubmission(t, db, models.StatusReplied, march13, &reply1)
	insertSubmission(t, db, models.StatusReplied, march14, &reply2)
	insertSubmission(t, db, models.StatusNew, march14.Add(time.Hour), nil)
	insertSubmission(t, db, models.StatusNew, time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC), nil)

	overview, err := svc.Overview(context.Background(), models.Period7Days)

	require.NoError(t, err)
	assert.Equal(t, []models.TimeBucket{
		{Bucket: "2024-03-13", Count: 1},
		{Bucket: "2024-03-14", Count: 2},
	}, overview.TimeSeries)
	assert.Equal(t, []models.StatusCount{
		{Status: models.StatusNew, Count: 2},
		{Status: models.StatusReplied, Count: 2},
	}, overview.StatusDistribution)
	assert.Equal(t, models.ResponseTimeMetrics{AvgHours: 3, MinHours: 2, MaxHours: 4}, overview.ResponseTime)
}

func TestOverview_MonthlyBuckets(t *testing.T) {
	svc, db := newAnalytics(t)
	insertSubmission(t, db, models.StatusNew, time.Date(2023, 11, 20, 9, 0, 0, 0, time.UTC), nil)
	insertSubmission(t, db, models.StatusNew, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), nil)
	insertSubmission(t, db, models.StatusNew, time.Date(2024, 1, 30, 9, 0, 0, 0, time.UTC), nil)
	insertSubmission(t, db, models.StatusNew, time.Date(2022, 1, 30, 9, 0, 0, 0, time.UTC), nil)

	overview, err := svc.Overview(context.Background(), models.Period12Months)

	require.NoError(t, err)
	assert.Equal(t, []models.TimeBucket{
		{Bucket: "2023-11", Count: 1},
		{Bucket: "2024-01", Count: 2},
	}, overview.TimeSeries)
}

func TestOverview_NoRepliesGivesZeroResponseTime(t *testing.T) {
	svc, db := newAnalytics(t)
	insertSubmission(t, db, models.StatusNew, analyticsNow.Add(-time.Hour), nil)

	overview, err := svc.Overview(context.Background(), models.Period30Days)

	require.NoError(t, err)
	assert.Equal(t, models.ResponseTimeMetrics{}, overview.ResponseTime)
}

func TestOverview_UnknownPeriod(t *testing.T) {
	svc, _ := newAnalytics(t)

	_, err := svc.Overview(context.Background(), "fortnight")

	verr := apperrors.GetValidationError(err)
	require.NotNil(t, verr)
	assert.True(t, verr.HasField("period"))
}

func TestDashboard_Growth(t *testing.T) {
	subs := new(MockSubmissionRepository)
	content := new(MockContentRepository)
	svc := NewAnalyticsService(subs, content, time.UTC).(*analyticsService)
	svc.now = func() time.Time { return analyticsNow }

	subs.On("CountByStatus", mock.Anything, models.SubmissionFilter{}).Return([]models.StatusCount{
		{Status: models.StatusNew, Count: 12},
		{Status: models.StatusReplied, Count: 8},
	}, nil)
	content.On("Counts", mock.Anything).Return(models.ContentCounts{Projects: 4, Services: 3, Testimonials: 7}, nil)
	subs.On("Count", mock.Anything, mock.MatchedBy(func(f models.SubmissionFilter) bool { return f.DateTo == nil })).Return(int64(15), nil)
	subs.On("Count", mock.Anything, mock.MatchedBy(func(f models.SubmissionFilter) bool { return f.DateTo != nil })).Return(int64(10), nil)

	snapshot, err := svc.Dashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(20), snapshot.Submissions.Total)
	assert.Equal(t, int64(12), snapshot.Submissions.New)
	assert.Equal(t, int64(4), snapshot.Projects)
	assert.Equal(t, int64(3), snapshot.Services)
	assert.Equal(t, int64(7), snapshot.Testimonials)
	assert.Equal(t, int64(15), snapshot.RecentSubmissions)
	assert.Equal(t, int64(10), snapshot.PreviousSubmissions)
	assert.Equal(t, 50.0, snapshot.Growth)
	assert.Equal(t, "up", snapshot.Trend)
}

func TestDashboard_NoPreviousSubmissions(t *testing.T) {
	svc, db := newAnalytics(t)
	svc.content.(*MockContentRepository).On("Counts", mock.Anything).Return(models.ContentCounts{}, nil)
	insertSubmission(t, db, models.StatusNew, analyticsNow.Add(-24*time.Hour), nil)

	snapshot, err := svc.Dashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.RecentSubmissions)
	assert.Zero(t, snapshot.PreviousSubmissions)
	assert.Zero(t, snapshot.Growth)
	assert.Equal(t, "up", snapshot.Trend)
}

func TestDashboard_Decline(t *testing.T) {
	svc, db := newAnalytics(t)
	svc.content.(*MockContentRepository).On("Counts", mock.Anything).Return(models.ContentCounts{}, nil)
	insertSubmission(t, db, models.StatusNew, analyticsNow.Add(-24*time.Hour), nil)
	for i := 0; i < 4; i++ {
		insertSubmission(t, db, models.StatusRead, analyticsNow.AddDate(0, 0, -40), nil)
	}

	snapshot, err := svc.Dashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, -75.0, snapshot.Growth)
	assert.Equal(t, "down", snapshot.Trend)
}

func TestDashboard_ContentFailure(t *testing.T) {
	svc, _ := newAnalytics(t)
	svc.content.(*MockContentRepository).On("Counts", mock.Anything).
		Return(models.ContentCounts{}, apperrors.ErrStorageUnavailable)

	_, err := svc.Dashboard(context.Background())

	assert.True(t, errors.Is(err, apperrors.ErrStorageUnavailable))
}

func TestMonthlySummary(t *testing.T) {
	svc, db := newAnalytics(t)
	insertSubmission(t, db, models.StatusNew, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), nil)
	insertSubmission(t, db, models.StatusReplied, time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC), nil)
	insertSubmission(t, db, models.StatusRead, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), nil)
	insertSubmission(t, db, models.StatusNew, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nil)
	insertSubmission(t, db, models.StatusNew, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), nil)

	summary, err := svc.MonthlySummary(context.Background(), 2024, 2)

	require.NoError(t, err)
	assert.Equal(t, &models.MonthlySummary{
		Year: 2024, Month: 2, Total: 3, New: 1, Read: 1, Replied: 1, ActiveDays: 2,
	}, summary)
}

func TestMonthlySummary_Validation(t *testing.T) {
	svc, _ := newAnalytics(t)

	_, err := svc.MonthlySummary(context.Background(), 2024, 13)
	verr := apperrors.GetValidationError(err)
	require.NotNil(t, verr)
	assert.True(t, verr.HasField("month"))

	_, err = svc.MonthlySummary(context.Background(), 1800, 1)
	verr = apperrors.GetValidationError(err)
	require.NotNil(t, verr)
	assert.True(t, verr.HasField("year"))
}

func TestPercentageAndRounding(t *testing.T) {
	assert.Equal(t, 0.0, percentage(5, 0))
	assert.Equal(t, 33.33, percentage(1, 3))
	assert.Equal(t, 66.67, percentage(2, 3))
}
