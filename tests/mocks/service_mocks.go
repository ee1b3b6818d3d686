package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
)

// MockIngestionService implements services.IngestionService
type MockIngestionService struct {
	mock.Mock
}

// Submit accepts a contact-form submission
func (m *MockIngestionService) Submit(ctx context.Context, input models.ContactInput) (*models.Submission, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

// MockSubmissionService implements services.SubmissionService
type MockSubmissionService struct {
	mock.Mock
}

// List returns one page of submissions
func (m *MockSubmissionService) List(ctx context.Context, filter models.SubmissionFilter, page, pageSize int) (*models.SubmissionPage, error) {
	args := m.Called(ctx, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubmissionPage), args.Error(1)
}

// Get retrieves one submission
func (m *MockSubmissionService) Get(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

// UpdateStatus changes the status of one submission
func (m *MockSubmissionService) UpdateStatus(ctx context.Context, id uint, status models.SubmissionStatus) (*models.Submission, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

// BulkUpdateStatus changes the status of several submissions
func (m *MockSubmissionService) BulkUpdateStatus(ctx context.Context, ids []uint, status models.SubmissionStatus) (int64, error) {
	args := m.Called(ctx, ids, status)
	return args.Get(0).(int64), args.Error(1)
}

// Delete removes one submission
func (m *MockSubmissionService) Delete(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

// BulkDelete removes several submissions
func (m *MockSubmissionService) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// Stats returns the submission totals
func (m *MockSubmissionService) Stats(ctx context.Context) (*models.SubmissionStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubmissionStats), args.Error(1)
}

// OpenAttachment opens a stored attachment
func (m *MockSubmissionService) OpenAttachment(ctx context.Context, id uint, index int) (*models.Attachment, io.ReadCloser, error) {
	args := m.Called(ctx, id, index)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Attachment), args.Get(1).(io.ReadCloser), args.Error(2)
}

// MockExportService implements services.ExportService. Set Output to
// control what is written before the mocked return values apply.
type MockExportService struct {
	mock.Mock
	Output string
}

// ExportCSV writes Output to w and returns the mocked values
func (m *MockExportService) ExportCSV(ctx context.Context, filter models.SubmissionFilter, w io.Writer) (int, error) {
	args := m.Called(ctx, filter, w)
	if m.Output != "" {
		if _, err := io.WriteString(w, m.Output); err != nil {
			return 0, err
		}
	}
	return args.Int(0), args.Error(1)
}

// MockAnalyticsService implements services.AnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

// Overview returns the overview chart payload
func (m *MockAnalyticsService) Overview(ctx context.Context, period models.Period) (*models.AnalyticsOverview, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalyticsOverview), args.Error(1)
}

// Conversion returns the conversion metrics
func (m *MockAnalyticsService) Conversion(ctx context.Context, period models.Period) (*models.ConversionMetrics, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConversionMetrics), args.Error(1)
}

// Dashboard returns the dashboard snapshot
func (m *MockAnalyticsService) Dashboard(ctx context.Context) (*models.DashboardSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardSnapshot), args.Error(1)
}

// MonthlySummary returns one month's totals
func (m *MockAnalyticsService) MonthlySummary(ctx context.Context, year, month int) (*models.MonthlySummary, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlySummary), args.Error(1)
}
