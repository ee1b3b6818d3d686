package services

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Minimal file signatures recognised by the content sniffer
var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
)

// setupServiceDB opens an in-memory SQLite database with the submissions table
func setupServiceDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Submission{}))
	return db
}

// insertSubmission writes a row directly, bypassing ingestion
func insertSubmission(t *testing.T, db *gorm.DB, status models.SubmissionStatus, created time.Time, replied *time.Time) *models.Submission {
	sub := &models.Submission{
		Name:      "Visitor",
		Email:     "visitor@example.com",
		Subject:   "Enquiry",
		Message:   "Hello, I would like to know more.",
		Status:    status,
		IPAddress: "10.0.0.1",
		CreatedAt: created.UTC(),
		UpdatedAt: created.UTC(),
		RepliedAt: replied,
	}
	if replied != nil {
		r := replied.UTC()
		sub.RepliedAt = &r
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func upload(name string, data []byte) models.Upload {
	return models.Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(submission models.Submission) {
	m.Called(submission)
}

// MockVerifier is a mock implementation of Verifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	args := m.Called(ctx, token, remoteIP)
	return args.Error(0)
}

// MockMailer is a mock implementation of Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to string, msg *NotificationMessage) error {
	args := m.Called(ctx, to, msg)
	return args.Error(0)
}

// MockAdminRepository is a mock implementation of AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) ListActive(ctx context.Context) ([]models.AdminUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdminUser), args.Error(1)
}

// MockContentRepository is a mock implementation of ContentRepository
type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) Counts(ctx context.Context) (models.ContentCounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.ContentCounts), args.Error(1)
}

// MockSubmissionRepository is a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter, limit, offset int) ([]models.Submission, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) UpdateStatus(ctx context.Context, id uint, status models.SubmissionStatus, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

func (m *MockSubmissionRepository) BulkUpdateStatus(ctx context.Context, ids []uint, status models.SubmissionStatus, at time.Time) (int64, error) {
	args := m.Called(ctx, ids, status, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubmissionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubmissionRepository) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubmissionRepository) Count(ctx context.Context, filter models.SubmissionFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubmissionRepository) CountByStatus(ctx context.Context, filter models.SubmissionFilter) ([]models.StatusCount, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusCount), args.Error(1)
}

func (m *MockSubmissionRepository) CountByIPSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	args := m.Called(ctx, ip, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubmissionRepository) OldestByIPSince(ctx context.Context, ip string, since time.Time) (time.Time, error) {
	args := m.Called(ctx, ip, since)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockSubmissionRepository) CreatedTimes(ctx context.Context, filter models.SubmissionFilter) ([]time.Time, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockSubmissionRepository) ReplyIntervals(ctx context.Context) ([]models.ReplyInterval, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReplyInterval), args.Error(1)
}

func (m *MockSubmissionRepository) Each(ctx context.Context, filter models.SubmissionFilter, limit int, fn func(*models.Submission) error) error {
	args := m.Called(ctx, filter, limit, fn)
	return args.Error(0)
}
