package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
	"github.com/welldanyogia/brochure-contact-backend/internal/metrics"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"github.com/welldanyogia/brochure-contact-backend/internal/repository"
	"github.com/welldanyogia/brochure-contact-backend/internal/storage"
	"github.com/welldanyogia/brochure-contact-backend/internal/validator"
)

// SubmissionService serves the admin triage screens
type SubmissionService interface {
	List(ctx context.Context, filter models.SubmissionFilter, page, pageSize int) (*models.SubmissionPage, error)
	Get(ctx context.Context, id uint) (*models.Submission, error)
	UpdateStatus(ctx context.Context, id uint, status models.SubmissionStatus) (*models.Submission, error)
	BulkUpdateStatus(ctx context.Context, ids []uint, status models.SubmissionStatus) (int64, error)
	Delete(ctx context.Context, id uint) (*models.Submission, error)
	BulkDelete(ctx context.Context, ids []uint) (int64, error)
	Stats(ctx context.Context) (*models.SubmissionStats, error)
	// OpenAttachment returns the metadata and content of the index-th
	// attachment of a submission. The caller closes the reader.
	OpenAttachment(ctx context.Context, id uint, index int) (*models.Attachment, io.ReadCloser, error)
}

// submissionService implements SubmissionService
type submissionService struct {
	repo     repository.SubmissionRepository
	files    storage.FileStorage
	metrics  *metrics.Metrics
	location *time.Location
	now      func() time.Time
}

// NewSubmissionService creates a new SubmissionService instance. Calendar
// boundaries for Stats are computed in loc (local time when nil).
func NewSubmissionService(repo repository.SubmissionRepository, files storage.FileStorage, m *metrics.Metrics, loc *time.Location) SubmissionService {
	if m == nil {
		m = metrics.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &submissionService{repo: repo, files: files, metrics: m, location: loc, now: time.Now}
}

// List returns one page of submissions, newest first
func (s *submissionService) List(ctx context.Context, filter models.SubmissionFilter, page, pageSize int) (*models.SubmissionPage, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	page, pageSize = validator.ValidatePagination(page, pageSize)

	items, total, err := s.repo.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &models.SubmissionPage{
		Items:      items,
		TotalCount: total,
		PageCount:  int((total + int64(pageSize) - 1) / int64(pageSize)),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func validateFilter(filter models.SubmissionFilter) error {
	if filter.Status != "" && !filter.Status.IsValid() {
		return apperrors.NewValidationError("status", "must be one of: new read replied archived")
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return apperrors.NewValidationError("endDate", "must not be before startDate")
	}
	return nil
}

func validateStatus(status models.SubmissionStatus) error {
	if status == "" {
		return apperrors.NewValidationError("status", "is required")
	}
	if !status.IsValid() {
		return apperrors.NewValidationError("status", "must be one of: new read replied archived")
	}
	return nil
}

func validateIDs(ids []uint) error {
	if len(ids) == 0 {
		return apperrors.NewValidationError("ids", "must contain at least one id")
	}
	return nil
}

// Get retrieves one submission
func (s *submissionService) Get(ctx context.Context, id uint) (*models.Submission, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves a submission to status. Any transition is allowed;
// the first move to replied stamps RepliedAt.
func (s *submissionService) UpdateStatus(ctx context.Context, id uint, status models.SubmissionStatus) (*models.Submission, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status, s.now()); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// BulkUpdateStatus moves every listed submission to status and returns how many matched
func (s *submissionService) BulkUpdateStatus(ctx context.Context, ids []uint, status models.SubmissionStatus) (int64, error) {
	if err := validateIDs(ids); err != nil {
		return 0, err
	}
	if err := validateStatus(status); err != nil {
		return 0, err
	}
	affected, err := s.repo.BulkUpdateStatus(ctx, ids, status, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.BulkOperationAffected.WithLabelValues("update_status").Add(float64(affected))
	return affected, nil
}

// Delete hard-deletes a submission and returns the removed row. Stored
// attachment files are kept.
func (s *submissionService) Delete(ctx context.Context, id uint) (*models.Submission, error) {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return submission, nil
}

// BulkDelete hard-deletes every listed submission and returns how many existed
func (s *submissionService) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	if err := validateIDs(ids); err != nil {
		return 0, err
	}
	affected, err := s.repo.BulkDelete(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.metrics.BulkOperationAffected.WithLabelValues("delete").Add(float64(affected))
	return affected, nil
}

// Stats returns totals per status and for today, this week (from Monday) and this month
func (s *submissionService) Stats(ctx context.Context) (*models.SubmissionStats, error) {
	counts, err := s.repo.CountByStatus(ctx, models.SubmissionFilter{})
	if err != nil {
		return nil, err
	}
	stats := tally(counts)

	now := s.now().In(s.location)
	today := startOfDay(now)
	weekday := (int(today.Weekday()) + 6) % 7
	windows := []struct {
		from time.Time
		dest *int64
	}{
		{today, &stats.Today},
		{today.AddDate(0, 0, -weekday), &stats.ThisWeek},
		{time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location), &stats.ThisMonth},
	}
	for _, w := range windows {
		from := w.from
		count, err := s.repo.Count(ctx, models.SubmissionFilter{DateFrom: &from})
		if err != nil {
			return nil, err
		}
		*w.dest = count
	}

	return &stats, nil
}

// tally folds per-status counts into totals
func tally(counts []models.StatusCount) models.SubmissionStats {
	var stats models.SubmissionStats
	for _, c := range counts {
		stats.Total += c.Count
		switch c.Status {
		case models.StatusNew:
			stats.New = c.Count
		case models.StatusRead:
			stats.Read = c.Count
		case models.StatusReplied:
			stats.Replied = c.Count
		case models.StatusArchived:
			stats.Archived = c.Count
		}
	}
	return stats
}

// OpenAttachment implements SubmissionService
func (s *submissionService) OpenAttachment(ctx context.Context, id uint, index int) (*models.Attachment, io.ReadCloser, error) {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(submission.Attachments) {
		return nil, nil, fmt.Errorf("attachment %d: %w", index, apperrors.ErrNotFound)
	}

	attachment := submission.Attachments[index]
	r, err := s.files.Get(attachment.Path)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to open attachment: %w: %w", apperrors.ErrStorageUnavailable, err)
	}
	return &attachment, r, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
