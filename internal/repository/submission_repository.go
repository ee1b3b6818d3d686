package repository

import (
	"context"
	"strings"
	"time"

	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"gorm.io/gorm"
)

// SubmissionRepository defines the interface for submission data access
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter, limit, offset int) ([]models.Submission, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.SubmissionStatus, at time.Time) error
	BulkUpdateStatus(ctx context.Context, ids []uint, status models.SubmissionStatus, at time.Time) (int64, error)
	Delete(ctx context.Context, id uint) error
	BulkDelete(ctx context.Context, ids []uint) (int64, error)
	Count(ctx context.Context, filter models.SubmissionFilter) (int64, error)
	CountByStatus(ctx context.Context, filter models.SubmissionFilter) ([]models.StatusCount, error)
	CountByIPSince(ctx context.Context, ip string, since time.Time) (int64, error)
	OldestByIPSince(ctx context.Context, ip string, since time.Time) (time.Time, error)
	CreatedTimes(ctx context.Context, filter models.SubmissionFilter) ([]time.Time, error)
	ReplyIntervals(ctx context.Context) ([]models.ReplyInterval, error)
	Each(ctx context.Context, filter models.SubmissionFilter, limit int, fn func(*models.Submission) error) error
}

// submissionRepository implements SubmissionRepository using GORM
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new SubmissionRepository instance
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// filtered returns a fresh query over the submissions table with filter applied
func (r *submissionRepository) filtered(ctx context.Context, filter models.SubmissionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(subject) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		query = query.Where("created_at < ?", filter.DateTo.UTC())
	}
	return query
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Create inserts a new submission in a single statement
func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.Attachments == nil {
		submission.Attachments = []models.Attachment{}
	}
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		return storageError("create submission", err)
	}
	return nil
}

// GetByID retrieves a submission by its ID
func (r *submissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, lookupError("get submission by ID", err)
	}
	return &submission, nil
}

// List retrieves a page of submissions newest first, with the total matching count
func (r *submissionRepository) List(ctx context.Context, filter models.SubmissionFilter, limit, offset int) ([]models.Submission, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, storageError("count submissions", err)
	}

	submissions := make([]models.Submission, 0, limit)
	err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&submissions).Error
	if err != nil {
		return nil, 0, storageError("list submissions", err)
	}

	return submissions, total, nil
}

// statusUpdates builds the column set for a status change. Entering replied
// stamps replied_at only when it is still NULL.
func statusUpdates(status models.SubmissionStatus, at time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": at.UTC(),
	}
	if status == models.StatusReplied {
		updates["replied_at"] = gorm.Expr("COALESCE(replied_at, ?)", at.UTC())
	}
	return updates
}

// UpdateStatus changes the status of one submission in a single UPDATE
func (r *submissionRepository) UpdateStatus(ctx context.Context, id uint, status models.SubmissionStatus, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(statusUpdates(status, at))
	if result.Error != nil {
		return storageError("update submission status", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkUpdateStatus changes the status of every listed submission in a single UPDATE
func (r *submissionRepository) BulkUpdateStatus(ctx context.Context, ids []uint, status models.SubmissionStatus, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrInvalidInput
	}
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id IN ?", ids).
		Updates(statusUpdates(status, at))
	if result.Error != nil {
		return 0, storageError("bulk update submission status", result.Error)
	}
	return result.RowsAffected, nil
}

// Delete hard-deletes a submission by its ID
func (r *submissionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Submission{}, id)
	if result.Error != nil {
		return storageError("delete submission", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkDelete hard-deletes every listed submission in a single DELETE
func (r *submissionRepository) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrInvalidInput
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Submission{})
	if result.Error != nil {
		return 0, storageError("bulk delete submissions", result.Error)
	}
	return result.RowsAffected, nil
}

// Count counts submissions matching filter
func (r *submissionRepository) Count(ctx context.Context, filter models.SubmissionFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, storageError("count submissions", err)
	}
	return count, nil
}

// CountByStatus groups matching submissions by status, largest group first
func (r *submissionRepository) CountByStatus(ctx context.Context, filter models.SubmissionFilter) ([]models.StatusCount, error) {
	counts := make([]models.StatusCount, 0, len(models.AllStatuses))
	err := r.filtered(ctx, filter).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("COUNT(*) DESC").
		Order("status ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, storageError("count submissions by status", err)
	}
	return counts, nil
}

// CountByIPSince counts submissions accepted from ip after since
func (r *submissionRepository) CountByIPSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("ip_address = ? AND created_at > ?", ip, since.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, storageError("count submissions by IP", err)
	}
	return count, nil
}

// OldestByIPSince returns the creation time of the oldest submission from ip after since
func (r *submissionRepository) OldestByIPSince(ctx context.Context, ip string, since time.Time) (time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("ip_address = ? AND created_at > ?", ip, since.UTC()).
		Order("created_at ASC").
		Limit(1).
		Pluck("created_at", &times).Error
	if err != nil {
		return time.Time{}, storageError("find oldest submission by IP", err)
	}
	if len(times) == 0 {
		return time.Time{}, ErrNotFound
	}
	return times[0], nil
}

// CreatedTimes returns the creation time of every matching submission, oldest first
func (r *submissionRepository) CreatedTimes(ctx context.Context, filter models.SubmissionFilter) ([]time.Time, error) {
	var times []time.Time
	err := r.filtered(ctx, filter).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, storageError("load submission timestamps", err)
	}
	return times, nil
}

// ReplyIntervals returns creation and first-reply times of every replied submission
func (r *submissionRepository) ReplyIntervals(ctx context.Context) ([]models.ReplyInterval, error) {
	var intervals []models.ReplyInterval
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("created_at, replied_at").
		Where("replied_at IS NOT NULL").
		Scan(&intervals).Error
	if err != nil {
		return nil, storageError("load reply intervals", err)
	}
	return intervals, nil
}

// Each streams matching submissions newest first to fn, stopping at limit rows
// when limit is positive or at the first error returned by fn.
func (r *submissionRepository) Each(ctx context.Context, filter models.SubmissionFilter, limit int, fn func(*models.Submission) error) error {
	query := r.filtered(ctx, filter).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	rows, err := query.Rows()
	if err != nil {
		return storageError("query submissions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var submission models.Submission
		if err := r.db.ScanRows(rows, &submission); err != nil {
			return storageError("scan submission", err)
		}
		if err := fn(&submission); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return storageError("iterate submissions", err)
	}
	return nil
}
