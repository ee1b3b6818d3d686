package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/welldanyogia/brochure-contact-backend/internal/metrics"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"github.com/welldanyogia/brochure-contact-backend/internal/repository"
)

// DefaultExportMaxRows caps an unfiltered export
const DefaultExportMaxRows = 10000

// ExportHeader is the fixed column projection of a CSV export
var ExportHeader = []string{"ID", "Date", "Time", "Name", "Email", "Phone", "Subject", "Message", "Status", "Attachments", "IP"}

// ExportService writes submissions as CSV
type ExportService interface {
	// ExportCSV streams the submissions matching filter to w, newest first,
	// and returns the number of data rows written. Output is buffered, so a
	// failure before the first few kilobytes leaves w untouched.
	ExportCSV(ctx context.Context, filter models.SubmissionFilter, w io.Writer) (int, error)
}

// exportService implements ExportService
type exportService struct {
	repo     repository.SubmissionRepository
	metrics  *metrics.Metrics
	maxRows  int
	location *time.Location
}

// NewExportService creates a new ExportService instance. Unfiltered exports
// stop after maxRows rows; dates are rendered in loc (local time when nil).
func NewExportService(repo repository.SubmissionRepository, m *metrics.Metrics, maxRows int, loc *time.Location) ExportService {
	if m == nil {
		m = metrics.NewNop()
	}
	if maxRows <= 0 {
		maxRows = DefaultExportMaxRows
	}
	if loc == nil {
		loc = time.Local
	}
	return &exportService{repo: repo, metrics: m, maxRows: maxRows, location: loc}
}

// ExportCSV implements ExportService
func (s *exportService) ExportCSV(ctx context.Context, filter models.SubmissionFilter, w io.Writer) (int, error) {
	if err := validateFilter(filter); err != nil {
		return 0, err
	}

	limit := 0
	if filter.IsEmpty() {
		limit = s.maxRows
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	rows := 0
	err := s.repo.Each(ctx, filter, limit, func(sub *models.Submission) error {
		if err := cw.Write(s.record(sub)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
		rows++
		return nil
	})
	if err != nil {
		return rows, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("failed to flush csv: %w", err)
	}

	s.metrics.ExportedRows.Add(float64(rows))
	return rows, nil
}

func (s *exportService) record(sub *models.Submission) []string {
	created := sub.CreatedAt.In(s.location)

	return []string{
		strconv.FormatUint(uint64(sub.ID), 10),
		created.Format("2006-01-02"),
		created.Format("15:04:05"),
		sub.Name,
		sub.Email,
		sub.Phone,
		sub.Subject,
		sub.Message,
		string(sub.Status),
		strconv.Itoa(len(sub.Attachments)),
		sub.IPAddress,
	}
}

// ExportFilename returns the download name for an export made at t
func ExportFilename(t time.Time) string {
	return "submissions-" + t.Format("2006-01-02") + ".csv"
}
