package repository

import (
	"context"

	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"gorm.io/gorm"
)

// CMS tables counted on the dashboard
const (
	ProjectsTable     = "projects"
	ServicesTable     = "services"
	TestimonialsTable = "testimonials"
)

// ContentRepository counts rows of the CMS tables
type ContentRepository interface {
	Counts(ctx context.Context) (models.ContentCounts, error)
}

// contentRepository implements ContentRepository using GORM
type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new ContentRepository instance
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// Counts returns the number of projects, services and testimonials
func (r *contentRepository) Counts(ctx context.Context) (models.ContentCounts, error) {
	var counts models.ContentCounts
	targets := []struct {
		table string
		dest  *int64
	}{
		{ProjectsTable, &counts.Projects},
		{ServicesTable, &counts.Services},
		{TestimonialsTable, &counts.Testimonials},
	}

	for _, t := range targets {
		if err := r.db.WithContext(ctx).Table(t.table).Count(t.dest).Error; err != nil {
			return models.ContentCounts{}, storageError("count "+t.table, err)
		}
	}
	return counts, nil
}
