package repository

import (
	"context"

	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"gorm.io/gorm"
)

// AdminRepository reads admin accounts owned by the auth service
type AdminRepository interface {
	ListActive(ctx context.Context) ([]models.AdminUser, error)
}

// adminRepository implements AdminRepository using GORM
type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new AdminRepository instance
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

// ListActive returns every active account holding the admin role
func (r *adminRepository) ListActive(ctx context.Context) ([]models.AdminUser, error) {
	var admins []models.AdminUser
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Order("id ASC").
		Find(&admins).Error
	if err != nil {
		return nil, storageError("list active admins", err)
	}
	return admins, nil
}
