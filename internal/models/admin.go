package models

// AdminUser is the read-only view of an account owned by the auth service
type AdminUser struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100" json:"name"`
	Email    string `gorm:"size:254" json:"email"`
	Role     string `gorm:"size:20" json:"role"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

// TableName returns the table name for AdminUser
func (AdminUser) TableName() string {
	return "users"
}

// RoleAdmin is the role allowed into the admin console
const RoleAdmin = "admin"
