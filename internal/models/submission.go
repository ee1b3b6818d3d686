package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus is the triage state of a contact submission
type SubmissionStatus string

// Submission statuses. Any status may move to any other.
const (
	StatusNew      SubmissionStatus = "new"
	StatusRead     SubmissionStatus = "read"
	StatusReplied  SubmissionStatus = "replied"
	StatusArchived SubmissionStatus = "archived"
)

// AllStatuses lists every status in display order
var AllStatuses = []SubmissionStatus{StatusNew, StatusRead, StatusReplied, StatusArchived}

// IsValid reports whether s is a known status
func (s SubmissionStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusRead, StatusReplied, StatusArchived:
		return true
	}
	return false
}

// Attachment is the metadata of one uploaded file. The bytes live in file storage.
type Attachment struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Submission represents one contact-form event
type Submission struct {
	ID          uint                            `gorm:"primaryKey" json:"id"`
	Name        string                          `gorm:"size:100;not null" json:"name"`
	Email       string                          `gorm:"size:254;not null;index" json:"email"`
	Phone       string                          `gorm:"size:50" json:"phone,omitempty"`
	Subject     string                          `gorm:"size:200" json:"subject"`
	Message     string                          `gorm:"type:text;not null" json:"message"`
	Status      SubmissionStatus                `gorm:"size:20;not null;default:'new';index" json:"status"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	IPAddress   string                          `gorm:"size:45;index:idx_submissions_ip_created,priority:1" json:"ipAddress"`
	UserAgent   string                          `gorm:"size:500" json:"userAgent"`
	CreatedAt   time.Time                       `gorm:"autoCreateTime;index;index:idx_submissions_ip_created,priority:2" json:"createdAt"`
	UpdatedAt   time.Time                       `gorm:"autoUpdateTime" json:"updatedAt"`
	RepliedAt   *time.Time                      `json:"repliedAt"`
}

// TableName returns the table name for Submission
func (Submission) TableName() string {
	return "contact_submissions"
}

// SubmissionFilter narrows listing, counting and export queries.
// DateFrom is inclusive, DateTo is exclusive.
type SubmissionFilter struct {
	Status   SubmissionStatus
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// IsEmpty reports whether no criterion is set
func (f SubmissionFilter) IsEmpty() bool {
	return f.Status == "" && f.Search == "" && f.DateFrom == nil && f.DateTo == nil
}

// SubmissionPage is one page of a listing
type SubmissionPage struct {
	Items      []Submission `json:"items"`
	TotalCount int64        `json:"totalCount"`
	PageCount  int          `json:"pageCount"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
}

// SubmissionStats holds the totals shown on the submissions screen
type SubmissionStats struct {
	Total     int64 `json:"total"`
	New       int64 `json:"new"`
	Read      int64 `json:"read"`
	Replied   int64 `json:"replied"`
	Archived  int64 `json:"archived"`
	Today     int64 `json:"today"`
	ThisWeek  int64 `json:"thisWeek"`
	ThisMonth int64 `json:"thisMonth"`
}
