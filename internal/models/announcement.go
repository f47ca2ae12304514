package models

import (
	"time"

	"github.com/lib/pq"
)

// AnnouncementPriority orders announcements in dashboards.
type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityNormal AnnouncementPriority = "normal"
	PriorityHigh   AnnouncementPriority = "high"
)

// Valid returns true when the priority is a supported value.
func (p AnnouncementPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	default:
		return false
	}
}

// Announcement is a company-wide or role-targeted notice. An empty
// target_roles array means the announcement is visible to everyone.
type Announcement struct {
	ID          string               `db:"id" json:"id"`
	Title       string               `db:"title" json:"title"`
	Content     string               `db:"content" json:"content"`
	Priority    AnnouncementPriority `db:"priority" json:"priority"`
	TargetRoles pq.StringArray       `db:"target_roles" json:"target_roles"`
	IsActive    bool                 `db:"is_active" json:"is_active"`
	PublishedAt *time.Time           `db:"published_at" json:"published_at,omitempty"`
	ExpiresAt   *time.Time           `db:"expires_at" json:"expires_at,omitempty"`
	CreatedBy   *string              `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}

// VisibleTo reports whether the announcement targets the given role.
func (a Announcement) VisibleTo(role UserRole) bool {
	if len(a.TargetRoles) == 0 {
		return true
	}
	for _, r := range a.TargetRoles {
		if UserRole(r) == role {
			return true
		}
	}
	return false
}

// AnnouncementFilter scopes announcement listing queries.
type AnnouncementFilter struct {
	Role       *UserRole
	ActiveOnly bool
	Page       int
	PageSize   int
}
