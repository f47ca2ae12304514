package models

import "time"

// LeaveStatus tracks a leave request lifecycle.
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

// Valid returns true when the status is a supported value.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected, LeaveCancelled:
		return true
	default:
		return false
	}
}

// LeaveType defines a category of leave and its yearly allowance.
type LeaveType struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Description      *string   `db:"description" json:"description,omitempty"`
	DefaultDays      int       `db:"default_days" json:"default_days"`
	IsPaid           bool      `db:"is_paid" json:"is_paid"`
	RequiresApproval bool      `db:"requires_approval" json:"requires_approval"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// LeaveBalance tracks remaining days per profile, type and year.
type LeaveBalance struct {
	ID          string    `db:"id" json:"id"`
	ProfileID   string    `db:"profile_id" json:"profile_id"`
	LeaveTypeID string    `db:"leave_type_id" json:"leave_type_id"`
	Year        int       `db:"year" json:"year"`
	TotalDays   float64   `db:"total_days" json:"total_days"`
	UsedDays    float64   `db:"used_days" json:"used_days"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Remaining returns the days still available.
func (b LeaveBalance) Remaining() float64 {
	return b.TotalDays - b.UsedDays
}

// Leave is a single leave request.
type Leave struct {
	ID              string      `db:"id" json:"id"`
	ProfileID       string      `db:"profile_id" json:"profile_id"`
	LeaveTypeID     string      `db:"leave_type_id" json:"leave_type_id"`
	StartDate       time.Time   `db:"start_date" json:"start_date"`
	EndDate         time.Time   `db:"end_date" json:"end_date"`
	TotalDays       float64     `db:"total_days" json:"total_days"`
	Reason          *string     `db:"reason" json:"reason,omitempty"`
	Status          LeaveStatus `db:"status" json:"status"`
	ApprovedBy      *string     `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason *string     `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// LeaveFilter scopes leave listing queries.
type LeaveFilter struct {
	ProfileID string
	Status    *LeaveStatus
	Year      int
	Page      int
	PageSize  int
}
