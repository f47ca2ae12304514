package models

import "time"

// TimesheetStatus tracks a timesheet through submission and approval.
type TimesheetStatus string

const (
	TimesheetDraft     TimesheetStatus = "draft"
	TimesheetSubmitted TimesheetStatus = "submitted"
	TimesheetApproved  TimesheetStatus = "approved"
	TimesheetRejected  TimesheetStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s TimesheetStatus) Valid() bool {
	switch s {
	case TimesheetDraft, TimesheetSubmitted, TimesheetApproved, TimesheetRejected:
		return true
	default:
		return false
	}
}

// MaxTimesheetEntries is the fixed number of capture slots per day.
const MaxTimesheetEntries = 10

// Timesheet is created exactly once per check-out, dated like its
// attendance record, and is immutable in the check-out workflow.
type Timesheet struct {
	ID            string          `db:"id" json:"id"`
	ProfileID     string          `db:"profile_id" json:"profile_id"`
	TimesheetDate time.Time       `db:"timesheet_date" json:"timesheet_date"`
	Status        TimesheetStatus `db:"status" json:"status"`
	SubmittedAt   *time.Time      `db:"submitted_at" json:"submitted_at,omitempty"`
	TotalHours    *float64        `db:"total_hours" json:"total_hours,omitempty"`
	ApprovedBy    *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// TimesheetEntry is one captured time range. EntryNumber is the 1-based slot
// position and is unique within a timesheet; slots lacking either time are
// never persisted.
type TimesheetEntry struct {
	ID          string    `db:"id" json:"id"`
	TimesheetID string    `db:"timesheet_id" json:"timesheet_id"`
	EntryNumber int       `db:"entry_number" json:"entry_number"`
	FromTime    *string   `db:"from_time" json:"from_time,omitempty"`
	ToTime      *string   `db:"to_time" json:"to_time,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	Hours       *float64  `db:"hours" json:"hours,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
