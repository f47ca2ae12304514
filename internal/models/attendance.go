package models

import "time"

// AttendanceStatus marks how a day was spent.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceHalfDay AttendanceStatus = "half_day"
	AttendanceOnLeave AttendanceStatus = "on_leave"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceHalfDay, AttendanceOnLeave:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one profile/day check-in row. The store enforces at
// most one record per (profile_id, attendance_date).
type AttendanceRecord struct {
	ID                 string           `db:"id" json:"id"`
	ProfileID          string           `db:"profile_id" json:"profile_id"`
	AttendanceDate     time.Time        `db:"attendance_date" json:"attendance_date"`
	CheckInTime        *time.Time       `db:"check_in_time" json:"check_in_time,omitempty"`
	CheckOutTime       *time.Time       `db:"check_out_time" json:"check_out_time,omitempty"`
	CheckInIP          *string          `db:"check_in_ip" json:"check_in_ip,omitempty"`
	CheckOutIP         *string          `db:"check_out_ip" json:"check_out_ip,omitempty"`
	TotalHours         *float64         `db:"total_hours" json:"total_hours,omitempty"`
	Status             AttendanceStatus `db:"status" json:"status"`
	TimesheetCompleted bool             `db:"timesheet_completed" json:"timesheet_completed"`
	Notes              *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// Open reports whether the record has a check-in with no matching check-out.
func (a AttendanceRecord) Open() bool {
	return a.CheckInTime != nil && a.CheckOutTime == nil
}

// AttendanceListRow extends the record with profile metadata for listings.
type AttendanceListRow struct {
	AttendanceRecord
	EmployeeName  string  `db:"employee_name" json:"employee_name"`
	EmployeeEmail *string `db:"employee_email" json:"employee_email,omitempty"`
}

// TimesheetSlotInput is one of the fixed capture slots offered at check-out.
// Slots with either time missing are dropped, not rejected.
type TimesheetSlotInput struct {
	FromTime    string `json:"from_time"`
	ToTime      string `json:"to_time"`
	Description string `json:"description"`
}

// CheckOutRequest carries the day's timesheet slots.
type CheckOutRequest struct {
	Entries []TimesheetSlotInput `json:"entries" validate:"required,max=10,dive"`
}

// TodayAttendance reports the caller's state for the current day.
type TodayAttendance struct {
	CheckedIn  bool              `json:"checked_in"`
	CheckedOut bool              `json:"checked_out"`
	Record     *AttendanceRecord `json:"record,omitempty"`
}

// AttendanceFilter scopes listing queries.
type AttendanceFilter struct {
	ProfileID string
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    *AttendanceStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
