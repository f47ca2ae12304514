package models

import "time"

// EmploymentStatus captures an employee's lifecycle state.
type EmploymentStatus string

const (
	EmploymentActive   EmploymentStatus = "active"
	EmploymentFired    EmploymentStatus = "fired"
	EmploymentResigned EmploymentStatus = "resigned"
	EmploymentOnLeave  EmploymentStatus = "on_leave"
)

// Valid returns true when the status is a supported value.
func (s EmploymentStatus) Valid() bool {
	switch s {
	case EmploymentActive, EmploymentFired, EmploymentResigned, EmploymentOnLeave:
		return true
	default:
		return false
	}
}

// Profile is the employee master record, distinct from the login account.
type Profile struct {
	ID               string           `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"user_id"`
	EmployeeID       *string          `db:"employee_id" json:"employee_id,omitempty"`
	FirstName        string           `db:"first_name" json:"first_name"`
	LastName         string           `db:"last_name" json:"last_name"`
	Email            string           `db:"email" json:"email"`
	Phone            *string          `db:"phone" json:"phone,omitempty"`
	Gender           *string          `db:"gender" json:"gender,omitempty"`
	DateOfBirth      *time.Time       `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address          *string          `db:"address" json:"address,omitempty"`
	City             *string          `db:"city" json:"city,omitempty"`
	State            *string          `db:"state" json:"state,omitempty"`
	Country          *string          `db:"country" json:"country,omitempty"`
	DepartmentID     *string          `db:"department_id" json:"department_id,omitempty"`
	DesignationID    *string          `db:"designation_id" json:"designation_id,omitempty"`
	ReportingManager *string          `db:"reporting_manager" json:"reporting_manager,omitempty"`
	EmploymentStatus EmploymentStatus `db:"employment_status" json:"employment_status"`
	JoiningDate      *time.Time       `db:"joining_date" json:"joining_date,omitempty"`
	BankName         *string          `db:"bank_name" json:"bank_name,omitempty"`
	BankAccountNo    *string          `db:"bank_account_number" json:"bank_account_number,omitempty"`
	BankIFSC         *string          `db:"bank_ifsc" json:"bank_ifsc,omitempty"`
	PANNumber        *string          `db:"pan_number" json:"pan_number,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last names for display.
func (p Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ProfileFilter captures filtering criteria for listing profiles.
type ProfileFilter struct {
	EmploymentStatus *EmploymentStatus
	DepartmentID     string
	Search           string
	Page             int
	PageSize         int
	SortBy           string
	SortOrder        string
}
