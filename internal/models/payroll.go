package models

import "time"

// PaymentStatus tracks payroll disbursement.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOnHold  PaymentStatus = "on_hold"
)

// Valid returns true when the status is a supported value.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOnHold:
		return true
	default:
		return false
	}
}

// Payroll is one profile's salary computation for a month/year. Gross, total
// deductions and net are derived server-side from the component fields.
type Payroll struct {
	ID                  string        `db:"id" json:"id"`
	ProfileID           string        `db:"profile_id" json:"profile_id"`
	Month               int           `db:"month" json:"month"`
	Year                int           `db:"year" json:"year"`
	BasicSalary         float64       `db:"basic_salary" json:"basic_salary"`
	HRA                 float64       `db:"hra" json:"hra"`
	DA                  float64       `db:"da" json:"da"`
	ConveyanceAllowance float64       `db:"conveyance_allowance" json:"conveyance_allowance"`
	MedicalAllowance    float64       `db:"medical_allowance" json:"medical_allowance"`
	SpecialAllowance    float64       `db:"special_allowance" json:"special_allowance"`
	Bonus               float64       `db:"bonus" json:"bonus"`
	OtherEarnings       float64       `db:"other_earnings" json:"other_earnings"`
	PF                  float64       `db:"pf" json:"pf"`
	ESI                 float64       `db:"esi" json:"esi"`
	TDS                 float64       `db:"tds" json:"tds"`
	ProfessionalTax     float64       `db:"professional_tax" json:"professional_tax"`
	LoanDeduction       float64       `db:"loan_deduction" json:"loan_deduction"`
	OtherDeductions     float64       `db:"other_deductions" json:"other_deductions"`
	GrossEarnings       float64       `db:"gross_earnings" json:"gross_earnings"`
	TotalDeductions     float64       `db:"total_deductions" json:"total_deductions"`
	NetSalary           float64       `db:"net_salary" json:"net_salary"`
	PaymentStatus       PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentDate         *time.Time    `db:"payment_date" json:"payment_date,omitempty"`
	CreatedBy           *string       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// Recompute refreshes the derived totals from the component fields.
func (p *Payroll) Recompute() {
	p.GrossEarnings = p.BasicSalary + p.HRA + p.DA + p.ConveyanceAllowance +
		p.MedicalAllowance + p.SpecialAllowance + p.Bonus + p.OtherEarnings
	p.TotalDeductions = p.PF + p.ESI + p.TDS + p.ProfessionalTax +
		p.LoanDeduction + p.OtherDeductions
	p.NetSalary = p.GrossEarnings - p.TotalDeductions
}

// Payslip records a generated PDF for a payroll row.
type Payslip struct {
	ID            string     `db:"id" json:"id"`
	PayrollID     string     `db:"payroll_id" json:"payroll_id"`
	ProfileID     string     `db:"profile_id" json:"profile_id"`
	PayslipNumber *string    `db:"payslip_number" json:"payslip_number,omitempty"`
	FilePath      *string    `db:"file_path" json:"-"`
	GeneratedAt   *time.Time `db:"generated_at" json:"generated_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// PayrollFilter scopes payroll listing queries.
type PayrollFilter struct {
	ProfileID string
	Month     int
	Year      int
	Status    *PaymentStatus
	Page      int
	PageSize  int
}
