package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayrollStatus string

const (
	PayrollStatusDraft     PayrollStatus = "draft"
	PayrollStatusProcessed PayrollStatus = "processed"
	PayrollStatusPaid      PayrollStatus = "paid"
)

// Locked reports a status whose record may no longer be recomputed.
func (s PayrollStatus) Locked() bool {
	return s == PayrollStatusProcessed || s == PayrollStatusPaid
}

// PayrollRecord is the payslip of one employee for one period.
// GrossSalary - Deductions == NetSalary holds exactly.
type PayrollRecord struct {
	ID           string
	EmployeeID   string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	DaysInPeriod int

	BasicSalary      decimal.Decimal
	ProratedBasic    decimal.Decimal
	Allowances       decimal.Decimal
	AllowancesDetail map[string]decimal.Decimal // {"Transport": 500000}
	OvertimeMinutes  int
	OvertimePay      decimal.Decimal
	GrossSalary      decimal.Decimal

	UnpaidLeaveDays      decimal.Decimal
	UnpaidLeaveDeduction decimal.Decimal
	StatutoryDeductions  decimal.Decimal
	DeductionsDetail     map[string]decimal.Decimal // {"BPJS": 100000}
	LateMinutes          int
	LatenessPenalty      decimal.Decimal
	AbsentDays           int
	AbsencePenalty       decimal.Decimal
	Deductions           decimal.Decimal
	NetSalary            decimal.Decimal

	Status      PayrollStatus
	ProcessedAt *time.Time
	ProcessedBy *string
	PaidAt      *time.Time
	PaymentDate *time.Time
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Policy holds the configurable payroll penalty and deduction rates.
// Zero values disable the corresponding rule.
type Policy struct {
	LatePenaltyPerMinute decimal.Decimal
	AbsencePenaltyPerDay decimal.Decimal
	StatutoryRateOfBasic decimal.Decimal
}

// Component is a named allowance or deduction amount.
type Component struct {
	Name   string
	Amount decimal.Decimal
}

// CalculationInput is everything a payslip is computed from.
type CalculationInput struct {
	DaysInPeriod        int
	BasicSalary         decimal.Decimal
	Allowances          []Component
	Deductions          []Component
	OvertimeMinutes     int
	OvertimeRatePerHour decimal.Decimal
	UnpaidLeaveDays     decimal.Decimal
	LateMinutes         int
	AbsentDays          int
	Policy              Policy
}

// Breakdown is the result of a payslip calculation.
type Breakdown struct {
	ProratedBasic        decimal.Decimal
	Allowances           decimal.Decimal
	AllowancesDetail     map[string]decimal.Decimal
	OvertimePay          decimal.Decimal
	Gross                decimal.Decimal
	UnpaidLeaveDeduction decimal.Decimal
	StatutoryDeductions  decimal.Decimal
	DeductionsDetail     map[string]decimal.Decimal
	LatenessPenalty      decimal.Decimal
	AbsencePenalty       decimal.Decimal
	Deductions           decimal.Decimal
	Net                  decimal.Decimal
}
