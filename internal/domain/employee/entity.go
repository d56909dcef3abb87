package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/geo"
	"github.com/shopspring/decimal"
)

// Employee is the read-only view of a staff member the engine needs.
type Employee struct {
	ID               string
	EmployeeCode     string
	FullName         string
	EmploymentStatus EmploymentStatus
	Timezone         string
	Shift            Shift
	Salary           SalaryStructure
	// Entitlements maps leave type ID to the annual quota granted to this employee.
	Entitlements map[string]float64
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// Shift is the recurring daily schedule of an employee.
type Shift struct {
	ID              string
	Name            string
	StartTime       string // "15:04"
	EndTime         string // "15:04"
	StandardMinutes int
	// GraceMinutes overrides the policy grace period when set.
	GraceMinutes *int
	Site         *geo.Site
}

type SalaryStructure struct {
	BasicSalary         decimal.Decimal
	OvertimeRatePerHour decimal.Decimal
	Allowances          []SalaryComponent
	Deductions          []SalaryComponent
}

type ComponentType string

const (
	ComponentTypeAllowance ComponentType = "allowance"
	ComponentTypeDeduction ComponentType = "deduction"
)

type SalaryComponent struct {
	Name   string
	Type   ComponentType
	Amount decimal.Decimal
}

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

// Location resolves the employee's timezone, falling back to def.
func (e Employee) Location(def *time.Location) *time.Location {
	if e.Timezone != "" {
		if loc, err := time.LoadLocation(e.Timezone); err == nil {
			return loc
		}
	}
	if def == nil {
		return time.UTC
	}
	return def
}
