package fixtures

import (
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-workforce-go/internal/repository/memory"
	"github.com/shopspring/decimal"
)

func intPtr(i int) *int { return &i }

// ==========================================
// SEEDED DATA RESULT
// ==========================================

// SeededDataIDs holds IDs of the records written by Seed
type SeededDataIDs struct {
	// Leave Type IDs by code
	LeaveTypeIDs map[string]string // e.g., "ANNUAL" -> "uuid"

	// Employee IDs by employee code
	EmployeeIDs map[string]string // e.g., "EMP-001" -> "uuid"
}

// NewSeededDataIDs creates a new SeededDataIDs with initialized maps
func NewSeededDataIDs() *SeededDataIDs {
	return &SeededDataIDs{
		LeaveTypeIDs: make(map[string]string),
		EmployeeIDs:  make(map[string]string),
	}
}

// ==========================================
// DEFAULT LEAVE TYPES
// ==========================================

// GetDefaultLeaveTypes returns standard leave types based on Indonesian labor law
func GetDefaultLeaveTypes() []leave.LeaveType {
	return []leave.LeaveType{
		// Annual Leave (Cuti Tahunan) - 12 days per year, up to 6 carried forward
		{
			Code:            "ANNUAL",
			Name:            "Cuti Tahunan",
			AnnualQuota:     12,
			CarryForwardCap: 6,
			IsPaid:          true,
		},

		// Sick Leave (Cuti Sakit) - days beyond the quota are taken unpaid
		{
			Code:                "SICK",
			Name:                "Cuti Sakit",
			AnnualQuota:         14,
			AllowUnpaidOverflow: true,
			IsPaid:              true,
		},

		// Marriage Leave (Cuti Menikah)
		{
			Code:        "MARRIAGE",
			Name:        "Cuti Menikah",
			AnnualQuota: 3,
			IsPaid:      true,
		},

		// Maternity Leave (Cuti Melahirkan) - 3 months
		{
			Code:        "MATERNITY",
			Name:        "Cuti Melahirkan",
			AnnualQuota: 90,
			IsPaid:      true,
		},

		// Unpaid Leave (Cuti Tanpa Upah)
		{
			Code:   "UNPAID",
			Name:   "Cuti Tanpa Upah",
			IsPaid: false,
		},
	}
}

// ==========================================
// DEMO EMPLOYEES
// ==========================================

// headOffice is the geofence of the Jakarta office.
var headOffice = geo.Site{
	Center:       geo.Point{Latitude: -6.2088, Longitude: 106.8456},
	RadiusMeters: 150,
}

// GetDemoEmployees returns the employees seeded for local development
func GetDemoEmployees() []employee.Employee {
	return []employee.Employee{
		{
			EmployeeCode:     "EMP-001",
			FullName:         "Andi Wijaya",
			EmploymentStatus: employee.EmploymentStatusActive,
			Timezone:         "Asia/Jakarta",
			Shift: employee.Shift{
				Name:            "Standard Office Hours",
				StartTime:       "09:00",
				EndTime:         "17:00",
				StandardMinutes: 480,
				Site:            &headOffice,
			},
			Salary: employee.SalaryStructure{
				BasicSalary:         decimal.NewFromInt(8000000),
				OvertimeRatePerHour: decimal.NewFromInt(50000),
				Allowances: []employee.SalaryComponent{
					{Name: "Tunjangan Transport", Type: employee.ComponentTypeAllowance, Amount: decimal.NewFromInt(500000)},
					{Name: "Tunjangan Makan", Type: employee.ComponentTypeAllowance, Amount: decimal.NewFromInt(750000)},
				},
				Deductions: []employee.SalaryComponent{
					{Name: "BPJS Kesehatan", Type: employee.ComponentTypeDeduction, Amount: decimal.NewFromInt(80000)},
				},
			},
		},
		{
			EmployeeCode:     "EMP-002",
			FullName:         "Siti Rahmawati",
			EmploymentStatus: employee.EmploymentStatusActive,
			Timezone:         "Asia/Jakarta",
			Shift: employee.Shift{
				Name:            "Night Shift",
				StartTime:       "22:00",
				EndTime:         "06:00",
				StandardMinutes: 480,
				GraceMinutes:    intPtr(10),
				Site:            &headOffice,
			},
			Salary: employee.SalaryStructure{
				BasicSalary:         decimal.NewFromInt(6500000),
				OvertimeRatePerHour: decimal.NewFromInt(45000),
				Allowances: []employee.SalaryComponent{
					{Name: "Tunjangan Shift Malam", Type: employee.ComponentTypeAllowance, Amount: decimal.NewFromInt(600000)},
				},
			},
		},
	}
}

// Seed writes the default leave types and demo employees into an in-memory store.
func Seed(store *memory.Store) *SeededDataIDs {
	ids := NewSeededDataIDs()
	for _, lt := range GetDefaultLeaveTypes() {
		saved := store.PutLeaveType(lt)
		ids.LeaveTypeIDs[saved.Code] = saved.ID
	}
	for _, emp := range GetDemoEmployees() {
		saved := store.PutEmployee(emp)
		ids.EmployeeIDs[saved.EmployeeCode] = saved.ID
	}
	return ids
}
