package payroll

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	registerSheet    = "Payroll Register"
	registerPageSize = 1000
)

var registerHeader = []any{
	"Employee Code", "Employee Name", "Period Start", "Period End", "Days",
	"Basic Salary", "Prorated Basic", "Allowances", "Overtime Minutes", "Overtime Pay",
	"Gross Salary", "Unpaid Leave Days", "Unpaid Leave Deduction", "Statutory Deductions",
	"Late Minutes", "Lateness Penalty", "Absent Days", "Absence Penalty",
	"Total Deductions", "Net Salary", "Status",
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// ExportRegister implements payroll.PayrollService.
func (s *PayrollServiceImpl) ExportRegister(ctx context.Context, filter payroll.PayrollFilter) ([]byte, error) {
	filter.Page = 1
	filter.Limit = registerPageSize
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var records []payroll.PayrollRecord
	for {
		page, total, err := s.payrollRepo.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list payroll records: %w", err)
		}
		records = append(records, page...)
		if len(page) == 0 || int64(len(records)) >= total {
			break
		}
		filter.Page++
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(registerSheet, "A1", &registerHeader); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(registerSheet, 1, 1, headerStyle); err != nil {
		return nil, err
	}

	names := make(map[string][2]string)
	for i, r := range records {
		name, ok := names[r.EmployeeID]
		if !ok {
			// Employees that left the directory still appear by ID.
			name = [2]string{r.EmployeeID, ""}
			if emp, err := s.directory.GetEmployee(ctx, r.EmployeeID); err == nil {
				name = [2]string{emp.EmployeeCode, emp.FullName}
			}
			names[r.EmployeeID] = name
		}

		row := []any{
			name[0], name[1],
			r.PeriodStart.Format(worktime.DateLayout), r.PeriodEnd.Format(worktime.DateLayout), r.DaysInPeriod,
			money(r.BasicSalary), money(r.ProratedBasic), money(r.Allowances), r.OvertimeMinutes, money(r.OvertimePay),
			money(r.GrossSalary), r.UnpaidLeaveDays.InexactFloat64(), money(r.UnpaidLeaveDeduction), money(r.StatutoryDeductions),
			r.LateMinutes, money(r.LatenessPenalty), r.AbsentDays, money(r.AbsencePenalty),
			money(r.Deductions), money(r.NetSalary), string(r.Status),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(registerSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(registerSheet, "A", "B", 22); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write payroll register: %w", err)
	}
	return buf.Bytes(), nil
}
