package payroll

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
	"github.com/cmlabs-hris/hris-workforce-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubLeaveDays map[string][]leave.LeaveDay

func (s stubLeaveDays) ApprovedLeaveDays(_ context.Context, employeeID string, from, to time.Time) ([]leave.LeaveDay, error) {
	var out []leave.LeaveDay
	for _, d := range s[employeeID] {
		if !d.Date.Before(from) && !d.Date.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

type fixture struct {
	svc            payroll.PayrollService
	store          *memory.Store
	attendanceRepo attendance.AttendanceRepository
	leaveDays      stubLeaveDays
}

func newFixture(t *testing.T, policy payroll.Policy) *fixture {
	t.Helper()

	store := memory.NewStore()
	attendanceRepo := memory.NewAttendanceRepository(store)
	leaveDays := stubLeaveDays{}

	return &fixture{
		svc: NewPayrollService(
			memory.NewTxManager(store),
			memory.NewPayrollRepository(store),
			attendanceRepo,
			leaveDays,
			memory.NewEmployeeDirectory(store),
			policy,
			2,
		),
		store:          store,
		attendanceRepo: attendanceRepo,
		leaveDays:      leaveDays,
	}
}

func (f *fixture) employee(code string, salary employee.SalaryStructure) employee.Employee {
	return f.store.PutEmployee(employee.Employee{
		EmployeeCode:     code,
		FullName:         "Employee " + code,
		EmploymentStatus: employee.EmploymentStatusActive,
		Salary:           salary,
	})
}

func (f *fixture) record(t *testing.T, employeeID string, date time.Time, status attendance.Status, mutate ...func(*attendance.Attendance)) {
	t.Helper()
	rec := attendance.Attendance{EmployeeID: employeeID, Date: date, Status: status}
	for _, m := range mutate {
		m(&rec)
	}
	_, err := f.attendanceRepo.Create(context.Background(), rec)
	require.NoError(t, err)
}

// fillPresent marks every date of the range present except the skipped days of month.
func (f *fixture) fillPresent(t *testing.T, employeeID string, start, end time.Time, skip ...int) {
	t.Helper()
	skipped := make(map[int]bool, len(skip))
	for _, d := range skip {
		skipped[d] = true
	}
	for _, date := range worktime.DatesBetween(start, end) {
		if skipped[date.Day()] {
			continue
		}
		f.record(t, employeeID, date, attendance.StatusPresent)
	}
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func juneRequest(employeeID string) payroll.RunPayrollRequest {
	return payroll.RunPayrollRequest{EmployeeID: employeeID, PeriodStart: "2024-06-01", PeriodEnd: "2024-06-30"}
}

func TestRunPayroll_UnpaidLeaveScenario(t *testing.T) {
	f := newFixture(t, payroll.Policy{})
	emp := f.employee("EMP-001", employee.SalaryStructure{BasicSalary: dec("30000")})

	f.fillPresent(t, emp.ID, day(1), day(30), 29, 30)
	f.leaveDays[emp.ID] = []leave.LeaveDay{
		{Date: day(29), Fraction: 1, Paid: false},
		{Date: day(30), Fraction: 1, Paid: false},
	}

	resp, err := f.svc.RunPayroll(context.Background(), juneRequest(emp.ID))
	require.NoError(t, err)

	assert.Equal(t, 30, resp.DaysInPeriod)
	assert.True(t, resp.UnpaidLeaveDays.Equal(dec("2")))
	assert.True(t, resp.GrossSalary.Equal(dec("28000")), "gross %s", resp.GrossSalary)
	assert.True(t, resp.Deductions.Equal(dec("2000")), "deductions %s", resp.Deductions)
	assert.True(t, resp.NetSalary.Equal(dec("26000")), "net %s", resp.NetSalary)
	assert.Equal(t, "draft", resp.Status)
}

func TestRunPayroll_IncompletePeriod(t *testing.T) {
	f := newFixture(t, payroll.Policy{})
	emp := f.employee("EMP-001", employee.SalaryStructure{BasicSalary: dec("30000")})

	f.fillPresent(t, emp.ID, day(1), day(30), 15, 16)
	f.record(t, emp.ID, day(16), attendance.StatusPending)

	_, err := f.svc.RunPayroll(context.Background(), juneRequest(emp.ID))
	require.ErrorIs(t, err, payroll.ErrIncompletePeriod)

	var incomplete *payroll.IncompletePeriodError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []time.Time{day(15), day(16)}, incomplete.MissingDates)

	list, err := f.svc.ListRecords(context.Background(), payroll.PayrollFilter{EmployeeID: &emp.ID})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestRunPayroll_PaidLeaveSettlesDates(t *testing.T) {
	f := newFixture(t, payroll.Policy{})
	emp := f.employee("EMP-001", employee.SalaryStructure{BasicSalary: dec("30000")})

	f.fillPresent(t, emp.ID, day(1), day(30), 10)
	f.leaveDays[emp.ID] = []leave.LeaveDay{{Date: day(10), Fraction: 1, Paid: true}}

	resp, err := f.svc.RunPayroll(context.Background(), juneRequest(emp.ID))
	require.NoError(t, err)
	assert.True(t, resp.NetSalary.Equal(dec("30000")))
	assert.True(t, resp.UnpaidLeaveDays.IsZero())
}

func TestRunPayroll_PenaltiesAndOvertime(t *testing.T) {
	f := newFixture(t, payroll.Policy{
		LatePenaltyPerMinute: dec("100"),
		AbsencePenaltyPerDay: dec("1000"),
	})
	emp := f.employee("EMP-001", employee.SalaryStructure{
		BasicSalary:         dec("30000"),
		OvertimeRatePerHour: dec("600"),
	})

	f.record(t, emp.ID, day(3), attendance.StatusLate, func(a *attendance.Attendance) { a.LateMinutes = 20 })
	f.record(t, emp.ID, day(4), attendance.StatusPresent, func(a *attendance.Attendance) {
		a.LateMinutes = 3
		a.OvertimeMinutes = 120
	})
	f.record(t, emp.ID, day(5), attendance.StatusAbsent)

	resp, err := f.svc.RunPayroll(context.Background(), payroll.RunPayrollRequest{
		EmployeeID: emp.ID, PeriodStart: "2024-06-03", PeriodEnd: "2024-06-05",
	})
	require.NoError(t, err)

	assert.Equal(t, 20, resp.LateMinutes)
	assert.Equal(t, 1, resp.AbsentDays)
	assert.Equal(t, 120, resp.OvertimeMinutes)
	assert.True(t, resp.OvertimePay.Equal(dec("1200")))
	assert.True(t, resp.GrossSalary.Equal(dec("31200")))
	assert.True(t, resp.LatenessPenalty.Equal(dec("2000")))
	assert.True(t, resp.AbsencePenalty.Equal(dec("1000")))
	assert.True(t, resp.NetSalary.Equal(dec("28200")))
	assert.True(t, resp.GrossSalary.Sub(resp.Deductions).Equal(resp.NetSalary))
}

func TestRunPayroll_ReplacesDraftButNotProcessed(t *testing.T) {
	f := newFixture(t, payroll.Policy{})
	ctx := context.Background()
	emp := f.employee("EMP-001", employee.SalaryStructure{BasicSalary: dec("30000")})
	f.fillPresent(t, emp.ID, day(1), day(30))

	first, err := f.svc.RunPayroll(ctx, juneRequest(emp.ID))
	require.NoError(t, err)

	second, err := f.svc.RunPayroll(ctx, juneRequest(emp.ID))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	processed, err := f.svc.Process(ctx, first.ID, "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, "processed", processed.Status)
	assert.NotNil(t, processed.ProcessedAt)

	_, err = f.svc.RunPayroll(ctx, juneRequest(emp.ID))
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)

	_, err = f.svc.Process(ctx, first.ID, "mgr-1")
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)

	paid, err := f.svc.MarkPaid(ctx, payroll.MarkPaidRequest{ID: first.ID, PaymentDate: "2024-07-01"})
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	require.NotNil(t, paid.PaymentDate)
	assert.Equal(t, "2024-07-01", *paid.PaymentDate)

	_, err = f.svc.RunPayroll(ctx, juneRequest(emp.ID))
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)

	_, err = f.svc.Process(ctx, first.ID, "mgr-1")
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)
	_, err = f.svc.MarkPaid(ctx, payroll.MarkPaidRequest{ID: first.ID, PaymentDate: "2024-07-02"})
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)
}

func TestMarkPaid_RequiresProcessed(t *testing.T) {
	f := newFixture(t, payroll.Policy{})
	ctx := context.Background()
	emp := f.employee("EMP-001", employee.SalaryStructure{BasicSalary: dec("30000")})
	f.fillPresent(t, emp.ID, day(1), day(30))

	draft, err := f.svc.RunPayroll(ctx, juneRequest(emp.ID))
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(ctx, payroll.MarkPaidRequest{ID: draft.ID, PaymentDate: "2024-07-01"})
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	_, err = f.svc.Process(ctx, "missing", "mgr-1")
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)
}

func TestRunPayroll_NegativeNetIsNotStored(t *testing.T) {
	f := newFixture(t, payroll.Policy{})
	emp := f.employee("EMP-001", employee.SalaryStructure{
		BasicSalary: dec("30000"),
		Deductions:  []employee.SalaryComponent{{Name: "Loan", Type: employee.ComponentTypeDeduction, Amount: dec("40000")}},
	})
	f.fillPresent(t, emp.ID, day(1), day(30))

	_, err := f.svc.RunPayroll(context.Background(), juneRequest(emp.ID))
	assert.ErrorIs(t, err, payroll.ErrNegativeNetSalary)

	list, err := f.svc.ListRecords(context.Background(), payroll.PayrollFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestRunPayrollBatch_CollectsPerEmployeeResults(t *testing.T) {
	f := newFixture(t, payroll.Policy{})
	salary := employee.SalaryStructure{BasicSalary: dec("30000")}

	complete1 := f.employee("EMP-001", salary)
	complete2 := f.employee("EMP-002", salary)
	gap := f.employee("EMP-003", salary)
	f.fillPresent(t, complete1.ID, day(1), day(30))
	f.fillPresent(t, complete2.ID, day(1), day(30))
	f.fillPresent(t, gap.ID, day(1), day(30), 7)

	resp, err := f.svc.RunPayrollBatch(context.Background(), payroll.RunPayrollBatchRequest{
		EmployeeIDs: []string{complete1.ID, gap.ID, complete2.ID},
		PeriodStart: "2024-06-01",
		PeriodEnd:   "2024-06-30",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, complete1.ID, resp.Results[0].EmployeeID)
	assert.NotNil(t, resp.Results[0].Record)
	assert.Equal(t, gap.ID, resp.Results[1].EmployeeID)
	require.NotNil(t, resp.Results[1].Error)
	assert.Contains(t, *resp.Results[1].Error, "2024-06-07")
	assert.NotNil(t, resp.Results[2].Record)
}

func TestRunPayrollBatch_DefaultsToActiveEmployees(t *testing.T) {
	f := newFixture(t, payroll.Policy{})
	salary := employee.SalaryStructure{BasicSalary: dec("30000")}

	active := f.employee("EMP-001", salary)
	f.fillPresent(t, active.ID, day(1), day(30))
	f.store.PutEmployee(employee.Employee{EmployeeCode: "EMP-002", EmploymentStatus: employee.EmploymentStatusResigned, Salary: salary})

	resp, err := f.svc.RunPayrollBatch(context.Background(), payroll.RunPayrollBatchRequest{
		PeriodStart: "2024-06-01",
		PeriodEnd:   "2024-06-30",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, active.ID, resp.Results[0].EmployeeID)
	assert.Equal(t, 1, resp.Succeeded)
}

func TestExportRegister(t *testing.T) {
	f := newFixture(t, payroll.Policy{})
	ctx := context.Background()
	emp := f.employee("EMP-001", employee.SalaryStructure{BasicSalary: dec("30000")})
	f.fillPresent(t, emp.ID, day(1), day(30), 29, 30)
	f.leaveDays[emp.ID] = []leave.LeaveDay{
		{Date: day(29), Fraction: 1, Paid: false},
		{Date: day(30), Fraction: 1, Paid: false},
	}

	_, err := f.svc.RunPayroll(ctx, juneRequest(emp.ID))
	require.NoError(t, err)

	data, err := f.svc.ExportRegister(ctx, payroll.PayrollFilter{})
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	rows, err := file.GetRows(file.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Employee Code", rows[0][0])
	assert.Equal(t, "Net Salary", rows[0][19])
	assert.Equal(t, "EMP-001", rows[1][0])
	assert.Equal(t, "Employee EMP-001", rows[1][1])
	assert.Equal(t, "2024-06-01", rows[1][2])
	assert.Equal(t, "28000", rows[1][10])
	assert.Equal(t, "26000", rows[1][19])
	assert.Equal(t, "draft", rows[1][20])
}
