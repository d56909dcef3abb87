package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 4

type PayrollServiceImpl struct {
	txManager      database.TxManager
	payrollRepo    payroll.PayrollRepository
	attendanceRepo attendance.AttendanceRepository
	leaveDays      payroll.LeaveDaySource
	directory      employee.Directory
	policy         payroll.Policy
	concurrency    int
	now            func() time.Time
}

func NewPayrollService(
	txManager database.TxManager,
	payrollRepo payroll.PayrollRepository,
	attendanceRepo attendance.AttendanceRepository,
	leaveDays payroll.LeaveDaySource,
	directory employee.Directory,
	policy payroll.Policy,
	concurrency int,
) payroll.PayrollService {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &PayrollServiceImpl{
		txManager:      txManager,
		payrollRepo:    payrollRepo,
		attendanceRepo: attendanceRepo,
		leaveDays:      leaveDays,
		directory:      directory,
		policy:         policy,
		concurrency:    concurrency,
		now:            time.Now,
	}
}

// periodSummary is what attendance and leave contribute to one payslip.
type periodSummary struct {
	overtimeMinutes int
	lateMinutes     int
	absentDays      int
	unpaidLeaveDays decimal.Decimal
	missing         []time.Time
}

// summarize folds the period's attendance and approved leave. A date is
// settled by a non-pending attendance record or by approved leave; a pending
// record leaves the date open even when leave covers it.
func summarize(start, end time.Time, records []attendance.Attendance, leaveDays []leave.LeaveDay) periodSummary {
	summary := periodSummary{unpaidLeaveDays: decimal.Zero}

	byDate := make(map[time.Time]attendance.Attendance, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}
	onLeave := make(map[time.Time]bool, len(leaveDays))
	for _, d := range leaveDays {
		onLeave[d.Date] = true
		if !d.Paid {
			summary.unpaidLeaveDays = summary.unpaidLeaveDays.Add(decimal.NewFromFloat(d.Fraction))
		}
	}

	for _, date := range worktime.DatesBetween(start, end) {
		record, ok := byDate[date]
		if !ok {
			if !onLeave[date] {
				summary.missing = append(summary.missing, date)
			}
			continue
		}

		switch record.Status {
		case attendance.StatusPending:
			summary.missing = append(summary.missing, date)
			continue
		case attendance.StatusAbsent:
			summary.absentDays++
		case attendance.StatusLate:
			summary.lateMinutes += record.LateMinutes
		}
		summary.overtimeMinutes += record.OvertimeMinutes
	}

	return summary
}

func toComponents(in []employee.SalaryComponent) []payroll.Component {
	out := make([]payroll.Component, 0, len(in))
	for _, c := range in {
		out = append(out, payroll.Component{Name: c.Name, Amount: c.Amount})
	}
	return out
}

// RunPayroll implements payroll.PayrollService.
func (s *PayrollServiceImpl) RunPayroll(ctx context.Context, req payroll.RunPayrollRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	emp, err := s.directory.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	start, _ := worktime.ParseDate(req.PeriodStart)
	end, _ := worktime.ParseDate(req.PeriodEnd)

	record, err := s.run(ctx, emp, start, end)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return record.ToResponse(), nil
}

func (s *PayrollServiceImpl) run(ctx context.Context, emp employee.Employee, start, end time.Time) (payroll.PayrollRecord, error) {
	if emp.Salary.BasicSalary.IsZero() {
		return payroll.PayrollRecord{}, employee.ErrNoSalary
	}

	var saved payroll.PayrollRecord
	err := s.txManager.WithinSnapshot(ctx, func(ctx context.Context) error {
		existing, err := s.payrollRepo.GetByEmployeePeriod(ctx, emp.ID, start, end)
		switch {
		case err == nil:
			if existing.Status.Locked() {
				return payroll.ErrImmutableRecord
			}
		case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		default:
			return fmt.Errorf("failed to check existing payroll record: %w", err)
		}

		records, err := s.attendanceRepo.ListByEmployee(ctx, emp.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		leaveDays, err := s.leaveDays.ApprovedLeaveDays(ctx, emp.ID, start, end)
		if err != nil {
			return err
		}

		summary := summarize(start, end, records, leaveDays)
		if len(summary.missing) > 0 {
			return &payroll.IncompletePeriodError{EmployeeID: emp.ID, MissingDates: summary.missing}
		}

		days := worktime.DaysInclusive(start, end)
		breakdown, err := Calculate(payroll.CalculationInput{
			DaysInPeriod:        days,
			BasicSalary:         emp.Salary.BasicSalary,
			Allowances:          toComponents(emp.Salary.Allowances),
			Deductions:          toComponents(emp.Salary.Deductions),
			OvertimeMinutes:     summary.overtimeMinutes,
			OvertimeRatePerHour: emp.Salary.OvertimeRatePerHour,
			UnpaidLeaveDays:     summary.unpaidLeaveDays,
			LateMinutes:         summary.lateMinutes,
			AbsentDays:          summary.absentDays,
			Policy:              s.policy,
		})
		if err != nil {
			return err
		}

		record := payroll.PayrollRecord{
			EmployeeID:           emp.ID,
			PeriodStart:          start,
			PeriodEnd:            end,
			DaysInPeriod:         days,
			BasicSalary:          emp.Salary.BasicSalary,
			ProratedBasic:        breakdown.ProratedBasic,
			Allowances:           breakdown.Allowances,
			AllowancesDetail:     breakdown.AllowancesDetail,
			OvertimeMinutes:      summary.overtimeMinutes,
			OvertimePay:          breakdown.OvertimePay,
			GrossSalary:          breakdown.Gross,
			UnpaidLeaveDays:      summary.unpaidLeaveDays,
			UnpaidLeaveDeduction: breakdown.UnpaidLeaveDeduction,
			StatutoryDeductions:  breakdown.StatutoryDeductions,
			DeductionsDetail:     breakdown.DeductionsDetail,
			LateMinutes:          summary.lateMinutes,
			LatenessPenalty:      breakdown.LatenessPenalty,
			AbsentDays:           summary.absentDays,
			AbsencePenalty:       breakdown.AbsencePenalty,
			Deductions:           breakdown.Deductions,
			NetSalary:            breakdown.Net,
			Status:               payroll.PayrollStatusDraft,
		}

		if existing.ID != "" {
			// Re-run of a draft keeps its identity.
			record.ID = existing.ID
			record.Version = existing.Version
			record.CreatedAt = existing.CreatedAt
			saved, err = s.payrollRepo.Update(ctx, record)
			return err
		}

		saved, err = s.payrollRepo.Create(ctx, record)
		return err
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	slog.Info("Payroll calculated",
		"payroll_id", saved.ID,
		"employee_id", emp.ID,
		"period_start", start.Format(worktime.DateLayout),
		"period_end", end.Format(worktime.DateLayout),
		"net_salary", saved.NetSalary.StringFixed(2),
	)
	return saved, nil
}

// RunPayrollBatch implements payroll.PayrollService. Each employee runs in its
// own transaction; one failure does not stop the others.
func (s *PayrollServiceImpl) RunPayrollBatch(ctx context.Context, req payroll.RunPayrollBatchRequest) (payroll.BatchResultResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchResultResponse{}, err
	}

	start, _ := worktime.ParseDate(req.PeriodStart)
	end, _ := worktime.ParseDate(req.PeriodEnd)

	employeeIDs := req.EmployeeIDs
	if len(employeeIDs) == 0 {
		employees, err := s.directory.ListActive(ctx)
		if err != nil {
			return payroll.BatchResultResponse{}, fmt.Errorf("failed to list employees: %w", err)
		}
		for _, emp := range employees {
			employeeIDs = append(employeeIDs, emp.ID)
		}
	}

	results := make([]payroll.BatchItemResult, len(employeeIDs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, employeeID := range employeeIDs {
		g.Go(func() error {
			results[i] = payroll.BatchItemResult{EmployeeID: employeeID}

			emp, err := s.directory.GetEmployee(ctx, employeeID)
			if err == nil {
				var record payroll.PayrollRecord
				record, err = s.run(ctx, emp, start, end)
				if err == nil {
					resp := record.ToResponse()
					results[i].Record = &resp
					return nil
				}
			}

			msg := err.Error()
			results[i].Error = &msg
			slog.Warn("Payroll run failed", "employee_id", employeeID, "error", err)
			return nil
		})
	}
	_ = g.Wait()

	resp := payroll.BatchResultResponse{Results: results}
	for _, r := range results {
		if r.Error != nil {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	slog.Info("Payroll batch finished",
		"period_start", req.PeriodStart,
		"period_end", req.PeriodEnd,
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)
	return resp, nil
}

// transition moves a record from one status to the next under its version.
func (s *PayrollServiceImpl) transition(ctx context.Context, id string, from payroll.PayrollStatus, fn func(r *payroll.PayrollRecord)) (payroll.PayrollRecord, error) {
	var updated payroll.PayrollRecord
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.payrollRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if record.Status != from {
			if record.Status.Locked() {
				return payroll.ErrImmutableRecord
			}
			return payroll.ErrInvalidTransition
		}

		fn(&record)
		updated, err = s.payrollRepo.Update(ctx, record)
		return err
	})
	return updated, err
}

// Process implements payroll.PayrollService.
func (s *PayrollServiceImpl) Process(ctx context.Context, id string, actorID string) (payroll.PayrollRecordResponse, error) {
	record, err := s.transition(ctx, id, payroll.PayrollStatusDraft, func(r *payroll.PayrollRecord) {
		now := s.now()
		r.Status = payroll.PayrollStatusProcessed
		r.ProcessedAt = &now
		if actorID != "" {
			r.ProcessedBy = &actorID
		}
	})
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	slog.Info("Payroll processed", "payroll_id", record.ID, "employee_id", record.EmployeeID)
	return record.ToResponse(), nil
}

// MarkPaid implements payroll.PayrollService.
func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, req payroll.MarkPaidRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	paymentDate, _ := worktime.ParseDate(req.PaymentDate)

	record, err := s.transition(ctx, req.ID, payroll.PayrollStatusProcessed, func(r *payroll.PayrollRecord) {
		now := s.now()
		r.Status = payroll.PayrollStatusPaid
		r.PaidAt = &now
		r.PaymentDate = &paymentDate
	})
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	slog.Info("Payroll paid",
		"payroll_id", record.ID,
		"employee_id", record.EmployeeID,
		"payment_date", req.PaymentDate,
	)
	return record.ToResponse(), nil
}

// GetRecord implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetRecord(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	record, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return record.ToResponse(), nil
}

// ListRecords implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListRecords(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}

	records, total, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, fmt.Errorf("failed to list payroll records: %w", err)
	}

	data := make([]payroll.PayrollRecordResponse, 0, len(records))
	for _, r := range records {
		data = append(data, r.ToResponse())
	}

	return payroll.ListPayrollRecordResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}
