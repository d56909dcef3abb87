package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
)

// QuotaService owns every write to leave balances. Callers run it inside
// their own transaction.
type QuotaService struct {
	leaveTypeRepo leave.LeaveTypeRepository
	balanceRepo   leave.LeaveBalanceRepository
	calculator    *QuotaCalculator
}

func NewQuotaService(leaveTypeRepo leave.LeaveTypeRepository, balanceRepo leave.LeaveBalanceRepository, calculator *QuotaCalculator) *QuotaService {
	return &QuotaService{
		leaveTypeRepo: leaveTypeRepo,
		balanceRepo:   balanceRepo,
		calculator:    calculator,
	}
}

// AssignAnnualQuotas creates the year's balance for every leave type the
// employee does not have one for yet. Existing balances are returned as is.
func (q *QuotaService) AssignAnnualQuotas(ctx context.Context, emp employee.Employee, year int) ([]leave.LeaveBalance, error) {
	leaveTypes, err := q.leaveTypeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}

	balances := make([]leave.LeaveBalance, 0, len(leaveTypes))
	for _, leaveType := range leaveTypes {
		var previous *leave.LeaveBalance
		prev, err := q.balanceRepo.Get(ctx, emp.ID, leaveType.ID, year-1)
		switch {
		case err == nil:
			previous = &prev
		case !errors.Is(err, leave.ErrBalanceNotFound):
			return nil, fmt.Errorf("failed to get previous balance: %w", err)
		}

		carried := q.calculator.CarryForward(previous, leaveType)
		entitlement := q.calculator.Entitlement(emp, leaveType)

		balance, created, err := q.balanceRepo.Create(ctx, leave.LeaveBalance{
			EmployeeID:     emp.ID,
			LeaveTypeID:    leaveType.ID,
			Year:           year,
			Quota:          entitlement + carried,
			CarriedForward: carried,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create leave balance: %w", err)
		}
		balances = append(balances, balance)

		if !created {
			slog.Debug("Leave balance already exists",
				"employee_id", emp.ID,
				"leave_type", leaveType.Code,
				"year", year,
			)
			continue
		}
		slog.Info("Assigned leave quota",
			"employee_id", emp.ID,
			"leave_type", leaveType.Code,
			"year", year,
			"quota", balance.Quota,
			"carried_forward", carried,
		)
	}

	return balances, nil
}

// adjust loads the balance a request draws from, applies fn and writes it back.
func (q *QuotaService) adjust(ctx context.Context, request leave.LeaveRequest, fn func(b *leave.LeaveBalance)) error {
	balance, err := q.balanceRepo.Get(ctx, request.EmployeeID, request.LeaveTypeID, request.StartDate.Year())
	if err != nil {
		return err
	}

	fn(&balance)
	if err := balance.Check(); err != nil {
		return err
	}

	if _, err := q.balanceRepo.Update(ctx, balance); err != nil {
		return err
	}
	return nil
}

// ReserveQuota books the request's days as pending.
func (q *QuotaService) ReserveQuota(ctx context.Context, request leave.LeaveRequest) error {
	return q.adjust(ctx, request, func(b *leave.LeaveBalance) {
		b.Pending += request.PaidDays
		b.UnpaidPending += request.UnpaidDays
	})
}

// ReleaseQuota returns pending days on rejection or cancellation.
func (q *QuotaService) ReleaseQuota(ctx context.Context, request leave.LeaveRequest) error {
	return q.adjust(ctx, request, func(b *leave.LeaveBalance) {
		b.Pending -= request.PaidDays
		b.UnpaidPending -= request.UnpaidDays
	})
}

// MovePendingToUsed consumes the request's days on approval.
func (q *QuotaService) MovePendingToUsed(ctx context.Context, request leave.LeaveRequest) error {
	return q.adjust(ctx, request, func(b *leave.LeaveBalance) {
		b.Pending -= request.PaidDays
		b.Used += request.PaidDays
		b.UnpaidPending -= request.UnpaidDays
		b.UnpaidUsed += request.UnpaidDays
	})
}
