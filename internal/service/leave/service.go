package leave

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
)

type LeaveServiceImpl struct {
	txManager        database.TxManager
	leaveTypeRepo    leave.LeaveTypeRepository
	balanceRepo      leave.LeaveBalanceRepository
	leaveRequestRepo leave.LeaveRequestRepository
	directory        employee.Directory
	quotaService     *QuotaService
	calculator       *QuotaCalculator
	attendance       leave.AttendanceMarker
	now              func() time.Time
}

func NewLeaveService(
	txManager database.TxManager,
	leaveTypeRepo leave.LeaveTypeRepository,
	balanceRepo leave.LeaveBalanceRepository,
	leaveRequestRepo leave.LeaveRequestRepository,
	directory employee.Directory,
	quotaService *QuotaService,
	calculator *QuotaCalculator,
	attendance leave.AttendanceMarker,
) leave.LeaveService {
	return &LeaveServiceImpl{
		txManager:        txManager,
		leaveTypeRepo:    leaveTypeRepo,
		balanceRepo:      balanceRepo,
		leaveRequestRepo: leaveRequestRepo,
		directory:        directory,
		quotaService:     quotaService,
		calculator:       calculator,
		attendance:       attendance,
		now:              time.Now,
	}
}

// Submit implements leave.LeaveService.
func (l *LeaveServiceImpl) Submit(ctx context.Context, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	emp, err := l.directory.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if !emp.IsActive() {
		return leave.LeaveRequestResponse{}, employee.ErrEmployeeInactive
	}

	leaveType, err := l.leaveTypeRepo.GetByID(ctx, req.LeaveTypeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	start, _ := worktime.ParseDate(req.StartDate)
	end, _ := worktime.ParseDate(req.EndDate)
	dayCount := leave.DayCount(start, end, req.HalfDay)

	var created leave.LeaveRequest
	err = l.txManager.WithinTx(ctx, func(ctx context.Context) error {
		overlap, err := l.leaveRequestRepo.HasOverlap(ctx, emp.ID, start, end)
		if err != nil {
			return err
		}
		if overlap {
			return leave.ErrOverlappingLeave
		}

		balance, err := l.balanceRepo.Get(ctx, emp.ID, leaveType.ID, start.Year())
		if err != nil {
			return err
		}

		paid, unpaid, err := l.calculator.Split(dayCount, balance.Available(), leaveType)
		if err != nil {
			return err
		}

		created, err = l.leaveRequestRepo.Create(ctx, leave.LeaveRequest{
			EmployeeID:  emp.ID,
			LeaveTypeID: leaveType.ID,
			StartDate:   start,
			EndDate:     end,
			HalfDay:     req.HalfDay,
			DayCount:    dayCount,
			PaidDays:    paid,
			UnpaidDays:  unpaid,
			Reason:      req.Reason,
			Status:      leave.LeaveRequestStatusPending,
		})
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}

		return l.quotaService.ReserveQuota(ctx, created)
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave request submitted",
		"request_id", created.ID,
		"employee_id", emp.ID,
		"leave_type", leaveType.Code,
		"day_count", dayCount,
		"unpaid_days", created.UnpaidDays,
	)
	return created.ToResponse(), nil
}

// decide loads a pending request, lets fn move it to its final status and
// persists the transition. A request that left pending yields ErrNotPending.
func (l *LeaveServiceImpl) decide(ctx context.Context, requestID string, fn func(r *leave.LeaveRequest) error) (leave.LeaveRequest, error) {
	request, err := l.leaveRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if request.Status != leave.LeaveRequestStatusPending {
		return leave.LeaveRequest{}, leave.ErrNotPending
	}

	if err := fn(&request); err != nil {
		return leave.LeaveRequest{}, err
	}
	now := l.now()
	request.DecidedAt = &now

	return l.leaveRequestRepo.Decide(ctx, request)
}

// Approve implements leave.LeaveService.
func (l *LeaveServiceImpl) Approve(ctx context.Context, requestID string, approverID string) (leave.LeaveRequestResponse, error) {
	var approved leave.LeaveRequest
	err := l.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		approved, err = l.decide(ctx, requestID, func(r *leave.LeaveRequest) error {
			r.Status = leave.LeaveRequestStatusApproved
			r.ApproverID = &approverID
			return nil
		})
		if err != nil {
			return err
		}

		if err := l.quotaService.MovePendingToUsed(ctx, approved); err != nil {
			return err
		}

		for _, date := range worktime.DatesBetween(approved.StartDate, approved.EndDate) {
			if err := l.attendance.ApplyApprovedLeave(ctx, approved.EmployeeID, date, approved.ID); err != nil {
				return fmt.Errorf("failed to mark %s on leave: %w", date.Format(worktime.DateLayout), err)
			}
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave request approved",
		"request_id", approved.ID,
		"employee_id", approved.EmployeeID,
		"approver_id", approverID,
	)
	return approved.ToResponse(), nil
}

// Reject implements leave.LeaveService.
func (l *LeaveServiceImpl) Reject(ctx context.Context, req leave.RejectLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var rejected leave.LeaveRequest
	err := l.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		rejected, err = l.decide(ctx, req.ID, func(r *leave.LeaveRequest) error {
			r.Status = leave.LeaveRequestStatusRejected
			r.ApproverID = &req.ApproverID
			r.DecisionReason = &req.Reason
			return nil
		})
		if err != nil {
			return err
		}
		return l.quotaService.ReleaseQuota(ctx, rejected)
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave request rejected",
		"request_id", rejected.ID,
		"employee_id", rejected.EmployeeID,
		"approver_id", req.ApproverID,
	)
	return rejected.ToResponse(), nil
}

// Cancel implements leave.LeaveService.
func (l *LeaveServiceImpl) Cancel(ctx context.Context, req leave.CancelLeaveRequest) (leave.LeaveRequestResponse, error) {
	var cancelled leave.LeaveRequest
	err := l.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		cancelled, err = l.decide(ctx, req.ID, func(r *leave.LeaveRequest) error {
			if !req.IsManager && r.EmployeeID != req.ActorID {
				return leave.ErrNotRequester
			}
			r.Status = leave.LeaveRequestStatusCancelled
			r.CancelledBy = &req.ActorID
			return nil
		})
		if err != nil {
			return err
		}
		return l.quotaService.ReleaseQuota(ctx, cancelled)
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave request cancelled",
		"request_id", cancelled.ID,
		"employee_id", cancelled.EmployeeID,
		"actor_id", req.ActorID,
	)
	return cancelled.ToResponse(), nil
}

// AccrueAnnual implements leave.LeaveService.
func (l *LeaveServiceImpl) AccrueAnnual(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalanceResponse, error) {
	req := leave.AccrueRequest{EmployeeID: employeeID, Year: year}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	emp, err := l.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	var balances []leave.LeaveBalance
	err = l.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		balances, err = l.quotaService.AssignAnnualQuotas(ctx, emp, year)
		return err
	})
	if err != nil {
		return nil, err
	}

	responses := make([]leave.LeaveBalanceResponse, 0, len(balances))
	for _, b := range balances {
		responses = append(responses, b.ToResponse())
	}
	return responses, nil
}

// GetBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) GetBalance(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalanceResponse, error) {
	balance, err := l.balanceRepo.Get(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		return leave.LeaveBalanceResponse{}, err
	}
	return balance.ToResponse(), nil
}

// ListBalances implements leave.LeaveService.
func (l *LeaveServiceImpl) ListBalances(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalanceResponse, error) {
	balances, err := l.balanceRepo.ListByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave balances: %w", err)
	}

	responses := make([]leave.LeaveBalanceResponse, 0, len(balances))
	for _, b := range balances {
		responses = append(responses, b.ToResponse())
	}
	return responses, nil
}

// GetRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) GetRequest(ctx context.Context, id string) (leave.LeaveRequestResponse, error) {
	request, err := l.leaveRequestRepo.GetByID(ctx, id)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return request.ToResponse(), nil
}

// ListRequests implements leave.LeaveService.
func (l *LeaveServiceImpl) ListRequests(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	requests, total, err := l.leaveRequestRepo.List(ctx, filter)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, r.ToResponse())
	}

	return leave.ListLeaveRequestResponse{
		TotalCount:    total,
		Page:          filter.Page,
		Limit:         filter.Limit,
		TotalPages:    int(math.Ceil(float64(total) / float64(filter.Limit))),
		LeaveRequests: responses,
	}, nil
}

// ApprovedLeaveDays implements leave.LeaveService.
func (l *LeaveServiceImpl) ApprovedLeaveDays(ctx context.Context, employeeID string, from, to time.Time) ([]leave.LeaveDay, error) {
	requests, err := l.leaveRequestRepo.ListApprovedInRange(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave: %w", err)
	}

	var days []leave.LeaveDay
	for _, r := range requests {
		for _, d := range r.Days() {
			if d.Date.Before(from) || d.Date.After(to) {
				continue
			}
			days = append(days, d)
		}
	}
	return days, nil
}
