package leave

import (
	"context"
	"time"
)

type LeaveTypeRepository interface {
	GetByID(ctx context.Context, id string) (LeaveType, error)
	List(ctx context.Context) ([]LeaveType, error)
}

type LeaveBalanceRepository interface {
	Get(ctx context.Context, employeeID, leaveTypeID string, year int) (LeaveBalance, error)
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)

	// Create inserts the balance unless one already exists for the same
	// employee, type and year; created reports which happened.
	Create(ctx context.Context, balance LeaveBalance) (result LeaveBalance, created bool, err error)

	// Update writes the balance if its version is unchanged. ErrVersionConflict otherwise.
	Update(ctx context.Context, balance LeaveBalance) (LeaveBalance, error)
}

type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)

	// Decide moves a pending request to its new status. It fails with
	// ErrNotPending unless the stored row is still pending at the same version.
	Decide(ctx context.Context, request LeaveRequest) (LeaveRequest, error)

	// HasOverlap reports a pending or approved request of the employee
	// intersecting [start, end].
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)

	ListApprovedInRange(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveRequest, error)
	List(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
}
