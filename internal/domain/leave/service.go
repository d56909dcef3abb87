package leave

import (
	"context"
	"time"
)

// LeaveService is the leave ledger: balances plus the request state machine.
type LeaveService interface {
	Submit(ctx context.Context, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	Approve(ctx context.Context, requestID string, approverID string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, req RejectLeaveRequest) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, req CancelLeaveRequest) (LeaveRequestResponse, error)

	// AccrueAnnual grants the year's entitlement for every leave type. Running
	// it again for the same year changes nothing.
	AccrueAnnual(ctx context.Context, employeeID string, year int) ([]LeaveBalanceResponse, error)

	GetBalance(ctx context.Context, employeeID, leaveTypeID string, year int) (LeaveBalanceResponse, error)
	ListBalances(ctx context.Context, employeeID string, year int) ([]LeaveBalanceResponse, error)
	GetRequest(ctx context.Context, id string) (LeaveRequestResponse, error)
	ListRequests(ctx context.Context, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)

	// ApprovedLeaveDays lists approved leave days of the employee within [from, to].
	ApprovedLeaveDays(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveDay, error)
}

// AttendanceMarker receives approved leave dates.
type AttendanceMarker interface {
	ApplyApprovedLeave(ctx context.Context, employeeID string, date time.Time, leaveRequestID string) error
}
