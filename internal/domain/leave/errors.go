package leave

import "errors"

var (
	ErrLeaveTypeNotFound    = errors.New("leave type not found")
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrBalanceNotFound      = errors.New("leave balance not found for this year")
	ErrInsufficientBalance  = errors.New("insufficient leave balance")
	ErrNotPending           = errors.New("leave request is no longer pending")
	ErrOverlappingLeave     = errors.New("leave request overlaps an existing request")
	ErrBalanceInvariant     = errors.New("leave balance would violate its quota")
	ErrVersionConflict      = errors.New("leave balance was modified concurrently")
	ErrNotRequester         = errors.New("only the requester or a manager can cancel this request")
)
