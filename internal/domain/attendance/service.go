package attendance

import (
	"context"
	"time"
)

// AttendanceService records the daily attendance lifecycle.
type AttendanceService interface {
	ClockIn(ctx context.Context, req ClockInRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, req ClockOutRequest) (AttendanceResponse, error)
	MarkAbsent(ctx context.Context, req MarkAbsentRequest) (AttendanceResponse, error)

	// ApplyApprovedLeave marks the date as on leave. Repeating it for the same
	// leave request is a no-op.
	ApplyApprovedLeave(ctx context.Context, employeeID string, date time.Time, leaveRequestID string) error

	// Correct lets a manager overwrite a record. Geofence results are kept.
	Correct(ctx context.Context, req CorrectionRequest) (AttendanceResponse, error)

	GetAttendance(ctx context.Context, employeeID string, date time.Time) (AttendanceResponse, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
	ListAudit(ctx context.Context, employeeID string, date *time.Time) ([]AuditEntryResponse, error)
}
