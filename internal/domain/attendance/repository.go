package attendance

import (
	"context"
	"time"
)

// AttendanceRepository is the attendance table. (employee_id, date) is unique.
type AttendanceRepository interface {
	// UpsertClockIn inserts the record, or fills the clock-in of an existing
	// record that has none. ErrDuplicateClockIn when a clock-in already exists.
	UpsertClockIn(ctx context.Context, record Attendance) (Attendance, error)

	// Create inserts a new record. ErrDuplicateRecord on a unique key clash.
	Create(ctx context.Context, record Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Attendance, error)

	// Update writes the record if its version is unchanged and returns it with
	// the new version. ErrVersionConflict otherwise.
	Update(ctx context.Context, record Attendance) (Attendance, error)

	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)
}

// AuditRepository is the append-only attendance transition log.
type AuditRepository interface {
	Append(ctx context.Context, entry AuditEntry) (AuditEntry, error)
	ListByEmployee(ctx context.Context, employeeID string, date *time.Time) ([]AuditEntry, error)
}
