package attendance

import (
	"encoding/json"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/geo"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half_day"
	StatusAbsent  Status = "absent"
	StatusOnLeave Status = "on_leave"
)

var validStatuses = map[Status]bool{
	StatusPending: true,
	StatusPresent: true,
	StatusLate:    true,
	StatusHalfDay: true,
	StatusAbsent:  true,
	StatusOnLeave: true,
}

func (s Status) Valid() bool {
	return validStatuses[s]
}

// Settled reports whether the day is accounted for by payroll.
func (s Status) Settled() bool {
	return s != StatusPending && s.Valid()
}

// Attendance is one employee's record for one civil date.
type Attendance struct {
	ID         string
	EmployeeID string
	Date       time.Time

	ClockIn          *time.Time
	ClockOut         *time.Time
	ClockInLocation  *geo.Point
	ClockOutLocation *geo.Point
	ClockInGeofence  geo.Result
	ClockOutGeofence geo.Result

	WorkedMinutes         int
	LateMinutes           int
	EarlyDepartureMinutes int
	OvertimeMinutes       int

	Status         Status
	LeaveRequestID *string
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsOpen reports a clock-in still waiting for its clock-out.
func (a Attendance) IsOpen() bool {
	return a.ClockIn != nil && a.ClockOut == nil
}

type Transition string

const (
	TransitionClockIn    Transition = "clock_in"
	TransitionClockOut   Transition = "clock_out"
	TransitionMarkAbsent Transition = "mark_absent"
	TransitionApplyLeave Transition = "apply_leave"
	TransitionCorrection Transition = "correction"
)

// AuditEntry is an append-only record of one attendance transition.
type AuditEntry struct {
	ID           string
	AttendanceID string
	EmployeeID   string
	Date         time.Time
	Transition   Transition
	ActorID      string
	FromStatus   *Status
	ToStatus     Status
	Reason       *string
	Payload      json.RawMessage
	OccurredAt   time.Time
}

// Policy holds the site-wide attendance thresholds.
type Policy struct {
	// GraceMinutes applies when the shift does not set its own.
	GraceMinutes int
	// HalfDayRatio of the standard minutes below which a day is a half day.
	HalfDayRatio float64
}
