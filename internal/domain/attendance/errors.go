package attendance

import (
	"errors"

	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
)

var (
	ErrDuplicateClockIn   = errors.New("employee has already clocked in for this date")
	ErrNoOpenClockIn      = errors.New("no open clock-in for this date")
	ErrInvalidInterval    = worktime.ErrInvalidInterval
	ErrAlreadyClockedIn   = errors.New("employee clocked in on this date, cannot mark absent")
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrVersionConflict    = errors.New("attendance record was modified concurrently")
	ErrDuplicateRecord    = errors.New("attendance record already exists for this date")
	ErrInvalidStatus      = errors.New("invalid attendance status")
	ErrOnLeave            = errors.New("employee is on approved leave for this date")
)
