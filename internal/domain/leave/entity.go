package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
)

// LeaveType is a category of leave with its own quota and carry-forward rules.
type LeaveType struct {
	ID                  string
	Code                string
	Name                string
	AnnualQuota         float64
	CarryForwardCap     float64
	AllowUnpaidOverflow bool
	IsPaid              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LeaveBalance is the ledger row for one employee, leave type and year.
// Quota includes CarriedForward. Days beyond the quota taken through unpaid
// overflow are tracked in UnpaidPending/UnpaidUsed and never in Used.
type LeaveBalance struct {
	ID             string
	EmployeeID     string
	LeaveTypeID    string
	Year           int
	Quota          float64
	CarriedForward float64
	Used           float64
	Pending        float64
	UnpaidPending  float64
	UnpaidUsed     float64
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Available is the paid quota still free to request.
func (b LeaveBalance) Available() float64 {
	return b.Quota - b.Used - b.Pending
}

// Check enforces the ledger invariants before a balance is written.
func (b LeaveBalance) Check() error {
	if b.Used < 0 || b.Pending < 0 || b.UnpaidPending < 0 || b.UnpaidUsed < 0 {
		return ErrBalanceInvariant
	}
	if b.Used+b.Pending > b.Quota {
		return ErrBalanceInvariant
	}
	return nil
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending   LeaveRequestStatus = "pending"
	LeaveRequestStatusApproved  LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected  LeaveRequestStatus = "rejected"
	LeaveRequestStatusCancelled LeaveRequestStatus = "cancelled"
)

type LeaveRequest struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string
	StartDate   time.Time
	EndDate     time.Time
	// HalfDay halves the last day of the range.
	HalfDay    bool
	DayCount   float64
	PaidDays   float64
	UnpaidDays float64
	Reason     string

	Status         LeaveRequestStatus
	ApproverID     *string
	DecidedAt      *time.Time
	DecisionReason *string
	CancelledBy    *string

	Version     int
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// DayCount is the number of leave days an inclusive range consumes.
func DayCount(start, end time.Time, halfDay bool) float64 {
	days := float64(worktime.DaysInclusive(start, end))
	if halfDay && days > 0 {
		days -= 0.5
	}
	return days
}

// LeaveDay is one civil date covered by an approved request.
type LeaveDay struct {
	Date           time.Time
	Fraction       float64
	Paid           bool
	LeaveRequestID string
	LeaveTypeID    string
}

// Days expands the request into per-date entries. Paid days come first in
// date order; the remainder is unpaid. A date split between the two yields
// two entries.
func (r LeaveRequest) Days() []LeaveDay {
	dates := worktime.DatesBetween(r.StartDate, r.EndDate)
	out := make([]LeaveDay, 0, len(dates))
	paidLeft := r.PaidDays

	for i, date := range dates {
		fraction := 1.0
		if r.HalfDay && i == len(dates)-1 {
			fraction = 0.5
		}

		paid := min(fraction, paidLeft)
		paidLeft -= paid
		if paid > 0 {
			out = append(out, LeaveDay{Date: date, Fraction: paid, Paid: true, LeaveRequestID: r.ID, LeaveTypeID: r.LeaveTypeID})
		}
		if unpaid := fraction - paid; unpaid > 0 {
			out = append(out, LeaveDay{Date: date, Fraction: unpaid, Paid: false, LeaveRequestID: r.ID, LeaveTypeID: r.LeaveTypeID})
		}
	}
	return out
}
