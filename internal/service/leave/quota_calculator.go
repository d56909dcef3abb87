package leave

import (
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
)

type QuotaCalculator struct {
}

func NewQuotaCalculator() *QuotaCalculator {
	return &QuotaCalculator{}
}

// Entitlement is the yearly grant of the employee for the leave type. A
// per-employee entitlement wins over the leave type default.
func (c *QuotaCalculator) Entitlement(emp employee.Employee, leaveType leave.LeaveType) float64 {
	if quota, ok := emp.Entitlements[leaveType.ID]; ok {
		return quota
	}
	return leaveType.AnnualQuota
}

// CarryForward is the part of last year's unused quota that moves into the
// new year, capped by the leave type. Days still pending stay reserved in the
// old year.
func (c *QuotaCalculator) CarryForward(previous *leave.LeaveBalance, leaveType leave.LeaveType) float64 {
	if previous == nil || leaveType.CarryForwardCap <= 0 {
		return 0
	}
	unused := previous.Quota - previous.Used - previous.Pending
	return max(0, min(leaveType.CarryForwardCap, unused))
}

// Split divides a request of dayCount days into paid and unpaid days given
// the paid quota still available.
func (c *QuotaCalculator) Split(dayCount, available float64, leaveType leave.LeaveType) (paid, unpaid float64, err error) {
	if !leaveType.IsPaid {
		return 0, dayCount, nil
	}
	if available >= dayCount {
		return dayCount, 0, nil
	}
	if !leaveType.AllowUnpaidOverflow {
		return 0, 0, leave.ErrInsufficientBalance
	}

	paid = max(0, available)
	return paid, dayCount - paid, nil
}
