package payroll

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPayrollRecordNotFound = errors.New("payroll record not found")
	ErrIncompletePeriod      = errors.New("attendance period is incomplete")
	ErrNegativeNetSalary     = errors.New("net salary would be negative")
	ErrImmutableRecord       = errors.New("payroll record is already processed")
	ErrInvalidTransition     = errors.New("invalid payroll status transition")
	ErrInvalidPeriod         = errors.New("invalid payroll period")
	ErrVersionConflict       = errors.New("payroll record was modified concurrently")
)

// IncompletePeriodError lists the dates with neither attendance nor approved leave.
type IncompletePeriodError struct {
	EmployeeID   string
	MissingDates []time.Time
}

func (e *IncompletePeriodError) Error() string {
	dates := make([]string, 0, len(e.MissingDates))
	for _, d := range e.MissingDates {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s: employee %s has no settled attendance on %s",
		ErrIncompletePeriod.Error(), e.EmployeeID, strings.Join(dates, ", "))
}

func (e *IncompletePeriodError) Unwrap() error {
	return ErrIncompletePeriod
}
