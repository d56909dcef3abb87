package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
)

// LeaveJobs grants yearly leave quotas.
type LeaveJobs struct {
	leaveService leave.LeaveService
	directory    employee.Directory
	loc          *time.Location
	now          func() time.Time
}

func NewLeaveJobs(leaveService leave.LeaveService, directory employee.Directory, loc *time.Location) *LeaveJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaveJobs{
		leaveService: leaveService,
		directory:    directory,
		loc:          loc,
		now:          time.Now,
	}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("annual_leave_accrual", accrualInterval, j.AccrueAnnualLeave)
}

// AccrueAnnualLeave makes sure every active employee has this year's balances.
// Accrual is idempotent so running it daily only creates balances for new
// hires and new years.
func (j *LeaveJobs) AccrueAnnualLeave(ctx context.Context) error {
	year := j.now().In(j.loc).Year()

	employees, err := j.directory.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}

	var errs []error
	for _, emp := range employees {
		if _, err := j.leaveService.AccrueAnnual(ctx, emp.ID, year); err != nil {
			errs = append(errs, fmt.Errorf("employee %s: %w", emp.ID, err))
		}
	}

	slog.Info("Cron: annual leave accrual finished", "year", year, "employees", len(employees), "failed", len(errs))
	return errors.Join(errs...)
}
