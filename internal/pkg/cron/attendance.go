package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
)

const (
	absenceSweepInterval = time.Hour
	accrualInterval      = 24 * time.Hour
)

// AttendanceJobs closes out days nobody clocked in for.
type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	directory         employee.Directory
	loc               *time.Location
	now               func() time.Time
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, directory employee.Directory, loc *time.Location) *AttendanceJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		directory:         directory,
		loc:               loc,
		now:               time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_absent_employees", absenceSweepInterval, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees marks yesterday absent for every active employee without
// attendance. Days already on leave or absent are left alone by the service.
// Employees who clocked in, or who have no shift to be absent from, are skipped.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	yesterday := worktime.DateOf(j.now(), j.loc).AddDate(0, 0, -1)
	date := yesterday.Format(worktime.DateLayout)

	employees, err := j.directory.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}

	marked, unscheduled := 0, 0
	var errs []error
	for _, emp := range employees {
		if emp.Shift.StartTime == "" || emp.Shift.EndTime == "" {
			unscheduled++
			continue
		}
		resp, err := j.attendanceService.MarkAbsent(ctx, attendance.MarkAbsentRequest{
			EmployeeID: emp.ID,
			Date:       date,
		})
		switch {
		case err == nil:
			if resp.Status == string(attendance.StatusAbsent) {
				marked++
			}
		case errors.Is(err, attendance.ErrAlreadyClockedIn):
		default:
			errs = append(errs, fmt.Errorf("employee %s: %w", emp.ID, err))
		}
	}

	slog.Info("Cron: absence sweep finished",
		"date", date,
		"employees", len(employees),
		"absent", marked,
		"unscheduled", unscheduled,
		"failed", len(errs),
	)
	return errors.Join(errs...)
}
