package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
)

// SystemActor is recorded in the audit trail for transitions nobody triggered by hand.
const SystemActor = "system"

type AttendanceServiceImpl struct {
	txManager      database.TxManager
	attendanceRepo attendance.AttendanceRepository
	auditRepo      attendance.AuditRepository
	directory      employee.Directory
	policy         attendance.Policy
	loc            *time.Location
	now            func() time.Time
}

func NewAttendanceService(
	txManager database.TxManager,
	attendanceRepo attendance.AttendanceRepository,
	auditRepo attendance.AuditRepository,
	directory employee.Directory,
	policy attendance.Policy,
	loc *time.Location,
) attendance.AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceServiceImpl{
		txManager:      txManager,
		attendanceRepo: attendanceRepo,
		auditRepo:      auditRepo,
		directory:      directory,
		policy:         policy,
		loc:            loc,
		now:            time.Now,
	}
}

func (s *AttendanceServiceImpl) activeEmployee(ctx context.Context, employeeID string) (employee.Employee, error) {
	emp, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return employee.Employee{}, err
	}
	if !emp.IsActive() {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

func (s *AttendanceServiceImpl) shiftOn(emp employee.Employee, date time.Time) (worktime.Shift, error) {
	if emp.Shift.StartTime == "" || emp.Shift.EndTime == "" {
		return worktime.Shift{}, employee.ErrNoShift
	}
	return worktime.ShiftOn(date, emp.Shift.StartTime, emp.Shift.EndTime, emp.Shift.StandardMinutes, emp.Location(s.loc))
}

// resolveStatus grades a completed day.
func (s *AttendanceServiceImpl) resolveStatus(d worktime.Duration, shift employee.Shift) attendance.Status {
	grace := s.policy.GraceMinutes
	if shift.GraceMinutes != nil {
		grace = *shift.GraceMinutes
	}

	switch {
	case d.LateMinutes > grace:
		return attendance.StatusLate
	case float64(d.WorkedMinutes) < float64(shift.StandardMinutes)*s.policy.HalfDayRatio:
		return attendance.StatusHalfDay
	default:
		return attendance.StatusPresent
	}
}

func (s *AttendanceServiceImpl) appendAudit(ctx context.Context, rec attendance.Attendance, transition attendance.Transition, actorID string, from *attendance.Status, reason *string, payload map[string]any) error {
	entry := attendance.AuditEntry{
		AttendanceID: rec.ID,
		EmployeeID:   rec.EmployeeID,
		Date:         rec.Date,
		Transition:   transition,
		ActorID:      actorID,
		FromStatus:   from,
		ToStatus:     rec.Status,
		Reason:       reason,
	}
	if len(payload) > 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		entry.Payload = raw
	}

	if _, err := s.auditRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func statusPtr(st attendance.Status) *attendance.Status {
	return &st
}

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := s.activeEmployee(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	loc := emp.Location(s.loc)

	timestamp := s.now()
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}
	date := worktime.DateOf(timestamp, loc)
	if req.Date != "" {
		date, _ = worktime.ParseDate(req.Date)
	}

	shift, err := s.shiftOn(emp, date)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	geofence := emp.Shift.Site.Check(req.Location)

	var saved attendance.Attendance
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var from *attendance.Status
		existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, date)
		switch {
		case err == nil:
			if existing.ClockIn != nil {
				return attendance.ErrDuplicateClockIn
			}
			if existing.Status == attendance.StatusOnLeave {
				return attendance.ErrOnLeave
			}
			from = statusPtr(existing.Status)
		case !errors.Is(err, attendance.ErrAttendanceNotFound):
			return fmt.Errorf("failed to get attendance: %w", err)
		}

		saved, err = s.attendanceRepo.UpsertClockIn(ctx, attendance.Attendance{
			EmployeeID:      emp.ID,
			Date:            date,
			ClockIn:         &timestamp,
			ClockInLocation: req.Location,
			ClockInGeofence: geofence,
			LateMinutes:     worktime.LateMinutes(timestamp, shift),
			Status:          attendance.StatusPending,
		})
		if err != nil {
			return err
		}

		return s.appendAudit(ctx, saved, attendance.TransitionClockIn, emp.ID, from, nil, map[string]any{
			"clock_in": timestamp,
			"geofence": geofence,
		})
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if geofence.Flagged() {
		slog.Warn("clock-in geofence flagged",
			"employee_id", emp.ID,
			"date", date.Format(worktime.DateLayout),
			"geofence", geofence,
		)
	}
	slog.Info("clock-in recorded",
		"employee_id", emp.ID,
		"date", date.Format(worktime.DateLayout),
		"late_minutes", saved.LateMinutes,
	)

	return saved.ToResponse(), nil
}

// openRecord finds the record a clock-out closes. A record on date, open or
// not, is the one being closed. Without an explicit date and with nothing on
// date, a still-open record from the day before is closed only when that
// day's shift runs past midnight.
func (s *AttendanceServiceImpl) openRecord(ctx context.Context, emp employee.Employee, date time.Time, explicit bool) (attendance.Attendance, error) {
	rec, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, date)
	switch {
	case err == nil:
		if !rec.IsOpen() {
			return attendance.Attendance{}, attendance.ErrNoOpenClockIn
		}
		return rec, nil
	case !errors.Is(err, attendance.ErrAttendanceNotFound):
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	case explicit:
		return attendance.Attendance{}, attendance.ErrNoOpenClockIn
	}

	previous := date.AddDate(0, 0, -1)
	shift, err := s.shiftOn(emp, previous)
	if err != nil {
		return attendance.Attendance{}, err
	}
	if !crossesMidnight(shift) {
		return attendance.Attendance{}, attendance.ErrNoOpenClockIn
	}

	rec, err = s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, previous)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.Attendance{}, attendance.ErrNoOpenClockIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if !rec.IsOpen() {
		return attendance.Attendance{}, attendance.ErrNoOpenClockIn
	}
	return rec, nil
}

func crossesMidnight(shift worktime.Shift) bool {
	y1, m1, d1 := shift.ScheduledStart.Date()
	y2, m2, d2 := shift.ScheduledEnd.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := s.activeEmployee(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	timestamp := s.now()
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	explicit := req.Date != ""
	date := worktime.DateOf(timestamp, emp.Location(s.loc))
	if explicit {
		date, _ = worktime.ParseDate(req.Date)
	}

	geofence := emp.Shift.Site.Check(req.Location)

	var saved attendance.Attendance
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.openRecord(ctx, emp, date, explicit)
		if err != nil {
			return err
		}

		shift, err := s.shiftOn(emp, rec.Date)
		if err != nil {
			return err
		}
		duration, err := worktime.Compute(*rec.ClockIn, timestamp, shift)
		if err != nil {
			return err
		}

		from := rec.Status
		rec.ClockOut = &timestamp
		rec.ClockOutLocation = req.Location
		rec.ClockOutGeofence = geofence
		rec.WorkedMinutes = duration.WorkedMinutes
		rec.LateMinutes = duration.LateMinutes
		rec.EarlyDepartureMinutes = duration.EarlyDepartureMinutes
		rec.OvertimeMinutes = duration.OvertimeMinutes
		rec.Status = s.resolveStatus(duration, emp.Shift)

		saved, err = s.attendanceRepo.Update(ctx, rec)
		if err != nil {
			return err
		}

		return s.appendAudit(ctx, saved, attendance.TransitionClockOut, emp.ID, &from, nil, map[string]any{
			"clock_out":      timestamp,
			"geofence":       geofence,
			"worked_minutes": duration.WorkedMinutes,
		})
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if geofence.Flagged() {
		slog.Warn("clock-out geofence flagged",
			"employee_id", emp.ID,
			"date", saved.Date.Format(worktime.DateLayout),
			"geofence", geofence,
		)
	}
	slog.Info("clock-out recorded",
		"employee_id", emp.ID,
		"date", saved.Date.Format(worktime.DateLayout),
		"status", saved.Status,
		"worked_minutes", saved.WorkedMinutes,
	)

	return saved.ToResponse(), nil
}

// MarkAbsent implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if _, err := s.directory.GetEmployee(ctx, req.EmployeeID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	date, _ := worktime.ParseDate(req.Date)
	actorID := req.ActorID
	if actorID == "" {
		actorID = SystemActor
	}

	var saved attendance.Attendance
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
		if err != nil {
			if !errors.Is(err, attendance.ErrAttendanceNotFound) {
				return fmt.Errorf("failed to get attendance: %w", err)
			}
			saved, err = s.attendanceRepo.Create(ctx, attendance.Attendance{
				EmployeeID: req.EmployeeID,
				Date:       date,
				Status:     attendance.StatusAbsent,
			})
			if err != nil {
				return err
			}
			return s.appendAudit(ctx, saved, attendance.TransitionMarkAbsent, actorID, nil, nil, nil)
		}

		if existing.ClockIn != nil {
			return attendance.ErrAlreadyClockedIn
		}
		if existing.Status == attendance.StatusAbsent || existing.Status == attendance.StatusOnLeave {
			saved = existing
			return nil
		}

		from := existing.Status
		existing.Status = attendance.StatusAbsent
		saved, err = s.attendanceRepo.Update(ctx, existing)
		if err != nil {
			return err
		}
		return s.appendAudit(ctx, saved, attendance.TransitionMarkAbsent, actorID, &from, nil, nil)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance marked absent",
		"employee_id", req.EmployeeID,
		"date", req.Date,
		"actor_id", actorID,
	)
	return saved.ToResponse(), nil
}

// ApplyApprovedLeave implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ApplyApprovedLeave(ctx context.Context, employeeID string, date time.Time, leaveRequestID string) error {
	date = worktime.DateOf(date, nil)
	payload := map[string]any{"leave_request_id": leaveRequestID}

	return s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, date)
		if err != nil {
			if !errors.Is(err, attendance.ErrAttendanceNotFound) {
				return fmt.Errorf("failed to get attendance: %w", err)
			}
			saved, err := s.attendanceRepo.Create(ctx, attendance.Attendance{
				EmployeeID:     employeeID,
				Date:           date,
				Status:         attendance.StatusOnLeave,
				LeaveRequestID: &leaveRequestID,
			})
			if err != nil {
				return err
			}
			return s.appendAudit(ctx, saved, attendance.TransitionApplyLeave, SystemActor, nil, nil, payload)
		}

		if existing.Status == attendance.StatusOnLeave &&
			existing.LeaveRequestID != nil && *existing.LeaveRequestID == leaveRequestID {
			return nil
		}

		from := existing.Status
		existing.Status = attendance.StatusOnLeave
		existing.LeaveRequestID = &leaveRequestID
		saved, err := s.attendanceRepo.Update(ctx, existing)
		if err != nil {
			return err
		}
		return s.appendAudit(ctx, saved, attendance.TransitionApplyLeave, SystemActor, &from, nil, payload)
	})
}

// Correct implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Correct(ctx context.Context, req attendance.CorrectionRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := s.directory.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	date, _ := worktime.ParseDate(req.Date)

	var saved attendance.Attendance
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, date)
		backfill := errors.Is(err, attendance.ErrAttendanceNotFound)
		if err != nil && !backfill {
			return fmt.Errorf("failed to get attendance: %w", err)
		}

		var from *attendance.Status
		if backfill {
			rec = attendance.Attendance{EmployeeID: emp.ID, Date: date, Status: attendance.StatusPending}
		} else {
			from = statusPtr(rec.Status)
		}

		payload := map[string]any{}
		if req.ClockIn != nil {
			rec.ClockIn = req.ClockIn
			payload["clock_in"] = *req.ClockIn
		}
		if req.ClockOut != nil {
			rec.ClockOut = req.ClockOut
			payload["clock_out"] = *req.ClockOut
		}

		if rec.ClockOut != nil && rec.ClockIn == nil {
			return attendance.ErrInvalidInterval
		}
		if rec.ClockIn != nil && (req.ClockIn != nil || req.ClockOut != nil) {
			shift, err := s.shiftOn(emp, date)
			if err != nil {
				return err
			}
			if rec.ClockOut != nil {
				duration, err := worktime.Compute(*rec.ClockIn, *rec.ClockOut, shift)
				if err != nil {
					return err
				}
				rec.WorkedMinutes = duration.WorkedMinutes
				rec.LateMinutes = duration.LateMinutes
				rec.EarlyDepartureMinutes = duration.EarlyDepartureMinutes
				rec.OvertimeMinutes = duration.OvertimeMinutes
				rec.Status = s.resolveStatus(duration, emp.Shift)
			} else {
				rec.LateMinutes = worktime.LateMinutes(*rec.ClockIn, shift)
				rec.Status = attendance.StatusPending
			}
		}

		if req.Status != nil {
			rec.Status = attendance.Status(*req.Status)
			payload["status"] = *req.Status
		}
		if rec.Status != attendance.StatusOnLeave {
			rec.LeaveRequestID = nil
		}

		if backfill {
			saved, err = s.attendanceRepo.Create(ctx, rec)
		} else {
			saved, err = s.attendanceRepo.Update(ctx, rec)
		}
		if err != nil {
			return err
		}

		reason := req.Reason
		return s.appendAudit(ctx, saved, attendance.TransitionCorrection, req.ManagerID, from, &reason, payload)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance corrected",
		"employee_id", emp.ID,
		"date", req.Date,
		"manager_id", req.ManagerID,
		"status", saved.Status,
	)
	return saved.ToResponse(), nil
}

// GetAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceResponse, error) {
	rec, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, worktime.DateOf(date, nil))
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return rec.ToResponse(), nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := s.attendanceRepo.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, rec.ToResponse())
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Attendances: responses,
	}, nil
}

// ListAudit implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAudit(ctx context.Context, employeeID string, date *time.Time) ([]attendance.AuditEntryResponse, error) {
	entries, err := s.auditRepo.ListByEmployee(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}

	responses := make([]attendance.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, e.ToResponse())
	}
	return responses, nil
}
