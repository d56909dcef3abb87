package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
)

type attendanceRepository struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepository{store: store}
}

// findAttendanceLocked requires s.mu to be held.
func (s *Store) findAttendanceLocked(employeeID string, date time.Time) (attendance.Attendance, bool) {
	for _, att := range s.attendances {
		if att.EmployeeID == employeeID && att.Date.Equal(date) {
			return att, true
		}
	}
	return attendance.Attendance{}, false
}

func geofenceOrUnknown(r geo.Result) geo.Result {
	if r == "" {
		return geo.ResultUnknown
	}
	return r
}

// UpsertClockIn implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpsertClockIn(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.findAttendanceLocked(record.EmployeeID, record.Date)
	if !ok {
		record.ID = newID()
		record.ClockInGeofence = geofenceOrUnknown(record.ClockInGeofence)
		record.ClockOutGeofence = geo.ResultUnknown
		record.Version = 1
		record.CreatedAt = now
		record.UpdatedAt = now
		s.attendances[record.ID] = record
		return record, nil
	}
	if existing.ClockIn != nil {
		return attendance.Attendance{}, attendance.ErrDuplicateClockIn
	}
	if existing.Status == attendance.StatusOnLeave {
		return attendance.Attendance{}, attendance.ErrOnLeave
	}

	existing.ClockIn = record.ClockIn
	existing.ClockInLocation = record.ClockInLocation
	existing.ClockInGeofence = geofenceOrUnknown(record.ClockInGeofence)
	existing.LateMinutes = record.LateMinutes
	existing.Status = record.Status
	existing.Version++
	existing.UpdatedAt = now
	s.attendances[existing.ID] = existing
	return existing, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findAttendanceLocked(record.EmployeeID, record.Date); ok {
		return attendance.Attendance{}, attendance.ErrDuplicateRecord
	}

	now := s.now()
	record.ID = newID()
	record.ClockInGeofence = geofenceOrUnknown(record.ClockInGeofence)
	record.ClockOutGeofence = geofenceOrUnknown(record.ClockOutGeofence)
	record.Version = 1
	record.CreatedAt = now
	record.UpdatedAt = now
	s.attendances[record.ID] = record
	return record, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	att, ok := a.store.attendances[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	att, ok := a.store.findAttendanceLocked(employeeID, date)
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return att, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.attendances[record.ID]
	if !ok || current.Version != record.Version {
		return attendance.Attendance{}, attendance.ErrVersionConflict
	}

	record.EmployeeID = current.EmployeeID
	record.Date = current.Date
	record.CreatedAt = current.CreatedAt
	record.ClockInGeofence = geofenceOrUnknown(record.ClockInGeofence)
	record.ClockOutGeofence = geofenceOrUnknown(record.ClockOutGeofence)
	record.Version = current.Version + 1
	record.UpdatedAt = s.now()
	s.attendances[record.ID] = record
	return record, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	var records []attendance.Attendance
	for _, att := range a.store.attendances {
		if att.EmployeeID == employeeID && !att.Date.Before(from) && !att.Date.After(to) {
			records = append(records, att)
		}
	}
	slices.SortFunc(records, func(x, y attendance.Attendance) int {
		return x.Date.Compare(y.Date)
	})
	return records, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	from, to, err := dateRange(filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, 0, err
	}

	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	var records []attendance.Attendance
	for _, att := range a.store.attendances {
		if filter.EmployeeID != nil && att.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(att.Status) != *filter.Status {
			continue
		}
		if from != nil && att.Date.Before(*from) {
			continue
		}
		if to != nil && att.Date.After(*to) {
			continue
		}
		records = append(records, att)
	}

	slices.SortFunc(records, func(x, y attendance.Attendance) int {
		c := x.Date.Compare(y.Date)
		if filter.SortOrder != "asc" {
			c = -c
		}
		return cmp.Or(c, strings.Compare(x.EmployeeID, y.EmployeeID))
	})
	return paginate(records, filter.Page, filter.Limit), int64(len(records)), nil
}

func dateRange(start, end *string) (from, to *time.Time, err error) {
	if start != nil && *start != "" {
		d, err := worktime.ParseDate(*start)
		if err != nil {
			return nil, nil, err
		}
		from = &d
	}
	if end != nil && *end != "" {
		d, err := worktime.ParseDate(*end)
		if err != nil {
			return nil, nil, err
		}
		to = &d
	}
	return from, to, nil
}

type auditRepository struct {
	store *Store
}

func NewAttendanceAuditRepository(store *Store) attendance.AuditRepository {
	return &auditRepository{store: store}
}

// Append implements attendance.AuditRepository.
func (r *auditRepository) Append(ctx context.Context, entry attendance.AuditEntry) (attendance.AuditEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = newID()
	entry.OccurredAt = s.now()
	s.audits = append(s.audits, entry)
	return entry, nil
}

// ListByEmployee implements attendance.AuditRepository.
func (r *auditRepository) ListByEmployee(ctx context.Context, employeeID string, date *time.Time) ([]attendance.AuditEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var entries []attendance.AuditEntry
	for _, e := range r.store.audits {
		if e.EmployeeID != employeeID {
			continue
		}
		if date != nil && !e.Date.Equal(*date) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
