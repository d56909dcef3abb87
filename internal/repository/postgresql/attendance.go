package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/geo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const attendanceColumns = `
	id, employee_id, date, clock_in, clock_out,
	clock_in_latitude, clock_in_longitude, clock_out_latitude, clock_out_longitude,
	clock_in_geofence, clock_out_geofence,
	worked_minutes, late_minutes, early_departure_minutes, overtime_minutes,
	status, leave_request_id, version, created_at, updated_at`

const uniqueViolation = "23505"

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var (
		att                          attendance.Attendance
		inLat, inLon, outLat, outLon *float64
	)
	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.Date, &att.ClockIn, &att.ClockOut,
		&inLat, &inLon, &outLat, &outLon,
		&att.ClockInGeofence, &att.ClockOutGeofence,
		&att.WorkedMinutes, &att.LateMinutes, &att.EarlyDepartureMinutes, &att.OvertimeMinutes,
		&att.Status, &att.LeaveRequestID, &att.Version, &att.CreatedAt, &att.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}
	att.ClockInLocation = toPoint(inLat, inLon)
	att.ClockOutLocation = toPoint(outLat, outLon)
	return att, nil
}

func toPoint(lat, lon *float64) *geo.Point {
	if lat == nil || lon == nil {
		return nil
	}
	return &geo.Point{Latitude: *lat, Longitude: *lon}
}

func fromPoint(p *geo.Point) (lat, lon *float64) {
	if p == nil {
		return nil, nil
	}
	return &p.Latitude, &p.Longitude
}

// UpsertClockIn implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpsertClockIn(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	lat, lon := fromPoint(record.ClockInLocation)
	query := `
		INSERT INTO attendances (
			employee_id, date, clock_in, clock_in_latitude, clock_in_longitude,
			clock_in_geofence, late_minutes, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			clock_in = EXCLUDED.clock_in,
			clock_in_latitude = EXCLUDED.clock_in_latitude,
			clock_in_longitude = EXCLUDED.clock_in_longitude,
			clock_in_geofence = EXCLUDED.clock_in_geofence,
			late_minutes = EXCLUDED.late_minutes,
			status = EXCLUDED.status,
			version = attendances.version + 1,
			updated_at = NOW()
		WHERE attendances.clock_in IS NULL AND attendances.status <> 'on_leave'
		RETURNING ` + attendanceColumns

	saved, err := scanAttendance(q.QueryRow(ctx, query,
		record.EmployeeID, record.Date, record.ClockIn, lat, lon,
		record.ClockInGeofence, record.LateMinutes, record.Status,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if current, getErr := a.GetByEmployeeAndDate(ctx, record.EmployeeID, record.Date); getErr == nil && current.Status == attendance.StatusOnLeave {
				return attendance.Attendance{}, attendance.ErrOnLeave
			}
			return attendance.Attendance{}, attendance.ErrDuplicateClockIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to upsert clock-in: %w", err)
	}
	return saved, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	inLat, inLon := fromPoint(record.ClockInLocation)
	outLat, outLon := fromPoint(record.ClockOutLocation)
	query := `
		INSERT INTO attendances (
			employee_id, date, clock_in, clock_out,
			clock_in_latitude, clock_in_longitude, clock_out_latitude, clock_out_longitude,
			clock_in_geofence, clock_out_geofence,
			worked_minutes, late_minutes, early_departure_minutes, overtime_minutes,
			status, leave_request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + attendanceColumns

	saved, err := scanAttendance(q.QueryRow(ctx, query,
		record.EmployeeID, record.Date, record.ClockIn, record.ClockOut,
		inLat, inLon, outLat, outLon,
		geofenceOrUnknown(record.ClockInGeofence), geofenceOrUnknown(record.ClockOutGeofence),
		record.WorkedMinutes, record.LateMinutes, record.EarlyDepartureMinutes, record.OvertimeMinutes,
		record.Status, record.LeaveRequestID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return attendance.Attendance{}, attendance.ErrDuplicateRecord
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return saved, nil
}

func geofenceOrUnknown(r geo.Result) geo.Result {
	if r == "" {
		return geo.ResultUnknown
	}
	return r
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	att, err := scanAttendance(q.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendances WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE employee_id = $1 AND date = $2`
	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return att, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	inLat, inLon := fromPoint(record.ClockInLocation)
	outLat, outLon := fromPoint(record.ClockOutLocation)
	query := `
		UPDATE attendances SET
			clock_in = $3, clock_out = $4,
			clock_in_latitude = $5, clock_in_longitude = $6,
			clock_out_latitude = $7, clock_out_longitude = $8,
			clock_in_geofence = $9, clock_out_geofence = $10,
			worked_minutes = $11, late_minutes = $12,
			early_departure_minutes = $13, overtime_minutes = $14,
			status = $15, leave_request_id = $16,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + attendanceColumns

	saved, err := scanAttendance(q.QueryRow(ctx, query,
		record.ID, record.Version,
		record.ClockIn, record.ClockOut,
		inLat, inLon, outLat, outLon,
		geofenceOrUnknown(record.ClockInGeofence), geofenceOrUnknown(record.ClockOutGeofence),
		record.WorkedMinutes, record.LateMinutes,
		record.EarlyDepartureMinutes, record.OvertimeMinutes,
		record.Status, record.LeaveRequestID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrVersionConflict
		}
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	return saved, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	return collectAttendances(rows)
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	where := " FROM attendances WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		where += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		where += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		where += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance: %w", err)
	}

	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf("SELECT %s%s ORDER BY date %s, employee_id LIMIT $%d OFFSET $%d",
		attendanceColumns, where, sortOrder, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	records, err := collectAttendances(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func collectAttendances(rows pgx.Rows) ([]attendance.Attendance, error) {
	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}
	return records, nil
}

type attendanceAuditRepository struct {
	db *database.DB
}

func NewAttendanceAuditRepository(db *database.DB) attendance.AuditRepository {
	return &attendanceAuditRepository{db: db}
}

// Append implements attendance.AuditRepository.
func (r *attendanceAuditRepository) Append(ctx context.Context, entry attendance.AuditEntry) (attendance.AuditEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_audits (
			attendance_id, employee_id, date, transition, actor_id,
			from_status, to_status, reason, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, occurred_at
	`
	err := q.QueryRow(ctx, query,
		entry.AttendanceID, entry.EmployeeID, entry.Date, entry.Transition, entry.ActorID,
		entry.FromStatus, entry.ToStatus, entry.Reason, []byte(entry.Payload),
	).Scan(&entry.ID, &entry.OccurredAt)
	if err != nil {
		return attendance.AuditEntry{}, fmt.Errorf("failed to append attendance audit: %w", err)
	}
	return entry, nil
}

// ListByEmployee implements attendance.AuditRepository.
func (r *attendanceAuditRepository) ListByEmployee(ctx context.Context, employeeID string, date *time.Time) ([]attendance.AuditEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, attendance_id, employee_id, date, transition, actor_id,
			   from_status, to_status, reason, payload, occurred_at
		FROM attendance_audits
		WHERE employee_id = $1 AND ($2::date IS NULL OR date = $2::date)
		ORDER BY occurred_at, id
	`
	rows, err := q.Query(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance audit: %w", err)
	}
	defer rows.Close()

	var entries []attendance.AuditEntry
	for rows.Next() {
		var e attendance.AuditEntry
		var payload []byte
		if err := rows.Scan(
			&e.ID, &e.AttendanceID, &e.EmployeeID, &e.Date, &e.Transition, &e.ActorID,
			&e.FromStatus, &e.ToStatus, &e.Reason, &payload, &e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance audit: %w", err)
		}
		e.Payload = payload
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
