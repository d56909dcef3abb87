package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/geo"
	"github.com/jackc/pgx/v5"
)

type employeeDirectory struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) employee.Directory {
	return &employeeDirectory{db: db}
}

// GetEmployee implements employee.Directory.
func (r *employeeDirectory) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT e.id, e.employee_code, e.full_name, e.employment_status, COALESCE(e.timezone, ''),
			   e.basic_salary, e.overtime_rate_per_hour,
			   s.id, s.name, to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI'),
			   s.standard_minutes, s.grace_minutes,
			   s.site_latitude, s.site_longitude, s.site_radius_meters
		FROM employees e
		LEFT JOIN work_shifts s ON s.id = e.shift_id
		WHERE e.id = $1
	`

	var (
		emp                          employee.Employee
		shiftID, shiftName           *string
		startTime, endTime           *string
		standardMinutes              *int
		siteLat, siteLon, siteRadius *float64
	)
	err := q.QueryRow(ctx, query, id).Scan(
		&emp.ID, &emp.EmployeeCode, &emp.FullName, &emp.EmploymentStatus, &emp.Timezone,
		&emp.Salary.BasicSalary, &emp.Salary.OvertimeRatePerHour,
		&shiftID, &shiftName, &startTime, &endTime,
		&standardMinutes, &emp.Shift.GraceMinutes,
		&siteLat, &siteLon, &siteRadius,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	if shiftID != nil {
		emp.Shift.ID = *shiftID
		emp.Shift.Name = *shiftName
		emp.Shift.StartTime = *startTime
		emp.Shift.EndTime = *endTime
		emp.Shift.StandardMinutes = *standardMinutes
	}
	if siteLat != nil && siteLon != nil && siteRadius != nil {
		emp.Shift.Site = &geo.Site{
			Center:       geo.Point{Latitude: *siteLat, Longitude: *siteLon},
			RadiusMeters: *siteRadius,
		}
	}

	if err := r.loadComponents(ctx, q, &emp); err != nil {
		return employee.Employee{}, err
	}
	if err := r.loadEntitlements(ctx, q, &emp); err != nil {
		return employee.Employee{}, err
	}

	return emp, nil
}

func (r *employeeDirectory) loadComponents(ctx context.Context, q database.Querier, emp *employee.Employee) error {
	rows, err := q.Query(ctx, `
		SELECT name, type, amount
		FROM salary_components
		WHERE employee_id = $1
		ORDER BY name
	`, emp.ID)
	if err != nil {
		return fmt.Errorf("failed to get salary components: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c employee.SalaryComponent
		if err := rows.Scan(&c.Name, &c.Type, &c.Amount); err != nil {
			return fmt.Errorf("failed to scan salary component: %w", err)
		}
		switch c.Type {
		case employee.ComponentTypeAllowance:
			emp.Salary.Allowances = append(emp.Salary.Allowances, c)
		case employee.ComponentTypeDeduction:
			emp.Salary.Deductions = append(emp.Salary.Deductions, c)
		}
	}
	return rows.Err()
}

func (r *employeeDirectory) loadEntitlements(ctx context.Context, q database.Querier, emp *employee.Employee) error {
	rows, err := q.Query(ctx, `
		SELECT leave_type_id, annual_quota
		FROM leave_entitlements
		WHERE employee_id = $1
	`, emp.ID)
	if err != nil {
		return fmt.Errorf("failed to get leave entitlements: %w", err)
	}
	defer rows.Close()

	emp.Entitlements = make(map[string]float64)
	for rows.Next() {
		var leaveTypeID string
		var quota float64
		if err := rows.Scan(&leaveTypeID, &quota); err != nil {
			return fmt.Errorf("failed to scan leave entitlement: %w", err)
		}
		emp.Entitlements[leaveTypeID] = quota
	}
	return rows.Err()
}

// ListActive implements employee.Directory.
func (r *employeeDirectory) ListActive(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id FROM employees
		WHERE employment_status = 'active'
		ORDER BY employee_code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan active employees: %w", err)
	}

	employees := make([]employee.Employee, 0, len(ids))
	for _, id := range ids {
		emp, err := r.GetEmployee(ctx, id)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, nil
}
