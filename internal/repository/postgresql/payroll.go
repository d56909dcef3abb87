package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const payrollColumns = `
	id, employee_id, period_start, period_end, days_in_period,
	basic_salary, prorated_basic, allowances, allowances_detail,
	overtime_minutes, overtime_pay, gross_salary,
	unpaid_leave_days, unpaid_leave_deduction, statutory_deductions, deductions_detail,
	late_minutes, lateness_penalty, absent_days, absence_penalty,
	deductions, net_salary, status, processed_at, processed_by, paid_at, payment_date,
	version, created_at, updated_at`

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

func scanPayrollRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var rec payroll.PayrollRecord
	var allowancesBytes, deductionsBytes []byte
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.PeriodStart, &rec.PeriodEnd, &rec.DaysInPeriod,
		&rec.BasicSalary, &rec.ProratedBasic, &rec.Allowances, &allowancesBytes,
		&rec.OvertimeMinutes, &rec.OvertimePay, &rec.GrossSalary,
		&rec.UnpaidLeaveDays, &rec.UnpaidLeaveDeduction, &rec.StatutoryDeductions, &deductionsBytes,
		&rec.LateMinutes, &rec.LatenessPenalty, &rec.AbsentDays, &rec.AbsencePenalty,
		&rec.Deductions, &rec.NetSalary, &rec.Status, &rec.ProcessedAt, &rec.ProcessedBy, &rec.PaidAt, &rec.PaymentDate,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	if len(allowancesBytes) > 0 {
		if err := json.Unmarshal(allowancesBytes, &rec.AllowancesDetail); err != nil {
			return payroll.PayrollRecord{}, fmt.Errorf("failed to decode allowances detail: %w", err)
		}
	}
	if len(deductionsBytes) > 0 {
		if err := json.Unmarshal(deductionsBytes, &rec.DeductionsDetail); err != nil {
			return payroll.PayrollRecord{}, fmt.Errorf("failed to decode deductions detail: %w", err)
		}
	}
	return rec, nil
}

func marshalDetail(m map[string]decimal.Decimal) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// Create implements payroll.PayrollRepository.
func (r *payrollRepository) Create(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	allowancesJSON, err := marshalDetail(record.AllowancesDetail)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to encode allowances detail: %w", err)
	}
	deductionsJSON, err := marshalDetail(record.DeductionsDetail)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to encode deductions detail: %w", err)
	}

	query := `
		INSERT INTO payroll_records (
			employee_id, period_start, period_end, days_in_period,
			basic_salary, prorated_basic, allowances, allowances_detail,
			overtime_minutes, overtime_pay, gross_salary,
			unpaid_leave_days, unpaid_leave_deduction, statutory_deductions, deductions_detail,
			late_minutes, lateness_penalty, absent_days, absence_penalty,
			deductions, net_salary, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING ` + payrollColumns

	saved, err := scanPayrollRecord(q.QueryRow(ctx, query,
		record.EmployeeID, record.PeriodStart, record.PeriodEnd, record.DaysInPeriod,
		record.BasicSalary, record.ProratedBasic, record.Allowances, allowancesJSON,
		record.OvertimeMinutes, record.OvertimePay, record.GrossSalary,
		record.UnpaidLeaveDays, record.UnpaidLeaveDeduction, record.StatutoryDeductions, deductionsJSON,
		record.LateMinutes, record.LatenessPenalty, record.AbsentDays, record.AbsencePenalty,
		record.Deductions, record.NetSalary, record.Status,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// lost a race with a concurrent run for the same period
			return payroll.PayrollRecord{}, payroll.ErrVersionConflict
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to create payroll record: %w", err)
	}
	return saved, nil
}

// GetByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanPayrollRecord(q.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payroll_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return rec, nil
}

// GetByEmployeePeriod implements payroll.PayrollRepository.
func (r *payrollRepository) GetByEmployeePeriod(ctx context.Context, employeeID string, start, end time.Time) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollColumns + `
		FROM payroll_records
		WHERE employee_id = $1 AND period_start = $2 AND period_end = $3`

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query, employeeID, start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record by period: %w", err)
	}
	return rec, nil
}

// Update implements payroll.PayrollRepository.
func (r *payrollRepository) Update(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	allowancesJSON, err := marshalDetail(record.AllowancesDetail)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to encode allowances detail: %w", err)
	}
	deductionsJSON, err := marshalDetail(record.DeductionsDetail)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to encode deductions detail: %w", err)
	}

	query := `
		UPDATE payroll_records SET
			days_in_period = $3, basic_salary = $4, prorated_basic = $5,
			allowances = $6, allowances_detail = $7,
			overtime_minutes = $8, overtime_pay = $9, gross_salary = $10,
			unpaid_leave_days = $11, unpaid_leave_deduction = $12,
			statutory_deductions = $13, deductions_detail = $14,
			late_minutes = $15, lateness_penalty = $16,
			absent_days = $17, absence_penalty = $18,
			deductions = $19, net_salary = $20, status = $21,
			processed_at = $22, processed_by = $23, paid_at = $24, payment_date = $25,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + payrollColumns

	saved, err := scanPayrollRecord(q.QueryRow(ctx, query,
		record.ID, record.Version,
		record.DaysInPeriod, record.BasicSalary, record.ProratedBasic,
		record.Allowances, allowancesJSON,
		record.OvertimeMinutes, record.OvertimePay, record.GrossSalary,
		record.UnpaidLeaveDays, record.UnpaidLeaveDeduction,
		record.StatutoryDeductions, deductionsJSON,
		record.LateMinutes, record.LatenessPenalty,
		record.AbsentDays, record.AbsencePenalty,
		record.Deductions, record.NetSalary, record.Status,
		record.ProcessedAt, record.ProcessedBy, record.PaidAt, record.PaymentDate,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrVersionConflict
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to update payroll record: %w", err)
	}
	return saved, nil
}

// List implements payroll.PayrollRepository.
func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := " FROM payroll_records WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.PeriodStart != nil {
		where += fmt.Sprintf(" AND period_start >= $%d", argIdx)
		args = append(args, *filter.PeriodStart)
		argIdx++
	}
	if filter.PeriodEnd != nil {
		where += fmt.Sprintf(" AND period_end <= $%d", argIdx)
		args = append(args, *filter.PeriodEnd)
		argIdx++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil {
		where += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf("SELECT %s%s ORDER BY period_start DESC, employee_id LIMIT $%d OFFSET $%d",
		payrollColumns, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll records: %w", err)
	}
	return records, total, nil
}
