package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveBalanceColumns = `
	id, employee_id, leave_type_id, year, quota, carried_forward,
	used, pending, unpaid_pending, unpaid_used, version, created_at, updated_at`

type leaveBalanceRepository struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepository{db: db}
}

func scanLeaveBalance(row pgx.Row) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.Year, &b.Quota, &b.CarriedForward,
		&b.Used, &b.Pending, &b.UnpaidPending, &b.UnpaidUsed, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// Get implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepository) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3`

	b, err := scanLeaveBalance(q.QueryRow(ctx, query, employeeID, leaveTypeID, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return b, nil
}

// ListByEmployeeYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepository) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2
		ORDER BY leave_type_id`

	rows, err := q.Query(ctx, query, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave balances: %w", err)
	}
	defer rows.Close()

	var balances []leave.LeaveBalance
	for rows.Next() {
		b, err := scanLeaveBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// Create implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepository) Create(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (
			employee_id, leave_type_id, year, quota, carried_forward,
			used, pending, unpaid_pending, unpaid_used
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (employee_id, leave_type_id, year) DO NOTHING
		RETURNING ` + leaveBalanceColumns

	saved, err := scanLeaveBalance(q.QueryRow(ctx, query,
		balance.EmployeeID, balance.LeaveTypeID, balance.Year, balance.Quota, balance.CarriedForward,
		balance.Used, balance.Pending, balance.UnpaidPending, balance.UnpaidUsed,
	))
	if err == nil {
		return saved, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return leave.LeaveBalance{}, false, fmt.Errorf("failed to create leave balance: %w", err)
	}

	existing, err := r.Get(ctx, balance.EmployeeID, balance.LeaveTypeID, balance.Year)
	if err != nil {
		return leave.LeaveBalance{}, false, err
	}
	return existing, false, nil
}

// Update implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepository) Update(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances SET
			quota = $3, carried_forward = $4, used = $5, pending = $6,
			unpaid_pending = $7, unpaid_used = $8,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + leaveBalanceColumns

	saved, err := scanLeaveBalance(q.QueryRow(ctx, query,
		balance.ID, balance.Version,
		balance.Quota, balance.CarriedForward, balance.Used, balance.Pending,
		balance.UnpaidPending, balance.UnpaidUsed,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrVersionConflict
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to update leave balance: %w", err)
	}
	return saved, nil
}
