package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// TestDatabaseSetup holds the connection to a migrated test database
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL. It skips the test when the
// variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(context.Background(), dsn, database.PoolOptions{MaxConns: 5, MinConns: 1})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	setup := &TestDatabaseSetup{DB: db}
	if err := setup.TruncateAllTables(context.Background()); err != nil {
		db.Close()
		t.Fatalf("failed to reset test database: %v", err)
	}
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes all rows from every table
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx, pgx.ReadCommitted)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"payroll_records",
		"leave_requests",
		"leave_balances",
		"attendance_audits",
		"attendances",
		"leave_entitlements",
		"leave_types",
		"salary_components",
		"employees",
		"work_shifts",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}

// CreateEmployee inserts an active employee on a 09:00-17:00 shift.
func (s *TestDatabaseSetup) CreateEmployee(t *testing.T, code string) string {
	t.Helper()
	ctx := context.Background()

	var shiftID string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO work_shifts (name, start_time, end_time, standard_minutes, site_latitude, site_longitude, site_radius_meters)
		VALUES ('Office', '09:00', '17:00', 480, -6.2088, 106.8456, 150)
		RETURNING id
	`).Scan(&shiftID)
	if err != nil {
		t.Fatalf("failed to create shift: %v", err)
	}

	var employeeID string
	err = s.DB.QueryRow(ctx, `
		INSERT INTO employees (employee_code, full_name, shift_id, basic_salary, overtime_rate_per_hour)
		VALUES ($1, 'Test Employee', $2, 8000000, 50000)
		RETURNING id
	`, code, shiftID).Scan(&employeeID)
	if err != nil {
		t.Fatalf("failed to create employee: %v", err)
	}

	_, err = s.DB.Exec(ctx, `
		INSERT INTO salary_components (employee_id, name, type, amount)
		VALUES ($1, 'Transport', 'allowance', 500000), ($1, 'BPJS', 'deduction', 80000)
	`, employeeID)
	if err != nil {
		t.Fatalf("failed to create salary components: %v", err)
	}
	return employeeID
}

// CreateLeaveType inserts a paid leave type with the given quota.
func (s *TestDatabaseSetup) CreateLeaveType(t *testing.T, code string, quota float64) string {
	t.Helper()

	var id string
	err := s.DB.QueryRow(context.Background(), `
		INSERT INTO leave_types (code, name, annual_quota, is_paid)
		VALUES ($1, $1, $2, TRUE)
		RETURNING id
	`, code, quota).Scan(&id)
	if err != nil {
		t.Fatalf("failed to create leave type: %v", err)
	}
	return id
}
