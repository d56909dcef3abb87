package payroll

import (
	"context"
	"time"
)

type PayrollRepository interface {
	Create(ctx context.Context, record PayrollRecord) (PayrollRecord, error)
	GetByID(ctx context.Context, id string) (PayrollRecord, error)
	GetByEmployeePeriod(ctx context.Context, employeeID string, start, end time.Time) (PayrollRecord, error)

	// Update writes the record if its version is unchanged. ErrVersionConflict otherwise.
	Update(ctx context.Context, record PayrollRecord) (PayrollRecord, error)

	List(ctx context.Context, filter PayrollFilter) ([]PayrollRecord, int64, error)
}
