package payroll

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
)

// PayrollService turns settled attendance and leave into payslips.
type PayrollService interface {
	RunPayroll(ctx context.Context, req RunPayrollRequest) (PayrollRecordResponse, error)
	RunPayrollBatch(ctx context.Context, req RunPayrollBatchRequest) (BatchResultResponse, error)
	Process(ctx context.Context, id string, actorID string) (PayrollRecordResponse, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) (PayrollRecordResponse, error)

	GetRecord(ctx context.Context, id string) (PayrollRecordResponse, error)
	ListRecords(ctx context.Context, filter PayrollFilter) (ListPayrollRecordResponse, error)

	// ExportRegister renders the filtered records as an XLSX workbook.
	ExportRegister(ctx context.Context, filter PayrollFilter) ([]byte, error)
}

// LeaveDaySource lists approved leave days for the payroll period.
type LeaveDaySource interface {
	ApprovedLeaveDays(ctx context.Context, employeeID string, from, to time.Time) ([]leave.LeaveDay, error)
}
