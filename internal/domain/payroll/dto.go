package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
	"github.com/shopspring/decimal"
)

// ========== RUN DTOs ==========

type RunPayrollRequest struct {
	EmployeeID  string `json:"employee_id"`
	PeriodStart string `json:"period_start"` // YYYY-MM-DD
	PeriodEnd   string `json:"period_end"`   // YYYY-MM-DD
}

func (r *RunPayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	errs = append(errs, validatePeriod(r.PeriodStart, r.PeriodEnd)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RunPayrollBatchRequest struct {
	// EmployeeIDs empty means all active employees.
	EmployeeIDs []string `json:"employee_ids,omitempty"`
	PeriodStart string   `json:"period_start"`
	PeriodEnd   string   `json:"period_end"`
}

func (r *RunPayrollBatchRequest) Validate() error {
	errs := validatePeriod(r.PeriodStart, r.PeriodEnd)
	for _, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "must not contain empty ids"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePeriod(startStr, endStr string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(startStr)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be in YYYY-MM-DD format"})
	}
	end, endOK := validator.IsValidDate(endStr)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be in YYYY-MM-DD format"})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must not be before period_start"})
	}
	return errs
}

type MarkPaidRequest struct {
	ID          string `json:"-"`
	PaymentDate string `json:"payment_date"` // YYYY-MM-DD
}

func (r *MarkPaidRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if _, ok := validator.IsValidDate(r.PaymentDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "payment_date", Message: "must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== RESPONSE DTOs ==========

type PayrollRecordResponse struct {
	ID                   string                     `json:"id"`
	EmployeeID           string                     `json:"employee_id"`
	PeriodStart          string                     `json:"period_start"`
	PeriodEnd            string                     `json:"period_end"`
	DaysInPeriod         int                        `json:"days_in_period"`
	BasicSalary          decimal.Decimal            `json:"basic_salary"`
	ProratedBasic        decimal.Decimal            `json:"prorated_basic"`
	Allowances           decimal.Decimal            `json:"allowances"`
	AllowancesDetail     map[string]decimal.Decimal `json:"allowances_detail,omitempty"`
	OvertimeMinutes      int                        `json:"overtime_minutes"`
	OvertimePay          decimal.Decimal            `json:"overtime_pay"`
	GrossSalary          decimal.Decimal            `json:"gross_salary"`
	UnpaidLeaveDays      decimal.Decimal            `json:"unpaid_leave_days"`
	UnpaidLeaveDeduction decimal.Decimal            `json:"unpaid_leave_deduction"`
	StatutoryDeductions  decimal.Decimal            `json:"statutory_deductions"`
	DeductionsDetail     map[string]decimal.Decimal `json:"deductions_detail,omitempty"`
	LateMinutes          int                        `json:"late_minutes"`
	LatenessPenalty      decimal.Decimal            `json:"lateness_penalty"`
	AbsentDays           int                        `json:"absent_days"`
	AbsencePenalty       decimal.Decimal            `json:"absence_penalty"`
	Deductions           decimal.Decimal            `json:"deductions"`
	NetSalary            decimal.Decimal            `json:"net_salary"`
	Status               string                     `json:"status"`
	ProcessedAt          *string                    `json:"processed_at,omitempty"`
	PaidAt               *string                    `json:"paid_at,omitempty"`
	PaymentDate          *string                    `json:"payment_date,omitempty"`
}

type PayrollFilter struct {
	PeriodStart *string `json:"period_start,omitempty"`
	PeriodEnd   *string `json:"period_end,omitempty"`
	Status      *string `json:"status,omitempty"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}

func (f *PayrollFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "must be a positive number"})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 1000 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "must not exceed 1000"})
	}

	if f.Status != nil {
		valid := []string{string(PayrollStatusDraft), string(PayrollStatusProcessed), string(PayrollStatusPaid)}
		if !validator.IsInSlice(*f.Status, valid) {
			errs = append(errs, validator.ValidationError{Field: "status", Message: "must be one of: draft, processed, paid"})
		}
	}
	if f.PeriodStart != nil {
		if _, ok := validator.IsValidDate(*f.PeriodStart); !ok {
			errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be in YYYY-MM-DD format"})
		}
	}
	if f.PeriodEnd != nil {
		if _, ok := validator.IsValidDate(*f.PeriodEnd); !ok {
			errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListPayrollRecordResponse struct {
	Data       []PayrollRecordResponse `json:"data"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
}

type BatchItemResult struct {
	EmployeeID string                 `json:"employee_id"`
	Record     *PayrollRecordResponse `json:"record,omitempty"`
	Error      *string                `json:"error,omitempty"`
}

type BatchResultResponse struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchItemResult `json:"results"`
}

func formatTime(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	s := t.Format(layout)
	return &s
}

func (r PayrollRecord) ToResponse() PayrollRecordResponse {
	return PayrollRecordResponse{
		ID:                   r.ID,
		EmployeeID:           r.EmployeeID,
		PeriodStart:          r.PeriodStart.Format(worktime.DateLayout),
		PeriodEnd:            r.PeriodEnd.Format(worktime.DateLayout),
		DaysInPeriod:         r.DaysInPeriod,
		BasicSalary:          r.BasicSalary,
		ProratedBasic:        r.ProratedBasic,
		Allowances:           r.Allowances,
		AllowancesDetail:     r.AllowancesDetail,
		OvertimeMinutes:      r.OvertimeMinutes,
		OvertimePay:          r.OvertimePay,
		GrossSalary:          r.GrossSalary,
		UnpaidLeaveDays:      r.UnpaidLeaveDays,
		UnpaidLeaveDeduction: r.UnpaidLeaveDeduction,
		StatutoryDeductions:  r.StatutoryDeductions,
		DeductionsDetail:     r.DeductionsDetail,
		LateMinutes:          r.LateMinutes,
		LatenessPenalty:      r.LatenessPenalty,
		AbsentDays:           r.AbsentDays,
		AbsencePenalty:       r.AbsencePenalty,
		Deductions:           r.Deductions,
		NetSalary:            r.NetSalary,
		Status:               string(r.Status),
		ProcessedAt:          formatTime(r.ProcessedAt, time.RFC3339),
		PaidAt:               formatTime(r.PaidAt, time.RFC3339),
		PaymentDate:          formatTime(r.PaymentDate, worktime.DateLayout),
	}
}
