package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
)

// ========== REQUEST DTOs ==========

type SubmitLeaveRequest struct {
	EmployeeID  string `json:"employee_id"`
	LeaveTypeID string `json:"leave_type_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	HalfDay     bool   `json:"half_day"`
	Reason      string `json:"reason"`
}

func (r *SubmitLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if validator.IsEmpty(r.LeaveTypeID) {
		errs = append(errs, validator.ValidationError{Field: "leave_type_id", Message: "leave_type_id is required"})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
	}
	if startOK && endOK {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
		} else if start.Year() != end.Year() {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "leave must not span two leave years"})
		}
	}

	if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason must not exceed 1000 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectLeaveRequest struct {
	ID         string `json:"-"`
	ApproverID string `json:"-"`
	Reason     string `json:"reason"`
}

func (r *RejectLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "id is required"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CancelLeaveRequest struct {
	ID        string
	ActorID   string
	IsManager bool
}

type AccrueRequest struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
}

func (r *AccrueRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if r.Year < 2000 || r.Year > 2100 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be between 2000 and 2100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== FILTER ==========

type LeaveRequestFilter struct {
	EmployeeID  *string `json:"employee_id,omitempty"`
	LeaveTypeID *string `json:"leave_type_id,omitempty"`
	Status      *string `json:"status,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}

func (f *LeaveRequestFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}

	if f.Status != nil {
		valid := []string{
			string(LeaveRequestStatusPending),
			string(LeaveRequestStatusApproved),
			string(LeaveRequestStatusRejected),
			string(LeaveRequestStatusCancelled),
		}
		if !validator.IsInSlice(*f.Status, valid) {
			errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be one of: pending, approved, rejected, cancelled"})
		}
	}
	if f.StartDate != nil && *f.StartDate != "" {
		if _, ok := validator.IsValidDate(*f.StartDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if _, ok := validator.IsValidDate(*f.EndDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== RESPONSE DTOs ==========

type LeaveRequestResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	LeaveTypeID    string  `json:"leave_type_id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	HalfDay        bool    `json:"half_day"`
	DayCount       float64 `json:"day_count"`
	PaidDays       float64 `json:"paid_days"`
	UnpaidDays     float64 `json:"unpaid_days"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
	ApproverID     *string `json:"approver_id,omitempty"`
	DecidedAt      *string `json:"decided_at,omitempty"`
	DecisionReason *string `json:"decision_reason,omitempty"`
	CancelledBy    *string `json:"cancelled_by,omitempty"`
	SubmittedAt    string  `json:"submitted_at"`
}

type ListLeaveRequestResponse struct {
	TotalCount    int64                  `json:"total_count"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
	TotalPages    int                    `json:"total_pages"`
	LeaveRequests []LeaveRequestResponse `json:"leave_requests"`
}

type LeaveBalanceResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	LeaveTypeID    string  `json:"leave_type_id"`
	Year           int     `json:"year"`
	Quota          float64 `json:"quota"`
	CarriedForward float64 `json:"carried_forward"`
	Used           float64 `json:"used"`
	Pending        float64 `json:"pending"`
	Available      float64 `json:"available"`
	UnpaidPending  float64 `json:"unpaid_pending"`
	UnpaidUsed     float64 `json:"unpaid_used"`
}

func (r LeaveRequest) ToResponse() LeaveRequestResponse {
	var decidedAt *string
	if r.DecidedAt != nil {
		s := r.DecidedAt.Format(time.RFC3339)
		decidedAt = &s
	}

	return LeaveRequestResponse{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		LeaveTypeID:    r.LeaveTypeID,
		StartDate:      r.StartDate.Format(worktime.DateLayout),
		EndDate:        r.EndDate.Format(worktime.DateLayout),
		HalfDay:        r.HalfDay,
		DayCount:       r.DayCount,
		PaidDays:       r.PaidDays,
		UnpaidDays:     r.UnpaidDays,
		Reason:         r.Reason,
		Status:         string(r.Status),
		ApproverID:     r.ApproverID,
		DecidedAt:      decidedAt,
		DecisionReason: r.DecisionReason,
		CancelledBy:    r.CancelledBy,
		SubmittedAt:    r.SubmittedAt.Format(time.RFC3339),
	}
}

func (b LeaveBalance) ToResponse() LeaveBalanceResponse {
	return LeaveBalanceResponse{
		ID:             b.ID,
		EmployeeID:     b.EmployeeID,
		LeaveTypeID:    b.LeaveTypeID,
		Year:           b.Year,
		Quota:          b.Quota,
		CarriedForward: b.CarriedForward,
		Used:           b.Used,
		Pending:        b.Pending,
		Available:      b.Available(),
		UnpaidPending:  b.UnpaidPending,
		UnpaidUsed:     b.UnpaidUsed,
	}
}
