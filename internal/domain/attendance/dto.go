package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
)

// ========================================
// COMMAND DTOs
// ========================================

type ClockInRequest struct {
	EmployeeID string `json:"employee_id"`
	// Date is the civil working date; derived from Timestamp when empty.
	Date string `json:"date,omitempty"`
	// Timestamp defaults to the current time.
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Location  *geo.Point `json:"location,omitempty"`
}

func (r *ClockInRequest) Validate() error {
	return validateClockEvent(r.EmployeeID, r.Date, r.Location)
}

type ClockOutRequest struct {
	EmployeeID string     `json:"employee_id"`
	Date       string     `json:"date,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Location   *geo.Point `json:"location,omitempty"`
}

func (r *ClockOutRequest) Validate() error {
	return validateClockEvent(r.EmployeeID, r.Date, r.Location)
}

func validateClockEvent(employeeID, date string, location *geo.Point) error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(employeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if date != "" {
		if _, valid := validator.IsValidDate(date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if location != nil && !location.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "latitude must be between -90 and 90 and longitude between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MarkAbsentRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	ActorID    string `json:"-"`
}

func (r *MarkAbsentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CorrectionRequest struct {
	EmployeeID string     `json:"employee_id"`
	Date       string     `json:"date"`
	ManagerID  string     `json:"-"`
	ClockIn    *time.Time `json:"clock_in,omitempty"`
	ClockOut   *time.Time `json:"clock_out,omitempty"`
	Status     *string    `json:"status,omitempty"`
	Reason     string     `json:"reason"`
}

func (r *CorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if validator.IsEmpty(r.ManagerID) {
		errs = append(errs, validator.ValidationError{Field: "manager_id", Message: "manager_id is required"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	} else if len(r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason must not exceed 500 characters"})
	}
	if r.Status != nil && !Status(*r.Status).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: pending, present, late, half_day, absent, on_leave",
		})
	}
	if r.ClockIn == nil && r.ClockOut == nil && r.Status == nil {
		errs = append(errs, validator.ValidationError{Field: "clock_in", Message: "nothing to correct"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// QUERY DTOs
// ========================================

type AttendanceFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
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

	if f.Status != nil && !Status(*f.Status).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: pending, present, late, half_day, absent, on_leave",
		})
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
		}
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{Field: "sort_order", Message: "sort_order must be one of: asc, desc"})
		}
		f.SortOrder = strings.ToLower(f.SortOrder)
	} else {
		f.SortOrder = "desc"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AttendanceResponse struct {
	ID                    string     `json:"id"`
	EmployeeID            string     `json:"employee_id"`
	Date                  string     `json:"date"`
	ClockInTime           *string    `json:"clock_in_time,omitempty"`
	ClockOutTime          *string    `json:"clock_out_time,omitempty"`
	ClockInLocation       *geo.Point `json:"clock_in_location,omitempty"`
	ClockOutLocation      *geo.Point `json:"clock_out_location,omitempty"`
	ClockInGeofence       string     `json:"clock_in_geofence"`
	ClockOutGeofence      string     `json:"clock_out_geofence"`
	GeofenceFlagged       bool       `json:"geofence_flagged"`
	WorkedMinutes         int        `json:"worked_minutes"`
	LateMinutes           int        `json:"late_minutes"`
	EarlyDepartureMinutes int        `json:"early_departure_minutes"`
	OvertimeMinutes       int        `json:"overtime_minutes"`
	Status                string     `json:"status"`
	LeaveRequestID        *string    `json:"leave_request_id,omitempty"`
	Version               int        `json:"version"`
	CreatedAt             string     `json:"created_at"`
	UpdatedAt             string     `json:"updated_at"`
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}

type AuditEntryResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	Transition string  `json:"transition"`
	ActorID    string  `json:"actor_id"`
	FromStatus *string `json:"from_status,omitempty"`
	ToStatus   string  `json:"to_status"`
	Reason     *string `json:"reason,omitempty"`
	Payload    any     `json:"payload,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// ToResponse maps a record to its API shape.
func (a Attendance) ToResponse() AttendanceResponse {
	flagged := a.ClockIn != nil && a.ClockInGeofence.Flagged() ||
		a.ClockOut != nil && a.ClockOutGeofence.Flagged()

	return AttendanceResponse{
		ID:                    a.ID,
		EmployeeID:            a.EmployeeID,
		Date:                  a.Date.Format(worktime.DateLayout),
		ClockInTime:           timePtrToString(a.ClockIn),
		ClockOutTime:          timePtrToString(a.ClockOut),
		ClockInLocation:       a.ClockInLocation,
		ClockOutLocation:      a.ClockOutLocation,
		ClockInGeofence:       string(a.ClockInGeofence),
		ClockOutGeofence:      string(a.ClockOutGeofence),
		GeofenceFlagged:       flagged,
		WorkedMinutes:         a.WorkedMinutes,
		LateMinutes:           a.LateMinutes,
		EarlyDepartureMinutes: a.EarlyDepartureMinutes,
		OvertimeMinutes:       a.OvertimeMinutes,
		Status:                string(a.Status),
		LeaveRequestID:        a.LeaveRequestID,
		Version:               a.Version,
		CreatedAt:             a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             a.UpdatedAt.Format(time.RFC3339),
	}
}

func (e AuditEntry) ToResponse() AuditEntryResponse {
	var from *string
	if e.FromStatus != nil {
		s := string(*e.FromStatus)
		from = &s
	}

	var payload any
	if len(e.Payload) > 0 {
		payload = e.Payload
	}

	return AuditEntryResponse{
		ID:         e.ID,
		EmployeeID: e.EmployeeID,
		Date:       e.Date.Format(worktime.DateLayout),
		Transition: string(e.Transition),
		ActorID:    e.ActorID,
		FromStatus: from,
		ToStatus:   string(e.ToStatus),
		Reason:     e.Reason,
		Payload:    payload,
		OccurredAt: e.OccurredAt.Format(time.RFC3339),
	}
}
