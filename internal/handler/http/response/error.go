package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/worktime"
)

func coded(code string) map[string]string {
	return map[string]string{"code": code}
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var incomplete *payroll.IncompletePeriodError
	if errors.As(err, &incomplete) {
		dates := make([]string, 0, len(incomplete.MissingDates))
		for _, d := range incomplete.MissingDates {
			dates = append(dates, d.Format(worktime.DateLayout))
		}
		BadRequest(w, "Attendance period is incomplete", map[string]string{
			"code":          "INCOMPLETE_PERIOD",
			"employee_id":   incomplete.EmployeeID,
			"missing_dates": strings.Join(dates, ","),
		})
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, auth.ErrEmployeeMismatch):
		Forbidden(w, "Cannot act on behalf of another employee")
	case errors.Is(err, auth.ErrNoEmployeeLinked):
		BadRequest(w, "employee_id is required", coded("NO_EMPLOYEE"))

	// Employee directory errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		BadRequest(w, "Employee is not active", coded("EMPLOYEE_INACTIVE"))
	case errors.Is(err, employee.ErrNoShift):
		BadRequest(w, "Employee has no shift configured", coded("NO_SHIFT"))
	case errors.Is(err, employee.ErrNoSalary):
		BadRequest(w, "Employee has no salary structure configured", coded("NO_SALARY"))

	// Attendance errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrDuplicateClockIn):
		Conflict(w, "Already clocked in for this date", coded("DUPLICATE_CLOCK_IN"))
	case errors.Is(err, attendance.ErrDuplicateRecord):
		Conflict(w, "Attendance record already exists for this date", coded("DUPLICATE_RECORD"))
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, "Employee clocked in on this date", coded("ALREADY_CLOCKED_IN"))
	case errors.Is(err, attendance.ErrOnLeave):
		Conflict(w, "Employee is on approved leave for this date", coded("ON_LEAVE"))
	case errors.Is(err, attendance.ErrVersionConflict):
		Conflict(w, "Attendance record was modified concurrently", coded("VERSION_CONFLICT"))
	case errors.Is(err, attendance.ErrNoOpenClockIn):
		BadRequest(w, "No open clock-in for this date", coded("NO_OPEN_CLOCK_IN"))
	case errors.Is(err, attendance.ErrInvalidInterval):
		BadRequest(w, "Clock-out must be after clock-in", coded("INVALID_INTERVAL"))
	case errors.Is(err, attendance.ErrInvalidStatus):
		BadRequest(w, "Invalid attendance status", coded("INVALID_STATUS"))

	// Leave errors
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrBalanceNotFound):
		NotFound(w, "Leave balance not found for this year")
	case errors.Is(err, leave.ErrNotPending):
		Conflict(w, "Leave request is no longer pending", coded("NOT_PENDING"))
	case errors.Is(err, leave.ErrOverlappingLeave):
		Conflict(w, "Leave request overlaps an existing request", coded("OVERLAPPING_LEAVE"))
	case errors.Is(err, leave.ErrVersionConflict):
		Conflict(w, "Leave balance was modified concurrently", coded("VERSION_CONFLICT"))
	case errors.Is(err, leave.ErrInsufficientBalance):
		BadRequest(w, "Insufficient leave balance", coded("INSUFFICIENT_BALANCE"))
	case errors.Is(err, leave.ErrBalanceInvariant):
		BadRequest(w, "Leave balance would exceed its quota", coded("BALANCE_INVARIANT"))
	case errors.Is(err, leave.ErrNotRequester):
		Forbidden(w, "Only the requester or a manager can cancel this request")

	// Payroll errors
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrImmutableRecord):
		Conflict(w, "Payroll record is already processed", coded("IMMUTABLE_RECORD"))
	case errors.Is(err, payroll.ErrVersionConflict):
		Conflict(w, "Payroll record was modified concurrently", coded("VERSION_CONFLICT"))
	case errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, "Invalid payroll status transition", coded("INVALID_TRANSITION"))
	case errors.Is(err, payroll.ErrNegativeNetSalary):
		BadRequest(w, "Net salary would be negative", coded("NEGATIVE_NET_SALARY"))
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid payroll period", coded("INVALID_PERIOD"))

	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
