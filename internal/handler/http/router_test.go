package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-workforce-go/internal/repository/memory"
	attendancesvc "github.com/cmlabs-hris/hris-workforce-go/internal/service/attendance"
	leavesvc "github.com/cmlabs-hris/hris-workforce-go/internal/service/leave"
	payrollsvc "github.com/cmlabs-hris/hris-workforce-go/internal/service/payroll"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	router   *chi.Mux
	jwt      jwt.Service
	store    *memory.Store
	employee employee.Employee
	annual   leave.LeaveType
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	directory := memory.NewEmployeeDirectory(store)
	attendanceRepo := memory.NewAttendanceRepository(store)

	attendanceService := attendancesvc.NewAttendanceService(
		txManager,
		attendanceRepo,
		memory.NewAttendanceAuditRepository(store),
		directory,
		attendance.Policy{HalfDayRatio: 0.5},
		time.UTC,
	)

	leaveTypeRepo := memory.NewLeaveTypeRepository(store)
	balanceRepo := memory.NewLeaveBalanceRepository(store)
	calculator := leavesvc.NewQuotaCalculator()
	leaveService := leavesvc.NewLeaveService(
		txManager,
		leaveTypeRepo,
		balanceRepo,
		memory.NewLeaveRequestRepository(store),
		directory,
		leavesvc.NewQuotaService(leaveTypeRepo, balanceRepo, calculator),
		calculator,
		attendanceService,
	)

	payrollService := payrollsvc.NewPayrollService(
		txManager,
		memory.NewPayrollRepository(store),
		attendanceRepo,
		leaveService,
		directory,
		payroll.Policy{},
		2,
	)

	jwtService := jwt.NewJWTService("test-secret", "15m")
	router := NewRouter(
		RouterOptions{AppEnv: "test", LogLevel: slog.LevelError},
		jwtService,
		NewAttendanceHandler(attendanceService),
		NewLeaveHandler(leaveService),
		NewPayrollHandler(payrollService),
	)

	annual := store.PutLeaveType(leave.LeaveType{Code: "ANNUAL", Name: "Annual Leave", AnnualQuota: 12, IsPaid: true})
	emp := store.PutEmployee(employee.Employee{
		EmployeeCode:     "EMP-001",
		FullName:         "Dewi Lestari",
		EmploymentStatus: employee.EmploymentStatusActive,
		Shift:            employee.Shift{StartTime: "09:00", EndTime: "18:00", StandardMinutes: 540},
		Salary:           employee.SalaryStructure{BasicSalary: decimal.NewFromInt(30000)},
	})

	return &testServer{router: router, jwt: jwtService, store: store, employee: emp, annual: annual}
}

func (s *testServer) token(t *testing.T, role auth.Role, employeeID string) string {
	t.Helper()
	var empID *string
	if employeeID != "" {
		empID = &employeeID
	}
	token, _, err := s.jwt.GenerateAccessToken("user-"+string(role), empID, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/attendance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ClockInDuplicate(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, auth.RoleEmployee, s.employee.ID)
	body := map[string]any{"timestamp": "2024-03-04T09:25:00Z"}

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got attendance.AttendanceResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, s.employee.ID, got.EmployeeID)
	assert.Equal(t, 25, got.LateMinutes)

	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
}

func TestRouter_EmployeeCannotActForOthers(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, auth.RoleEmployee, s.employee.ID)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, map[string]any{"employee_id": "someone-else"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/attendance/absent", token, map[string]any{
		"employee_id": s.employee.ID, "date": "2024-03-04",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/payroll", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_LeaveFlow(t *testing.T) {
	s := newTestServer(t)
	employeeToken := s.token(t, auth.RoleEmployee, s.employee.ID)
	managerToken := s.token(t, auth.RoleManager, "")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/leave/accrue", managerToken, map[string]any{
		"employee_id": s.employee.ID, "year": 2024,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := s.do(t, http.MethodPost, "/api/v1/leave/requests", employeeToken, map[string]any{
		"leave_type_id": s.annual.ID,
		"start_date":    "2024-03-04",
		"end_date":      "2024-03-06",
		"reason":        "family visit",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var submitted leave.LeaveRequestResponse
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.Equal(t, 3.0, submitted.DayCount)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/leave/requests/"+submitted.ID+"/approve", employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/leave/requests/"+submitted.ID+"/approve", managerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodPost, "/api/v1/leave/requests/"+submitted.ID+"/approve", managerToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/leave/balances?year=2024", employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balances []leave.LeaveBalanceResponse
	require.NoError(t, json.Unmarshal(env.Data, &balances))
	require.Len(t, balances, 1)
	assert.Equal(t, 3.0, balances[0].Used)
	assert.Equal(t, 9.0, balances[0].Available)
}

func TestRouter_SubmitValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, auth.RoleEmployee, s.employee.ID)

	rec, env := s.do(t, http.MethodPost, "/api/v1/leave/requests", token, map[string]any{
		"leave_type_id": s.annual.ID,
		"start_date":    "2024-03-06",
		"end_date":      "2024-03-04",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "end_date")
}

func TestRouter_PayrollIncompleteAndExport(t *testing.T) {
	s := newTestServer(t)
	managerToken := s.token(t, auth.RoleOwner, "")

	rec, env := s.do(t, http.MethodPost, "/api/v1/payroll/run", managerToken, map[string]any{
		"employee_id":  s.employee.ID,
		"period_start": "2024-06-01",
		"period_end":   "2024-06-02",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INCOMPLETE_PERIOD", env.Error.Details["code"])
	assert.Equal(t, "2024-06-01,2024-06-02", env.Error.Details["missing_dates"])

	attendanceRepo := memory.NewAttendanceRepository(s.store)
	for _, d := range []int{1, 2} {
		_, err := attendanceRepo.Create(context.Background(), attendance.Attendance{
			EmployeeID: s.employee.ID,
			Date:       time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC),
			Status:     attendance.StatusPresent,
		})
		require.NoError(t, err)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/payroll/run", managerToken, map[string]any{
		"employee_id":  s.employee.ID,
		"period_start": "2024-06-01",
		"period_end":   "2024-06-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var record payroll.PayrollRecordResponse
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.True(t, record.NetSalary.Equal(decimal.NewFromInt(30000)))

	rec, _ = s.do(t, http.MethodGet, "/api/v1/payroll/export", managerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payroll-register-")
	assert.NotZero(t, rec.Body.Len())
}

func TestRouter_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, auth.RoleEmployee, s.employee.ID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leave/requests", bytes.NewBufferString("{invalid json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
