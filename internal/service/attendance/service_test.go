package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-workforce-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var office = geo.Point{Latitude: -6.200000, Longitude: 106.816666}

type fixture struct {
	svc   *AttendanceServiceImpl
	store *memory.Store
	emp   employee.Employee
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := memory.NewStore()
	grace := 10
	emp := store.PutEmployee(employee.Employee{
		EmployeeCode:     "EMP-001",
		FullName:         "Dewi Lestari",
		EmploymentStatus: employee.EmploymentStatusActive,
		Timezone:         "UTC",
		Shift: employee.Shift{
			Name:            "Office",
			StartTime:       "09:00",
			EndTime:         "18:00",
			StandardMinutes: 540,
			GraceMinutes:    &grace,
			Site:            &geo.Site{Center: office, RadiusMeters: 100},
		},
	})

	svc := NewAttendanceService(
		memory.NewTxManager(store),
		memory.NewAttendanceRepository(store),
		memory.NewAttendanceAuditRepository(store),
		memory.NewEmployeeDirectory(store),
		attendance.Policy{GraceMinutes: 5, HalfDayRatio: 0.5},
		time.UTC,
	).(*AttendanceServiceImpl)

	return fixture{svc: svc, store: store, emp: emp}
}

func at(hour, minute int) *time.Time {
	t := time.Date(2024, 3, 1, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestClockInClockOut_LateScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 25), Location: &office})
	require.NoError(t, err)
	assert.Equal(t, "pending", in.Status)
	assert.Equal(t, "2024-03-01", in.Date)
	assert.Equal(t, 25, in.LateMinutes)
	assert.False(t, in.GeofenceFlagged)

	out, err := f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: at(18, 40), Location: &office})
	require.NoError(t, err)
	assert.Equal(t, "late", out.Status)
	assert.Equal(t, 25, out.LateMinutes)
	assert.Equal(t, 555, out.WorkedMinutes)
	assert.Equal(t, 15, out.OvertimeMinutes)
	assert.Equal(t, 0, out.EarlyDepartureMinutes)
}

func TestClockOut_StatusGrading(t *testing.T) {
	tests := []struct {
		name     string
		in, out  *time.Time
		expected string
	}{
		{"within grace", at(9, 10), at(18, 0), "present"},
		{"short day", at(9, 0), at(12, 0), "half_day"},
		{"exactly half", at(9, 0), at(13, 30), "present"},
		{"late wins over short", at(9, 30), at(11, 0), "late"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			_, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: tt.in})
			require.NoError(t, err)
			out, err := f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: tt.out})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.Status)
		})
	}
}

func TestClockIn_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 0)})
	require.NoError(t, err)

	_, err = f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 5)})
	assert.ErrorIs(t, err, attendance.ErrDuplicateClockIn)
}

func TestClockIn_ConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, i)})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, attendance.ErrDuplicateClockIn)
	}
	assert.Equal(t, 1, succeeded)
}

func TestClockIn_OutsideGeofenceIsFlaggedNotRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	far := geo.Point{Latitude: -6.300000, Longitude: 106.900000}

	resp, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 0), Location: &far})
	require.NoError(t, err)
	assert.Equal(t, "outside", resp.ClockInGeofence)
	assert.True(t, resp.GeofenceFlagged)
}

func TestClockIn_MissingLocationIsUnknown(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.ClockIn(context.Background(), attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 0)})
	require.NoError(t, err)
	assert.Equal(t, "unknown", resp.ClockInGeofence)
	assert.True(t, resp.GeofenceFlagged)
}

func TestClockOut_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: at(18, 0)})
	assert.ErrorIs(t, err, attendance.ErrNoOpenClockIn)

	_, err = f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 0)})
	require.NoError(t, err)

	_, err = f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Date: "2024-03-01", Timestamp: at(9, 0)})
	assert.ErrorIs(t, err, attendance.ErrInvalidInterval)

	_, err = f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: at(18, 0)})
	require.NoError(t, err)

	_, err = f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: at(18, 5)})
	assert.ErrorIs(t, err, attendance.ErrNoOpenClockIn)
}

func TestClockOut_NightShiftClosesPreviousDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.emp.Shift.StartTime = "22:00"
	f.emp.Shift.EndTime = "06:00"
	f.emp.Shift.StandardMinutes = 480
	f.store.PutEmployee(f.emp)

	_, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(22, 0)})
	require.NoError(t, err)

	morning := time.Date(2024, 3, 2, 6, 30, 0, 0, time.UTC)
	out, err := f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: &morning})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", out.Date)
	assert.Equal(t, 510, out.WorkedMinutes)
	assert.Equal(t, 30, out.OvertimeMinutes)
	assert.Equal(t, "present", out.Status)
}

func TestClockOut_DayShiftNeverClosesPreviousDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := func(d, hour, minute int) *time.Time {
		t := time.Date(2024, 3, d, hour, minute, 0, 0, time.UTC)
		return &t
	}

	// 03-01 is left open
	_, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: day(1, 9, 0)})
	require.NoError(t, err)

	t.Run("no record today", func(t *testing.T) {
		_, err := f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: day(2, 18, 0)})
		assert.ErrorIs(t, err, attendance.ErrNoOpenClockIn)
	})

	t.Run("today already closed", func(t *testing.T) {
		_, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: day(2, 9, 0)})
		require.NoError(t, err)
		_, err = f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: day(2, 18, 0)})
		require.NoError(t, err)

		_, err = f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: day(2, 18, 1)})
		assert.ErrorIs(t, err, attendance.ErrNoOpenClockIn)
	})

	previous, err := f.svc.GetAttendance(ctx, f.emp.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, previous.ClockOutTime)
	assert.Equal(t, 0, previous.OvertimeMinutes)
	assert.Equal(t, "pending", previous.Status)
}

func TestClockOut_NightShiftStopsAtTodaysRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.emp.Shift.StartTime = "22:00"
	f.emp.Shift.EndTime = "06:00"
	f.emp.Shift.StandardMinutes = 480
	f.store.PutEmployee(f.emp)

	_, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(22, 0)})
	require.NoError(t, err)
	_, err = f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{EmployeeID: f.emp.ID, Date: "2024-03-02"})
	require.NoError(t, err)

	morning := time.Date(2024, 3, 2, 6, 30, 0, 0, time.UTC)
	_, err = f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Timestamp: &morning})
	assert.ErrorIs(t, err, attendance.ErrNoOpenClockIn)

	out, err := f.svc.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: f.emp.ID, Date: "2024-03-01", Timestamp: &morning})
	require.NoError(t, err)
	assert.Equal(t, 510, out.WorkedMinutes)
}

func TestApplyApprovedLeave_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.svc.ApplyApprovedLeave(ctx, f.emp.ID, date, "leave-1"))
	first, err := f.svc.GetAttendance(ctx, f.emp.ID, date)
	require.NoError(t, err)

	require.NoError(t, f.svc.ApplyApprovedLeave(ctx, f.emp.ID, date, "leave-1"))
	second, err := f.svc.GetAttendance(ctx, f.emp.ID, date)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "on_leave", second.Status)
	require.NotNil(t, second.LeaveRequestID)
	assert.Equal(t, "leave-1", *second.LeaveRequestID)

	audit, err := f.svc.ListAudit(ctx, f.emp.ID, &date)
	require.NoError(t, err)
	assert.Len(t, audit, 1)
}

func TestClockIn_RejectedOnApprovedLeaveDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.ApplyApprovedLeave(ctx, f.emp.ID, date, "leave-1"))

	_, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 0)})
	assert.ErrorIs(t, err, attendance.ErrOnLeave)

	rec, err := f.svc.GetAttendance(ctx, f.emp.ID, date)
	require.NoError(t, err)
	assert.Equal(t, "on_leave", rec.Status)
	assert.Nil(t, rec.ClockInTime)
	require.NotNil(t, rec.LeaveRequestID)

	// the repository refuses as well
	_, err = memory.NewAttendanceRepository(f.store).UpsertClockIn(ctx, attendance.Attendance{
		EmployeeID: f.emp.ID,
		Date:       date,
		ClockIn:    at(9, 0),
		Status:     attendance.StatusPending,
	})
	assert.ErrorIs(t, err, attendance.ErrOnLeave)
}

func TestMarkAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{EmployeeID: f.emp.ID, Date: "2024-03-05", ActorID: "mgr-1"})
	require.NoError(t, err)
	assert.Equal(t, "absent", resp.Status)

	// on-leave days are left alone
	onLeave := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.ApplyApprovedLeave(ctx, f.emp.ID, onLeave, "leave-2"))
	resp, err = f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{EmployeeID: f.emp.ID, Date: "2024-03-06"})
	require.NoError(t, err)
	assert.Equal(t, "on_leave", resp.Status)

	_, err = f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 0)})
	require.NoError(t, err)
	_, err = f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{EmployeeID: f.emp.ID, Date: "2024-03-01"})
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)
}

func TestCorrect_RecordsManagerAndKeepsGeofence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	far := geo.Point{Latitude: -6.300000, Longitude: 106.900000}

	_, err := f.svc.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 40), Location: &far})
	require.NoError(t, err)

	corrected, err := f.svc.Correct(ctx, attendance.CorrectionRequest{
		EmployeeID: f.emp.ID,
		Date:       "2024-03-01",
		ManagerID:  "mgr-7",
		ClockIn:    at(9, 0),
		ClockOut:   at(18, 0),
		Reason:     "badge reader offline",
	})
	require.NoError(t, err)
	assert.Equal(t, "present", corrected.Status)
	assert.Equal(t, 540, corrected.WorkedMinutes)
	assert.Equal(t, 0, corrected.LateMinutes)
	assert.Equal(t, "outside", corrected.ClockInGeofence)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	audit, err := f.svc.ListAudit(ctx, f.emp.ID, &date)
	require.NoError(t, err)
	require.Len(t, audit, 2)
	assert.Equal(t, "correction", audit[1].Transition)
	assert.Equal(t, "mgr-7", audit[1].ActorID)
	require.NotNil(t, audit[1].Reason)
	assert.Equal(t, "badge reader offline", *audit[1].Reason)
	require.NotNil(t, audit[1].FromStatus)
	assert.Equal(t, "pending", *audit[1].FromStatus)
}

func TestCorrect_BackfillsMissingDay(t *testing.T) {
	f := newFixture(t)
	status := "absent"

	resp, err := f.svc.Correct(context.Background(), attendance.CorrectionRequest{
		EmployeeID: f.emp.ID,
		Date:       "2024-03-08",
		ManagerID:  "mgr-7",
		Status:     &status,
		Reason:     "no-show confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, "absent", resp.Status)
	assert.Equal(t, "2024-03-08", resp.Date)
}

func TestCorrect_RejectsInvertedInterval(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Correct(context.Background(), attendance.CorrectionRequest{
		EmployeeID: f.emp.ID,
		Date:       "2024-03-01",
		ManagerID:  "mgr-7",
		ClockIn:    at(18, 0),
		ClockOut:   at(9, 0),
		Reason:     "typo",
	})
	assert.ErrorIs(t, err, attendance.ErrInvalidInterval)
}

func TestListAttendance_Paginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		_, err := f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{EmployeeID: f.emp.ID, Date: d})
		require.NoError(t, err)
	}

	list, err := f.svc.ListAttendance(ctx, attendance.AttendanceFilter{EmployeeID: &f.emp.ID, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.TotalCount)
	assert.Equal(t, 2, list.TotalPages)
	require.Len(t, list.Attendances, 2)
	assert.Equal(t, "2024-03-06", list.Attendances[0].Date)
}

func TestClockIn_InactiveEmployee(t *testing.T) {
	f := newFixture(t)
	f.emp.EmploymentStatus = employee.EmploymentStatusResigned
	f.store.PutEmployee(f.emp)

	_, err := f.svc.ClockIn(context.Background(), attendance.ClockInRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 0)})
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)
}
