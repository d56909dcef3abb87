package fixtures

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-workforce-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	store := memory.NewStore()
	ids := Seed(store)

	assert.Len(t, ids.LeaveTypeIDs, len(GetDefaultLeaveTypes()))
	assert.Len(t, ids.EmployeeIDs, len(GetDemoEmployees()))

	types, err := memory.NewLeaveTypeRepository(store).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, types, len(GetDefaultLeaveTypes()))

	active, err := memory.NewEmployeeDirectory(store).ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, emp := range active {
		assert.False(t, emp.Salary.BasicSalary.IsZero(), emp.EmployeeCode)
		assert.NotNil(t, emp.Shift.Site, emp.EmployeeCode)
	}
}

func TestGetDefaultLeaveTypes_UniqueCodes(t *testing.T) {
	seen := make(map[string]bool)
	for _, lt := range GetDefaultLeaveTypes() {
		assert.False(t, seen[lt.Code], "duplicate code %s", lt.Code)
		seen[lt.Code] = true
		assert.GreaterOrEqual(t, lt.AnnualQuota, lt.CarryForwardCap)
	}
}
