package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
)

type employeeDirectory struct {
	store *Store
}

func NewEmployeeDirectory(store *Store) employee.Directory {
	return &employeeDirectory{store: store}
}

// GetEmployee implements employee.Directory.
func (d *employeeDirectory) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()

	emp, ok := d.store.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

// ListActive implements employee.Directory.
func (d *employeeDirectory) ListActive(ctx context.Context) ([]employee.Employee, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()

	var employees []employee.Employee
	for _, emp := range d.store.employees {
		if emp.IsActive() {
			employees = append(employees, emp)
		}
	}
	slices.SortFunc(employees, func(x, y employee.Employee) int {
		return strings.Compare(x.EmployeeCode, y.EmployeeCode)
	})
	return employees, nil
}
