package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEmployeeInactive = errors.New("employee is not active")
	ErrNoShift          = errors.New("employee has no shift configured")
	ErrNoSalary         = errors.New("employee has no salary structure configured")
)
