package auth

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrManagerAccessRequired = errors.New("manager access required")
	ErrNoEmployeeLinked      = errors.New("token is not linked to an employee")
	ErrEmployeeMismatch      = errors.New("cannot act on behalf of another employee")
)
