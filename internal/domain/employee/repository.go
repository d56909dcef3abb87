package employee

import "context"

// Directory is the source of employee shift, salary and entitlement data.
// The engine never writes to it.
type Directory interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
}
