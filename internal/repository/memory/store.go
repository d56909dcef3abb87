// Package memory keeps the engine state in process. It enforces the same
// unique keys and version checks as the PostgreSQL schema and is used by the
// "memory" storage driver and by service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/google/uuid"
)

type Store struct {
	// txMu serialises units of work. Reads outside a transaction observe
	// writes of the running one.
	txMu sync.Mutex
	mu   sync.RWMutex

	now func() time.Time

	employees  map[string]employee.Employee
	leaveTypes map[string]leave.LeaveType

	attendances map[string]attendance.Attendance
	audits      []attendance.AuditEntry
	balances    map[string]leave.LeaveBalance
	requests    map[string]leave.LeaveRequest
	payrolls    map[string]payroll.PayrollRecord
}

func NewStore() *Store {
	return &Store{
		now:         time.Now,
		employees:   make(map[string]employee.Employee),
		leaveTypes:  make(map[string]leave.LeaveType),
		attendances: make(map[string]attendance.Attendance),
		balances:    make(map[string]leave.LeaveBalance),
		requests:    make(map[string]leave.LeaveRequest),
		payrolls:    make(map[string]payroll.PayrollRecord),
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// PutEmployee seeds or replaces an employee. An empty ID is generated.
func (s *Store) PutEmployee(emp employee.Employee) employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emp.ID == "" {
		emp.ID = newID()
	}
	s.employees[emp.ID] = emp
	return emp
}

// PutLeaveType seeds or replaces a leave type. An empty ID is generated.
func (s *Store) PutLeaveType(lt leave.LeaveType) leave.LeaveType {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lt.ID == "" {
		lt.ID = newID()
	}
	now := s.now()
	if lt.CreatedAt.IsZero() {
		lt.CreatedAt = now
	}
	lt.UpdatedAt = now
	s.leaveTypes[lt.ID] = lt
	return lt
}

type snapshot struct {
	attendances map[string]attendance.Attendance
	audits      []attendance.AuditEntry
	balances    map[string]leave.LeaveBalance
	requests    map[string]leave.LeaveRequest
	payrolls    map[string]payroll.PayrollRecord
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return snapshot{
		attendances: maps.Clone(s.attendances),
		audits:      slices.Clone(s.audits),
		balances:    maps.Clone(s.balances),
		requests:    maps.Clone(s.requests),
		payrolls:    maps.Clone(s.payrolls),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attendances = snap.attendances
	s.audits = snap.audits
	s.balances = snap.balances
	s.requests = snap.requests
	s.payrolls = snap.payrolls
}

type txKey struct{}

type txManager struct {
	store *Store
}

func NewTxManager(store *Store) database.TxManager {
	return &txManager{store: store}
}

// WithinTx implements database.TxManager.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

// WithinSnapshot implements database.TxManager. Units of work never
// interleave here, so every one of them already reads a stable state.
func (m *txManager) WithinSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *txManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.store.restore(snap)
			panic(p)
		}
		if err != nil {
			m.store.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
