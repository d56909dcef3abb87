package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
)

type payrollRepository struct {
	store *Store
}

func NewPayrollRepository(store *Store) payroll.PayrollRepository {
	return &payrollRepository{store: store}
}

func (s *Store) findPayrollLocked(employeeID string, start, end time.Time) (payroll.PayrollRecord, bool) {
	for _, rec := range s.payrolls {
		if rec.EmployeeID == employeeID && rec.PeriodStart.Equal(start) && rec.PeriodEnd.Equal(end) {
			return rec, true
		}
	}
	return payroll.PayrollRecord{}, false
}

// Create implements payroll.PayrollRepository.
func (r *payrollRepository) Create(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findPayrollLocked(record.EmployeeID, record.PeriodStart, record.PeriodEnd); ok {
		return payroll.PayrollRecord{}, payroll.ErrVersionConflict
	}
	if record.NetSalary.IsNegative() {
		return payroll.PayrollRecord{}, payroll.ErrNegativeNetSalary
	}

	now := s.now()
	record.ID = newID()
	if record.Status == "" {
		record.Status = payroll.PayrollStatusDraft
	}
	record.Version = 1
	record.CreatedAt = now
	record.UpdatedAt = now
	s.payrolls[record.ID] = record
	return record, nil
}

// GetByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.payrolls[id]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return rec, nil
}

// GetByEmployeePeriod implements payroll.PayrollRepository.
func (r *payrollRepository) GetByEmployeePeriod(ctx context.Context, employeeID string, start, end time.Time) (payroll.PayrollRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.findPayrollLocked(employeeID, start, end)
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return rec, nil
}

// Update implements payroll.PayrollRepository.
func (r *payrollRepository) Update(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.payrolls[record.ID]
	if !ok || current.Version != record.Version {
		return payroll.PayrollRecord{}, payroll.ErrVersionConflict
	}
	if record.NetSalary.IsNegative() {
		return payroll.PayrollRecord{}, payroll.ErrNegativeNetSalary
	}

	record.EmployeeID = current.EmployeeID
	record.PeriodStart = current.PeriodStart
	record.PeriodEnd = current.PeriodEnd
	record.CreatedAt = current.CreatedAt
	record.Version = current.Version + 1
	record.UpdatedAt = s.now()
	s.payrolls[record.ID] = record
	return record, nil
}

// List implements payroll.PayrollRepository.
func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	from, to, err := dateRange(filter.PeriodStart, filter.PeriodEnd)
	if err != nil {
		return nil, 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var records []payroll.PayrollRecord
	for _, rec := range r.store.payrolls {
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(rec.Status) != *filter.Status {
			continue
		}
		if from != nil && rec.PeriodStart.Before(*from) {
			continue
		}
		if to != nil && rec.PeriodEnd.After(*to) {
			continue
		}
		records = append(records, rec)
	}

	slices.SortFunc(records, func(x, y payroll.PayrollRecord) int {
		return cmp.Or(y.PeriodStart.Compare(x.PeriodStart), strings.Compare(x.EmployeeID, y.EmployeeID))
	})
	return paginate(records, filter.Page, filter.Limit), int64(len(records)), nil
}
