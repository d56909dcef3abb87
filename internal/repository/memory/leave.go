package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
)

type leaveTypeRepository struct {
	store *Store
}

func NewLeaveTypeRepository(store *Store) leave.LeaveTypeRepository {
	return &leaveTypeRepository{store: store}
}

// GetByID implements leave.LeaveTypeRepository.
func (r *leaveTypeRepository) GetByID(ctx context.Context, id string) (leave.LeaveType, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	lt, ok := r.store.leaveTypes[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
	}
	return lt, nil
}

// List implements leave.LeaveTypeRepository.
func (r *leaveTypeRepository) List(ctx context.Context) ([]leave.LeaveType, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	types := make([]leave.LeaveType, 0, len(r.store.leaveTypes))
	for _, lt := range r.store.leaveTypes {
		types = append(types, lt)
	}
	slices.SortFunc(types, func(x, y leave.LeaveType) int {
		return strings.Compare(x.Code, y.Code)
	})
	return types, nil
}

type leaveBalanceRepository struct {
	store *Store
}

func NewLeaveBalanceRepository(store *Store) leave.LeaveBalanceRepository {
	return &leaveBalanceRepository{store: store}
}

func (s *Store) findBalanceLocked(employeeID, leaveTypeID string, year int) (leave.LeaveBalance, bool) {
	for _, b := range s.balances {
		if b.EmployeeID == employeeID && b.LeaveTypeID == leaveTypeID && b.Year == year {
			return b, true
		}
	}
	return leave.LeaveBalance{}, false
}

// Get implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepository) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.findBalanceLocked(employeeID, leaveTypeID, year)
	if !ok {
		return leave.LeaveBalance{}, leave.ErrBalanceNotFound
	}
	return b, nil
}

// ListByEmployeeYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepository) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var balances []leave.LeaveBalance
	for _, b := range r.store.balances {
		if b.EmployeeID == employeeID && b.Year == year {
			balances = append(balances, b)
		}
	}
	slices.SortFunc(balances, func(x, y leave.LeaveBalance) int {
		return strings.Compare(x.LeaveTypeID, y.LeaveTypeID)
	})
	return balances, nil
}

// Create implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepository) Create(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.findBalanceLocked(balance.EmployeeID, balance.LeaveTypeID, balance.Year); ok {
		return existing, false, nil
	}
	if err := balance.Check(); err != nil {
		return leave.LeaveBalance{}, false, err
	}

	now := s.now()
	balance.ID = newID()
	balance.Version = 1
	balance.CreatedAt = now
	balance.UpdatedAt = now
	s.balances[balance.ID] = balance
	return balance, true, nil
}

// Update implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepository) Update(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.balances[balance.ID]
	if !ok || current.Version != balance.Version {
		return leave.LeaveBalance{}, leave.ErrVersionConflict
	}
	// mirrors the table check constraints
	if err := balance.Check(); err != nil {
		return leave.LeaveBalance{}, err
	}

	balance.EmployeeID = current.EmployeeID
	balance.LeaveTypeID = current.LeaveTypeID
	balance.Year = current.Year
	balance.CreatedAt = current.CreatedAt
	balance.Version = current.Version + 1
	balance.UpdatedAt = s.now()
	s.balances[balance.ID] = balance
	return balance, nil
}

type leaveRequestRepository struct {
	store *Store
}

func NewLeaveRequestRepository(store *Store) leave.LeaveRequestRepository {
	return &leaveRequestRepository{store: store}
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	request.ID = newID()
	if request.Status == "" {
		request.Status = leave.LeaveRequestStatusPending
	}
	request.Version = 1
	request.SubmittedAt = now
	request.UpdatedAt = now
	s.requests[request.ID] = request
	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	req, ok := r.store.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

// Decide implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) Decide(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requests[request.ID]
	if !ok || current.Status != leave.LeaveRequestStatusPending || current.Version != request.Version {
		return leave.LeaveRequest{}, leave.ErrNotPending
	}

	current.Status = request.Status
	current.ApproverID = request.ApproverID
	current.DecidedAt = request.DecidedAt
	current.DecisionReason = request.DecisionReason
	current.CancelledBy = request.CancelledBy
	current.Version++
	current.UpdatedAt = s.now()
	s.requests[current.ID] = current
	return current, nil
}

// HasOverlap implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, req := range r.store.requests {
		if req.EmployeeID != employeeID {
			continue
		}
		if req.Status != leave.LeaveRequestStatusPending && req.Status != leave.LeaveRequestStatusApproved {
			continue
		}
		if !req.StartDate.After(end) && !req.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

// ListApprovedInRange implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) ListApprovedInRange(ctx context.Context, employeeID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var requests []leave.LeaveRequest
	for _, req := range r.store.requests {
		if req.EmployeeID != employeeID || req.Status != leave.LeaveRequestStatusApproved {
			continue
		}
		if !req.StartDate.After(to) && !req.EndDate.Before(from) {
			requests = append(requests, req)
		}
	}
	slices.SortFunc(requests, func(x, y leave.LeaveRequest) int {
		return x.StartDate.Compare(y.StartDate)
	})
	return requests, nil
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	from, to, err := dateRange(filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var requests []leave.LeaveRequest
	for _, req := range r.store.requests {
		if filter.EmployeeID != nil && req.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.LeaveTypeID != nil && req.LeaveTypeID != *filter.LeaveTypeID {
			continue
		}
		if filter.Status != nil && string(req.Status) != *filter.Status {
			continue
		}
		if from != nil && req.EndDate.Before(*from) {
			continue
		}
		if to != nil && req.StartDate.After(*to) {
			continue
		}
		requests = append(requests, req)
	}

	slices.SortFunc(requests, func(x, y leave.LeaveRequest) int {
		return cmp.Or(y.SubmittedAt.Compare(x.SubmittedAt), strings.Compare(x.ID, y.ID))
	})
	return paginate(requests, filter.Page, filter.Limit), int64(len(requests)), nil
}
