// Package store provides in-memory implementations of the leave engine's
// persistence interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - Implements all engine store interfaces
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	employees  map[string]leave.Employee
	companies  map[string]leave.Company
	leaves     map[string]leave.Leave
	deductions map[deductionKey]leave.DeductionEntry
}

type deductionKey struct {
	EmployeeID string
	Month      leave.MonthKey
}

func NewMemory() *Memory {
	return &Memory{
		employees:  make(map[string]leave.Employee),
		companies:  make(map[string]leave.Company),
		leaves:     make(map[string]leave.Leave),
		deductions: make(map[deductionKey]leave.DeductionEntry),
	}
}

// Compile-time interface checks
var (
	_ leave.EmployeeStore  = (*Memory)(nil)
	_ leave.CompanyStore   = (*Memory)(nil)
	_ leave.LeaveStore     = (*Memory)(nil)
	_ leave.DeductionStore = (*Memory)(nil)
)

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*leave.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveEmployee(_ context.Context, e *leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = *e
	return nil
}

// =============================================================================
// COMPANIES
// =============================================================================

func (m *Memory) GetCompany(_ context.Context, id string) (*leave.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) SaveCompany(_ context.Context, c *leave.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[c.ID] = *c
	return nil
}

// =============================================================================
// LEAVES
// =============================================================================

func (m *Memory) CreateLeave(_ context.Context, l *leave.Leave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves[l.ID] = *l
	return nil
}

func (m *Memory) GetLeave(_ context.Context, id string) (*leave.Leave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.leaves[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *Memory) SetLeaveStatus(_ context.Context, id string, status leave.LeaveStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leaves[id]
	if !ok {
		return leave.ErrLeaveNotFound
	}
	l.Status = status
	m.leaves[id] = l
	return nil
}

func (m *Memory) FindApprovedOverlapping(_ context.Context, employeeID, companyID string, from, to leave.Date) ([]leave.Leave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Leave
	for _, l := range m.leaves {
		if l.EmployeeID != employeeID || l.CompanyID != companyID {
			continue
		}
		if l.Status != leave.StatusApproved {
			continue
		}
		// Overlap: leave starts on or before range end, ends on or after range start.
		if l.Start.BeforeOrEqual(to) && l.End.AfterOrEqual(from) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// =============================================================================
// DEDUCTIONS
// =============================================================================

func (m *Memory) GetDeduction(_ context.Context, employeeID string, month leave.MonthKey) (*leave.DeductionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.deductions[deductionKey{EmployeeID: employeeID, Month: month}]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *Memory) UpsertDeduction(_ context.Context, entry *leave.DeductionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deductions[deductionKey{EmployeeID: entry.EmployeeID, Month: entry.Month}] = *entry
	return nil
}

func (m *Memory) ListDeductions(_ context.Context, employeeID string) ([]leave.DeductionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.DeductionEntry
	for k, v := range m.deductions {
		if k.EmployeeID == employeeID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}
