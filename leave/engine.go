/*
engine.go - Engine service: dependency wiring and the write path

PURPOSE:
  Composes the pure calculations (accrual, projection, distribution,
  ledger) with the injected stores and owns every read-modify-write on a
  shared record. All dependencies are explicit constructor arguments; there
  are no package-level singletons.

CONCURRENCY:
  The computed values are deterministic functions of stable inputs, so two
  racing accrual runs would write the same totals. The fields actually at
  risk are the operator-edited ones (ManualAdjustment, Deducted). The
  engine therefore serializes all writes per employee with a keyed mutex,
  closing the lost-update window without any global lock. Computations are
  short and bounded (a few hundred day iterations at most), so holding the
  per-employee lock across the store round-trip is fine.

LAZY ACCRUAL:
  Balances() re-runs accrual before projecting, so every balance read sees
  a current total. Accrual is idempotent; repeating it is harmless.
*/
package leave

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine is the façade consumers use. Construct with NewEngine; the zero
// value is not usable.
type Engine struct {
	employees  EmployeeStore
	companies  CompanyStore
	leaves     LeaveStore
	deductions DeductionStore
	ledger     *DeductionLedger

	locks sync.Map // employee ID -> *sync.Mutex
}

func NewEngine(employees EmployeeStore, companies CompanyStore, leaves LeaveStore, deductions DeductionStore) *Engine {
	return &Engine{
		employees:  employees,
		companies:  companies,
		leaves:     leaves,
		deductions: deductions,
		ledger:     NewDeductionLedger(leaves, deductions),
	}
}

// lockEmployee acquires the per-employee critical section.
func (e *Engine) lockEmployee(id string) func() {
	mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// =============================================================================
// ACCRUAL + BALANCES
// =============================================================================

// Accrue recomputes the employee's accrued total and balance snapshot as of
// the given date and persists them with a single save. Silently no-ops when
// the company has no usable policy.
func (e *Engine) Accrue(ctx context.Context, employeeID string, asOf Date) error {
	unlock := e.lockEmployee(employeeID)
	defer unlock()

	_, err := e.accrueLocked(ctx, employeeID, asOf)
	return err
}

// Balances runs lazy accrual and returns the refreshed employee, whose
// TotalAvailable and Balances fields are current as of asOf.
func (e *Engine) Balances(ctx context.Context, employeeID string, asOf Date) (*Employee, error) {
	unlock := e.lockEmployee(employeeID)
	defer unlock()

	return e.accrueLocked(ctx, employeeID, asOf)
}

// accrueLocked does the actual read-compute-write. Caller holds the
// employee lock.
func (e *Engine) accrueLocked(ctx context.Context, employeeID string, asOf Date) (*Employee, error) {
	emp, err := e.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}

	policy, err := e.policyFor(ctx, emp.CompanyID)
	if err != nil {
		return nil, err
	}

	res, ok := ComputeAccrual(emp, policy, asOf)
	if !ok {
		// No policy or degenerate policy: keep functioning, change nothing.
		return emp, nil
	}

	emp.TotalAvailable = res.Total
	emp.Accrual.LastAccruedMonth = res.AsOfMonth
	emp.Balances = ProjectBalances(policy.TypeCaps, emp.Usage)

	if err := e.employees.SaveEmployee(ctx, emp); err != nil {
		return nil, err
	}
	return emp, nil
}

func (e *Engine) policyFor(ctx context.Context, companyID string) (*LeavePolicy, error) {
	company, err := e.companies.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, nil
	}
	return company.Policy, nil
}

// =============================================================================
// LEAVE LIFECYCLE
// =============================================================================

// SubmitLeave validates and stores a pending leave request.
func (e *Engine) SubmitLeave(ctx context.Context, l *Leave) error {
	if l.Start.IsZero() || l.End.IsZero() || l.Start.After(l.End) {
		return ErrInvalidDateRange
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.Status = StatusPending
	return e.leaves.CreateLeave(ctx, l)
}

// ApproveLeave marks the leave approved, grows the employee's cumulative
// usage by its allocation, and re-runs accrual so the stored totals reflect
// the new usage. The allocation is fixed from this point on.
//
// The first read only resolves the employee to lock; the PENDING check runs
// on a re-read under the lock. Checking before locking would let two
// concurrent approvals both observe PENDING and double-count usage.
func (e *Engine) ApproveLeave(ctx context.Context, leaveID string, asOf Date) error {
	l, err := e.leaves.GetLeave(ctx, leaveID)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrLeaveNotFound
	}

	unlock := e.lockEmployee(l.EmployeeID)
	defer unlock()

	l, err = e.leaves.GetLeave(ctx, leaveID)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrLeaveNotFound
	}
	if l.Status != StatusPending {
		return ErrLeaveAlreadyDecided
	}

	if err := e.leaves.SetLeaveStatus(ctx, leaveID, StatusApproved); err != nil {
		return err
	}

	emp, err := e.employees.GetEmployee(ctx, l.EmployeeID)
	if err != nil {
		return err
	}
	if emp == nil {
		return ErrEmployeeNotFound
	}
	emp.Usage = emp.Usage.Add(l.Allocation)
	if err := e.employees.SaveEmployee(ctx, emp); err != nil {
		return err
	}

	_, err = e.accrueLocked(ctx, l.EmployeeID, asOf)
	return err
}

// RejectLeave marks a pending leave rejected. Usage is untouched. Same
// lock-then-recheck discipline as ApproveLeave, so a reject racing an
// approve cannot flip an already-approved leave.
func (e *Engine) RejectLeave(ctx context.Context, leaveID string) error {
	l, err := e.leaves.GetLeave(ctx, leaveID)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrLeaveNotFound
	}

	unlock := e.lockEmployee(l.EmployeeID)
	defer unlock()

	l, err = e.leaves.GetLeave(ctx, leaveID)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrLeaveNotFound
	}
	if l.Status != StatusPending {
		return ErrLeaveAlreadyDecided
	}
	return e.leaves.SetLeaveStatus(ctx, leaveID, StatusRejected)
}

// SetManualAdjustment records an explicit admin edit of the additive
// adjustment and re-runs accrual under the same lock.
func (e *Engine) SetManualAdjustment(ctx context.Context, employeeID string, adjustment decimal.Decimal, asOf Date) error {
	unlock := e.lockEmployee(employeeID)
	defer unlock()

	emp, err := e.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if emp == nil {
		return ErrEmployeeNotFound
	}
	emp.Accrual.ManualAdjustment = adjustment
	if err := e.employees.SaveEmployee(ctx, emp); err != nil {
		return err
	}
	_, err = e.accrueLocked(ctx, employeeID, asOf)
	return err
}

// =============================================================================
// UNPAID DEDUCTION LEDGER
// =============================================================================

// UnpaidTakenForMonth exposes the ledger's per-month unpaid figure using
// the employee's stored joining date as the employment start.
func (e *Engine) UnpaidTakenForMonth(ctx context.Context, employeeID, month string) (decimal.Decimal, error) {
	emp, err := e.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	if emp == nil {
		return decimal.Zero, ErrEmployeeNotFound
	}
	return e.ledger.UnpaidTakenForMonth(ctx, emp.ID, emp.CompanyID, month, emp.JoiningDate)
}

// DeductionEntry materializes the reconciliation entry for one month.
func (e *Engine) DeductionEntry(ctx context.Context, employeeID, month string) (*DeductionEntry, error) {
	unlock := e.lockEmployee(employeeID)
	defer unlock()

	emp, maxMonthly, err := e.deductionContext(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return e.ledger.EntryForMonth(ctx, emp.ID, emp.CompanyID, month, emp.JoiningDate, maxMonthly)
}

// SaveDeduction records an admin-chosen deducted value for one month.
func (e *Engine) SaveDeduction(ctx context.Context, employeeID, month string, deducted decimal.Decimal) (*DeductionEntry, error) {
	unlock := e.lockEmployee(employeeID)
	defer unlock()

	emp, maxMonthly, err := e.deductionContext(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return e.ledger.SaveDeduction(ctx, emp.ID, emp.CompanyID, month, deducted, emp.JoiningDate, maxMonthly)
}

// ListDeductions returns all persisted ledger entries for an employee.
func (e *Engine) ListDeductions(ctx context.Context, employeeID string) ([]DeductionEntry, error) {
	return e.deductions.ListDeductions(ctx, employeeID)
}

func (e *Engine) deductionContext(ctx context.Context, employeeID string) (*Employee, decimal.Decimal, error) {
	emp, err := e.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if emp == nil {
		return nil, decimal.Zero, ErrEmployeeNotFound
	}
	policy, err := e.policyFor(ctx, emp.CompanyID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	maxMonthly := decimal.Zero
	if policy != nil {
		maxMonthly = policy.MaxMonthlyDeduction
	}
	return emp, maxMonthly, nil
}
