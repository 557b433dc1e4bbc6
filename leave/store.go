/*
store.go - Persistence interfaces for the leave engine

PURPOSE:
  Defines the boundary between the engine and storage. The engine never
  reaches for a process-wide connection; every store is injected at
  construction (see engine.go). Implementations:

  - leave/store: in-memory, for tests and development
  - store/sqlite: SQLite-backed, for the server

ERROR CONTRACT:
  Lookups return (nil, nil) for "not present" so the engine can decide
  whether absence is an error (employee lookups) or a normal state
  (no ledger entry yet for a month). Storage failures are returned as-is
  and propagate uncaught through the engine.
*/
package leave

import "context"

// EmployeeStore persists employee aggregates. Accrual performs exactly one
// Save per run.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]*Employee, error)
	SaveEmployee(ctx context.Context, e *Employee) error
}

// CompanyStore resolves the policy source.
type CompanyStore interface {
	GetCompany(ctx context.Context, id string) (*Company, error)
	SaveCompany(ctx context.Context, c *Company) error
}

// LeaveStore persists leave requests.
type LeaveStore interface {
	CreateLeave(ctx context.Context, l *Leave) error
	GetLeave(ctx context.Context, id string) (*Leave, error)
	SetLeaveStatus(ctx context.Context, id string, status LeaveStatus) error

	// FindApprovedOverlapping returns APPROVED leaves for the employee whose
	// [Start, End] intersects [from, to].
	FindApprovedOverlapping(ctx context.Context, employeeID, companyID string, from, to Date) ([]Leave, error)
}

// DeductionStore persists unpaid-deduction ledger entries, one per
// employee-month. Entries are upserted on read or admin save; they never
// auto-expire.
type DeductionStore interface {
	GetDeduction(ctx context.Context, employeeID string, month MonthKey) (*DeductionEntry, error)
	UpsertDeduction(ctx context.Context, entry *DeductionEntry) error
	ListDeductions(ctx context.Context, employeeID string) ([]DeductionEntry, error)
}
