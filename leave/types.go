/*
Package leave implements the leave accrual, proration, and unpaid-deduction
engine.

PURPOSE:
  This package contains the domain types and algorithms for growing an
  employee's leave entitlement month over month under a company policy,
  splitting a leave request's allocations across the calendar months it
  overlaps, and reconciling unpaid-day deductions against a per-month
  carry-forward ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Allocation: Per-type day totals fixed on a leave request at approval
  - Usage: Cumulative days an employee has consumed per type
  - LeavePolicy: Company rules for accrual rate, annual cap, per-type caps
  - Employee: The mutable aggregate that accrual results persist onto
  - DeductionEntry: One unpaid-deduction ledger row per employee-month

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift across
     month apportionment
  2. Degrade to zero: Missing policy or malformed input disables computation
     rather than erroring - balances must never look broken to an employee
  3. Manual values are sacred: ManualAdjustment and Deducted are operator
     edits; automatic recomputation reads them, never rewrites them

SEE ALSO:
  - accrual.go: Monthly accrual of the total entitlement
  - distribute.go: Working-day-weighted month distribution
  - ledger.go: Unpaid deduction ledger with carry-forward
  - balance.go: Per-type balance projection
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

type LeaveType string

const (
	TypePaid   LeaveType = "paid"
	TypeCasual LeaveType = "casual"
	TypeSick   LeaveType = "sick"
	TypeUnpaid LeaveType = "unpaid"
)

// =============================================================================
// ALLOCATION - Per-type day totals for one leave request
// =============================================================================

// Allocation holds the days requested per leave type. The totals are decided
// at approval time; month distribution redistributes them, never changes them.
type Allocation struct {
	Paid   decimal.Decimal
	Casual decimal.Decimal
	Sick   decimal.Decimal
	Unpaid decimal.Decimal
}

// Total returns the sum across all four types.
func (a Allocation) Total() decimal.Decimal {
	return a.Paid.Add(a.Casual).Add(a.Sick).Add(a.Unpaid)
}

func (a Allocation) IsZero() bool { return a.Total().IsZero() }

// Scale multiplies every type by the given ratio.
func (a Allocation) Scale(ratio decimal.Decimal) Allocation {
	return Allocation{
		Paid:   a.Paid.Mul(ratio),
		Casual: a.Casual.Mul(ratio),
		Sick:   a.Sick.Mul(ratio),
		Unpaid: a.Unpaid.Mul(ratio),
	}
}

// =============================================================================
// USAGE - Cumulative days consumed per type
// =============================================================================

// Usage tracks the cumulative days an employee has consumed. It only grows,
// except via explicit correction.
type Usage struct {
	Paid   decimal.Decimal
	Casual decimal.Decimal
	Sick   decimal.Decimal
	Unpaid decimal.Decimal
}

// Counted returns usage that consumes the annual entitlement. Unpaid leave
// is excluded: it does not draw down accrued balance.
func (u Usage) Counted() decimal.Decimal {
	return u.Paid.Add(u.Casual).Add(u.Sick)
}

// Add returns usage grown by an approved allocation.
func (u Usage) Add(a Allocation) Usage {
	return Usage{
		Paid:   u.Paid.Add(a.Paid),
		Casual: u.Casual.Add(a.Casual),
		Sick:   u.Sick.Add(a.Sick),
		Unpaid: u.Unpaid.Add(a.Unpaid),
	}
}

// =============================================================================
// POLICY - Company leave rules
// =============================================================================

// TypeCaps holds the per-type annual caps used for balance projection.
type TypeCaps struct {
	Paid   decimal.Decimal
	Casual decimal.Decimal
	Sick   decimal.Decimal
}

// LeavePolicy is the company's leave configuration.
//
// A policy with RatePerMonth <= 0 or TotalAnnual <= 0 disables automatic
// accrual entirely; the engine treats it as "no policy".
type LeavePolicy struct {
	RatePerMonth   decimal.Decimal
	TotalAnnual    decimal.Decimal
	ApplicableFrom *Date
	TypeCaps       TypeCaps

	// MaxMonthlyDeduction bounds how many unpaid days an admin may deduct
	// in a single payroll month. Zero means unbounded.
	MaxMonthlyDeduction decimal.Decimal
}

// Enabled reports whether the policy drives automatic accrual.
func (p *LeavePolicy) Enabled() bool {
	return p != nil && p.RatePerMonth.IsPositive() && p.TotalAnnual.IsPositive()
}

// Company owns the leave policy. A nil Policy is valid: companies that have
// not configured leave keep functioning with accrual disabled.
type Company struct {
	ID     string
	Name   string
	Policy *LeavePolicy
}

// =============================================================================
// EMPLOYEE - Mutable aggregate the accrual run persists onto
// =============================================================================

// AccrualState carries operator-entered and bookkeeping accrual fields.
// ManualAdjustment is additive and survives every automatic recomputation
// untouched; only an explicit admin edit changes it.
type AccrualState struct {
	ManualAdjustment decimal.Decimal
	LastAccruedMonth MonthKey
}

// Balances is the UI-facing per-type snapshot. Derived, overwritten on read.
type Balances struct {
	Paid   decimal.Decimal
	Casual decimal.Decimal
	Sick   decimal.Decimal
	Unpaid decimal.Decimal
}

type Employee struct {
	ID        string
	CompanyID string
	Name      string

	JoiningDate *Date
	CreatedAt   Date

	Usage   Usage
	Accrual AccrualState

	// Derived fields, overwritten by every accrual run.
	TotalAvailable decimal.Decimal
	Balances       Balances
}

// =============================================================================
// LEAVE - A request over a date range, immutable once approved
// =============================================================================

type LeaveStatus string

const (
	StatusPending  LeaveStatus = "PENDING"
	StatusApproved LeaveStatus = "APPROVED"
	StatusRejected LeaveStatus = "REJECTED"
)

type Leave struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Start      Date
	End        Date
	Status     LeaveStatus
	Allocation Allocation
	Reason     string
}

// =============================================================================
// DEDUCTION ENTRY - One unpaid-deduction ledger row per employee-month
// =============================================================================

// DeductionEntry reconciles the unpaid days attributable to one payroll
// month against what has actually been deducted.
//
// INVARIANTS:
//   - Deducted <= MaxDeductable
//   - CarryAfter = max(0, CarryBefore + Taken - Deducted)
//
// Taken is computed and read-only; Deducted is admin-chosen and editable.
type DeductionEntry struct {
	ID         string
	EmployeeID string
	Month      MonthKey

	Taken         decimal.Decimal
	CarryBefore   decimal.Decimal
	Available     decimal.Decimal
	MaxDeductable decimal.Decimal
	Deducted      decimal.Decimal
	CarryAfter    decimal.Decimal
}
