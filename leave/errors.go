/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place. The engine's error posture:
  - Configuration absence (no policy, degenerate rate) is a silent no-op
  - Malformed input (bad dates, bad month strings) degrades to zero
  - Persistence failures propagate to the caller, unwrapped and unswallowed

  Only genuine business-rule violations (deducting more than the ledger
  allows, deciding an already-decided leave) surface as errors here.

USAGE:
  if errors.Is(err, leave.ErrDeductionExceedsMax) { ... }
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrCompanyNotFound is returned when a referenced company doesn't exist.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrLeaveNotFound is returned when a referenced leave doesn't exist.
	ErrLeaveNotFound = errors.New("leave not found")

	// ErrLeaveAlreadyDecided is returned when approving or rejecting a leave
	// that is no longer pending. Approved leaves are immutable.
	ErrLeaveAlreadyDecided = errors.New("leave already decided")

	// ErrInvalidDateRange is returned on leave submission when the end date
	// precedes the start date.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")

	// ErrDeductionExceedsMax is returned when an admin tries to deduct more
	// unpaid days than the month's ledger entry allows.
	ErrDeductionExceedsMax = errors.New("deduction exceeds maximum deductable")

	// ErrNegativeDeduction is returned when an admin supplies a negative
	// deducted value.
	ErrNegativeDeduction = errors.New("deduction cannot be negative")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DeductionLimitError reports an over-limit deduction save with the bound
// that was violated.
type DeductionLimitError struct {
	EmployeeID    string
	Month         MonthKey
	Requested     decimal.Decimal
	MaxDeductable decimal.Decimal
}

func (e *DeductionLimitError) Error() string {
	return fmt.Sprintf("deduction %s exceeds maximum %s for %s in %s",
		e.Requested, e.MaxDeductable, e.EmployeeID, e.Month)
}

func (e *DeductionLimitError) Unwrap() error { return ErrDeductionExceedsMax }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrLeaveAlreadyDecided) ||
		errors.Is(err, ErrDeductionExceedsMax) ||
		errors.Is(err, ErrNegativeDeduction)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrLeaveNotFound)
}
