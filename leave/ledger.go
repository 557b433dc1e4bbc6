/*
ledger.go - Unpaid deduction ledger with carry-forward

PURPOSE:
  Answers two questions for payroll:
  1. How many unpaid days does this employee's approved leave attribute to
     payroll month M? (UnpaidTakenForMonth)
  2. Given what was already deducted or deferred in earlier months, how much
     should month M deduct, and how much rolls forward? (EntryForMonth,
     SaveDeduction)

CLIPPING:
  Days before the employment start never count. A leave beginning before
  the hire date is clipped forward to it; a leave ending before the hire
  date is skipped entirely. A month wholly before the hire date is 0.

CARRY-FORWARD:
  Each month's entry inherits carryBefore from the previous month's
  carryAfter. Months that were never read are materialized on demand: a read
  of month M walks forward from the last persisted entry (or the employment
  start) so unpaid days in skipped months still flow into M's carry. Saving
  a deduction for month M never rewrites other months' taken figures, but
  the next read of month M+1 sees the updated carry.

  available     = carryBefore + taken        (outstanding unpaid days)
  maxDeductable = min(available, policy cap) (cap only when configured)
  carryAfter    = max(0, carryBefore + taken - deducted)

ROUNDING:
  Month portions from Distribute are summed unrounded and rounded to two
  decimals once, at the end, to keep cumulative drift out of payroll.

ERROR POSTURE:
  A malformed month string degrades to zero, never errors. Store failures
  propagate. Over-limit deduction saves fail with DeductionLimitError.
*/
package leave

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeductionLedger computes and reconciles unpaid deductions per payroll
// month. Stateless apart from its injected stores.
type DeductionLedger struct {
	Leaves     LeaveStore
	Deductions DeductionStore
}

func NewDeductionLedger(leaves LeaveStore, deductions DeductionStore) *DeductionLedger {
	return &DeductionLedger{Leaves: leaves, Deductions: deductions}
}

// =============================================================================
// TAKEN - Unpaid days attributable to one month
// =============================================================================

// UnpaidTakenForMonth sums the unpaid portions of all approved leaves
// overlapping the month, after clipping to the employment start. The result
// is rounded to two decimals. Malformed month strings and months before the
// employment start return zero.
func (dl *DeductionLedger) UnpaidTakenForMonth(ctx context.Context, employeeID, companyID, month string, employmentStart *Date) (decimal.Decimal, error) {
	mk, ok := ParseMonthKey(month)
	if !ok {
		return decimal.Zero, nil
	}

	monthStart, monthEnd := mk.Start(), mk.End()
	if employmentStart != nil && employmentStart.After(monthEnd) {
		return decimal.Zero, nil
	}

	leaves, err := dl.Leaves.FindApprovedOverlapping(ctx, employeeID, companyID, monthStart, monthEnd)
	if err != nil {
		return decimal.Zero, err
	}

	taken := decimal.Zero
	for _, l := range leaves {
		clipped, ok := clipToEmployment(l, employmentStart)
		if !ok {
			continue
		}
		if portion, ok := Distribute(clipped)[mk]; ok {
			taken = taken.Add(portion.Unpaid)
		}
	}
	return taken.Round(2), nil
}

// clipToEmployment moves the leave start forward to the employment start.
// Returns ok=false when the whole leave predates employment.
func clipToEmployment(l Leave, employmentStart *Date) (Leave, bool) {
	if employmentStart == nil {
		return l, true
	}
	if l.End.Before(*employmentStart) {
		return Leave{}, false
	}
	if l.Start.Before(*employmentStart) {
		l.Start = *employmentStart
	}
	return l, true
}

// =============================================================================
// RECONCILIATION - Per-month ledger entries
// =============================================================================

// EntryForMonth materializes the ledger entry for one employee-month:
// recomputes taken, inherits carryBefore from the previous month, preserves
// any admin-saved deducted value, and upserts the result.
//
// maxMonthly is the policy's per-month deduction cap; zero means unbounded.
// A malformed month yields a zero-valued, unpersisted entry.
func (dl *DeductionLedger) EntryForMonth(ctx context.Context, employeeID, companyID, month string, employmentStart *Date, maxMonthly decimal.Decimal) (*DeductionEntry, error) {
	mk, ok := ParseMonthKey(month)
	if !ok {
		return &DeductionEntry{EmployeeID: employeeID, Month: MonthKey(month)}, nil
	}

	taken, err := dl.UnpaidTakenForMonth(ctx, employeeID, companyID, month, employmentStart)
	if err != nil {
		return nil, err
	}

	carryBefore, err := dl.carryInto(ctx, employeeID, companyID, mk, employmentStart, maxMonthly)
	if err != nil {
		return nil, err
	}

	entry := &DeductionEntry{
		EmployeeID: employeeID,
		Month:      mk,
	}
	if existing, err := dl.Deductions.GetDeduction(ctx, employeeID, mk); err != nil {
		return nil, err
	} else if existing != nil {
		entry.ID = existing.ID
		entry.Deducted = existing.Deducted // admin-entered, preserved across reads
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	entry.Taken = taken
	entry.CarryBefore = carryBefore
	entry.Available = carryBefore.Add(taken)
	entry.MaxDeductable = entry.Available
	if maxMonthly.IsPositive() && maxMonthly.LessThan(entry.MaxDeductable) {
		entry.MaxDeductable = maxMonthly
	}
	entry.CarryAfter = carryAfter(entry.CarryBefore, entry.Taken, entry.Deducted)

	if err := dl.Deductions.UpsertDeduction(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// carryInto resolves the carry flowing into month mk. When the preceding
// month has a persisted entry, its carryAfter is the answer. Otherwise the
// gap since the most recent materialized entry (or since the employment
// start, when no history exists) is walked forward month by month so unpaid
// days in never-read months are not silently dropped; months that move
// nothing stay unpersisted to keep the ledger sparse.
func (dl *DeductionLedger) carryInto(ctx context.Context, employeeID, companyID string, mk MonthKey, employmentStart *Date, maxMonthly decimal.Decimal) (decimal.Decimal, error) {
	if prev, err := dl.Deductions.GetDeduction(ctx, employeeID, mk.Prev()); err != nil {
		return decimal.Zero, err
	} else if prev != nil {
		return prev.CarryAfter, nil
	}

	entries, err := dl.Deductions.ListDeductions(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}

	// Latest materialized month before mk; "YYYY-MM" compares correctly as a string.
	var latest MonthKey
	carry := decimal.Zero
	for _, e := range entries {
		if _, ok := ParseMonthKey(string(e.Month)); !ok {
			continue
		}
		if e.Month < mk && e.Month > latest {
			latest = e.Month
			carry = e.CarryAfter
		}
	}

	var start MonthKey
	switch {
	case latest != "":
		start = latest.Next()
	case employmentStart != nil:
		start = MonthKeyOf(employmentStart.FloorToMonth())
	default:
		// No history and no employment start: nothing earlier to attribute.
		return decimal.Zero, nil
	}

	for m := start; m < mk; m = m.Next() {
		taken, err := dl.UnpaidTakenForMonth(ctx, employeeID, companyID, string(m), employmentStart)
		if err != nil {
			return decimal.Zero, err
		}
		if taken.IsZero() && carry.IsZero() {
			continue
		}

		entry := &DeductionEntry{
			ID:          uuid.NewString(),
			EmployeeID:  employeeID,
			Month:       m,
			Taken:       taken,
			CarryBefore: carry,
			Available:   carry.Add(taken),
		}
		entry.MaxDeductable = entry.Available
		if maxMonthly.IsPositive() && maxMonthly.LessThan(entry.MaxDeductable) {
			entry.MaxDeductable = maxMonthly
		}
		entry.CarryAfter = carryAfter(carry, taken, decimal.Zero)

		if err := dl.Deductions.UpsertDeduction(ctx, entry); err != nil {
			return decimal.Zero, err
		}
		carry = entry.CarryAfter
	}
	return carry, nil
}

// SaveDeduction records the admin-chosen deduction for one month and rolls
// the remainder forward. Bounds: 0 <= deducted <= maxDeductable.
func (dl *DeductionLedger) SaveDeduction(ctx context.Context, employeeID, companyID, month string, deducted decimal.Decimal, employmentStart *Date, maxMonthly decimal.Decimal) (*DeductionEntry, error) {
	if deducted.IsNegative() {
		return nil, ErrNegativeDeduction
	}

	entry, err := dl.EntryForMonth(ctx, employeeID, companyID, month, employmentStart, maxMonthly)
	if err != nil {
		return nil, err
	}
	if deducted.GreaterThan(entry.MaxDeductable) {
		return nil, &DeductionLimitError{
			EmployeeID:    employeeID,
			Month:         entry.Month,
			Requested:     deducted,
			MaxDeductable: entry.MaxDeductable,
		}
	}

	entry.Deducted = deducted
	entry.CarryAfter = carryAfter(entry.CarryBefore, entry.Taken, deducted)

	if err := dl.Deductions.UpsertDeduction(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func carryAfter(carryBefore, taken, deducted decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, carryBefore.Add(taken).Sub(deducted))
}
