/*
accrual.go - Monthly accrual of the total leave entitlement

PURPOSE:
  Computes how much leave an employee has accrued under the company policy
  as of a given date. The computation is pure: it reads the employee and
  policy and returns an immutable AccrualResult. Persisting the result onto
  the employee record is the engine's job (engine.go), keeping calculation
  and storage separable.

THE CALCULATION:
  1. Resolve the accrual start date (explicit precedence, see
     ResolveAccrualStart), floored to the first of its month
  2. monthsElapsed = whole months from the month BEFORE the start month to
     the as-of month (so the start month itself counts), clamped to >= 0
  3. potential = ratePerMonth * monthsElapsed
  4. base = clamp(potential, 0, totalAnnual - paid/casual/sick used)
  5. total = base + manual adjustment (read, never altered)

EXAMPLE:
  Policy 1.5 days/month, 18/year. Joined 2024-01-15, as of 2024-04-10.
  Start floors to 2024-01, baseline month 2023-12, monthsElapsed = 4,
  potential = 6.0, base = 6.0 (no usage), total = 6.0.

IDEMPOTENCE:
  Same employee + policy + asOf always yields the same result. Re-running
  accrual is safe; only the month advancing changes the outcome.
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCRUAL START RESOLUTION
// =============================================================================

// ResolveAccrualStart determines when accrual begins for an employee.
//
// When both the policy start and the joining date are present and the policy
// starts later, the policy start wins: an employee cannot accrue before the
// policy existed. Otherwise the precedence is joining date, then policy
// start, then record creation, then the as-of date itself.
func ResolveAccrualStart(joining, applicableFrom *Date, createdAt Date, asOf Date) Date {
	if joining != nil && applicableFrom != nil && applicableFrom.After(*joining) {
		return *applicableFrom
	}
	if joining != nil {
		return *joining
	}
	if applicableFrom != nil {
		return *applicableFrom
	}
	if !createdAt.IsZero() {
		return createdAt
	}
	return asOf
}

// =============================================================================
// ACCRUAL CALCULATION
// =============================================================================

// AccrualResult is the immutable outcome of one accrual computation.
type AccrualResult struct {
	Start         Date // accrual start, floored to the first of its month
	MonthsElapsed int
	Potential     decimal.Decimal // rate * monthsElapsed, uncapped
	Base          decimal.Decimal // potential clamped to remaining entitlement
	Total         decimal.Decimal // base + manual adjustment
	AsOfMonth     MonthKey
}

// ComputeAccrual calculates the accrued base and total available balance.
//
// Returns ok=false when there is nothing to compute: nil employee, or a
// policy that is absent or degenerate (rate or annual <= 0). That is a
// silent no-op by design - companies without a configured policy must keep
// functioning.
func ComputeAccrual(e *Employee, p *LeavePolicy, asOf Date) (AccrualResult, bool) {
	if e == nil || !p.Enabled() {
		return AccrualResult{}, false
	}

	start := ResolveAccrualStart(e.JoiningDate, p.ApplicableFrom, e.CreatedAt, asOf).FloorToMonth()
	asOfMonth := asOf.FloorToMonth()

	months := 0
	if !start.After(asOfMonth) {
		// Baseline is the month immediately preceding the start month, so
		// the start month itself counts as one elapsed month.
		months = MonthsBetween(start.AddMonths(-1), asOfMonth)
		if months < 0 {
			months = 0
		}
	}

	potential := p.RatePerMonth.Mul(decimal.NewFromInt(int64(months)))

	maxBase := decimal.Max(decimal.Zero, p.TotalAnnual.Sub(e.Usage.Counted()))
	base := clamp(potential, decimal.Zero, maxBase)

	return AccrualResult{
		Start:         start,
		MonthsElapsed: months,
		Potential:     potential,
		Base:          base,
		Total:         base.Add(e.Accrual.ManualAdjustment),
		AsOfMonth:     MonthKeyOf(asOfMonth),
	}, true
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
