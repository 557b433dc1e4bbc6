package leave

import "github.com/shopspring/decimal"

// =============================================================================
// BALANCE PROJECTION - Per-type remaining balances for display
// =============================================================================

// ProjectBalances computes the per-type balance snapshot shown to the user.
//
// For paid/casual/sick the balance is the cap minus usage, floored at zero.
// The "unpaid" figure follows the display convention: it is the unpaid days
// already taken, not a remaining capacity - unpaid leave has no cap.
//
// Pure function. Zero-valued caps or usage are fine; absent fields read as 0.
// Typically called right after an accrual run so the shared total and the
// per-type caps are both current, but the two outputs are independent.
func ProjectBalances(caps TypeCaps, usage Usage) Balances {
	return Balances{
		Paid:   remaining(caps.Paid, usage.Paid),
		Casual: remaining(caps.Casual, usage.Casual),
		Sick:   remaining(caps.Sick, usage.Sick),
		Unpaid: usage.Unpaid,
	}
}

func remaining(cap, used decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, cap.Sub(used))
}
