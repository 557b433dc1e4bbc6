package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(year int, month time.Month, day int) leave.Date {
	return leave.NewDate(year, month, day)
}

func dp(year int, month time.Month, day int) *leave.Date {
	dd := leave.NewDate(year, month, day)
	return &dd
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func standardPolicy() *leave.LeavePolicy {
	return &leave.LeavePolicy{
		RatePerMonth: dec(1.5),
		TotalAnnual:  dec(18),
		TypeCaps:     leave.TypeCaps{Paid: dec(12), Casual: dec(4), Sick: dec(2)},
	}
}

// =============================================================================
// ACCRUAL START RESOLUTION
// =============================================================================

func TestResolveAccrualStart_Precedence(t *testing.T) {
	created := d(2024, time.March, 1)
	asOf := d(2024, time.June, 15)

	t.Run("policy start wins when later than joining", func(t *testing.T) {
		got := leave.ResolveAccrualStart(dp(2024, time.January, 10), dp(2024, time.February, 1), created, asOf)
		assert.True(t, got.Equal(d(2024, time.February, 1)))
	})

	t.Run("joining wins when policy start is earlier", func(t *testing.T) {
		got := leave.ResolveAccrualStart(dp(2024, time.March, 10), dp(2024, time.February, 1), created, asOf)
		assert.True(t, got.Equal(d(2024, time.March, 10)))
	})

	t.Run("joining alone", func(t *testing.T) {
		got := leave.ResolveAccrualStart(dp(2024, time.January, 10), nil, created, asOf)
		assert.True(t, got.Equal(d(2024, time.January, 10)))
	})

	t.Run("policy start alone", func(t *testing.T) {
		got := leave.ResolveAccrualStart(nil, dp(2024, time.February, 1), created, asOf)
		assert.True(t, got.Equal(d(2024, time.February, 1)))
	})

	t.Run("falls back to record creation", func(t *testing.T) {
		got := leave.ResolveAccrualStart(nil, nil, created, asOf)
		assert.True(t, got.Equal(created))
	})

	t.Run("falls back to asOf last", func(t *testing.T) {
		got := leave.ResolveAccrualStart(nil, nil, leave.Date{}, asOf)
		assert.True(t, got.Equal(asOf))
	})
}

// =============================================================================
// ACCRUAL CALCULATION
// =============================================================================

func TestComputeAccrual_StandardExample(t *testing.T) {
	// GIVEN: 1.5 days/month, 18/year. Joined 2024-01-15, nothing used.
	// WHEN: Accruing as of 2024-04-10
	// THEN: Start floors to Jan, 4 months elapsed, 6.0 days accrued

	emp := &leave.Employee{ID: "e1", JoiningDate: dp(2024, time.January, 15)}

	res, ok := leave.ComputeAccrual(emp, standardPolicy(), d(2024, time.April, 10))
	require.True(t, ok)

	assert.Equal(t, 4, res.MonthsElapsed)
	assert.True(t, res.Start.Equal(d(2024, time.January, 1)), "start should floor to month")
	assert.True(t, res.Potential.Equal(dec(6.0)), "potential = 1.5 * 4, got %s", res.Potential)
	assert.True(t, res.Base.Equal(dec(6.0)))
	assert.True(t, res.Total.Equal(dec(6.0)))
	assert.Equal(t, leave.MonthKey("2024-04"), res.AsOfMonth)
}

func TestComputeAccrual_Idempotent(t *testing.T) {
	// GIVEN: A fixed employee, policy, and as-of date
	// WHEN: Accrual runs twice
	// THEN: Both runs produce identical results

	emp := &leave.Employee{ID: "e1", JoiningDate: dp(2024, time.January, 15)}
	asOf := d(2024, time.April, 10)

	first, ok1 := leave.ComputeAccrual(emp, standardPolicy(), asOf)
	second, ok2 := leave.ComputeAccrual(emp, standardPolicy(), asOf)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
}

func TestComputeAccrual_CappedByRemainingEntitlement(t *testing.T) {
	// GIVEN: Employee has used 16 counted days of an 18-day annual entitlement
	// WHEN: Potential accrual exceeds what remains
	// THEN: Base clamps to 18 - 16 = 2

	emp := &leave.Employee{
		ID:          "e1",
		JoiningDate: dp(2023, time.January, 1),
		Usage:       leave.Usage{Paid: dec(12), Casual: dec(3), Sick: dec(1)},
	}

	res, ok := leave.ComputeAccrual(emp, standardPolicy(), d(2024, time.June, 1))
	require.True(t, ok)
	assert.True(t, res.Base.Equal(dec(2)), "base should clamp to remaining, got %s", res.Base)
}

func TestComputeAccrual_UnpaidUsageDoesNotConsumeEntitlement(t *testing.T) {
	// GIVEN: Heavy unpaid usage, nothing else
	// WHEN: Accruing
	// THEN: Unpaid days never reduce the accrued base

	emp := &leave.Employee{
		ID:          "e1",
		JoiningDate: dp(2024, time.January, 15),
		Usage:       leave.Usage{Unpaid: dec(40)},
	}

	res, ok := leave.ComputeAccrual(emp, standardPolicy(), d(2024, time.April, 10))
	require.True(t, ok)
	assert.True(t, res.Base.Equal(dec(6.0)))
}

func TestComputeAccrual_ManualAdjustmentAdditive(t *testing.T) {
	// GIVEN: An admin granted 2.5 extra days
	// WHEN: Accrual recomputes
	// THEN: Total = base + adjustment; the adjustment itself is untouched

	emp := &leave.Employee{
		ID:          "e1",
		JoiningDate: dp(2024, time.January, 15),
		Accrual:     leave.AccrualState{ManualAdjustment: dec(2.5)},
	}

	res, ok := leave.ComputeAccrual(emp, standardPolicy(), d(2024, time.April, 10))
	require.True(t, ok)
	assert.True(t, res.Base.Equal(dec(6.0)))
	assert.True(t, res.Total.Equal(dec(8.5)))
	assert.True(t, emp.Accrual.ManualAdjustment.Equal(dec(2.5)), "adjustment must never be rewritten")
}

func TestComputeAccrual_NegativeAdjustmentCanGoBelowZero(t *testing.T) {
	// A correction can legitimately push the total negative; the engine does
	// not clamp the final figure.
	emp := &leave.Employee{
		ID:          "e1",
		JoiningDate: dp(2024, time.March, 1),
		Accrual:     leave.AccrualState{ManualAdjustment: dec(-10)},
	}

	res, ok := leave.ComputeAccrual(emp, standardPolicy(), d(2024, time.March, 31))
	require.True(t, ok)
	assert.True(t, res.Total.Equal(dec(-8.5)), "1.5 - 10, got %s", res.Total)
}

func TestComputeAccrual_StartAfterAsOf(t *testing.T) {
	// GIVEN: Accrual starts in a future month
	// WHEN: Accruing now
	// THEN: Zero months elapsed, zero accrued

	emp := &leave.Employee{ID: "e1", JoiningDate: dp(2024, time.September, 1)}

	res, ok := leave.ComputeAccrual(emp, standardPolicy(), d(2024, time.April, 10))
	require.True(t, ok)
	assert.Equal(t, 0, res.MonthsElapsed)
	assert.True(t, res.Base.IsZero())
}

func TestComputeAccrual_SameMonthStartCountsOne(t *testing.T) {
	// Joining mid-month accrues the full month's rate immediately.
	emp := &leave.Employee{ID: "e1", JoiningDate: dp(2024, time.April, 25)}

	res, ok := leave.ComputeAccrual(emp, standardPolicy(), d(2024, time.April, 10))
	require.True(t, ok)
	assert.Equal(t, 1, res.MonthsElapsed)
	assert.True(t, res.Base.Equal(dec(1.5)))
}

func TestComputeAccrual_DisabledPolicy(t *testing.T) {
	emp := &leave.Employee{ID: "e1", JoiningDate: dp(2024, time.January, 15)}
	asOf := d(2024, time.April, 10)

	cases := map[string]*leave.LeavePolicy{
		"nil policy":  nil,
		"zero rate":   {RatePerMonth: decimal.Zero, TotalAnnual: dec(18)},
		"zero annual": {RatePerMonth: dec(1.5), TotalAnnual: decimal.Zero},
	}
	for name, policy := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := leave.ComputeAccrual(emp, policy, asOf)
			assert.False(t, ok, "degenerate policy must be a silent no-op")
		})
	}
}

func TestComputeAccrual_NilEmployee(t *testing.T) {
	_, ok := leave.ComputeAccrual(nil, standardPolicy(), d(2024, time.April, 10))
	assert.False(t, ok)
}
