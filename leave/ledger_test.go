package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*leave.DeductionLedger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return leave.NewDeductionLedger(mem, mem), mem
}

func approvedUnpaid(t *testing.T, mem *store.Memory, id string, start, end leave.Date, days float64) {
	t.Helper()
	err := mem.CreateLeave(context.Background(), &leave.Leave{
		ID:         id,
		EmployeeID: "emp-1",
		CompanyID:  "co-1",
		Start:      start,
		End:        end,
		Status:     leave.StatusApproved,
		Allocation: leave.Allocation{Unpaid: dec(days)},
	})
	require.NoError(t, err)
}

// =============================================================================
// TAKEN
// =============================================================================

func TestUnpaidTakenForMonth_SpanningLeaveIsApportioned(t *testing.T) {
	// GIVEN: 5 unpaid days Mon Jan 29 - Fri Feb 2, 2024 (3 workdays in Jan)
	// WHEN: Reading taken for each month
	// THEN: January gets 3, February gets 2

	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.January, 29), d(2024, time.February, 2), 5)

	jan, err := ledger.UnpaidTakenForMonth(ctx, "emp-1", "co-1", "2024-01", nil)
	require.NoError(t, err)
	assert.True(t, jan.Equal(dec(3)), "january = %s", jan)

	feb, err := ledger.UnpaidTakenForMonth(ctx, "emp-1", "co-1", "2024-02", nil)
	require.NoError(t, err)
	assert.True(t, feb.Equal(dec(2)), "february = %s", feb)
}

func TestUnpaidTakenForMonth_PendingLeavesExcluded(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, mem.CreateLeave(ctx, &leave.Leave{
		ID: "l1", EmployeeID: "emp-1", CompanyID: "co-1",
		Start: d(2024, time.March, 4), End: d(2024, time.March, 8),
		Status:     leave.StatusPending,
		Allocation: leave.Allocation{Unpaid: dec(5)},
	}))

	taken, err := ledger.UnpaidTakenForMonth(ctx, "emp-1", "co-1", "2024-03", nil)
	require.NoError(t, err)
	assert.True(t, taken.IsZero(), "pending leave must not count, got %s", taken)
}

func TestUnpaidTakenForMonth_MalformedMonthDegradesToZero(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 8), 5)

	for _, month := range []string{"2025-13", "garbage", "2024-00", "2024-3", ""} {
		taken, err := ledger.UnpaidTakenForMonth(ctx, "emp-1", "co-1", month, nil)
		require.NoError(t, err, "malformed month must not error: %q", month)
		assert.True(t, taken.IsZero(), "month %q: got %s", month, taken)
	}
}

func TestUnpaidTakenForMonth_ClippedToEmploymentStart(t *testing.T) {
	// GIVEN: Leave Mar 4-8 but the employee was hired Mar 6
	// WHEN: Reading taken for March
	// THEN: Only the post-hire slice counts (3 of 5 workdays -> 3.0)

	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 8), 5)

	hired := d(2024, time.March, 6)
	taken, err := ledger.UnpaidTakenForMonth(ctx, "emp-1", "co-1", "2024-03", &hired)
	require.NoError(t, err)

	// Clipped range Mar 6-8 keeps the full 5-day allocation over 3 workdays,
	// all in March, so the whole 5 lands there.
	assert.True(t, taken.Equal(dec(5)), "got %s", taken)
}

func TestUnpaidTakenForMonth_MonthBeforeEmploymentIsZero(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.January, 29), d(2024, time.February, 2), 5)

	hired := d(2024, time.February, 1)
	taken, err := ledger.UnpaidTakenForMonth(ctx, "emp-1", "co-1", "2024-01", &hired)
	require.NoError(t, err)
	assert.True(t, taken.IsZero(), "pre-hire month must be zero, got %s", taken)
}

func TestUnpaidTakenForMonth_LeaveWhollyBeforeHireSkipped(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 8), 5)

	hired := d(2024, time.March, 20)
	taken, err := ledger.UnpaidTakenForMonth(ctx, "emp-1", "co-1", "2024-03", &hired)
	require.NoError(t, err)
	assert.True(t, taken.IsZero())
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestEntryForMonth_FirstMonth(t *testing.T) {
	// GIVEN: 6 unpaid days taken in March, no history, cap of 3/month
	// WHEN: Materializing the March entry
	// THEN: available=6, maxDeductable=3, carryAfter=6 (nothing deducted yet)

	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 11), 6)

	entry, err := ledger.EntryForMonth(ctx, "emp-1", "co-1", "2024-03", nil, dec(3))
	require.NoError(t, err)

	assert.True(t, entry.Taken.Equal(dec(6)))
	assert.True(t, entry.CarryBefore.IsZero())
	assert.True(t, entry.Available.Equal(dec(6)))
	assert.True(t, entry.MaxDeductable.Equal(dec(3)), "capped by policy")
	assert.True(t, entry.Deducted.IsZero())
	assert.True(t, entry.CarryAfter.Equal(dec(6)))
	assert.NotEmpty(t, entry.ID)
}

func TestEntryForMonth_UncappedWhenNoPolicyLimit(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 11), 6)

	entry, err := ledger.EntryForMonth(ctx, "emp-1", "co-1", "2024-03", nil, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, entry.MaxDeductable.Equal(dec(6)), "zero cap means unbounded")
}

func TestSaveDeduction_CarryForwardChain(t *testing.T) {
	// GIVEN: 6 unpaid days in March, policy cap 3/month
	// WHEN: Admin deducts 3 in March, then opens April
	// THEN: March carries 3 forward; April inherits it as carryBefore and
	//       can deduct it even though April itself has no unpaid leave

	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 11), 6)

	march, err := ledger.SaveDeduction(ctx, "emp-1", "co-1", "2024-03", dec(3), nil, dec(3))
	require.NoError(t, err)
	assert.True(t, march.Deducted.Equal(dec(3)))
	assert.True(t, march.CarryAfter.Equal(dec(3)))

	april, err := ledger.EntryForMonth(ctx, "emp-1", "co-1", "2024-04", nil, dec(3))
	require.NoError(t, err)
	assert.True(t, april.CarryBefore.Equal(dec(3)), "april inherits march's carry")
	assert.True(t, april.Taken.IsZero())
	assert.True(t, april.Available.Equal(dec(3)))
	assert.True(t, april.MaxDeductable.Equal(dec(3)))

	// Clear the backlog in April.
	april, err = ledger.SaveDeduction(ctx, "emp-1", "co-1", "2024-04", dec(3), nil, dec(3))
	require.NoError(t, err)
	assert.True(t, april.CarryAfter.IsZero())
}

func TestSaveDeduction_RejectsOverMax(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 11), 6)

	_, err := ledger.SaveDeduction(ctx, "emp-1", "co-1", "2024-03", dec(4), nil, dec(3))
	require.Error(t, err)

	var limitErr *leave.DeductionLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.True(t, limitErr.Requested.Equal(dec(4)))
	assert.True(t, limitErr.MaxDeductable.Equal(dec(3)))
	assert.ErrorIs(t, err, leave.ErrDeductionExceedsMax)
}

func TestSaveDeduction_RejectsNegative(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.SaveDeduction(context.Background(), "emp-1", "co-1", "2024-03", dec(-1), nil, dec(3))
	assert.ErrorIs(t, err, leave.ErrNegativeDeduction)
}

func TestSaveDeduction_DoesNotRewriteOtherMonths(t *testing.T) {
	// GIVEN: Taken figures in March and April from one spanning leave
	// WHEN: Saving a March deduction
	// THEN: April's taken is untouched; only its carryBefore changes

	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	// Fri Mar 29 - Wed Apr 3, 2024: 1 workday in March, 3 in April.
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 29), d(2024, time.April, 3), 4)

	aprilBefore, err := ledger.EntryForMonth(ctx, "emp-1", "co-1", "2024-04", nil, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, aprilBefore.Taken.Equal(dec(3)), "got %s", aprilBefore.Taken)

	_, err = ledger.SaveDeduction(ctx, "emp-1", "co-1", "2024-03", dec(1), nil, decimal.Zero)
	require.NoError(t, err)

	aprilAfter, err := ledger.EntryForMonth(ctx, "emp-1", "co-1", "2024-04", nil, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, aprilAfter.Taken.Equal(dec(3)), "taken must not change")
	assert.True(t, aprilAfter.CarryBefore.IsZero(), "march deducted its only day")
}

func TestEntryForMonth_SkippedMonthsStillCarry(t *testing.T) {
	// GIVEN: 6 unpaid days in March for an employee hired in January
	// WHEN: May is read without March or April ever being materialized
	// THEN: March's outstanding days still flow into May's carryBefore

	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 11), 6)
	hired := d(2024, time.January, 15)

	may, err := ledger.EntryForMonth(ctx, "emp-1", "co-1", "2024-05", &hired, dec(3))
	require.NoError(t, err)
	assert.True(t, may.CarryBefore.Equal(dec(6)), "march's carry must survive the gap, got %s", may.CarryBefore)
	assert.True(t, may.Available.Equal(dec(6)))
	assert.True(t, may.MaxDeductable.Equal(dec(3)))

	// The gap walk materialized March on the way.
	march, err := mem.GetDeduction(ctx, "emp-1", leave.MonthKey("2024-03"))
	require.NoError(t, err)
	require.NotNil(t, march)
	assert.True(t, march.Taken.Equal(dec(6)))
	assert.True(t, march.CarryAfter.Equal(dec(6)))

	// January moved nothing and stays unpersisted. April took nothing but
	// carried 6, so it does get a row.
	jan, err := mem.GetDeduction(ctx, "emp-1", leave.MonthKey("2024-01"))
	require.NoError(t, err)
	assert.Nil(t, jan)
}

func TestEntryForMonth_GapWalkResumesFromSavedEntry(t *testing.T) {
	// GIVEN: March deducted 3 of 6 (carryAfter 3), April/May never read
	// WHEN: June is read
	// THEN: The walk resumes from March's saved entry, not from zero

	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 11), 6)

	_, err := ledger.SaveDeduction(ctx, "emp-1", "co-1", "2024-03", dec(3), nil, dec(3))
	require.NoError(t, err)

	june, err := ledger.EntryForMonth(ctx, "emp-1", "co-1", "2024-06", nil, dec(3))
	require.NoError(t, err)
	assert.True(t, june.CarryBefore.Equal(dec(3)), "got %s", june.CarryBefore)
}

func TestEntryForMonth_PreservesSavedDeduction(t *testing.T) {
	// Re-reading a month must keep the admin's deducted value and ID.
	ledger, mem := newTestLedger(t)
	ctx := context.Background()
	approvedUnpaid(t, mem, "l1", d(2024, time.March, 4), d(2024, time.March, 11), 6)

	saved, err := ledger.SaveDeduction(ctx, "emp-1", "co-1", "2024-03", dec(2), nil, dec(3))
	require.NoError(t, err)

	reread, err := ledger.EntryForMonth(ctx, "emp-1", "co-1", "2024-03", nil, dec(3))
	require.NoError(t, err)
	assert.Equal(t, saved.ID, reread.ID)
	assert.True(t, reread.Deducted.Equal(dec(2)))
	assert.True(t, reread.CarryAfter.Equal(dec(4)))
}

func TestEntryForMonth_MalformedMonthIsZeroValued(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	entry, err := ledger.EntryForMonth(ctx, "emp-1", "co-1", "2025-13", nil, dec(3))
	require.NoError(t, err)
	assert.True(t, entry.Taken.IsZero())
	assert.True(t, entry.Available.IsZero())

	// And nothing was persisted.
	entries, err := mem.ListDeductions(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
