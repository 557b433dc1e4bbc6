package leave_test

import (
	"testing"

	"github.com/warp/leave-engine/leave"
)

func TestProjectBalances_RemainingPerType(t *testing.T) {
	caps := leave.TypeCaps{Paid: dec(12), Casual: dec(4), Sick: dec(2)}
	usage := leave.Usage{Paid: dec(3.5), Casual: dec(1), Sick: dec(2), Unpaid: dec(6)}

	b := leave.ProjectBalances(caps, usage)

	if !b.Paid.Equal(dec(8.5)) {
		t.Errorf("paid = %s, want 8.5", b.Paid)
	}
	if !b.Casual.Equal(dec(3)) {
		t.Errorf("casual = %s, want 3", b.Casual)
	}
	if !b.Sick.IsZero() {
		t.Errorf("sick = %s, want 0", b.Sick)
	}
}

func TestProjectBalances_OverconsumptionFloorsAtZero(t *testing.T) {
	caps := leave.TypeCaps{Paid: dec(12)}
	usage := leave.Usage{Paid: dec(15)}

	b := leave.ProjectBalances(caps, usage)
	if !b.Paid.IsZero() {
		t.Errorf("overconsumed paid should floor at zero, got %s", b.Paid)
	}
}

func TestProjectBalances_UnpaidShowsDaysTaken(t *testing.T) {
	// Unpaid has no cap; the balance slot reports days taken, not remaining.
	b := leave.ProjectBalances(leave.TypeCaps{}, leave.Usage{Unpaid: dec(6)})
	if !b.Unpaid.Equal(dec(6)) {
		t.Errorf("unpaid = %s, want 6", b.Unpaid)
	}
}
