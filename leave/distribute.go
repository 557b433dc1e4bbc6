/*
distribute.go - Working-day-weighted month distribution

PURPOSE:
  Splits one leave request's fixed per-type allocations across the calendar
  months its date range overlaps, weighted by working days per month. A
  Mon-Fri leave spanning Jan 29 - Feb 2 with 5 paid days lands as 3.0 in
  January (3 of 5 working days) and 2.0 in February.

RULES:
  - Working day = any day that is not Saturday or Sunday. No holiday
    calendar is modeled.
  - The allocation totals never change; distribution only redistributes
    them. Sum of all month totals == allocation total.
  - No rounding happens here. Callers round once at final aggregation to
    avoid compounding error across months.

DEGENERATE RANGES:
  A range with zero working days (weekend-only) attributes the ENTIRE
  allocation to the month containing the start date, provided the
  allocation is positive. A Saturday one-day leave still costs its days.

  Invalid input (zero dates, end before start) yields an empty map.

PURITY:
  Pure and order-independent. Same input, same map, every time.
*/
package leave

import "github.com/shopspring/decimal"

// MonthPortion is the slice of a leave's allocation attributed to one month.
type MonthPortion struct {
	Paid   decimal.Decimal
	Casual decimal.Decimal
	Sick   decimal.Decimal
	Unpaid decimal.Decimal
	Total  decimal.Decimal
}

func portionOf(a Allocation) MonthPortion {
	return MonthPortion{
		Paid:   a.Paid,
		Casual: a.Casual,
		Sick:   a.Sick,
		Unpaid: a.Unpaid,
		Total:  a.Total(),
	}
}

// Distribute splits the leave's allocation across the months in its range,
// weighted by working days per month.
func Distribute(l Leave) map[MonthKey]MonthPortion {
	out := make(map[MonthKey]MonthPortion)

	if l.Start.IsZero() || l.End.IsZero() || l.Start.After(l.End) {
		return out
	}

	// Count working days per month across the inclusive range.
	workdays := make(map[MonthKey]int64)
	var totalWorkdays int64
	for d := l.Start; d.BeforeOrEqual(l.End); d = d.AddDays(1) {
		if d.IsWorkday() {
			workdays[MonthKeyOf(d)]++
			totalWorkdays++
		}
	}

	if totalWorkdays == 0 {
		// Weekend-only range: the whole allocation belongs to the start
		// month, unless there is nothing to allocate.
		if l.Allocation.Total().IsPositive() {
			out[MonthKeyOf(l.Start)] = portionOf(l.Allocation)
		}
		return out
	}

	total := decimal.NewFromInt(totalWorkdays)
	for mk, days := range workdays {
		ratio := decimal.NewFromInt(days).Div(total)
		out[mk] = portionOf(l.Allocation.Scale(ratio))
	}
	return out
}
