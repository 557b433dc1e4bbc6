package leave

import "time"

// =============================================================================
// DATE - Day-granular calendar date (UTC)
// =============================================================================

// Date is a calendar date with day granularity. All engine math operates on
// whole days; time-of-day and timezone information is normalized away.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses "YYYY-MM-DD". The second return value is false for
// anything unparseable; callers treat that as an absent date.
func ParseDate(s string) (Date, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, false
	}
	return Date{Time: t}, true
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.normalize().AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.normalize().AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.normalize().Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) IsWorkday() bool { return !d.IsWeekend() }

// FloorToMonth returns the first day of the date's month.
func (d Date) FloorToMonth() Date { return NewDate(d.Year(), d.Month(), 1) }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// =============================================================================
// MONTH KEY - "YYYY-MM" calendar month identifier
// =============================================================================

// MonthKey identifies a calendar month. It is the map key for month
// distribution and the row key for unpaid deduction entries.
type MonthKey string

// ParseMonthKey validates and parses "YYYY-MM". Out-of-range months
// ("2025-13") fail here; callers degrade to zero rather than erroring.
func ParseMonthKey(s string) (MonthKey, bool) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", false
	}
	return MonthKey(t.Format("2006-01")), true
}

func MonthKeyOf(d Date) MonthKey { return MonthKey(d.normalize().Format("2006-01")) }

func (mk MonthKey) date() Date {
	t, err := time.Parse("2006-01", string(mk))
	if err != nil {
		return Date{}
	}
	return Date{Time: t}
}

// Start returns the first day of the month.
func (mk MonthKey) Start() Date { return mk.date() }

// End returns the last day of the month.
func (mk MonthKey) End() Date { return mk.date().AddMonths(1).AddDays(-1) }

// Prev returns the preceding calendar month.
func (mk MonthKey) Prev() MonthKey { return MonthKeyOf(mk.date().AddMonths(-1)) }

// Next returns the following calendar month.
func (mk MonthKey) Next() MonthKey { return MonthKeyOf(mk.date().AddMonths(1)) }

func (mk MonthKey) String() string { return string(mk) }

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

// MonthsBetween returns the number of whole months from a's month to b's
// month. Negative when b's month precedes a's.
func MonthsBetween(a, b Date) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
