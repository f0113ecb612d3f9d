// internal/domain/timeutil/timeutil.go
package timeutil

import "time"

// AddDays returns t shifted by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddHours returns t shifted by n hours.
func AddHours(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * time.Hour)
}

// AddMonths returns t shifted by n calendar months. When the source
// day-of-month does not exist in the target month (e.g. Jan 31 + 1 month),
// the result is clamped to the last day of the target month instead of
// spilling into the following month, which is what time.AddDate would do.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := lastDayOfMonth(target); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysUntil returns the number of whole days from now until t, rounded up.
// Negative when t is in the past.
func DaysUntil(t, now time.Time) int {
	d := t.Sub(now)
	days := d / (24 * time.Hour)
	if d%(24*time.Hour) > 0 {
		days++
	}
	return int(days)
}

// IsPast reports whether t is strictly before now.
func IsPast(t, now time.Time) bool {
	return t.Before(now)
}

func lastDayOfMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	return firstOfNext.AddDate(0, 0, -1).Day()
}
