// internal/domain/record/medication.go
package record

import (
	"time"

	"healthsched/internal/domain/timeutil"
)

// Frequency is the dosing cadence of a medication.
type Frequency string

const (
	FrequencyOnceDaily       Frequency = "ONCE_DAILY"
	FrequencyTwiceDaily      Frequency = "TWICE_DAILY"
	FrequencyThreeTimesDaily Frequency = "THREE_TIMES_DAILY"
	FrequencyEveryOtherDay   Frequency = "EVERY_OTHER_DAY"
	FrequencyWeekly          Frequency = "WEEKLY"
	FrequencyMonthly         Frequency = "MONTHLY"
	FrequencyAsNeeded        Frequency = "AS_NEEDED"
)

// DoseEntry is one row of a medication's dose log.
type DoseEntry struct {
	TakenAt time.Time
	Skipped bool
}

// Medication is a tracked medication course with an optional pill inventory.
// EndsAt is nil for open-ended courses; PillsRemaining/RefillReminderAt are
// nil when inventory tracking is off.
type Medication struct {
	ID               string
	Name             string
	Dosage           string
	Frequency        Frequency
	StartsAt         time.Time
	EndsAt           *time.Time
	IsOngoing        bool
	DoseLog          []DoseEntry // ordered by TakenAt ascending
	PillsRemaining   *int
	RefillReminderAt *int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DoseInterval returns the gap implied by the frequency and whether the
// frequency yields a derivable next dose at all. Monthly cadence is
// calendar-aware and handled by the caller via AddMonths; for it the
// returned duration is zero with ok still true.
func (f Frequency) DoseInterval() (d time.Duration, calendarMonth bool, ok bool) {
	switch f {
	case FrequencyOnceDaily:
		return 24 * time.Hour, false, true
	case FrequencyTwiceDaily:
		return 12 * time.Hour, false, true
	case FrequencyThreeTimesDaily:
		return 8 * time.Hour, false, true
	case FrequencyEveryOtherDay:
		return 48 * time.Hour, false, true
	case FrequencyWeekly:
		return 7 * 24 * time.Hour, false, true
	case FrequencyMonthly:
		return 0, true, true
	default: // AS_NEEDED or unknown
		return 0, false, false
	}
}

// LastDoseAt returns the anchor instant for the next-dose computation: the
// last dose-log entry regardless of its skipped flag, or the course start
// when the log is empty.
func (m *Medication) LastDoseAt() time.Time {
	if n := len(m.DoseLog); n > 0 {
		return m.DoseLog[n-1].TakenAt
	}
	return m.StartsAt
}

// NextDoseAt derives the next dose instant from the dose log and frequency.
// ok is false for AS_NEEDED medications and for completed courses (EndsAt
// set, not ongoing, and the next dose would land after the end).
func (m *Medication) NextDoseAt() (next time.Time, ok bool) {
	interval, calendarMonth, ok := m.Frequency.DoseInterval()
	if !ok {
		return time.Time{}, false
	}
	last := m.LastDoseAt()
	if calendarMonth {
		next = timeutil.AddMonths(last, 1)
	} else {
		next = last.Add(interval)
	}
	if m.EndsAt != nil && !m.IsOngoing && next.After(*m.EndsAt) {
		return time.Time{}, false
	}
	return next, true
}

// DueNow reports whether the derived next dose has already passed. Past-due
// doses are surfaced in the UI, never scheduled as alerts.
func (m *Medication) DueNow(now time.Time) bool {
	next, ok := m.NextDoseAt()
	return ok && !next.After(now)
}

// RefillDue reports the level-triggered refill condition: inventory tracking
// is on and the pill count has reached the refill threshold.
func (m *Medication) RefillDue() bool {
	return m.PillsRemaining != nil && m.RefillReminderAt != nil && *m.PillsRemaining <= *m.RefillReminderAt
}
