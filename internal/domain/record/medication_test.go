package record

import (
	"testing"
	"time"
)

var now = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func intPtr(n int) *int              { return &n }
func timePtr(t time.Time) *time.Time { return &t }

func TestDoseInterval(t *testing.T) {
	cases := []struct {
		freq          Frequency
		want          time.Duration
		calendarMonth bool
		ok            bool
	}{
		{FrequencyOnceDaily, 24 * time.Hour, false, true},
		{FrequencyTwiceDaily, 12 * time.Hour, false, true},
		{FrequencyThreeTimesDaily, 8 * time.Hour, false, true},
		{FrequencyEveryOtherDay, 48 * time.Hour, false, true},
		{FrequencyWeekly, 7 * 24 * time.Hour, false, true},
		{FrequencyMonthly, 0, true, true},
		{FrequencyAsNeeded, 0, false, false},
		{Frequency("BOGUS"), 0, false, false},
	}
	for _, tc := range cases {
		d, calendarMonth, ok := tc.freq.DoseInterval()
		if d != tc.want || calendarMonth != tc.calendarMonth || ok != tc.ok {
			t.Errorf("%s.DoseInterval() = (%v, %v, %v), want (%v, %v, %v)",
				tc.freq, d, calendarMonth, ok, tc.want, tc.calendarMonth, tc.ok)
		}
	}
}

func TestNextDoseAt(t *testing.T) {
	m := Medication{
		ID:        "m1",
		Name:      "Apoquel",
		Frequency: FrequencyOnceDaily,
		StartsAt:  now.Add(-72 * time.Hour),
		IsOngoing: true,
	}

	t.Run("anchors on start when log empty", func(t *testing.T) {
		next, ok := m.NextDoseAt()
		if !ok || !next.Equal(m.StartsAt.Add(24*time.Hour)) {
			t.Errorf("NextDoseAt = (%v, %v)", next, ok)
		}
	})

	t.Run("anchors on last log entry", func(t *testing.T) {
		mm := m
		mm.DoseLog = []DoseEntry{
			{TakenAt: now.Add(-48 * time.Hour)},
			{TakenAt: now.Add(-6 * time.Hour)},
		}
		next, ok := mm.NextDoseAt()
		if !ok || !next.Equal(now.Add(18 * time.Hour)) {
			t.Errorf("NextDoseAt = (%v, %v)", next, ok)
		}
	})

	t.Run("course complete", func(t *testing.T) {
		mm := m
		mm.IsOngoing = false
		mm.EndsAt = timePtr(now)
		mm.DoseLog = []DoseEntry{{TakenAt: now.Add(-2 * time.Hour)}}
		if _, ok := mm.NextDoseAt(); ok {
			t.Error("next dose past the end of a finished course should not derive")
		}
	})

	t.Run("as needed", func(t *testing.T) {
		mm := m
		mm.Frequency = FrequencyAsNeeded
		if _, ok := mm.NextDoseAt(); ok {
			t.Error("as-needed medication has no derivable next dose")
		}
	})
}

func TestRefillDue(t *testing.T) {
	m := Medication{PillsRemaining: intPtr(4), RefillReminderAt: intPtr(5)}
	if !m.RefillDue() {
		t.Error("4 pills with threshold 5 should be due for refill")
	}
	m.PillsRemaining = intPtr(9)
	if m.RefillDue() {
		t.Error("9 pills with threshold 5 should not be due")
	}
	m.RefillReminderAt = nil
	if m.RefillDue() {
		t.Error("missing threshold disables the refill condition")
	}
}

func TestVaccinationStatus(t *testing.T) {
	cases := []struct {
		name      string
		expiresAt *time.Time
		want      VaccinationStatus
	}{
		{"no expiry", nil, VaccinationNoExpiry},
		{"expired", timePtr(now.Add(-24 * time.Hour)), VaccinationExpired},
		{"expiring soon", timePtr(now.Add(3 * 24 * time.Hour)), VaccinationExpiringSoon},
		{"valid", timePtr(now.Add(90 * 24 * time.Hour)), VaccinationValid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Vaccination{Name: "Rabies", AdministeredAt: now.Add(-300 * 24 * time.Hour), ExpiresAt: tc.expiresAt}
			if got := v.Status(now, 7); got != tc.want {
				t.Errorf("Status = %s, want %s", got, tc.want)
			}
		})
	}
}
