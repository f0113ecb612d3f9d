package alert

import (
	"testing"
	"time"

	"healthsched/internal/domain/record"
)

var now = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func intPtr(n int) *int              { return &n }
func timePtr(t time.Time) *time.Time { return &t }

func TestForReminder(t *testing.T) {
	cases := []struct {
		name      string
		reminder  record.Reminder
		wantCount int
	}{
		{"future enabled", record.Reminder{ID: "r1", Title: "vet visit", FireAt: now.Add(days(1)), Enabled: true}, 1},
		{"future disabled", record.Reminder{ID: "r1", Title: "vet visit", FireAt: now.Add(days(1)), Enabled: false}, 0},
		{"past enabled", record.Reminder{ID: "r1", Title: "vet visit", FireAt: now.Add(-days(1)), Enabled: true}, 0},
		{"firing right now", record.Reminder{ID: "r1", Title: "vet visit", FireAt: now, Enabled: true}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ForReminder(&tc.reminder, now)
			if len(got) != tc.wantCount {
				t.Fatalf("got %d candidates, want %d", len(got), tc.wantCount)
			}
			if tc.wantCount == 1 {
				c := got[0]
				if c.Role != RoleFire || !c.FireAt.Equal(tc.reminder.FireAt) || c.Kind != KindReminder || c.ID != "r1" {
					t.Errorf("unexpected candidate: %+v", c)
				}
			}
		})
	}
}

func TestForVaccinationBothThresholdsInFuture(t *testing.T) {
	// Administered ~a year ago, expires in 14 days: warn7 lands at now+7d
	// and warn1 at now+13d, both still ahead.
	v := record.Vaccination{
		ID:             "v1",
		Name:           "Rabies",
		AdministeredAt: now.Add(-days(351)),
		ExpiresAt:      timePtr(now.Add(days(14))),
	}
	got := ForVaccination(&v, []int{7, 1}, false, now)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].Role != WarnRole(7) || !got[0].FireAt.Equal(now.Add(days(7))) {
		t.Errorf("warn7 candidate wrong: %+v", got[0])
	}
	if got[1].Role != WarnRole(1) || !got[1].FireAt.Equal(now.Add(days(13))) {
		t.Errorf("warn1 candidate wrong: %+v", got[1])
	}
}

func TestForVaccinationEdges(t *testing.T) {
	cases := []struct {
		name      string
		expiresAt *time.Time
		days      []int
		expiry    bool
		wantRoles []Role
	}{
		{"no expiration", nil, []int{7, 1}, false, nil},
		{"expired long ago", timePtr(now.Add(-days(35))), []int{7, 1}, false, nil},
		{"only warn1 still ahead", timePtr(now.Add(days(3))), []int{7, 1}, false, []Role{WarnRole(1)}},
		{"expiry day included", timePtr(now.Add(days(14))), []int{7, 1}, true, []Role{WarnRole(7), WarnRole(1), RoleExpiry}},
		{"custom thresholds", timePtr(now.Add(days(30))), []int{14, 3}, false, []Role{WarnRole(14), WarnRole(3)}},
		{"duplicate threshold collapses", timePtr(now.Add(days(14))), []int{7, 7}, false, []Role{WarnRole(7)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := record.Vaccination{ID: "v1", Name: "Rabies", AdministeredAt: now.Add(-days(100)), ExpiresAt: tc.expiresAt}
			got := ForVaccination(&v, tc.days, tc.expiry, now)
			if len(got) != len(tc.wantRoles) {
				t.Fatalf("got %d candidates %v, want roles %v", len(got), got, tc.wantRoles)
			}
			for i, role := range tc.wantRoles {
				if got[i].Role != role {
					t.Errorf("candidate %d role = %s, want %s", i, got[i].Role, role)
				}
			}
		})
	}
}

func TestForMedicationDose(t *testing.T) {
	base := record.Medication{ID: "m1", Name: "Apoquel", Dosage: "16mg", StartsAt: now.Add(-days(10)), IsOngoing: true}

	t.Run("once daily off last dose", func(t *testing.T) {
		m := base
		m.Frequency = record.FrequencyOnceDaily
		m.DoseLog = []record.DoseEntry{{TakenAt: now.Add(-20 * time.Hour)}}
		got := ForMedicationDose(&m, now)
		if len(got) != 1 {
			t.Fatalf("got %d candidates, want 1", len(got))
		}
		if got[0].Role != RoleDose || !got[0].FireAt.Equal(now.Add(4*time.Hour)) {
			t.Errorf("dose candidate wrong: %+v", got[0])
		}
	})

	t.Run("empty log anchors on start", func(t *testing.T) {
		m := base
		m.Frequency = record.FrequencyEveryOtherDay
		m.StartsAt = now.Add(-days(1))
		got := ForMedicationDose(&m, now)
		if len(got) != 1 || !got[0].FireAt.Equal(now.Add(days(1))) {
			t.Fatalf("expected one candidate at start+48h, got %v", got)
		}
	})

	t.Run("as needed yields nothing", func(t *testing.T) {
		m := base
		m.Frequency = record.FrequencyAsNeeded
		if got := ForMedicationDose(&m, now); len(got) != 0 {
			t.Fatalf("expected no candidates, got %v", got)
		}
	})

	t.Run("past due is not scheduled", func(t *testing.T) {
		m := base
		m.Frequency = record.FrequencyOnceDaily
		m.DoseLog = []record.DoseEntry{{TakenAt: now.Add(-30 * time.Hour)}}
		if got := ForMedicationDose(&m, now); len(got) != 0 {
			t.Fatalf("past-due dose must not be scheduled, got %v", got)
		}
		if !m.DueNow(now) {
			t.Error("past-due dose should surface as due now")
		}
	})

	t.Run("course complete", func(t *testing.T) {
		m := base
		m.Frequency = record.FrequencyWeekly
		m.IsOngoing = false
		m.EndsAt = timePtr(now.Add(days(2)))
		m.DoseLog = []record.DoseEntry{{TakenAt: now.Add(-days(1))}}
		if got := ForMedicationDose(&m, now); len(got) != 0 {
			t.Fatalf("completed course must not alert, got %v", got)
		}
	})

	t.Run("ongoing ignores end date", func(t *testing.T) {
		m := base
		m.Frequency = record.FrequencyWeekly
		m.IsOngoing = true
		m.EndsAt = timePtr(now.Add(days(2)))
		m.DoseLog = []record.DoseEntry{{TakenAt: now.Add(-days(1))}}
		if got := ForMedicationDose(&m, now); len(got) != 1 {
			t.Fatalf("ongoing medication should still alert, got %v", got)
		}
	})

	t.Run("monthly is calendar aware", func(t *testing.T) {
		m := base
		m.Frequency = record.FrequencyMonthly
		m.DoseLog = []record.DoseEntry{{TakenAt: time.Date(2025, time.May, 31, 8, 0, 0, 0, time.UTC)}}
		got := ForMedicationDose(&m, now)
		if len(got) != 1 {
			t.Fatalf("got %d candidates, want 1", len(got))
		}
		want := time.Date(2025, time.June, 30, 8, 0, 0, 0, time.UTC)
		if !got[0].FireAt.Equal(want) {
			t.Errorf("monthly dose at %v, want %v", got[0].FireAt, want)
		}
	})

	t.Run("skipped dose still anchors cadence", func(t *testing.T) {
		m := base
		m.Frequency = record.FrequencyTwiceDaily
		m.DoseLog = []record.DoseEntry{
			{TakenAt: now.Add(-20 * time.Hour)},
			{TakenAt: now.Add(-8 * time.Hour), Skipped: true},
		}
		got := ForMedicationDose(&m, now)
		if len(got) != 1 || !got[0].FireAt.Equal(now.Add(4*time.Hour)) {
			t.Fatalf("expected candidate at last entry +12h, got %v", got)
		}
	})
}

func TestForMedicationRefill(t *testing.T) {
	base := record.Medication{ID: "m1", Name: "Apoquel", Dosage: "16mg", Frequency: record.FrequencyOnceDaily, StartsAt: now.Add(-days(10)), IsOngoing: true}

	cases := []struct {
		name    string
		pills   *int
		refill  *int
		wantHit bool
	}{
		{"below threshold", intPtr(3), intPtr(5), true},
		{"at threshold", intPtr(5), intPtr(5), true},
		{"above threshold", intPtr(6), intPtr(5), false},
		{"no inventory tracking", nil, intPtr(5), false},
		{"no threshold", intPtr(3), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := base
			m.PillsRemaining = tc.pills
			m.RefillReminderAt = tc.refill
			got := ForMedicationRefill(&m, now)
			if tc.wantHit != (len(got) == 1) {
				t.Fatalf("refill candidates = %v, wantHit %v", got, tc.wantHit)
			}
			if tc.wantHit {
				if got[0].Role != RoleRefill {
					t.Errorf("role = %s, want %s", got[0].Role, RoleRefill)
				}
				if !got[0].FireAt.After(now) {
					t.Errorf("refill fire time %v must be strictly after now", got[0].FireAt)
				}
			}
		})
	}
}
