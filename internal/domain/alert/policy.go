// internal/domain/alert/policy.go
package alert

import (
	"fmt"
	"time"

	"healthsched/internal/domain/record"
	"healthsched/internal/domain/timeutil"
)

// refillFireDelay pushes the level-triggered refill alert slightly into the
// future, since the gateway rejects fire times that are not strictly ahead
// of the scheduling call.
const refillFireDelay = time.Minute

// ForReminder maps a one-shot reminder to its candidate alerts. Disabled
// reminders and reminders whose firing instant has passed yield nothing.
func ForReminder(r *record.Reminder, now time.Time) []Candidate {
	if !r.Enabled || timeutil.IsPast(r.FireAt, now) {
		return nil
	}
	return []Candidate{{
		Kind:   KindReminder,
		ID:     r.ID,
		Role:   RoleFire,
		FireAt: r.FireAt,
		Title:  r.Title,
		Body:   "Reminder: " + r.Title,
	}}
}

// ForVaccination maps a vaccination to its expiry-warning candidates, one
// per configured threshold day that still lies in the future. Vaccinations
// without an expiration date never alert. The expiration day itself is only
// emitted when includeExpiry is set. When two thresholds collapse onto the
// same role the later-computed one wins; there is never a duplicate.
func ForVaccination(v *record.Vaccination, warningDays []int, includeExpiry bool, now time.Time) []Candidate {
	if v.ExpiresAt == nil {
		return nil
	}
	expiry := *v.ExpiresAt

	byRole := make(map[Role]Candidate)
	order := make([]Role, 0, len(warningDays)+1)
	for _, days := range warningDays {
		fireAt := timeutil.AddDays(expiry, -days)
		if !fireAt.After(now) {
			continue
		}
		role := WarnRole(days)
		if _, seen := byRole[role]; !seen {
			order = append(order, role)
		}
		byRole[role] = Candidate{
			Kind:   KindVaccination,
			ID:     v.ID,
			Role:   role,
			FireAt: fireAt,
			Title:  v.Name,
			Body:   fmt.Sprintf("%s expires in %d day(s)", v.Name, days),
		}
	}
	if includeExpiry && expiry.After(now) {
		role := RoleExpiry
		if _, seen := byRole[role]; !seen {
			order = append(order, role)
		}
		byRole[role] = Candidate{
			Kind:   KindVaccination,
			ID:     v.ID,
			Role:   role,
			FireAt: expiry,
			Title:  v.Name,
			Body:   v.Name + " expires today",
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, role := range order {
		out = append(out, byRole[role])
	}
	return out
}

// ForMedicationDose maps a medication to its single next-dose candidate.
// AS_NEEDED medications and completed courses yield nothing; a next dose
// that is already past is surfaced to the UI as "due now" and is never
// re-scheduled as a past alert.
func ForMedicationDose(m *record.Medication, now time.Time) []Candidate {
	next, ok := m.NextDoseAt()
	if !ok || !next.After(now) {
		return nil
	}
	return []Candidate{{
		Kind:   KindMedication,
		ID:     m.ID,
		Role:   RoleDose,
		FireAt: next,
		Title:  m.Name,
		Body:   fmt.Sprintf("Time to take %s (%s)", m.Name, m.Dosage),
	}}
}

// ForMedicationRefill maps the level-triggered refill condition to a
// candidate that fires immediately. Edge-trigger suppression across
// repeated saves is the coordinator's job, not the policy's.
func ForMedicationRefill(m *record.Medication, now time.Time) []Candidate {
	if !m.RefillDue() {
		return nil
	}
	return []Candidate{{
		Kind:   KindMedication,
		ID:     m.ID,
		Role:   RoleRefill,
		FireAt: now.Add(refillFireDelay),
		Title:  m.Name,
		Body:   fmt.Sprintf("%s is running low (%d pill(s) left), time to refill", m.Name, *m.PillsRemaining),
	}}
}
