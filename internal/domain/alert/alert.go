// internal/domain/alert/alert.go
package alert

import (
	"strconv"
	"time"
)

// Kind identifies which record type an alert belongs to. The vocabulary is
// closed; values double as the first segment of alert keys.
type Kind string

const (
	KindReminder    Kind = "reminder"
	KindVaccination Kind = "vaccination"
	KindMedication  Kind = "medication"
)

// Role distinguishes the purposes of the alerts derived from one record.
type Role string

const (
	RoleFire   Role = "fire"   // one-shot reminder firing
	RoleDose   Role = "dose"   // next medication dose
	RoleRefill Role = "refill" // pill inventory at or below threshold
	RoleExpiry Role = "expiry" // vaccination expiration day (optional)
	// Warning roles for vaccinations are derived from the configured
	// threshold, e.g. "warn7" and "warn1"; see WarnRole.
)

// WarnRole returns the role for a vaccination warning threshold of n days.
func WarnRole(days int) Role {
	return Role("warn" + strconv.Itoa(days))
}

// Candidate is a pure-computed alert a record currently calls for, not yet
// compared against what the gateway has scheduled.
type Candidate struct {
	Kind   Kind
	ID     string
	Role   Role
	FireAt time.Time
	Title  string
	Body   string
}

// Key returns the candidate's stable gateway key.
func (c Candidate) Key() string {
	return KeyFor(c.Kind, c.ID, c.Role)
}
