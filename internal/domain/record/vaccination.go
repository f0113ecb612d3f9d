// internal/domain/record/vaccination.go
package record

import (
	"time"

	"healthsched/internal/domain/timeutil"
)

// VaccinationStatus is the display state derived from the expiration date.
type VaccinationStatus string

const (
	VaccinationValid        VaccinationStatus = "VALID"
	VaccinationExpiringSoon VaccinationStatus = "EXPIRING_SOON"
	VaccinationExpired      VaccinationStatus = "EXPIRED"
	VaccinationNoExpiry     VaccinationStatus = "NO_EXPIRY"
)

// Vaccination records an administered vaccine. ExpiresAt is nil for
// vaccinations that never expire; those yield no alerts.
type Vaccination struct {
	ID             string
	Name           string
	AdministeredAt time.Time
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Status classifies the vaccination relative to now. expiringWithinDays is
// the window (in days) considered "expiring soon"; the UI uses the largest
// configured warning threshold for it.
func (v *Vaccination) Status(now time.Time, expiringWithinDays int) VaccinationStatus {
	if v.ExpiresAt == nil {
		return VaccinationNoExpiry
	}
	if timeutil.IsPast(*v.ExpiresAt, now) {
		return VaccinationExpired
	}
	if timeutil.DaysUntil(*v.ExpiresAt, now) <= expiringWithinDays {
		return VaccinationExpiringSoon
	}
	return VaccinationValid
}
