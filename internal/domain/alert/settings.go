// internal/domain/alert/settings.go
package alert

// Settings gates which alert families are scheduled at all. It is built
// once by the caller and passed explicitly into every coordinator call;
// there is no process-wide settings state.
type Settings struct {
	Enabled                bool  // master switch; false disables all scheduling
	ReminderNotifications  bool  // gates Reminder alerts
	VaccinationWarnings    bool  // gates Vaccination warning alerts
	VaccinationWarningDays []int // warning thresholds in days before expiry
	VaccinationExpiryAlert bool  // additionally alert on the expiration day itself
	MedicationReminders    bool  // gates dose alerts
	RefillReminders        bool  // gates refill alerts
}

// DefaultSettings enables every alert family with the standard 7-and-1-day
// vaccination warning thresholds and no expiry-day alert.
func DefaultSettings() Settings {
	return Settings{
		Enabled:                true,
		ReminderNotifications:  true,
		VaccinationWarnings:    true,
		VaccinationWarningDays: []int{7, 1},
		VaccinationExpiryAlert: false,
		MedicationReminders:    true,
		RefillReminders:        true,
	}
}

// WarningDays returns the configured vaccination thresholds, falling back
// to the defaults when the list is empty.
func (s Settings) WarningDays() []int {
	if len(s.VaccinationWarningDays) == 0 {
		return []int{7, 1}
	}
	return s.VaccinationWarningDays
}
