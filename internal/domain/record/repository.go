// internal/domain/record/repository.go
package record

import "context"

// Repository defines the operations the external record store exposes to
// this application. The scheduling core only reads records through it; the
// mutation methods back the record service's CRUD surface.
type Repository interface {
	// Reminder methods
	CreateReminder(ctx context.Context, r *Reminder) error
	UpdateReminder(ctx context.Context, r *Reminder) error
	GetReminderByID(ctx context.Context, id string) (*Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
	ListReminders(ctx context.Context) ([]*Reminder, error)

	// Vaccination methods
	CreateVaccination(ctx context.Context, v *Vaccination) error
	UpdateVaccination(ctx context.Context, v *Vaccination) error
	GetVaccinationByID(ctx context.Context, id string) (*Vaccination, error)
	DeleteVaccination(ctx context.Context, id string) error
	ListVaccinations(ctx context.Context) ([]*Vaccination, error)

	// Medication methods. Get/List load the dose log ordered by TakenAt.
	CreateMedication(ctx context.Context, m *Medication) error
	UpdateMedication(ctx context.Context, m *Medication) error
	GetMedicationByID(ctx context.Context, id string) (*Medication, error)
	DeleteMedication(ctx context.Context, id string) error
	ListMedications(ctx context.Context) ([]*Medication, error)
	AppendDose(ctx context.Context, medicationID string, dose DoseEntry) error
}
