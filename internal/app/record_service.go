// internal/app/record_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"healthsched/internal/domain/alert"
	"healthsched/internal/domain/record"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Custom application-level errors for record mutations
var ErrEmptyTitle = fmt.Errorf("reminder title must not be empty")
var ErrEmptyName = fmt.Errorf("name must not be empty")

// RecordService is the mutation entry point for the tracked records. Every
// mutation persists the record first and then hands it to the scheduling
// coordinator. Persistence failures fail the call; scheduling failures are
// reported as a warning and never block the record mutation itself.
type RecordService struct {
	records     record.Repository
	coordinator *SchedulingCoordinator
	settings    alert.Settings
	logger      *logrus.Logger
}

func NewRecordService(records record.Repository, coordinator *SchedulingCoordinator, settings alert.Settings, logger *logrus.Logger) *RecordService {
	return &RecordService{
		records:     records,
		coordinator: coordinator,
		settings:    settings,
		logger:      logger,
	}
}

// SaveReminder creates or updates a reminder and reconciles its alert.
func (s *RecordService) SaveReminder(ctx context.Context, r *record.Reminder) (*record.Reminder, error) {
	if r.Title == "" {
		return nil, ErrEmptyTitle
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
		if err := s.records.CreateReminder(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to create reminder: %w", err)
		}
	} else {
		if err := s.records.UpdateReminder(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to update reminder: %w", err)
		}
	}
	s.warnOnScheduleError(s.coordinator.OnUpsertReminder(r, s.settings, time.Now()), "reminder", r.ID)
	return r, nil
}

// ToggleReminder flips a reminder's enabled flag and reconciles its alert:
// disabling cancels, re-enabling reschedules when still in the future.
func (s *RecordService) ToggleReminder(ctx context.Context, reminderID string, enabled bool) (*record.Reminder, error) {
	r, err := s.records.GetReminderByID(ctx, reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %s: %w", reminderID, err)
	}
	if r.Enabled == enabled {
		return r, nil
	}
	r.Enabled = enabled
	if err := s.records.UpdateReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update reminder %s: %w", reminderID, err)
	}
	s.warnOnScheduleError(s.coordinator.OnToggleEnabled(r, s.settings, time.Now()), "reminder", r.ID)
	return r, nil
}

// DeleteReminder removes a reminder and cancels its alerts.
func (s *RecordService) DeleteReminder(ctx context.Context, reminderID string) error {
	if err := s.records.DeleteReminder(ctx, reminderID); err != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", reminderID, err)
	}
	s.warnOnScheduleError(s.coordinator.OnDelete(alert.KindReminder, reminderID), "reminder", reminderID)
	return nil
}

// SaveVaccination creates or updates a vaccination and reconciles its
// warning alerts.
func (s *RecordService) SaveVaccination(ctx context.Context, v *record.Vaccination) (*record.Vaccination, error) {
	if v.Name == "" {
		return nil, ErrEmptyName
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
		if err := s.records.CreateVaccination(ctx, v); err != nil {
			return nil, fmt.Errorf("failed to create vaccination: %w", err)
		}
	} else {
		if err := s.records.UpdateVaccination(ctx, v); err != nil {
			return nil, fmt.Errorf("failed to update vaccination: %w", err)
		}
	}
	s.warnOnScheduleError(s.coordinator.OnUpsertVaccination(v, s.settings, time.Now()), "vaccination", v.ID)
	return v, nil
}

// DeleteVaccination removes a vaccination and cancels its alerts.
func (s *RecordService) DeleteVaccination(ctx context.Context, vaccinationID string) error {
	if err := s.records.DeleteVaccination(ctx, vaccinationID); err != nil {
		return fmt.Errorf("failed to delete vaccination %s: %w", vaccinationID, err)
	}
	s.warnOnScheduleError(s.coordinator.OnDelete(alert.KindVaccination, vaccinationID), "vaccination", vaccinationID)
	return nil
}

// SaveMedication creates or updates a medication and reconciles its dose
// and refill alerts.
func (s *RecordService) SaveMedication(ctx context.Context, m *record.Medication) (*record.Medication, error) {
	if m.Name == "" {
		return nil, ErrEmptyName
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
		if err := s.records.CreateMedication(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to create medication: %w", err)
		}
	} else {
		if err := s.records.UpdateMedication(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to update medication: %w", err)
		}
	}
	s.warnOnScheduleError(s.coordinator.OnUpsertMedication(m, s.settings, time.Now()), "medication", m.ID)
	return m, nil
}

// LogDose appends a dose-log entry, decrements the pill inventory for a
// taken (non-skipped) dose, and reconciles the medication's alerts so the
// next dose is scheduled off the new log tail.
func (s *RecordService) LogDose(ctx context.Context, medicationID string, takenAt time.Time, skipped bool) (*record.Medication, error) {
	m, err := s.records.GetMedicationByID(ctx, medicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get medication %s: %w", medicationID, err)
	}

	dose := record.DoseEntry{TakenAt: takenAt, Skipped: skipped}
	if err := s.records.AppendDose(ctx, medicationID, dose); err != nil {
		return nil, fmt.Errorf("failed to append dose for medication %s: %w", medicationID, err)
	}
	m.DoseLog = append(m.DoseLog, dose)

	if !skipped && m.PillsRemaining != nil && *m.PillsRemaining > 0 {
		remaining := *m.PillsRemaining - 1
		m.PillsRemaining = &remaining
		if err := s.records.UpdateMedication(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to update pill count for medication %s: %w", medicationID, err)
		}
	}

	s.warnOnScheduleError(s.coordinator.OnUpsertMedication(m, s.settings, time.Now()), "medication", m.ID)
	return m, nil
}

// DeleteMedication removes a medication and cancels its alerts.
func (s *RecordService) DeleteMedication(ctx context.Context, medicationID string) error {
	if err := s.records.DeleteMedication(ctx, medicationID); err != nil {
		return fmt.Errorf("failed to delete medication %s: %w", medicationID, err)
	}
	s.warnOnScheduleError(s.coordinator.OnDelete(alert.KindMedication, medicationID), "medication", medicationID)
	return nil
}

func (s *RecordService) warnOnScheduleError(err error, kind, id string) {
	if err != nil {
		s.logger.Warnf("Record %s %s saved, but alert scheduling failed: %v", kind, id, err)
	}
}
