package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"healthsched/internal/domain/alert"
	"healthsched/internal/domain/record"
)

// memStore is a stateful record.Repository used by the service tests.
type memStore struct {
	fakeRecordStore
	medsByID map[string]*record.Medication
}

func newMemStore() *memStore {
	return &memStore{medsByID: make(map[string]*record.Medication)}
}

func (s *memStore) CreateMedication(ctx context.Context, m *record.Medication) error {
	cp := *m
	s.medsByID[m.ID] = &cp
	return nil
}

func (s *memStore) UpdateMedication(ctx context.Context, m *record.Medication) error {
	cp := *m
	s.medsByID[m.ID] = &cp
	return nil
}

func (s *memStore) GetMedicationByID(ctx context.Context, id string) (*record.Medication, error) {
	if m, ok := s.medsByID[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, errors.New("medication not found")
}

func (s *memStore) AppendDose(ctx context.Context, medicationID string, dose record.DoseEntry) error {
	m := s.medsByID[medicationID]
	m.DoseLog = append(m.DoseLog, dose)
	return nil
}

func TestSaveReminderSurvivesSchedulingFailure(t *testing.T) {
	gw := newFakeGateway(now)
	gw.denied = true
	store := newMemStore()
	svc := NewRecordService(store, newTestCoordinator(gw, store), alert.DefaultSettings(), quietLogger())

	r, err := svc.SaveReminder(context.Background(), &record.Reminder{Title: "vet", FireAt: time.Now().Add(time.Hour), Enabled: true})
	if err != nil {
		t.Fatalf("record mutation must not fail on scheduling errors: %v", err)
	}
	if r.ID == "" {
		t.Error("SaveReminder should mint an id for new records")
	}
}

func TestSaveReminderValidates(t *testing.T) {
	store := newMemStore()
	svc := NewRecordService(store, newTestCoordinator(newFakeGateway(now), store), alert.DefaultSettings(), quietLogger())
	if _, err := svc.SaveReminder(context.Background(), &record.Reminder{FireAt: time.Now().Add(time.Hour)}); err != ErrEmptyTitle {
		t.Errorf("want ErrEmptyTitle, got %v", err)
	}
}

func TestLogDoseDecrementsPillsAndReschedules(t *testing.T) {
	gw := newFakeGateway(now)
	store := newMemStore()
	svc := NewRecordService(store, newTestCoordinator(gw, store), alert.DefaultSettings(), quietLogger())

	pills := 6
	threshold := 5
	takenAt := time.Now().Add(-time.Minute)
	m := &record.Medication{
		Name: "Apoquel", Dosage: "16mg", Frequency: record.FrequencyOnceDaily,
		StartsAt: takenAt.Add(-72 * time.Hour), IsOngoing: true,
		PillsRemaining: &pills, RefillReminderAt: &threshold,
	}
	if _, err := svc.SaveMedication(context.Background(), m); err != nil {
		t.Fatalf("SaveMedication: %v", err)
	}

	got, err := svc.LogDose(context.Background(), m.ID, takenAt, false)
	if err != nil {
		t.Fatalf("LogDose: %v", err)
	}
	if got.PillsRemaining == nil || *got.PillsRemaining != 5 {
		t.Errorf("pill count = %v, want 5", got.PillsRemaining)
	}
	if len(got.DoseLog) != 1 || !got.DoseLog[0].TakenAt.Equal(takenAt) {
		t.Errorf("dose log = %v", got.DoseLog)
	}

	// Crossing the threshold by taking a dose raises the refill alert and
	// moves the dose alert to the new log tail.
	doseKey := alert.KeyFor(alert.KindMedication, m.ID, alert.RoleDose)
	refillKey := alert.KeyFor(alert.KindMedication, m.ID, alert.RoleRefill)
	if a, ok := gw.alerts[doseKey]; !ok || !a.FireAt.Equal(takenAt.Add(24*time.Hour)) {
		t.Errorf("dose alert not anchored on the logged dose: %+v", a)
	}
	if _, ok := gw.alerts[refillKey]; !ok {
		t.Error("refill alert should fire once the count reaches the threshold")
	}
}

func TestLogDoseSkippedKeepsInventory(t *testing.T) {
	gw := newFakeGateway(now)
	store := newMemStore()
	svc := NewRecordService(store, newTestCoordinator(gw, store), alert.DefaultSettings(), quietLogger())

	pills := 6
	m := &record.Medication{
		Name: "Apoquel", Dosage: "16mg", Frequency: record.FrequencyOnceDaily,
		StartsAt: time.Now().Add(-72 * time.Hour), IsOngoing: true,
		PillsRemaining: &pills,
	}
	if _, err := svc.SaveMedication(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	got, err := svc.LogDose(context.Background(), m.ID, time.Now(), true)
	if err != nil {
		t.Fatalf("LogDose: %v", err)
	}
	if *got.PillsRemaining != 6 {
		t.Errorf("skipped dose must not consume a pill, count = %d", *got.PillsRemaining)
	}
}
