// internal/app/coordinator.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"healthsched/internal/domain/alert"
	"healthsched/internal/domain/gateway"
	"healthsched/internal/domain/record"

	"github.com/sirupsen/logrus"
)

// SchedulingCoordinator keeps the externally scheduled alerts convergent
// with what the alert policy currently derives from the records. Every call
// recomputes the desired set from the record passed in plus the gateway's
// live listing and applies the difference: stale keys are cancelled, new or
// moved alerts are (re)scheduled, matching ones are left untouched.
type SchedulingCoordinator struct {
	gw      gateway.Gateway
	records record.Repository
	logger  *logrus.Logger

	mu sync.Mutex
	// refillLatch remembers, per medication id, whether the refill
	// condition was true at the last convergence. The refill alert is
	// edge-triggered: it is scheduled on the condition's false-to-true
	// transition and re-armed only after the condition is observed false.
	refillLatch map[string]bool
}

func NewSchedulingCoordinator(gw gateway.Gateway, records record.Repository, logger *logrus.Logger) *SchedulingCoordinator {
	return &SchedulingCoordinator{
		gw:          gw,
		records:     records,
		logger:      logger,
		refillLatch: make(map[string]bool),
	}
}

// OnUpsertReminder reconciles the scheduled alerts of one reminder.
func (c *SchedulingCoordinator) OnUpsertReminder(r *record.Reminder, s alert.Settings, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.currentFor(alert.KindReminder, r.ID)
	if err != nil {
		return err
	}
	var desired []alert.Candidate
	if s.Enabled && s.ReminderNotifications {
		desired = alert.ForReminder(r, now)
	}
	return c.converge(alert.KindReminder, r.ID, current, desired, now)
}

// OnToggleEnabled re-reconciles a reminder after its enabled flag changed.
// Disabling collapses the desired set to empty, which cancels the alert.
func (c *SchedulingCoordinator) OnToggleEnabled(r *record.Reminder, s alert.Settings, now time.Time) error {
	return c.OnUpsertReminder(r, s, now)
}

// OnUpsertVaccination reconciles the scheduled alerts of one vaccination.
func (c *SchedulingCoordinator) OnUpsertVaccination(v *record.Vaccination, s alert.Settings, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.currentFor(alert.KindVaccination, v.ID)
	if err != nil {
		return err
	}
	var desired []alert.Candidate
	if s.Enabled && s.VaccinationWarnings {
		desired = alert.ForVaccination(v, s.WarningDays(), s.VaccinationExpiryAlert, now)
	}
	return c.converge(alert.KindVaccination, v.ID, current, desired, now)
}

// OnUpsertMedication reconciles the scheduled alerts of one medication:
// the timer-like dose alert plus the level-derived refill alert.
func (c *SchedulingCoordinator) OnUpsertMedication(m *record.Medication, s alert.Settings, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.currentFor(alert.KindMedication, m.ID)
	if err != nil {
		return err
	}

	var desired []alert.Candidate
	if s.Enabled && s.MedicationReminders {
		desired = append(desired, alert.ForMedicationDose(m, now)...)
	}
	if s.Enabled && s.RefillReminders {
		due := m.RefillDue()
		_, pending := current[alert.KeyFor(alert.KindMedication, m.ID, alert.RoleRefill)]
		// Schedule on the false-to-true edge; keep an already pending refill
		// alert alive while the condition still holds.
		if due && (!c.refillLatch[m.ID] || pending) {
			desired = append(desired, alert.ForMedicationRefill(m, now)...)
		}
		c.refillLatch[m.ID] = due
	} else {
		delete(c.refillLatch, m.ID)
	}
	return c.converge(alert.KindMedication, m.ID, current, desired, now)
}

// OnDelete cancels every alert belonging to the given record.
func (c *SchedulingCoordinator) OnDelete(kind alert.Kind, recordID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if kind == alert.KindMedication {
		delete(c.refillLatch, recordID)
	}
	prefix := alert.KeyPrefix(kind, recordID)
	if err := c.gw.CancelAllWithPrefix(prefix); err != nil {
		return fmt.Errorf("failed to cancel alerts with prefix %q: %w", prefix, err)
	}
	c.logger.Debugf("Cancelled all alerts for %s %s", kind, recordID)
	return nil
}

// ReconcileAll walks every record in the store and reconciles each one,
// then cancels every scheduled alert whose key no loaded record claims.
// It is run once at startup and periodically by the cron scheduler to heal
// drift from restarts or notification-store resets. Per-record failures are
// logged and do not stop the pass; the first error is returned at the end.
func (c *SchedulingCoordinator) ReconcileAll(ctx context.Context, s alert.Settings, now time.Time) error {
	var firstErr error
	keep := func(err error, kind alert.Kind, id string) {
		if err == nil {
			return
		}
		c.logger.Warnf("Reconciliation of %s %s failed: %v", kind, id, err)
		if firstErr == nil {
			firstErr = err
		}
	}

	reminders, err := c.records.ListReminders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reminders: %w", err)
	}
	for _, r := range reminders {
		keep(c.OnUpsertReminder(r, s, now), alert.KindReminder, r.ID)
	}

	vaccinations, err := c.records.ListVaccinations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list vaccinations: %w", err)
	}
	for _, v := range vaccinations {
		keep(c.OnUpsertVaccination(v, s, now), alert.KindVaccination, v.ID)
	}

	medications, err := c.records.ListMedications(ctx)
	if err != nil {
		return fmt.Errorf("failed to list medications: %w", err)
	}
	for _, m := range medications {
		keep(c.OnUpsertMedication(m, s, now), alert.KindMedication, m.ID)
	}

	known := make(map[string]bool, len(reminders)+len(vaccinations)+len(medications))
	for _, r := range reminders {
		known[alert.KeyPrefix(alert.KindReminder, r.ID)] = true
	}
	for _, v := range vaccinations {
		known[alert.KeyPrefix(alert.KindVaccination, v.ID)] = true
	}
	for _, m := range medications {
		known[alert.KeyPrefix(alert.KindMedication, m.ID)] = true
	}
	orphans, err := c.cancelOrphans(known)
	if err != nil {
		c.logger.Warnf("Orphaned-alert sweep failed: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	c.logger.Infof("Reconciliation pass complete: %d reminder(s), %d vaccination(s), %d medication(s), %d orphaned alert(s) cancelled",
		len(reminders), len(vaccinations), len(medications), orphans)
	return firstErr
}

// cancelOrphans removes every scheduled alert that no record in known
// claims. Such keys are left behind when a record deletion's cancellation
// failed transiently, or when the record store changed out of band.
func (c *SchedulingCoordinator) cancelOrphans(known map[string]bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	listed, err := c.gw.ListScheduled()
	if err != nil {
		return 0, fmt.Errorf("failed to list scheduled alerts: %w", err)
	}
	cancelled := 0
	for _, a := range listed {
		kind, recordID, _, ok := alert.ParseKey(a.Key)
		if ok && known[alert.KeyPrefix(kind, recordID)] {
			continue
		}
		if err := c.gw.Cancel(a.Key); err != nil {
			return cancelled, fmt.Errorf("failed to cancel orphaned alert %q: %w", a.Key, err)
		}
		if kind == alert.KindMedication {
			delete(c.refillLatch, recordID)
		}
		c.logger.Warnf("Cancelled orphaned alert %s, no record claims it", a.Key)
		cancelled++
	}
	return cancelled, nil
}

// currentFor reads the gateway's schedule restricted to one record's keys.
func (c *SchedulingCoordinator) currentFor(kind alert.Kind, recordID string) (map[string]gateway.ScheduledAlert, error) {
	listed, err := c.gw.ListScheduled()
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled alerts: %w", err)
	}
	prefix := alert.KeyPrefix(kind, recordID)
	current := make(map[string]gateway.ScheduledAlert)
	for _, a := range listed {
		if strings.HasPrefix(a.Key, prefix) {
			current[a.Key] = a
		}
	}
	return current, nil
}

// converge applies the diff between the gateway's current schedule for one
// record and the desired candidate set. Calls are sequential within the
// record so an alert and its replacement are never both present or both
// absent at once. A denied gateway completes the remaining diff bookkeeping
// and is surfaced once at the end; the next upsert or reconciliation pass
// retries naturally.
func (c *SchedulingCoordinator) converge(kind alert.Kind, recordID string, current map[string]gateway.ScheduledAlert, desired []alert.Candidate, now time.Time) error {
	desiredByKey := make(map[string]alert.Candidate, len(desired))
	for _, cand := range desired {
		desiredByKey[cand.Key()] = cand
	}

	for key := range current {
		if _, ok := desiredByKey[key]; ok {
			continue
		}
		if err := c.gw.Cancel(key); err != nil {
			return fmt.Errorf("failed to cancel stale alert %q: %w", key, err)
		}
		c.logger.Debugf("Cancelled stale alert %s", key)
	}

	denied := false
	for _, cand := range desired {
		key := cand.Key()
		if cur, ok := current[key]; ok {
			if cur.FireAt.Equal(cand.FireAt) {
				continue
			}
			// The refill alert is level-derived; its fire time drifts with
			// every recomputation and a pending one is left as is.
			if cand.Role == alert.RoleRefill {
				continue
			}
			if err := c.gw.Cancel(key); err != nil {
				return fmt.Errorf("failed to cancel alert %q before reschedule: %w", key, err)
			}
		}

		if !cand.FireAt.After(now) {
			// Policy functions already filter past instants; hitting this is
			// a logic error, not an expected runtime path.
			c.logger.Warnf("Dropping alert %s with non-future fire time %s", key, cand.FireAt)
			continue
		}
		err := c.gw.Schedule(key, cand.FireAt, gateway.Payload{Title: cand.Title, Body: cand.Body})
		switch {
		case err == nil:
			c.logger.Debugf("Scheduled alert %s at %s", key, cand.FireAt)
		case errors.Is(err, gateway.ErrSchedulingDenied):
			denied = true
			c.logger.Warnf("Notification permission missing, alert %s not scheduled", key)
		case errors.Is(err, gateway.ErrInvalidFireTime):
			c.logger.Warnf("Gateway rejected fire time for alert %s: %v", key, err)
		default:
			return fmt.Errorf("failed to schedule alert %q: %w", key, err)
		}
	}

	if denied {
		return fmt.Errorf("scheduling alerts for %s %s: %w", kind, recordID, gateway.ErrSchedulingDenied)
	}
	return nil
}
