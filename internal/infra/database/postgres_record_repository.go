// internal/infra/database/postgres_record_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"healthsched/internal/domain/record"
)

// Custom errors specific to the record repository
var ErrReminderNotFound = fmt.Errorf("reminder not found")
var ErrVaccinationNotFound = fmt.Errorf("vaccination not found")
var ErrMedicationNotFound = fmt.Errorf("medication not found")

// PostgresRecordRepository implements record.Repository on PostgreSQL.
type PostgresRecordRepository struct {
	db *sql.DB
}

func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

// --- Reminder methods ---

func (r *PostgresRecordRepository) CreateReminder(ctx context.Context, rec *record.Reminder) error {
	query := `INSERT INTO reminders (id, title, fire_at, enabled)
               VALUES ($1, $2, $3, $4)
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, rec.ID, rec.Title, rec.FireAt, rec.Enabled).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating reminder: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) UpdateReminder(ctx context.Context, rec *record.Reminder) error {
	query := `UPDATE reminders SET title = $2, fire_at = $3, enabled = $4, updated_at = NOW()
               WHERE id = $1
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, rec.ID, rec.Title, rec.FireAt, rec.Enabled).Scan(&rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrReminderNotFound
		}
		return fmt.Errorf("error updating reminder: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) GetReminderByID(ctx context.Context, id string) (*record.Reminder, error) {
	query := `SELECT id, title, fire_at, enabled, created_at, updated_at FROM reminders WHERE id = $1`
	rec := record.Reminder{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Title, &rec.FireAt, &rec.Enabled, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("error getting reminder by ID: %w", err)
	}
	return &rec, nil
}

func (r *PostgresRecordRepository) DeleteReminder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (r *PostgresRecordRepository) ListReminders(ctx context.Context) ([]*record.Reminder, error) {
	query := `SELECT id, title, fire_at, enabled, created_at, updated_at FROM reminders ORDER BY fire_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing reminders: %w", err)
	}
	defer rows.Close()

	var out []*record.Reminder
	for rows.Next() {
		rec := record.Reminder{}
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.FireAt, &rec.Enabled, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// --- Vaccination methods ---

func (r *PostgresRecordRepository) CreateVaccination(ctx context.Context, v *record.Vaccination) error {
	query := `INSERT INTO vaccinations (id, name, administered_at, expires_at)
               VALUES ($1, $2, $3, $4)
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, v.ID, v.Name, v.AdministeredAt, nullTime(v.ExpiresAt)).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating vaccination: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) UpdateVaccination(ctx context.Context, v *record.Vaccination) error {
	query := `UPDATE vaccinations SET name = $2, administered_at = $3, expires_at = $4, updated_at = NOW()
               WHERE id = $1
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, v.ID, v.Name, v.AdministeredAt, nullTime(v.ExpiresAt)).Scan(&v.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrVaccinationNotFound
		}
		return fmt.Errorf("error updating vaccination: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) GetVaccinationByID(ctx context.Context, id string) (*record.Vaccination, error) {
	query := `SELECT id, name, administered_at, expires_at, created_at, updated_at FROM vaccinations WHERE id = $1`
	v := record.Vaccination{}
	var expiresAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.Name, &v.AdministeredAt, &expiresAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrVaccinationNotFound
		}
		return nil, fmt.Errorf("error getting vaccination by ID: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		v.ExpiresAt = &t
	}
	return &v, nil
}

func (r *PostgresRecordRepository) DeleteVaccination(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaccinations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting vaccination: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVaccinationNotFound
	}
	return nil
}

func (r *PostgresRecordRepository) ListVaccinations(ctx context.Context) ([]*record.Vaccination, error) {
	query := `SELECT id, name, administered_at, expires_at, created_at, updated_at FROM vaccinations ORDER BY administered_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing vaccinations: %w", err)
	}
	defer rows.Close()

	var out []*record.Vaccination
	for rows.Next() {
		v := record.Vaccination{}
		var expiresAt sql.NullTime
		if err := rows.Scan(&v.ID, &v.Name, &v.AdministeredAt, &expiresAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning vaccination row: %w", err)
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			v.ExpiresAt = &t
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// --- Medication methods ---

func (r *PostgresRecordRepository) CreateMedication(ctx context.Context, m *record.Medication) error {
	query := `INSERT INTO medications (id, name, dosage, frequency, starts_at, ends_at, is_ongoing, pills_remaining, refill_reminder_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.Name, m.Dosage, m.Frequency, m.StartsAt, nullTime(m.EndsAt), m.IsOngoing,
		nullInt(m.PillsRemaining), nullInt(m.RefillReminderAt),
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating medication: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) UpdateMedication(ctx context.Context, m *record.Medication) error {
	query := `UPDATE medications SET name = $2, dosage = $3, frequency = $4, starts_at = $5, ends_at = $6,
                      is_ongoing = $7, pills_remaining = $8, refill_reminder_at = $9, updated_at = NOW()
               WHERE id = $1
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.Name, m.Dosage, m.Frequency, m.StartsAt, nullTime(m.EndsAt), m.IsOngoing,
		nullInt(m.PillsRemaining), nullInt(m.RefillReminderAt),
	).Scan(&m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrMedicationNotFound
		}
		return fmt.Errorf("error updating medication: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) GetMedicationByID(ctx context.Context, id string) (*record.Medication, error) {
	query := `SELECT id, name, dosage, frequency, starts_at, ends_at, is_ongoing, pills_remaining, refill_reminder_at, created_at, updated_at
               FROM medications WHERE id = $1`
	m, err := scanMedication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMedicationNotFound
		}
		return nil, fmt.Errorf("error getting medication by ID: %w", err)
	}
	if err := r.loadDoseLog(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresRecordRepository) DeleteMedication(ctx context.Context, id string) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for medication delete: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if _, err := txn.ExecContext(ctx, `DELETE FROM medication_doses WHERE medication_id = $1`, id); err != nil {
		return fmt.Errorf("error deleting medication doses: %w", err)
	}
	res, err := txn.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting medication: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMedicationNotFound
	}
	return txn.Commit()
}

func (r *PostgresRecordRepository) ListMedications(ctx context.Context) ([]*record.Medication, error) {
	query := `SELECT id, name, dosage, frequency, starts_at, ends_at, is_ongoing, pills_remaining, refill_reminder_at, created_at, updated_at
               FROM medications ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing medications: %w", err)
	}
	defer rows.Close()

	var out []*record.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning medication row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range out {
		if err := r.loadDoseLog(ctx, m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresRecordRepository) AppendDose(ctx context.Context, medicationID string, dose record.DoseEntry) error {
	query := `INSERT INTO medication_doses (medication_id, taken_at, skipped) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, medicationID, dose.TakenAt, dose.Skipped); err != nil {
		return fmt.Errorf("error appending dose: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) loadDoseLog(ctx context.Context, m *record.Medication) error {
	query := `SELECT taken_at, skipped FROM medication_doses WHERE medication_id = $1 ORDER BY taken_at`
	rows, err := r.db.QueryContext(ctx, query, m.ID)
	if err != nil {
		return fmt.Errorf("error loading dose log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d record.DoseEntry
		if err := rows.Scan(&d.TakenAt, &d.Skipped); err != nil {
			return fmt.Errorf("error scanning dose row: %w", err)
		}
		m.DoseLog = append(m.DoseLog, d)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (*record.Medication, error) {
	m := record.Medication{}
	var endsAt sql.NullTime
	var pills, refillAt sql.NullInt64
	err := row.Scan(&m.ID, &m.Name, &m.Dosage, &m.Frequency, &m.StartsAt, &endsAt, &m.IsOngoing,
		&pills, &refillAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endsAt.Valid {
		t := endsAt.Time
		m.EndsAt = &t
	}
	if pills.Valid {
		n := int(pills.Int64)
		m.PillsRemaining = &n
	}
	if refillAt.Valid {
		n := int(refillAt.Int64)
		m.RefillReminderAt = &n
	}
	return &m, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
