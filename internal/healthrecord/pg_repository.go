package healthrecord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/health-record-sharing/internal/db"
	"github.com/hackgods/health-record-sharing/internal/directory"
)

const patientUniqueConstraint = "health_records_patient_id_key"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const recordColumns = `id, patient_id, demographics, allergies, insurance, emergency_contact,
	doctor_visits, notes, created_at, updated_at`

func scanRecord(row pgx.Row) (*HealthRecord, error) {
	var (
		rec                                   HealthRecord
		demo, allergies, ins, contact, visits []byte
		notes                                 []byte
	)

	err := row.Scan(
		&rec.ID,
		&rec.PatientID,
		&demo,
		&allergies,
		&ins,
		&contact,
		&visits,
		&notes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	fields := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"demographics", demo, &rec.Demographics},
		{"allergies", allergies, &rec.Allergies},
		{"insurance", ins, &rec.Insurance},
		{"emergency_contact", contact, &rec.EmergencyContact},
		{"doctor_visits", visits, &rec.DoctorVisits},
		{"notes", notes, &rec.Notes},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}

	return &rec, nil
}

func marshalDetails(in RecordInput) (demo, allergies, ins, contact []byte, err error) {
	if demo, err = json.Marshal(in.Demographics); err != nil {
		return
	}
	list := in.Allergies
	if list == nil {
		list = []string{}
	}
	if allergies, err = json.Marshal(list); err != nil {
		return
	}
	if ins, err = json.Marshal(in.Insurance); err != nil {
		return
	}
	contact, err = json.Marshal(in.EmergencyContact)
	return
}

func (r *PgRepository) Create(ctx context.Context, rec *HealthRecord) error {
	demo, allergies, ins, contact, err := marshalDetails(RecordInput{
		Demographics:     rec.Demographics,
		Allergies:        rec.Allergies,
		Insurance:        rec.Insurance,
		EmergencyContact: rec.EmergencyContact,
	})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO health_records (id, patient_id, demographics, allergies, insurance, emergency_contact,
		                            doctor_visits, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, '[]'::jsonb, '[]'::jsonb, $7, $8)
	`, rec.ID, rec.PatientID, demo, allergies, ins, contact, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, patientUniqueConstraint) {
			return ErrRecordExists
		}
		return fmt.Errorf("insert health record: %w", err)
	}

	return nil
}

func (r *PgRepository) GetByPatient(ctx context.Context, patientID uuid.UUID) (*HealthRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM health_records
		WHERE patient_id = $1
	`, patientID)
	return scanRecord(row)
}

func (r *PgRepository) UpdateDetails(ctx context.Context, patientID uuid.UUID, in RecordInput, now time.Time) error {
	demo, allergies, ins, contact, err := marshalDetails(in)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE health_records
		SET demographics = $2,
		    allergies = $3,
		    insurance = $4,
		    emergency_contact = $5,
		    updated_at = $6
		WHERE patient_id = $1
	`, patientID, demo, allergies, ins, contact, now)
	if err != nil {
		return fmt.Errorf("update health record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// AppendVisit marks the appointment completed and appends the visit in one
// transaction. The completion write goes first; it is idempotent.
func (r *PgRepository) AppendVisit(ctx context.Context, patientID uuid.UUID, v DoctorVisit, now time.Time) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode visit: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := directory.MarkAppointmentCompleted(ctx, tx, v.AppointmentID); err != nil {
		return err
	}

	if err := appendItem(ctx, tx, "doctor_visits", patientID, payload, now); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit visit: %w", err)
	}
	return nil
}

func (r *PgRepository) AppendNote(ctx context.Context, patientID uuid.UUID, n Note, now time.Time) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode note: %w", err)
	}
	return appendItem(ctx, r.pool, "notes", patientID, payload, now)
}

// appendItem pushes one JSON element onto an embedded array column. column is
// always a constant from this file.
func appendItem(ctx context.Context, q db.DBTX, column string, patientID uuid.UUID, item []byte, now time.Time) error {
	tag, err := q.Exec(ctx, `
		UPDATE health_records
		SET `+column+` = `+column+` || jsonb_build_array($2::jsonb),
		    updated_at = $3
		WHERE patient_id = $1
	`, patientID, item, now)
	if err != nil {
		return fmt.Errorf("append %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
