package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/health-record-sharing/internal/db"
	"github.com/hackgods/health-record-sharing/internal/directory"
	"github.com/hackgods/health-record-sharing/internal/healthrecord"
	"github.com/hackgods/health-record-sharing/internal/logger"
)

var specialities = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var diagnoses = []string{
	"Seasonal influenza",
	"Hypertension, stage 1",
	"Type 2 diabetes follow-up",
	"Migraine without aura",
	"Acute bronchitis",
	"Lower back strain",
	"Allergic rhinitis",
	"Iron deficiency anaemia",
}

var medications = []string{"Paracetamol", "Ibuprofen", "Amoxicillin", "Metformin", "Lisinopril", "Cetirizine"}

var allergens = []string{"Penicillin", "Peanuts", "Latex", "Dust mites", "Shellfish", "Pollen"}

var notes = []string{
	"Follow up in two weeks.",
	"Patient reports improvement since last visit.",
	"Advised lifestyle changes and regular exercise.",
	"Blood work ordered, review at next appointment.",
}

var bloodGroups = []healthrecord.BloodGroup{
	healthrecord.BloodAPos, healthrecord.BloodANeg, healthrecord.BloodBPos, healthrecord.BloodBNeg,
	healthrecord.BloodABPos, healthrecord.BloodABNeg, healthrecord.BloodOPos, healthrecord.BloodONeg,
}

var maritalStatuses = []healthrecord.MaritalStatus{
	healthrecord.MaritalSingle, healthrecord.MaritalMarried, healthrecord.MaritalWidowed, healthrecord.MaritalDivorced,
}

type seeded struct {
	doctors  []uuid.UUID
	patients []uuid.UUID
}

func main() {
	doctors := flag.Int("doctors", 50, "number of doctors to create")
	patients := flag.Int("patients", 500, "number of patients to create")
	visits := flag.Int("visits", 3, "max completed appointments with visits per patient")
	flag.Parse()

	lg := logger.Init(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "console"))
	lg.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		lg.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		lg.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if _, err := db.Migrate(context.Background(), pool); err != nil {
		lg.Fatal().Err(err).Msg("migrate")
	}

	gofakeit.Seed(time.Now().UnixNano())

	var s seeded
	if s.doctors, err = seedDoctors(context.Background(), lg, pool, *doctors); err != nil {
		lg.Fatal().Err(err).Msg("seed doctors")
	}
	if s.patients, err = seedPatients(context.Background(), lg, pool, *patients); err != nil {
		lg.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedRecords(context.Background(), lg, pool, s, *visits); err != nil {
		lg.Fatal().Err(err).Msg("seed records")
	}

	lg.Info().Msg("seed complete")
}

func seedDoctors(ctx context.Context, lg zerolog.Logger, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	lg.Info().Int("count", count).Msg("seeding doctors")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		speciality := specialities[gofakeit.Number(0, len(specialities)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, email, speciality, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, name, gofakeit.Email(), speciality)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	lg.Info().Msg("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, lg zerolog.Logger, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	lg.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500
	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			dob := gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
			).Format("2006-01-02")

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, gender, dob, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, now(), now())
			`, id, gofakeit.Name(), gofakeit.Email(), gofakeit.RandomString([]string{"Male", "Female"}), dob)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		lg.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}

	return ids, nil
}

// seedRecords goes through the record service so every visit also completes
// its appointment, the same way the API does.
func seedRecords(ctx context.Context, lg zerolog.Logger, pool *pgxpool.Pool, s seeded, maxVisits int) error {
	if len(s.doctors) == 0 {
		return nil
	}
	lg.Info().Int("patients", len(s.patients)).Msg("seeding health records")

	dir := directory.NewPgRepository(pool)
	svc := healthrecord.NewService(healthrecord.NewPgRepository(pool), dir, dir, zerolog.Nop())

	for i, patientID := range s.patients {
		// leave some patients without a record
		if gofakeit.Number(1, 10) == 1 {
			continue
		}

		in := healthrecord.RecordInput{
			Demographics: healthrecord.Demographics{
				BloodGroup:    bloodGroups[gofakeit.Number(0, len(bloodGroups)-1)],
				MaritalStatus: maritalStatuses[gofakeit.Number(0, len(maritalStatuses)-1)],
				Occupation:    gofakeit.JobTitle(),
			},
			Allergies: pick(allergens, gofakeit.Number(0, 2)),
			Insurance: healthrecord.Insurance{
				Provider:     gofakeit.Company(),
				PolicyNumber: fmt.Sprintf("POL-%08d", gofakeit.Number(0, 99999999)),
				ValidUntil:   healthrecord.DateOf(gofakeit.DateRange(time.Now(), time.Now().AddDate(3, 0, 0))),
			},
			EmergencyContact: healthrecord.EmergencyContact{
				Name:         gofakeit.Name(),
				Phone:        gofakeit.Phone(),
				Relationship: gofakeit.RandomString([]string{"Spouse", "Parent", "Sibling", "Friend"}),
			},
		}
		if _, err := svc.CreateRecord(ctx, patientID, in); err != nil {
			return fmt.Errorf("create record for %s: %w", patientID, err)
		}

		n := gofakeit.Number(0, maxVisits)
		for v := 0; v < n; v++ {
			doctorID := s.doctors[gofakeit.Number(0, len(s.doctors)-1)]
			apptID, err := insertAppointment(ctx, pool, patientID, doctorID)
			if err != nil {
				return err
			}

			_, err = svc.AddVisit(ctx, doctorID, healthrecord.VisitInput{
				AppointmentID: apptID,
				Diagnosis:     diagnoses[gofakeit.Number(0, len(diagnoses)-1)],
				Prescriptions: []healthrecord.Prescription{{
					Medication: medications[gofakeit.Number(0, len(medications)-1)],
					Dosage:     fmt.Sprintf("%dmg", gofakeit.Number(1, 10)*50),
					Frequency:  gofakeit.RandomString([]string{"once daily", "twice daily", "as needed"}),
					Duration:   fmt.Sprintf("%d days", gofakeit.Number(3, 14)),
				}},
				Remarks: gofakeit.RandomString([]string{"", "Rest and fluids.", "Return if symptoms persist."}),
			})
			if err != nil {
				return fmt.Errorf("add visit for %s: %w", patientID, err)
			}

			if gofakeit.Bool() {
				if _, err := svc.AddNote(ctx, doctorID, patientID, notes[gofakeit.Number(0, len(notes)-1)]); err != nil {
					return fmt.Errorf("add note for %s: %w", patientID, err)
				}
			}
		}

		// an upcoming appointment so the simulator has something open
		if _, err := insertAppointment(ctx, pool, patientID, s.doctors[gofakeit.Number(0, len(s.doctors)-1)]); err != nil {
			return err
		}

		if (i+1)%100 == 0 {
			lg.Info().Int("done", i+1).Int("total", len(s.patients)).Msg("records seeded")
		}
	}

	lg.Info().Msg("health records seeded")
	return nil
}

func insertAppointment(ctx context.Context, pool *pgxpool.Pool, patientID, doctorID uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	day := time.Now().AddDate(0, 0, gofakeit.Number(-90, 30))
	slotDate := fmt.Sprintf("%d_%d_%d", day.Day(), int(day.Month()), day.Year())
	slotTime := fmt.Sprintf("%02d:%s %s", gofakeit.Number(9, 11), gofakeit.RandomString([]string{"00", "30"}), "AM")

	_, err := pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, slot_date, slot_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`, id, patientID, doctorID, slotDate, slotTime)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert appointment: %w", err)
	}
	return id, nil
}

// pick returns up to n distinct entries of from.
func pick(from []string, n int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := from[gofakeit.Number(0, len(from)-1)]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
