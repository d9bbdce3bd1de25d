package healthrecord

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/health-record-sharing/internal/directory"
)

func newTestService(f fixture) *Service {
	svc := NewService(f.repo, f.docs, f.appts, zerolog.Nop())
	svc.SetClock(func() time.Time { return time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC) })
	return svc
}

func basicInput() RecordInput {
	return RecordInput{Demographics: Demographics{BloodGroup: BloodOPos}}
}

func TestCreateRecordThenGet(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	patient := uuid.New()

	rec, err := svc.CreateRecord(ctx, patient, basicInput())
	require.NoError(t, err)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	view, err := svc.GetRecord(ctx, patient)
	require.NoError(t, err)
	assert.Equal(t, BloodOPos, view.Demographics.BloodGroup)
	assert.Empty(t, view.DoctorVisits)
	assert.NotNil(t, view.DoctorVisits)
	assert.False(t, view.HasVisits)
	assert.False(t, view.HasNotes)
}

func TestCreateRecordRejectsDuplicate(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	patient := uuid.New()

	_, err := svc.CreateRecord(ctx, patient, RecordInput{
		Demographics: Demographics{BloodGroup: BloodAPos, Occupation: "nurse"},
		Allergies:    []string{"penicillin"},
	})
	require.NoError(t, err)

	_, err = svc.CreateRecord(ctx, patient, RecordInput{
		Demographics: Demographics{BloodGroup: BloodBNeg},
	})
	assert.ErrorIs(t, err, ErrRecordExists)

	stored, err := f.repo.GetByPatient(ctx, patient)
	require.NoError(t, err)
	assert.Equal(t, BloodAPos, stored.Demographics.BloodGroup)
	assert.Equal(t, "nurse", stored.Demographics.Occupation)
	assert.Equal(t, []string{"penicillin"}, stored.Allergies)
}

func TestCreateRecordValidation(t *testing.T) {
	svc := newTestService(newFixture())

	tests := []struct {
		name string
		in   RecordInput
	}{
		{"missing blood group", RecordInput{}},
		{"unknown blood group", RecordInput{Demographics: Demographics{BloodGroup: "C+"}}},
		{"unknown marital status", RecordInput{Demographics: Demographics{BloodGroup: BloodOPos, MaritalStatus: "Engaged"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRecord(context.Background(), uuid.New(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateRecordNormalizesInput(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	patient := uuid.New()

	rec, err := svc.CreateRecord(context.Background(), patient, RecordInput{
		Demographics: Demographics{BloodGroup: " ab+ "},
		Allergies:    []string{" dust ", "", "  "},
	})
	require.NoError(t, err)
	assert.Equal(t, BloodABPos, rec.Demographics.BloodGroup)
	assert.Equal(t, []string{"dust"}, rec.Allergies)
}

func TestUpdateRecordBeforeCreateFails(t *testing.T) {
	svc := newTestService(newFixture())

	err := svc.UpdateRecord(context.Background(), uuid.New(), basicInput())
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestUpdateRecordKeepsVisitsAndNotes(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	patient := uuid.New()
	doc := f.docs.add("Dr. Rao", "Cardiology")
	appt := f.appts.add(patient, doc.ID)

	_, err := svc.CreateRecord(ctx, patient, basicInput())
	require.NoError(t, err)
	_, err = svc.AddVisit(ctx, doc.ID, VisitInput{AppointmentID: appt.ID, Diagnosis: "flu"})
	require.NoError(t, err)
	_, err = svc.AddNote(ctx, doc.ID, patient, "follow up in two weeks")
	require.NoError(t, err)

	later := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return later })
	err = svc.UpdateRecord(ctx, patient, RecordInput{
		Demographics:     Demographics{BloodGroup: BloodONeg, MaritalStatus: MaritalMarried},
		EmergencyContact: EmergencyContact{Name: "Asha", Phone: "555-0100", Relationship: "sister"},
	})
	require.NoError(t, err)

	stored, err := f.repo.GetByPatient(ctx, patient)
	require.NoError(t, err)
	assert.Equal(t, BloodONeg, stored.Demographics.BloodGroup)
	assert.Equal(t, "Asha", stored.EmergencyContact.Name)
	assert.Len(t, stored.DoctorVisits, 1)
	assert.Len(t, stored.Notes, 1)
	assert.Equal(t, later, stored.UpdatedAt)
}

func TestAddVisitMarksAppointmentCompleted(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	patient := uuid.New()
	doc := f.docs.add("Dr. Mehta", "General Practice")
	appt := f.appts.add(patient, doc.ID)

	_, err := svc.CreateRecord(ctx, patient, basicInput())
	require.NoError(t, err)

	visit, err := svc.AddVisit(ctx, doc.ID, VisitInput{
		AppointmentID: appt.ID,
		Diagnosis:     "flu",
		Prescriptions: []Prescription{{Medication: "X"}},
		Remarks:       "rest",
		Reports:       []Report{},
	})
	require.NoError(t, err)
	assert.Equal(t, doc.ID, visit.DoctorID)

	got, err := f.appts.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	view, err := svc.GetRecord(ctx, patient)
	require.NoError(t, err)
	require.Len(t, view.DoctorVisits, 1)
	assert.True(t, view.HasVisits)
	assert.Equal(t, "Dr. Mehta", view.DoctorVisits[0].Doctor.Name)
	assert.Equal(t, "General Practice", view.DoctorVisits[0].Doctor.Speciality)
	assert.Equal(t, "12_3_2025", view.DoctorVisits[0].Appointment.SlotDate)
	assert.Equal(t, "X", view.DoctorVisits[0].Prescriptions[0].Medication)
}

func TestAddVisitByOtherDoctorIsRejected(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	patient := uuid.New()
	assigned := f.docs.add("Dr. Assigned", "ENT")
	other := f.docs.add("Dr. Other", "ENT")
	appt := f.appts.add(patient, assigned.ID)

	_, err := svc.CreateRecord(ctx, patient, basicInput())
	require.NoError(t, err)

	_, err = svc.AddVisit(ctx, other.ID, VisitInput{AppointmentID: appt.ID, Diagnosis: "otitis"})
	assert.ErrorIs(t, err, ErrNotAssignedDoctor)

	got, err := f.appts.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)

	stored, err := f.repo.GetByPatient(ctx, patient)
	require.NoError(t, err)
	assert.Empty(t, stored.DoctorVisits)
}

func TestAddVisitMissingReferences(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	patient := uuid.New()
	doc := f.docs.add("Dr. Kim", "Neurology")
	appt := f.appts.add(patient, doc.ID)

	_, err := svc.AddVisit(ctx, doc.ID, VisitInput{AppointmentID: uuid.New()})
	assert.ErrorIs(t, err, directory.ErrAppointmentNotFound)

	_, err = svc.AddVisit(ctx, uuid.New(), VisitInput{AppointmentID: appt.ID})
	assert.ErrorIs(t, err, directory.ErrDoctorNotFound)

	_, err = svc.AddVisit(ctx, doc.ID, VisitInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// no record yet: nothing is written
	_, err = svc.AddVisit(ctx, doc.ID, VisitInput{AppointmentID: appt.ID})
	assert.ErrorIs(t, err, ErrRecordNotFound)
	got, err := f.appts.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)
}

func TestAddVisitDefaultsReportUploadTime(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	patient := uuid.New()
	doc := f.docs.add("Dr. Ito", "Dermatology")
	appt := f.appts.add(patient, doc.ID)
	_, err := svc.CreateRecord(ctx, patient, basicInput())
	require.NoError(t, err)

	visit, err := svc.AddVisit(ctx, doc.ID, VisitInput{
		AppointmentID: appt.ID,
		Reports:       []Report{{Title: "biopsy", URL: "https://files.test/b.pdf"}},
	})
	require.NoError(t, err)
	require.Len(t, visit.Reports, 1)
	assert.Equal(t, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), visit.Reports[0].UploadedAt)
	assert.NotNil(t, visit.Prescriptions)
}

func TestAddNote(t *testing.T) {
	f := newFixture()
	svc := newTestService(f)
	ctx := context.Background()
	patient := uuid.New()
	doc := f.docs.add("Dr. Osei", "Pediatrics")

	_, err := svc.AddNote(ctx, doc.ID, patient, "hello")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = svc.CreateRecord(ctx, patient, basicInput())
	require.NoError(t, err)

	_, err = svc.AddNote(ctx, doc.ID, patient, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddNote(ctx, uuid.New(), patient, "ghost")
	assert.ErrorIs(t, err, directory.ErrDoctorNotFound)

	note, err := svc.AddNote(ctx, doc.ID, patient, " keep hydrated ")
	require.NoError(t, err)
	assert.Equal(t, "keep hydrated", note.Note)

	view, err := svc.GetRecord(ctx, patient)
	require.NoError(t, err)
	require.Len(t, view.Notes, 1)
	assert.True(t, view.HasNotes)
	assert.Equal(t, "Dr. Osei", view.Notes[0].CreatedBy.Name)
}

func TestGetRecordWrapsUnexpectedErrors(t *testing.T) {
	f := newFixture()
	f.repo.failGet = errStoreDown
	svc := newTestService(f)

	_, err := svc.GetRecord(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrRecordNotFound)
}
