package healthrecord

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/health-record-sharing/internal/directory"
)

// Aggregator builds the read model of a record: every visit is joined to its
// doctor and appointment, every note to its author. Entries whose reference no
// longer resolves are left out of the view but stay in storage.
type Aggregator struct {
	records      Repository
	doctors      directory.Doctors
	appointments directory.Appointments
}

func NewAggregator(records Repository, doctors directory.Doctors, appointments directory.Appointments) *Aggregator {
	return &Aggregator{
		records:      records,
		doctors:      doctors,
		appointments: appointments,
	}
}

func (a *Aggregator) Aggregate(ctx context.Context, patientID uuid.UUID) (*RecordView, error) {
	rec, err := a.records.GetByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	doctorIDs := make([]uuid.UUID, 0, len(rec.DoctorVisits)+len(rec.Notes))
	apptIDs := make([]uuid.UUID, 0, len(rec.DoctorVisits))
	seenDoc := make(map[uuid.UUID]bool)
	for _, v := range rec.DoctorVisits {
		if !seenDoc[v.DoctorID] {
			seenDoc[v.DoctorID] = true
			doctorIDs = append(doctorIDs, v.DoctorID)
		}
		apptIDs = append(apptIDs, v.AppointmentID)
	}
	for _, n := range rec.Notes {
		if !seenDoc[n.CreatedBy] {
			seenDoc[n.CreatedBy] = true
			doctorIDs = append(doctorIDs, n.CreatedBy)
		}
	}

	doctors, err := a.doctors.DoctorsByIDs(ctx, doctorIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve doctors: %w", err)
	}
	appts, err := a.appointments.AppointmentsByIDs(ctx, apptIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve appointments: %w", err)
	}

	view := &RecordView{
		ID:               rec.ID,
		PatientID:        rec.PatientID,
		Demographics:     rec.Demographics,
		Allergies:        nonNil(rec.Allergies),
		Insurance:        rec.Insurance,
		EmergencyContact: rec.EmergencyContact,
		DoctorVisits:     make([]VisitView, 0, len(rec.DoctorVisits)),
		Notes:            make([]NoteView, 0, len(rec.Notes)),
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}

	for _, v := range rec.DoctorVisits {
		doc, okDoc := doctors[v.DoctorID]
		appt, okAppt := appts[v.AppointmentID]
		if !okDoc || !okAppt {
			continue
		}
		view.DoctorVisits = append(view.DoctorVisits, VisitView{
			ID:            v.ID,
			Appointment:   visitAppointment(appt),
			Doctor:        visitDoctor(doc),
			CreatedAt:     v.CreatedAt,
			Diagnosis:     v.Diagnosis,
			Prescriptions: nonNil(v.Prescriptions),
			Remarks:       v.Remarks,
			Reports:       nonNil(v.Reports),
		})
	}

	for _, n := range rec.Notes {
		doc, ok := doctors[n.CreatedBy]
		if !ok {
			continue
		}
		view.Notes = append(view.Notes, NoteView{
			ID:        n.ID,
			CreatedBy: noteAuthor(doc),
			Note:      n.Note,
			CreatedAt: n.CreatedAt,
		})
	}

	view.HasVisits = len(view.DoctorVisits) > 0
	view.HasNotes = len(view.Notes) > 0

	return view, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
