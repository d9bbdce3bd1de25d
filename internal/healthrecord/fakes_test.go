package healthrecord

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/health-record-sharing/internal/directory"
)

// In-memory fakes

type fakeRepo struct {
	mu      sync.Mutex
	data    map[uuid.UUID]*HealthRecord
	appts   *fakeAppointments
	failGet error
}

func newFakeRepo(appts *fakeAppointments) *fakeRepo {
	return &fakeRepo{data: make(map[uuid.UUID]*HealthRecord), appts: appts}
}

func (m *fakeRepo) Create(_ context.Context, rec *HealthRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[rec.PatientID]; ok {
		return ErrRecordExists
	}
	cp := *rec
	m.data[rec.PatientID] = &cp
	return nil
}

func (m *fakeRepo) GetByPatient(_ context.Context, patientID uuid.UUID) (*HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	rec, ok := m.data[patientID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *rec
	cp.DoctorVisits = append([]DoctorVisit(nil), rec.DoctorVisits...)
	cp.Notes = append([]Note(nil), rec.Notes...)
	return &cp, nil
}

func (m *fakeRepo) UpdateDetails(_ context.Context, patientID uuid.UUID, in RecordInput, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.data[patientID]
	if !ok {
		return ErrRecordNotFound
	}
	rec.Demographics = in.Demographics
	rec.Allergies = in.Allergies
	rec.Insurance = in.Insurance
	rec.EmergencyContact = in.EmergencyContact
	rec.UpdatedAt = now
	return nil
}

func (m *fakeRepo) AppendVisit(_ context.Context, patientID uuid.UUID, v DoctorVisit, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.data[patientID]
	if !ok {
		return ErrRecordNotFound
	}
	if err := m.appts.complete(v.AppointmentID); err != nil {
		return err
	}
	rec.DoctorVisits = append(rec.DoctorVisits, v)
	rec.UpdatedAt = now
	return nil
}

func (m *fakeRepo) AppendNote(_ context.Context, patientID uuid.UUID, n Note, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.data[patientID]
	if !ok {
		return ErrRecordNotFound
	}
	rec.Notes = append(rec.Notes, n)
	rec.UpdatedAt = now
	return nil
}

type fakeDoctors struct {
	data map[uuid.UUID]directory.Doctor
	err  error
}

func (f *fakeDoctors) add(name, speciality string) directory.Doctor {
	d := directory.Doctor{ID: uuid.New(), Name: name, Email: name + "@clinic.test", Speciality: speciality}
	f.data[d.ID] = d
	return d
}

func (f *fakeDoctors) GetDoctor(_ context.Context, id uuid.UUID) (*directory.Doctor, error) {
	d, ok := f.data[id]
	if !ok {
		return nil, directory.ErrDoctorNotFound
	}
	return &d, nil
}

func (f *fakeDoctors) DoctorsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]directory.Doctor, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uuid.UUID]directory.Doctor)
	for _, id := range ids {
		if d, ok := f.data[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

type fakeAppointments struct {
	mu   sync.Mutex
	data map[uuid.UUID]directory.Appointment
}

func (f *fakeAppointments) add(patientID, doctorID uuid.UUID) directory.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := directory.Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		SlotDate:  "12_3_2025",
		SlotTime:  "10:30 AM",
	}
	f.data[a.ID] = a
	return a
}

func (f *fakeAppointments) complete(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.data[id]
	if !ok {
		return directory.ErrAppointmentNotFound
	}
	a.IsCompleted = true
	f.data[id] = a
	return nil
}

func (f *fakeAppointments) GetAppointment(_ context.Context, id uuid.UUID) (*directory.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.data[id]
	if !ok {
		return nil, directory.ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeAppointments) AppointmentsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]directory.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]directory.Appointment)
	for _, id := range ids {
		if a, ok := f.data[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

var errStoreDown = errors.New("store unavailable")

type fixture struct {
	repo  *fakeRepo
	docs  *fakeDoctors
	appts *fakeAppointments
}

func newFixture() fixture {
	appts := &fakeAppointments{data: make(map[uuid.UUID]directory.Appointment)}
	return fixture{
		repo:  newFakeRepo(appts),
		docs:  &fakeDoctors{data: make(map[uuid.UUID]directory.Doctor)},
		appts: appts,
	}
}
