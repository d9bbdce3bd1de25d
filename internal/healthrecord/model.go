package healthrecord

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/health-record-sharing/internal/directory"
)

type BloodGroup string

const (
	BloodAPos  BloodGroup = "A+"
	BloodANeg  BloodGroup = "A-"
	BloodBPos  BloodGroup = "B+"
	BloodBNeg  BloodGroup = "B-"
	BloodABPos BloodGroup = "AB+"
	BloodABNeg BloodGroup = "AB-"
	BloodOPos  BloodGroup = "O+"
	BloodONeg  BloodGroup = "O-"
)

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "Single"
	MaritalMarried  MaritalStatus = "Married"
	MaritalWidowed  MaritalStatus = "Widowed"
	MaritalDivorced MaritalStatus = "Divorced"
)

type Demographics struct {
	BloodGroup    BloodGroup    `json:"blood_group,omitempty"`
	MaritalStatus MaritalStatus `json:"marital_status,omitempty"`
	Occupation    string        `json:"occupation,omitempty"`
}

type Insurance struct {
	Provider     string `json:"provider,omitempty"`
	PolicyNumber string `json:"policy_number,omitempty"`
	ValidUntil   Date   `json:"valid_until,omitzero"`
}

type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

type Prescription struct {
	Medication   string `json:"medication,omitempty"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type Report struct {
	Title      string    `json:"title,omitempty"`
	URL        string    `json:"url,omitempty"`
	Remarks    string    `json:"remarks,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DoctorVisit is stored embedded in the record's doctor_visits array.
type DoctorVisit struct {
	ID            uuid.UUID      `json:"id"`
	AppointmentID uuid.UUID      `json:"appointment_id"`
	DoctorID      uuid.UUID      `json:"doctor_id"`
	CreatedAt     time.Time      `json:"created_at"`
	Diagnosis     string         `json:"diagnosis,omitempty"`
	Prescriptions []Prescription `json:"prescriptions"`
	Remarks       string         `json:"remarks,omitempty"`
	Reports       []Report       `json:"reports"`
}

// Note is stored embedded in the record's notes array.
type Note struct {
	ID        uuid.UUID `json:"id"`
	CreatedBy uuid.UUID `json:"created_by"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthRecord is the stored write model, one per patient.
type HealthRecord struct {
	ID               uuid.UUID
	PatientID        uuid.UUID
	Demographics     Demographics
	Allergies        []string
	Insurance        Insurance
	EmergencyContact EmergencyContact
	DoctorVisits     []DoctorVisit
	Notes            []Note
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Read model

type VisitDoctor struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Speciality string    `json:"speciality"`
}

type VisitAppointment struct {
	ID       uuid.UUID `json:"id"`
	SlotDate string    `json:"slot_date"`
	SlotTime string    `json:"slot_time"`
}

type NoteAuthor struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Speciality string    `json:"speciality"`
}

type VisitView struct {
	ID            uuid.UUID        `json:"id"`
	Appointment   VisitAppointment `json:"appointment"`
	Doctor        VisitDoctor      `json:"doctor"`
	CreatedAt     time.Time        `json:"created_at"`
	Diagnosis     string           `json:"diagnosis,omitempty"`
	Prescriptions []Prescription   `json:"prescriptions"`
	Remarks       string           `json:"remarks,omitempty"`
	Reports       []Report         `json:"reports"`
}

type NoteView struct {
	ID        uuid.UUID  `json:"id"`
	CreatedBy NoteAuthor `json:"created_by"`
	Note      string     `json:"note"`
	CreatedAt time.Time  `json:"created_at"`
}

// RecordView is a HealthRecord with references resolved and dangling
// visits/notes removed.
type RecordView struct {
	ID               uuid.UUID        `json:"id"`
	PatientID        uuid.UUID        `json:"user_id"`
	Demographics     Demographics     `json:"demographics"`
	Allergies        []string         `json:"allergies"`
	Insurance        Insurance        `json:"insurance_details"`
	EmergencyContact EmergencyContact `json:"emergency_contact"`
	DoctorVisits     []VisitView      `json:"doctor_visits"`
	Notes            []NoteView       `json:"notes"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	HasVisits        bool             `json:"-"`
	HasNotes         bool             `json:"-"`
}

func visitDoctor(d directory.Doctor) VisitDoctor {
	return VisitDoctor{ID: d.ID, Name: d.Name, Email: d.Email, Speciality: d.Speciality}
}

func noteAuthor(d directory.Doctor) NoteAuthor {
	return NoteAuthor{ID: d.ID, Name: d.Name, Speciality: d.Speciality}
}

func visitAppointment(a directory.Appointment) VisitAppointment {
	return VisitAppointment{ID: a.ID, SlotDate: a.SlotDate, SlotTime: a.SlotTime}
}
