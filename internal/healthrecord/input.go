package healthrecord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidInput wraps every boundary validation failure.
var ErrInvalidInput = errors.New("invalid input")

var validBloodGroups = map[BloodGroup]bool{
	BloodAPos: true, BloodANeg: true, BloodBPos: true, BloodBNeg: true,
	BloodABPos: true, BloodABNeg: true, BloodOPos: true, BloodONeg: true,
}

var validMaritalStatuses = map[MaritalStatus]bool{
	MaritalSingle: true, MaritalMarried: true, MaritalWidowed: true, MaritalDivorced: true,
}

// RecordInput carries the patient-editable parts of a record. Visits and notes
// are never set through it.
type RecordInput struct {
	Demographics     Demographics     `json:"demographics"`
	Allergies        []string         `json:"allergies"`
	Insurance        Insurance        `json:"insurance_details"`
	EmergencyContact EmergencyContact `json:"emergency_contact"`
}

// Normalize trims free-text fields and drops empty allergy entries.
func (in *RecordInput) Normalize() {
	in.Demographics.BloodGroup = BloodGroup(strings.ToUpper(strings.TrimSpace(string(in.Demographics.BloodGroup))))
	in.Demographics.MaritalStatus = MaritalStatus(strings.TrimSpace(string(in.Demographics.MaritalStatus)))
	in.Demographics.Occupation = strings.TrimSpace(in.Demographics.Occupation)

	allergies := make([]string, 0, len(in.Allergies))
	for _, a := range in.Allergies {
		if a = strings.TrimSpace(a); a != "" {
			allergies = append(allergies, a)
		}
	}
	in.Allergies = allergies

	in.Insurance.Provider = strings.TrimSpace(in.Insurance.Provider)
	in.Insurance.PolicyNumber = strings.TrimSpace(in.Insurance.PolicyNumber)
	in.EmergencyContact.Name = strings.TrimSpace(in.EmergencyContact.Name)
	in.EmergencyContact.Phone = strings.TrimSpace(in.EmergencyContact.Phone)
	in.EmergencyContact.Relationship = strings.TrimSpace(in.EmergencyContact.Relationship)
}

// Validate checks enum fields. Blood group is mandatory for a record.
func (in RecordInput) Validate() error {
	if in.Demographics.BloodGroup == "" {
		return fmt.Errorf("%w: demographics.blood_group is required", ErrInvalidInput)
	}
	if !validBloodGroups[in.Demographics.BloodGroup] {
		return fmt.Errorf("%w: invalid blood_group %q", ErrInvalidInput, in.Demographics.BloodGroup)
	}
	if in.Demographics.MaritalStatus != "" && !validMaritalStatuses[in.Demographics.MaritalStatus] {
		return fmt.Errorf("%w: invalid marital_status %q", ErrInvalidInput, in.Demographics.MaritalStatus)
	}
	return nil
}

// VisitInput is what a doctor submits after an appointment.
type VisitInput struct {
	AppointmentID uuid.UUID      `json:"appointment_id"`
	Diagnosis     string         `json:"diagnosis"`
	Prescriptions []Prescription `json:"prescriptions"`
	Remarks       string         `json:"remarks"`
	Reports       []Report       `json:"reports"`
}

func (in VisitInput) Validate() error {
	if in.AppointmentID == uuid.Nil {
		return fmt.Errorf("%w: appointment_id is required", ErrInvalidInput)
	}
	return nil
}
