// Package clinic holds the clinical entities the interoperability layer
// consumes. They are owned by the CRUD layer; the pod export and import
// pipelines read them and, on import, create interventions and patient
// allergies.
package clinic

// Patient is a registered patient of the clinic.
type Patient struct {
	ID           string   `db:"id" json:"id"`
	Name         string   `db:"name" json:"name"`
	Surname      string   `db:"surname" json:"surname"`
	DateOfBirth  string   `db:"date_of_birth" json:"dateOfBirth"`
	Gender       string   `db:"gender" json:"gender"`
	PhoneNumbers []string `db:"phone_numbers" json:"phoneNumbers"`
	Email        string   `db:"email" json:"email"`
}

// Intervention is one dental procedure performed or planned for a patient.
// Dates are kept in YYYY-MM-DD form.
type Intervention struct {
	ID                 string `db:"id" json:"id"`
	InterventionTypeID string `db:"intervention_type_id" json:"interventionTypeId"`
	PatientID          string `db:"patient_id" json:"patientId"`
	DoctorID           string `db:"doctor_id" json:"doctorId,omitempty"`
	Date               string `db:"date" json:"date"`
	State              string `db:"state" json:"state"`
	TeethAffected      []int  `db:"teeth_affected" json:"teethAffected"`
}

// InterventionType is a catalogue entry describing a kind of procedure.
type InterventionType struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Duration int     `db:"duration" json:"duration"`
	Cost     float64 `db:"cost" json:"cost"`
}

// PatientAllergy relates a patient to an allergy catalogue entry.
type PatientAllergy struct {
	ID                 string `db:"id" json:"id"`
	PatientID          string `db:"patient_id" json:"patientId"`
	AllergyCatalogueID string `db:"allergy_catalogue_id" json:"allergyCatalogueId"`
	Severity           string `db:"severity" json:"severity"`
	Status             string `db:"status" json:"status"`
	DetectionDate      string `db:"detection_date" json:"detectionDate"`
}

// AllergyCatalogue is a catalogue entry for a known allergy.
type AllergyCatalogue struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	Type        string `db:"type" json:"type"`
	Description string `db:"description" json:"description"`
}

// Doctor is a practitioner employed by the clinic.
type Doctor struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Surname       string `db:"surname" json:"surname"`
	LicenseNumber string `db:"license_number" json:"licenseNumber"`
}
