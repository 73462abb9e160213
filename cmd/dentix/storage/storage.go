// Package storage defines the data-access surface the interoperability layer
// consumes and provides the Postgres-backed implementations. The export and
// import pipelines depend only on the interfaces, so tests run against
// in-memory fakes.
package storage

import (
	"context"
	"errors"

	"github.com/SmileCareNL/dentix/models/clinic"
)

// ErrNotFound is returned when a looked-up record does not exist. Callers
// match it with errors.Is.
var ErrNotFound = errors.New("record not found")

// PatientService exposes the patient reads the export pipeline needs.
type PatientService interface {
	GetPatientByID(ctx context.Context, id string) (*clinic.Patient, error)
	GetPatientInterventions(ctx context.Context, patientID string) ([]clinic.Intervention, error)
	GetPatientAllergies(ctx context.Context, patientID string) ([]clinic.PatientAllergy, error)
}

// InterventionTypeRepository looks up procedure types by id or name.
type InterventionTypeRepository interface {
	FindByID(ctx context.Context, id string) (*clinic.InterventionType, error)
	FindByName(ctx context.Context, name string) (*clinic.InterventionType, error)
}

// AllergyCatalogueRepository looks up allergy catalogue entries by id or
// internal code.
type AllergyCatalogueRepository interface {
	FindByID(ctx context.Context, id string) (*clinic.AllergyCatalogue, error)
	FindByCode(ctx context.Context, code string) (*clinic.AllergyCatalogue, error)
}

// InterventionRepository supports the import pipeline's dedup-then-create
// flow. FindOne matches by example and returns (nil, nil) when nothing
// matches.
type InterventionRepository interface {
	FindOne(ctx context.Context, example clinic.Intervention) (*clinic.Intervention, error)
	Create(ctx context.Context, intervention *clinic.Intervention) error
}

// PatientAllergyRepository mirrors InterventionRepository for patient
// allergies.
type PatientAllergyRepository interface {
	FindOne(ctx context.Context, example clinic.PatientAllergy) (*clinic.PatientAllergy, error)
	Create(ctx context.Context, allergy *clinic.PatientAllergy) error
}

// DoctorRepository looks up practitioners.
type DoctorRepository interface {
	FindByID(ctx context.Context, id string) (*clinic.Doctor, error)
}
