package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/SmileCareNL/dentix/models/clinic"
)

type patientRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Surname      string         `db:"surname"`
	DateOfBirth  string         `db:"date_of_birth"`
	Gender       string         `db:"gender"`
	PhoneNumbers pq.StringArray `db:"phone_numbers"`
	Email        string         `db:"email"`
}

type interventionRow struct {
	ID                 string         `db:"id"`
	InterventionTypeID string         `db:"intervention_type_id"`
	PatientID          string         `db:"patient_id"`
	DoctorID           sql.NullString `db:"doctor_id"`
	Date               string         `db:"date"`
	State              string         `db:"state"`
	TeethAffected      pq.Int64Array  `db:"teeth_affected"`
}

func (r interventionRow) toModel() clinic.Intervention {
	teeth := make([]int, 0, len(r.TeethAffected))
	for _, t := range r.TeethAffected {
		teeth = append(teeth, int(t))
	}
	return clinic.Intervention{
		ID:                 r.ID,
		InterventionTypeID: r.InterventionTypeID,
		PatientID:          r.PatientID,
		DoctorID:           r.DoctorID.String,
		Date:               r.Date,
		State:              r.State,
		TeethAffected:      teeth,
	}
}

// PatientStore implements PatientService over Postgres.
type PatientStore struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewPatientStore(db *sqlx.DB, log zerolog.Logger) *PatientStore {
	return &PatientStore{db: db, log: log}
}

// GetPatientByID returns the patient or ErrNotFound.
func (s *PatientStore) GetPatientByID(ctx context.Context, id string) (*clinic.Patient, error) {
	var row patientRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, name, surname, date_of_birth, gender, phone_numbers, email FROM patients WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("patient %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	return &clinic.Patient{
		ID:           row.ID,
		Name:         row.Name,
		Surname:      row.Surname,
		DateOfBirth:  row.DateOfBirth,
		Gender:       row.Gender,
		PhoneNumbers: row.PhoneNumbers,
		Email:        row.Email,
	}, nil
}

// GetPatientInterventions returns all interventions recorded for a patient.
func (s *PatientStore) GetPatientInterventions(ctx context.Context, patientID string) ([]clinic.Intervention, error) {
	var rows []interventionRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, intervention_type_id, patient_id, doctor_id, date, state, teeth_affected
		 FROM interventions WHERE patient_id = $1 ORDER BY date`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interventions: %w", err)
	}
	interventions := make([]clinic.Intervention, 0, len(rows))
	for _, row := range rows {
		interventions = append(interventions, row.toModel())
	}
	return interventions, nil
}

// GetPatientAllergies returns all allergy relations recorded for a patient.
func (s *PatientStore) GetPatientAllergies(ctx context.Context, patientID string) ([]clinic.PatientAllergy, error) {
	var allergies []clinic.PatientAllergy
	err := s.db.SelectContext(ctx, &allergies,
		`SELECT id, patient_id, allergy_catalogue_id, severity, status, detection_date
		 FROM patient_allergies WHERE patient_id = $1 ORDER BY detection_date`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient allergies: %w", err)
	}
	return allergies, nil
}

// InterventionTypeStore implements InterventionTypeRepository over Postgres.
type InterventionTypeStore struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewInterventionTypeStore(db *sqlx.DB, log zerolog.Logger) *InterventionTypeStore {
	return &InterventionTypeStore{db: db, log: log}
}

func (s *InterventionTypeStore) FindByID(ctx context.Context, id string) (*clinic.InterventionType, error) {
	var typ clinic.InterventionType
	err := s.db.GetContext(ctx, &typ,
		`SELECT id, name, duration, cost FROM intervention_types WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("intervention type %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load intervention type: %w", err)
	}
	return &typ, nil
}

func (s *InterventionTypeStore) FindByName(ctx context.Context, name string) (*clinic.InterventionType, error) {
	var typ clinic.InterventionType
	err := s.db.GetContext(ctx, &typ,
		`SELECT id, name, duration, cost FROM intervention_types WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("intervention type %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load intervention type: %w", err)
	}
	return &typ, nil
}

// AllergyCatalogueStore implements AllergyCatalogueRepository over Postgres.
type AllergyCatalogueStore struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewAllergyCatalogueStore(db *sqlx.DB, log zerolog.Logger) *AllergyCatalogueStore {
	return &AllergyCatalogueStore{db: db, log: log}
}

func (s *AllergyCatalogueStore) FindByID(ctx context.Context, id string) (*clinic.AllergyCatalogue, error) {
	var entry clinic.AllergyCatalogue
	err := s.db.GetContext(ctx, &entry,
		`SELECT id, code, name, type, description FROM allergy_catalogue WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("allergy catalogue entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load allergy catalogue entry: %w", err)
	}
	return &entry, nil
}

func (s *AllergyCatalogueStore) FindByCode(ctx context.Context, code string) (*clinic.AllergyCatalogue, error) {
	var entry clinic.AllergyCatalogue
	err := s.db.GetContext(ctx, &entry,
		`SELECT id, code, name, type, description FROM allergy_catalogue WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("allergy catalogue code %q: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load allergy catalogue entry: %w", err)
	}
	return &entry, nil
}

// InterventionStore implements InterventionRepository over Postgres.
type InterventionStore struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewInterventionStore(db *sqlx.DB, log zerolog.Logger) *InterventionStore {
	return &InterventionStore{db: db, log: log}
}

// FindOne matches an intervention by example signature and returns
// (nil, nil) when no record matches.
func (s *InterventionStore) FindOne(ctx context.Context, example clinic.Intervention) (*clinic.Intervention, error) {
	var row interventionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, intervention_type_id, patient_id, doctor_id, date, state, teeth_affected
		 FROM interventions
		 WHERE patient_id = $1 AND intervention_type_id = $2 AND state = $3 AND date = $4
		 LIMIT 1`,
		example.PatientID, example.InterventionTypeID, example.State, example.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to match intervention: %w", err)
	}
	intervention := row.toModel()
	return &intervention, nil
}

// Create inserts a new intervention, assigning an id when none is set.
func (s *InterventionStore) Create(ctx context.Context, intervention *clinic.Intervention) error {
	if intervention.ID == "" {
		intervention.ID = uuid.NewString()
	}
	teeth := make(pq.Int64Array, 0, len(intervention.TeethAffected))
	for _, t := range intervention.TeethAffected {
		teeth = append(teeth, int64(t))
	}
	var doctorID sql.NullString
	if intervention.DoctorID != "" {
		doctorID = sql.NullString{String: intervention.DoctorID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interventions (id, intervention_type_id, patient_id, doctor_id, date, state, teeth_affected)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		intervention.ID, intervention.InterventionTypeID, intervention.PatientID,
		doctorID, intervention.Date, intervention.State, teeth)
	if err != nil {
		return fmt.Errorf("failed to create intervention: %w", err)
	}
	s.log.Debug().Str("id", intervention.ID).Msg("Created intervention")
	return nil
}

// PatientAllergyStore implements PatientAllergyRepository over Postgres.
type PatientAllergyStore struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewPatientAllergyStore(db *sqlx.DB, log zerolog.Logger) *PatientAllergyStore {
	return &PatientAllergyStore{db: db, log: log}
}

// FindOne matches a patient allergy by example signature and returns
// (nil, nil) when no record matches.
func (s *PatientAllergyStore) FindOne(ctx context.Context, example clinic.PatientAllergy) (*clinic.PatientAllergy, error) {
	var allergy clinic.PatientAllergy
	err := s.db.GetContext(ctx, &allergy,
		`SELECT id, patient_id, allergy_catalogue_id, severity, status, detection_date
		 FROM patient_allergies
		 WHERE patient_id = $1 AND allergy_catalogue_id = $2 AND status = $3 AND detection_date = $4
		 LIMIT 1`,
		example.PatientID, example.AllergyCatalogueID, example.Status, example.DetectionDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to match patient allergy: %w", err)
	}
	return &allergy, nil
}

// Create inserts a new patient allergy, assigning an id when none is set.
func (s *PatientAllergyStore) Create(ctx context.Context, allergy *clinic.PatientAllergy) error {
	if allergy.ID == "" {
		allergy.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patient_allergies (id, patient_id, allergy_catalogue_id, severity, status, detection_date)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		allergy.ID, allergy.PatientID, allergy.AllergyCatalogueID,
		allergy.Severity, allergy.Status, allergy.DetectionDate)
	if err != nil {
		return fmt.Errorf("failed to create patient allergy: %w", err)
	}
	s.log.Debug().Str("id", allergy.ID).Msg("Created patient allergy")
	return nil
}

// DoctorStore implements DoctorRepository over Postgres.
type DoctorStore struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewDoctorStore(db *sqlx.DB, log zerolog.Logger) *DoctorStore {
	return &DoctorStore{db: db, log: log}
}

func (s *DoctorStore) FindByID(ctx context.Context, id string) (*clinic.Doctor, error) {
	var doctor clinic.Doctor
	err := s.db.GetContext(ctx, &doctor,
		`SELECT id, name, surname, license_number FROM doctors WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("doctor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	return &doctor, nil
}
