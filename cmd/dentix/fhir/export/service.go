// Package export orchestrates the pod round trip: assembling a patient's
// health record as an RDF graph and uploading it to their pod, and reading a
// previously exported record back into internal interventions and allergies.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/convert"
	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/shapes"
	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/terminology"
	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/vocab"
	"github.com/SmileCareNL/dentix/cmd/dentix/pod"
	"github.com/SmileCareNL/dentix/cmd/dentix/rdf"
	"github.com/SmileCareNL/dentix/cmd/dentix/storage"
	"github.com/SmileCareNL/dentix/models/audit"
	"github.com/SmileCareNL/dentix/models/clinic"
)

// Transport is the pod file surface the service drives. Satisfied by
// pod.Client.
type Transport interface {
	GetFileText(ctx context.Context, session *pod.Session, resource string) (string, error)
	UploadFile(ctx context.Context, session *pod.Session, content, contentType, route string) error
}

// ExportRoutes names the three pod files one export produces.
type ExportRoutes struct {
	DataGraph   string
	ShapeSchema string
	ShapeMap    string
}

// Skip records one import binding that could not be resolved into an
// internal record, and why. Skips are the observable form of the
// best-effort import policy: a partially exported or externally edited pod
// file loses records, but no longer silently.
type Skip struct {
	Node   string
	Reason string
}

// ImportResult reports what one import call created and what it skipped.
type ImportResult struct {
	Interventions int
	Allergies     int
	Skipped       []Skip
}

func (r *ImportResult) skip(node, reason string) {
	r.Skipped = append(r.Skipped, Skip{Node: node, Reason: reason})
}

// Deps collects the collaborators the service needs.
type Deps struct {
	Patients         storage.PatientService
	Types            storage.InterventionTypeRepository
	Catalogue        storage.AllergyCatalogueRepository
	Interventions    storage.InterventionRepository
	PatientAllergies storage.PatientAllergyRepository
	Doctors          storage.DoctorRepository
	Procedures       *terminology.ProcedureCodeService
	AllergyCodes     *terminology.AllergyCodeService
	Transport        Transport
	Audit            storage.AuditSink
}

// Service is the export/import orchestrator.
type Service struct {
	deps       Deps
	converter  *convert.Converter
	schemaPath string
	log        zerolog.Logger
}

// NewService creates the orchestrator. schemaPath points at the static ShEx
// schema document shipped with the application; it is uploaded as-is next to
// every data graph.
func NewService(deps Deps, schemaPath string, log zerolog.Logger) *Service {
	return &Service{
		deps:       deps,
		converter:  convert.NewConverter(deps.Procedures, deps.AllergyCodes, log),
		schemaPath: schemaPath,
		log:        log,
	}
}

// ExportUserData assembles the patient's record graph and uploads the data
// graph, the shape schema and the shape map to the pod. An audit entry is
// recorded whether the export succeeds or fails; the duration timer starts
// before the first entity fetch so a failed export still audits a valid
// duration. A failure anywhere aborts the export and propagates after the
// audit write. Partially uploaded files are left in place: the pod is
// user-owned and a re-export overwrites them.
func (s *Service) ExportUserData(ctx context.Context, session *pod.Session, patientID string, routes ExportRoutes) error {
	start := time.Now()
	triples := 0
	defer func() {
		entry := &audit.ExportAudit{
			TestDate:     time.Now(),
			DurationMS:   time.Since(start).Milliseconds(),
			SolidServer:  pod.ServerOf(session),
			TriplesCount: triples,
		}
		if err := s.deps.Audit.Record(entry); err != nil {
			s.log.Warn().Err(err).Msg("Failed to record export audit")
		}
	}()

	if session == nil {
		return fmt.Errorf("no pod session")
	}

	patient, err := s.deps.Patients.GetPatientByID(ctx, patientID)
	if err != nil {
		return err
	}
	interventions, err := s.deps.Patients.GetPatientInterventions(ctx, patientID)
	if err != nil {
		return err
	}
	allergies, err := s.deps.Patients.GetPatientAllergies(ctx, patientID)
	if err != nil {
		return err
	}

	g := rdf.NewGraph()
	g.Merge(s.converter.Patient(patient))

	for i := range interventions {
		iv := &interventions[i]
		typ, err := s.deps.Types.FindByID(ctx, iv.InterventionTypeID)
		if err != nil {
			return err
		}
		var doctor *clinic.Doctor
		if iv.DoctorID != "" {
			doctor, err = s.deps.Doctors.FindByID(ctx, iv.DoctorID)
			if err != nil {
				return err
			}
		}
		ivGraph, err := s.converter.Intervention(iv, typ, doctor)
		if err != nil {
			return err
		}
		g.Merge(ivGraph)
	}

	for i := range allergies {
		rel := &allergies[i]
		cat, err := s.deps.Catalogue.FindByID(ctx, rel.AllergyCatalogueID)
		if err != nil {
			return err
		}
		relGraph, err := s.converter.Allergy(rel, cat)
		if err != nil {
			return err
		}
		g.Merge(relGraph)
	}

	shapeMap := shapes.Generate(g)
	schema, err := os.ReadFile(s.schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read shape schema: %w", err)
	}
	data := rdf.SerializeNTriples(g)
	triples = g.Len()

	s.log.Info().
		Str("patient", patientID).
		Int("procedures", len(interventions)).
		Int("allergies", len(allergies)).
		Int("triples", triples).
		Msg("Uploading patient health record to pod")

	if err := s.deps.Transport.UploadFile(ctx, session, data, "text/turtle", routes.DataGraph); err != nil {
		return err
	}
	if err := s.deps.Transport.UploadFile(ctx, session, string(schema), "text/shex", routes.ShapeSchema); err != nil {
		return err
	}
	// The shape map is a flat <node>@Shape listing, not ShEx syntax, so it
	// goes up as plain text.
	if err := s.deps.Transport.UploadFile(ctx, session, shapeMap, "text/plain", routes.ShapeMap); err != nil {
		return err
	}

	return nil
}

// ImportUserData reads a previously exported record back from the pod and
// recreates the interventions and allergies its data graph describes. All
// three pod files are fetched and any read failure aborts the import. Records
// already present are skipped, as is every binding that cannot be fully
// resolved through the terminology chain; both are reported in the result
// instead of failing the call.
func (s *Service) ImportUserData(ctx context.Context, session *pod.Session, patientID string, routes ExportRoutes) (*ImportResult, error) {
	if session == nil {
		return nil, fmt.Errorf("no pod session")
	}

	patient, err := s.deps.Patients.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	text, err := s.deps.Transport.GetFileText(ctx, session, routes.DataGraph)
	if err != nil {
		return nil, err
	}
	// All three exported files must be readable; only the data graph is
	// consumed. A pod missing its sidecar files is treated as corrupt.
	if _, err := s.deps.Transport.GetFileText(ctx, session, routes.ShapeSchema); err != nil {
		return nil, err
	}
	if _, err := s.deps.Transport.GetFileText(ctx, session, routes.ShapeMap); err != nil {
		return nil, err
	}

	statements, issues := rdf.ParseTriples(text)
	for _, issue := range issues {
		s.log.Warn().Int("line", issue.Line).Str("reason", issue.Reason).Msg("Skipping unparseable triple line")
	}

	g := rdf.NewGraph()
	g.AddAll(statements)

	result := &ImportResult{}
	if err := s.importInterventions(ctx, g, patient, result); err != nil {
		return nil, err
	}
	if err := s.importAllergies(ctx, g, patient, result); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("patient", patientID).
		Int("interventions", result.Interventions).
		Int("allergies", result.Allergies).
		Int("skipped", len(result.Skipped)).
		Msg("Imported patient health record from pod")

	return result, nil
}

func (s *Service) importInterventions(ctx context.Context, g *rdf.Graph, patient *clinic.Patient, result *ImportResult) error {
	for _, b := range interventionBindings(g) {
		node, ok := b[varNode].(rdf.Node)
		if !ok {
			continue
		}

		state, ok := convert.ImportStatus(b[varStatus].RawValue())
		if !ok {
			result.skip(node.URI, "unrecognized procedure status "+b[varStatus].RawValue())
			continue
		}

		code, ok := conceptCode(g, node, vocab.ProcedureCodeSystem)
		if !ok {
			result.skip(node.URI, "no procedure code")
			continue
		}
		name, err := s.deps.Procedures.NameForCode(code)
		if err != nil {
			return err
		}
		if name == "" {
			result.skip(node.URI, "unmapped procedure code "+code)
			continue
		}

		typ, err := s.deps.Types.FindByName(ctx, name)
		if errors.Is(err, storage.ErrNotFound) {
			result.skip(node.URI, "no intervention type named "+name)
			continue
		}
		if err != nil {
			return err
		}

		intervention := clinic.Intervention{
			InterventionTypeID: typ.ID,
			PatientID:          patient.ID,
			Date:               b[varDate].RawValue(),
			State:              state,
		}
		existing, err := s.deps.Interventions.FindOne(ctx, intervention)
		if err != nil {
			return err
		}
		if existing != nil {
			result.skip(node.URI, "intervention already exists")
			continue
		}

		intervention.TeethAffected = affectedTeeth(g, node)
		if err := s.deps.Interventions.Create(ctx, &intervention); err != nil {
			return err
		}
		result.Interventions++
	}
	return nil
}

func (s *Service) importAllergies(ctx context.Context, g *rdf.Graph, patient *clinic.Patient, result *ImportResult) error {
	for _, b := range allergyBindings(g) {
		node, ok := b[varNode].(rdf.Node)
		if !ok {
			continue
		}

		code, ok := conceptCode(g, node, vocab.AllergyCodeSystem)
		if !ok {
			result.skip(node.URI, "no allergy code")
			continue
		}
		internal, err := s.deps.AllergyCodes.InternalCode(code)
		if err != nil {
			return err
		}
		if internal == "" {
			result.skip(node.URI, "unmapped allergy code "+code)
			continue
		}

		cat, err := s.deps.Catalogue.FindByCode(ctx, internal)
		if errors.Is(err, storage.ErrNotFound) {
			result.skip(node.URI, "no catalogue entry for code "+internal)
			continue
		}
		if err != nil {
			return err
		}

		status, ok := clinicalStatus(g, node)
		if !ok {
			result.skip(node.URI, "no clinical status")
			continue
		}

		allergy := clinic.PatientAllergy{
			PatientID:          patient.ID,
			AllergyCatalogueID: cat.ID,
			Status:             status,
			DetectionDate:      b[varDate].RawValue(),
		}
		existing, err := s.deps.PatientAllergies.FindOne(ctx, allergy)
		if err != nil {
			return err
		}
		if existing != nil {
			result.skip(node.URI, "allergy already exists")
			continue
		}

		allergy.Severity = b[varCriticality].RawValue()
		if err := s.deps.PatientAllergies.Create(ctx, &allergy); err != nil {
			return err
		}
		result.Allergies++
	}
	return nil
}
