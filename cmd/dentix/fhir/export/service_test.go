package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/terminology"
	"github.com/SmileCareNL/dentix/cmd/dentix/pod"
	"github.com/SmileCareNL/dentix/cmd/dentix/storage"
	"github.com/SmileCareNL/dentix/models/audit"
	"github.com/SmileCareNL/dentix/models/clinic"
)

// fakeClinic is an in-memory stand-in for every storage interface the
// service consumes.
type fakeClinic struct {
	patients      map[string]*clinic.Patient
	types         []clinic.InterventionType
	catalogue     []clinic.AllergyCatalogue
	doctors       map[string]*clinic.Doctor
	interventions []clinic.Intervention
	allergies     []clinic.PatientAllergy
}

func (f *fakeClinic) GetPatientByID(_ context.Context, id string) (*clinic.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeClinic) GetPatientInterventions(_ context.Context, patientID string) ([]clinic.Intervention, error) {
	var out []clinic.Intervention
	for _, iv := range f.interventions {
		if iv.PatientID == patientID {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (f *fakeClinic) GetPatientAllergies(_ context.Context, patientID string) ([]clinic.PatientAllergy, error) {
	var out []clinic.PatientAllergy
	for _, rel := range f.allergies {
		if rel.PatientID == patientID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (f *fakeClinic) FindByID(_ context.Context, id string) (*clinic.InterventionType, error) {
	for i := range f.types {
		if f.types[i].ID == id {
			return &f.types[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeClinic) FindByName(_ context.Context, name string) (*clinic.InterventionType, error) {
	for i := range f.types {
		if f.types[i].Name == name {
			return &f.types[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeClinic) FindOne(_ context.Context, example clinic.Intervention) (*clinic.Intervention, error) {
	for i := range f.interventions {
		iv := &f.interventions[i]
		if iv.PatientID == example.PatientID &&
			iv.InterventionTypeID == example.InterventionTypeID &&
			iv.State == example.State &&
			iv.Date == example.Date {
			return iv, nil
		}
	}
	return nil, nil
}

func (f *fakeClinic) Create(_ context.Context, iv *clinic.Intervention) error {
	iv.ID = fmt.Sprintf("iv-%d", len(f.interventions)+1)
	f.interventions = append(f.interventions, *iv)
	return nil
}

func (f *fakeClinic) FindDoctorByID(_ context.Context, id string) (*clinic.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return d, nil
}

func (f *fakeClinic) FindCatalogueByID(_ context.Context, id string) (*clinic.AllergyCatalogue, error) {
	for i := range f.catalogue {
		if f.catalogue[i].ID == id {
			return &f.catalogue[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeClinic) FindByCode(_ context.Context, code string) (*clinic.AllergyCatalogue, error) {
	for i := range f.catalogue {
		if f.catalogue[i].Code == code {
			return &f.catalogue[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeClinic) FindAllergyOne(_ context.Context, example clinic.PatientAllergy) (*clinic.PatientAllergy, error) {
	for i := range f.allergies {
		rel := &f.allergies[i]
		if rel.PatientID == example.PatientID &&
			rel.AllergyCatalogueID == example.AllergyCatalogueID &&
			rel.Status == example.Status &&
			rel.DetectionDate == example.DetectionDate {
			return rel, nil
		}
	}
	return nil, nil
}

func (f *fakeClinic) CreateAllergy(_ context.Context, rel *clinic.PatientAllergy) error {
	rel.ID = fmt.Sprintf("pa-%d", len(f.allergies)+1)
	f.allergies = append(f.allergies, *rel)
	return nil
}

// Adapters narrowing fakeClinic onto the interfaces whose method names
// collide across entities.
type doctorRepo struct{ *fakeClinic }

func (r doctorRepo) FindByID(ctx context.Context, id string) (*clinic.Doctor, error) {
	return r.FindDoctorByID(ctx, id)
}

type catalogueRepo struct{ *fakeClinic }

func (r catalogueRepo) FindByID(ctx context.Context, id string) (*clinic.AllergyCatalogue, error) {
	return r.FindCatalogueByID(ctx, id)
}

type allergyRepo struct{ *fakeClinic }

func (r allergyRepo) FindOne(ctx context.Context, example clinic.PatientAllergy) (*clinic.PatientAllergy, error) {
	return r.FindAllergyOne(ctx, example)
}

func (r allergyRepo) Create(ctx context.Context, rel *clinic.PatientAllergy) error {
	return r.CreateAllergy(ctx, rel)
}

// fakeTransport keeps uploaded files in memory and can fail one route.
type fakeTransport struct {
	files     map[string]string
	types     map[string]string
	failRoute string
	uploads   []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{files: map[string]string{}, types: map[string]string{}}
}

func (t *fakeTransport) GetFileText(_ context.Context, _ *pod.Session, resource string) (string, error) {
	content, ok := t.files[resource]
	if !ok {
		return "", fmt.Errorf("no such pod file %s", resource)
	}
	return content, nil
}

func (t *fakeTransport) UploadFile(_ context.Context, _ *pod.Session, content, contentType, route string) error {
	if route == t.failRoute {
		return errors.New("pod rejected upload")
	}
	t.files[route] = content
	t.types[route] = contentType
	t.uploads = append(t.uploads, route)
	return nil
}

type fakeAudit struct {
	entries []*audit.ExportAudit
}

func (a *fakeAudit) Record(entry *audit.ExportAudit) error {
	a.entries = append(a.entries, entry)
	return nil
}

type fixture struct {
	service   *Service
	clinic    *fakeClinic
	transport *fakeTransport
	audit     *fakeAudit
	session   *pod.Session
	routes    ExportRoutes
}

func newFixture(t *testing.T, clinicData *fakeClinic, transport *fakeTransport) *fixture {
	t.Helper()
	dir := t.TempDir()

	procedures := filepath.Join(dir, "procedures.csv")
	require.NoError(t, os.WriteFile(procedures, []byte("Cleaning,D1110\nFilling,D2140\n"), 0o644))
	allergies := filepath.Join(dir, "allergies.csv")
	require.NoError(t, os.WriteFile(allergies, []byte("PEN;764146007\n"), 0o644))
	schema := filepath.Join(dir, "schema.shex")
	require.NoError(t, os.WriteFile(schema, []byte("PREFIX fhir: <http://hl7.org/fhir/>\n"), 0o644))

	sink := &fakeAudit{}
	deps := Deps{
		Patients:         clinicData,
		Types:            clinicData,
		Catalogue:        catalogueRepo{clinicData},
		Interventions:    clinicData,
		PatientAllergies: allergyRepo{clinicData},
		Doctors:          doctorRepo{clinicData},
		Procedures:       terminology.NewProcedureCodeService(procedures, zerolog.Nop()),
		AllergyCodes:     terminology.NewAllergyCodeService(allergies, zerolog.Nop()),
		Transport:        transport,
		Audit:            sink,
	}

	return &fixture{
		service:   NewService(deps, schema, zerolog.Nop()),
		clinic:    clinicData,
		transport: transport,
		audit:     sink,
		session:   &pod.Session{WebID: "https://pod.example.org/john/profile/card#me", Token: "t"},
		routes: ExportRoutes{
			DataGraph:   "health/record.ttl",
			ShapeSchema: "health/record-schema.shex",
			ShapeMap:    "health/record-shapemap.txt",
		},
	}
}

func exportClinic() *fakeClinic {
	return &fakeClinic{
		patients: map[string]*clinic.Patient{
			"p1": {
				ID:           "p1",
				Name:         "John",
				Surname:      "Doe",
				DateOfBirth:  "1990-04-02",
				Gender:       "male",
				PhoneNumbers: []string{"+31612345678"},
				Email:        "john@example.com",
			},
		},
		types:     []clinic.InterventionType{{ID: "t1", Name: "Cleaning"}},
		catalogue: []clinic.AllergyCatalogue{{ID: "c1", Code: "PEN", Name: "Penicillin"}},
		doctors:   map[string]*clinic.Doctor{"d1": {ID: "d1", Name: "Eva", Surname: "Smit"}},
		interventions: []clinic.Intervention{{
			ID:                 "i1",
			InterventionTypeID: "t1",
			PatientID:          "p1",
			DoctorID:           "d1",
			Date:               "2024-01-15",
			State:              "completed",
			TeethAffected:      []int{11},
		}},
		allergies: []clinic.PatientAllergy{{
			ID:                 "a1",
			PatientID:          "p1",
			AllergyCatalogueID: "c1",
			Severity:           "high",
			Status:             "active",
			DetectionDate:      "2023-06-01",
		}},
	}
}

// importClinic shares the terminology catalogues but starts with no patient
// records, as a second clinic receiving the pod file would.
func importClinic() *fakeClinic {
	return &fakeClinic{
		patients:  map[string]*clinic.Patient{"p2": {ID: "p2", Name: "John", Surname: "Doe"}},
		types:     []clinic.InterventionType{{ID: "t9", Name: "Cleaning"}},
		catalogue: []clinic.AllergyCatalogue{{ID: "c9", Code: "PEN", Name: "Penicillin"}},
	}
}

func TestExportUploadsThreeFiles(t *testing.T) {
	transport := newFakeTransport()
	f := newFixture(t, exportClinic(), transport)

	err := f.service.ExportUserData(context.Background(), f.session, "p1", f.routes)
	require.NoError(t, err)

	require.Equal(t, []string{f.routes.DataGraph, f.routes.ShapeSchema, f.routes.ShapeMap}, transport.uploads)
	assert.Equal(t, "text/turtle", transport.types[f.routes.DataGraph])
	assert.Equal(t, "text/shex", transport.types[f.routes.ShapeSchema])
	assert.Equal(t, "text/plain", transport.types[f.routes.ShapeMap])

	data := transport.files[f.routes.DataGraph]
	assert.Contains(t, data, `"John"`)
	assert.Contains(t, data, `"D1110"`)
	assert.Contains(t, data, `"764146007"`)
	assert.Contains(t, data, "<http://hl7.org/fhir/fdi-tooth-notation>")

	shapeMap := transport.files[f.routes.ShapeMap]
	assert.Contains(t, shapeMap, "@PatientShape")
	assert.Contains(t, shapeMap, "@ProcedureShape")
	assert.Contains(t, shapeMap, "@AllergyIntoleranceShape")

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, "https://pod.example.org", entry.SolidServer)
	assert.Greater(t, entry.TriplesCount, 0)
	assert.GreaterOrEqual(t, entry.DurationMS, int64(0))
}

func TestExportUnknownPatientFailsButAudits(t *testing.T) {
	transport := newFakeTransport()
	f := newFixture(t, exportClinic(), transport)

	err := f.service.ExportUserData(context.Background(), f.session, "nobody", f.routes)
	require.Error(t, err)
	assert.Empty(t, transport.uploads)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, 0, f.audit.entries[0].TriplesCount)
}

// An upload failure after the data graph went up still records exactly one
// audit entry and surfaces the error. The uploaded data graph stays in
// place.
func TestExportPartialUploadFailure(t *testing.T) {
	transport := newFakeTransport()
	f := newFixture(t, exportClinic(), transport)
	transport.failRoute = f.routes.ShapeSchema

	err := f.service.ExportUserData(context.Background(), f.session, "p1", f.routes)
	require.Error(t, err)

	assert.Contains(t, transport.files, f.routes.DataGraph)
	assert.NotContains(t, transport.files, f.routes.ShapeSchema)
	assert.NotContains(t, transport.files, f.routes.ShapeMap)

	require.Len(t, f.audit.entries, 1)
	assert.GreaterOrEqual(t, f.audit.entries[0].DurationMS, int64(0))
}

func TestExportWithoutSessionFails(t *testing.T) {
	f := newFixture(t, exportClinic(), newFakeTransport())

	err := f.service.ExportUserData(context.Background(), nil, "p1", f.routes)
	require.Error(t, err)
	require.Len(t, f.audit.entries, 1)
}

func TestImportRecreatesRecords(t *testing.T) {
	transport := newFakeTransport()
	exporter := newFixture(t, exportClinic(), transport)
	require.NoError(t, exporter.service.ExportUserData(context.Background(), exporter.session, "p1", exporter.routes))

	importer := newFixture(t, importClinic(), transport)
	result, err := importer.service.ImportUserData(context.Background(), importer.session, "p2", importer.routes)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Interventions)
	assert.Equal(t, 1, result.Allergies)
	assert.Empty(t, result.Skipped)

	require.Len(t, importer.clinic.interventions, 1)
	iv := importer.clinic.interventions[0]
	assert.Equal(t, "p2", iv.PatientID)
	assert.Equal(t, "t9", iv.InterventionTypeID)
	assert.Equal(t, "completed", iv.State)
	assert.Equal(t, "2024-01-15", iv.Date)
	assert.Equal(t, []int{11}, iv.TeethAffected)

	require.Len(t, importer.clinic.allergies, 1)
	rel := importer.clinic.allergies[0]
	assert.Equal(t, "p2", rel.PatientID)
	assert.Equal(t, "c9", rel.AllergyCatalogueID)
	assert.Equal(t, "active", rel.Status)
	assert.Equal(t, "high", rel.Severity)
	assert.Equal(t, "2023-06-01", rel.DetectionDate)
}

// Importing the same pod file twice creates nothing the second time; the
// duplicates show up as skips.
func TestImportIsIdempotent(t *testing.T) {
	transport := newFakeTransport()
	exporter := newFixture(t, exportClinic(), transport)
	require.NoError(t, exporter.service.ExportUserData(context.Background(), exporter.session, "p1", exporter.routes))

	importer := newFixture(t, importClinic(), transport)
	first, err := importer.service.ImportUserData(context.Background(), importer.session, "p2", importer.routes)
	require.NoError(t, err)
	require.Equal(t, 1, first.Interventions)
	require.Equal(t, 1, first.Allergies)

	second, err := importer.service.ImportUserData(context.Background(), importer.session, "p2", importer.routes)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Interventions)
	assert.Equal(t, 0, second.Allergies)
	require.Len(t, second.Skipped, 2)

	assert.Len(t, importer.clinic.interventions, 1)
	assert.Len(t, importer.clinic.allergies, 1)
}

func TestImportSkipsUnknownProcedureStatus(t *testing.T) {
	transport := newFakeTransport()
	exportData := exportClinic()
	exportData.interventions[0].State = "postponed"
	exporter := newFixture(t, exportData, transport)
	require.NoError(t, exporter.service.ExportUserData(context.Background(), exporter.session, "p1", exporter.routes))

	importer := newFixture(t, importClinic(), transport)
	result, err := importer.service.ImportUserData(context.Background(), importer.session, "p2", importer.routes)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Interventions)
	require.NotEmpty(t, result.Skipped)
	assert.Contains(t, result.Skipped[0].Reason, "unrecognized procedure status")
}

func TestImportSkipsUnknownInterventionType(t *testing.T) {
	transport := newFakeTransport()
	exporter := newFixture(t, exportClinic(), transport)
	require.NoError(t, exporter.service.ExportUserData(context.Background(), exporter.session, "p1", exporter.routes))

	importData := importClinic()
	importData.types = nil
	importer := newFixture(t, importData, transport)

	result, err := importer.service.ImportUserData(context.Background(), importer.session, "p2", importer.routes)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Interventions)

	found := false
	for _, skip := range result.Skipped {
		if strings.Contains(skip.Reason, "no intervention type named Cleaning") {
			found = true
		}
	}
	assert.True(t, found, "skips: %v", result.Skipped)
}

func TestImportToleratesMalformedLines(t *testing.T) {
	transport := newFakeTransport()
	exporter := newFixture(t, exportClinic(), transport)
	require.NoError(t, exporter.service.ExportUserData(context.Background(), exporter.session, "p1", exporter.routes))

	transport.files[exporter.routes.DataGraph] = "<https://example.org/s> garbage\n" + transport.files[exporter.routes.DataGraph]

	importer := newFixture(t, importClinic(), transport)
	result, err := importer.service.ImportUserData(context.Background(), importer.session, "p2", importer.routes)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Interventions)
	assert.Equal(t, 1, result.Allergies)
}

// An import only consumes the data graph, but all three exported files must
// be present and readable on the pod.
func TestImportMissingSidecarFileFails(t *testing.T) {
	for _, missing := range []string{"health/record-schema.shex", "health/record-shapemap.txt"} {
		t.Run(missing, func(t *testing.T) {
			transport := newFakeTransport()
			exporter := newFixture(t, exportClinic(), transport)
			require.NoError(t, exporter.service.ExportUserData(context.Background(), exporter.session, "p1", exporter.routes))

			delete(transport.files, missing)

			importer := newFixture(t, importClinic(), transport)
			_, err := importer.service.ImportUserData(context.Background(), importer.session, "p2", importer.routes)
			require.Error(t, err)
			assert.Empty(t, importer.clinic.interventions)
			assert.Empty(t, importer.clinic.allergies)
		})
	}
}

func TestImportMissingPodFileFails(t *testing.T) {
	importer := newFixture(t, importClinic(), newFakeTransport())

	_, err := importer.service.ImportUserData(context.Background(), importer.session, "p2", importer.routes)
	require.Error(t, err)
}

func TestImportUnknownPatientFails(t *testing.T) {
	transport := newFakeTransport()
	exporter := newFixture(t, exportClinic(), transport)
	require.NoError(t, exporter.service.ExportUserData(context.Background(), exporter.session, "p1", exporter.routes))

	importer := newFixture(t, importClinic(), transport)
	_, err := importer.service.ImportUserData(context.Background(), importer.session, "nobody", importer.routes)
	require.Error(t, err)
}
