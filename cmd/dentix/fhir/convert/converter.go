// Package convert maps clinical entities into FHIR-shaped RDF subgraphs.
// Each conversion returns a self-contained graph anchored at a node URI
// derived from the entity id; callers merge the pieces into one export
// graph. Node derivation is deterministic, so converting the same entity
// twice yields the same statement set.
package convert

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/terminology"
	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/vocab"
	"github.com/SmileCareNL/dentix/cmd/dentix/rdf"
	"github.com/SmileCareNL/dentix/models/clinic"
)

// Converter turns clinical entities into RDF subgraphs, consulting the
// terminology services for external standard codes.
type Converter struct {
	procedures *terminology.ProcedureCodeService
	allergies  *terminology.AllergyCodeService
	log        zerolog.Logger
}

// NewConverter creates a Converter over the two code services.
func NewConverter(procedures *terminology.ProcedureCodeService, allergies *terminology.AllergyCodeService, log zerolog.Logger) *Converter {
	return &Converter{
		procedures: procedures,
		allergies:  allergies,
		log:        log,
	}
}

// Patient emits identifier, a structured name block, birth date, gender and
// one contact point per phone number plus one for the email address.
func (c *Converter) Patient(p *clinic.Patient) *rdf.Graph {
	g := rdf.NewGraph()
	node := vocab.ResourceNode("Patient", p.ID)

	g.AddTriple(node, vocab.Identifier.Node(), rdf.Lit(p.ID))

	nameNode := vocab.NestedNode(node, "name")
	g.AddTriple(node, vocab.Name.Node(), nameNode)
	g.AddTriple(nameNode, vocab.Given.Node(), rdf.Lit(p.Name))
	g.AddTriple(nameNode, vocab.Family.Node(), rdf.Lit(p.Surname))
	g.AddTriple(nameNode, vocab.Text.Node(), rdf.Lit(p.Name+" "+p.Surname))

	g.AddTriple(node, vocab.BirthDate.Node(), rdf.TypedLit(p.DateOfBirth, rdf.XSDDate))
	g.AddTriple(node, vocab.Gender.Node(), rdf.Lit(p.Gender))

	for _, phone := range p.PhoneNumbers {
		c.addContactPoint(g, node, "phone", phone)
	}
	if p.Email != "" {
		c.addContactPoint(g, node, "email", p.Email)
	}

	return g
}

// addContactPoint emits one telecom block. The node is derived from the
// contact value itself so repeated conversions agree.
func (c *Converter) addContactPoint(g *rdf.Graph, patient rdf.Node, system, value string) {
	cp := vocab.NestedNode(patient, "telecom", value)
	g.AddTriple(patient, vocab.Telecom.Node(), cp)
	g.AddTriple(cp, vocab.System.Node(), rdf.Lit(system))
	g.AddTriple(cp, vocab.Value.Node(), rdf.Lit(value))
}

// Doctor emits a minimal practitioner subgraph: a single name triple. No
// license or specialty fields are exported.
func (c *Converter) Doctor(d *clinic.Doctor) (*rdf.Graph, rdf.Node) {
	g := rdf.NewGraph()
	node := vocab.ResourceNode("Practitioner", d.ID)
	g.AddTriple(node, vocab.Name.Node(), rdf.Lit(d.Name+" "+d.Surname))
	return g, node
}

// InterventionType emits a codeable concept block for a procedure type: the
// CDT code looked up by name, tagged with the procedure code system. An
// unmapped name fails the conversion rather than emitting a record nobody
// can resolve on import.
func (c *Converter) InterventionType(t *clinic.InterventionType) (*rdf.Graph, rdf.Node, error) {
	code, err := c.procedures.CodeForName(t.Name)
	if err != nil {
		return nil, rdf.Node{}, err
	}
	if code == "" {
		return nil, rdf.Node{}, fmt.Errorf("no procedure code mapped for intervention type %q", t.Name)
	}

	g := rdf.NewGraph()
	concept := vocab.ResourceNode("ProcedureType", t.ID)
	coding := vocab.NestedNode(concept, "coding")

	g.AddTriple(concept, vocab.Coding.Node(), coding)
	g.AddTriple(concept, vocab.Text.Node(), rdf.Lit(t.Name))
	g.AddTriple(coding, vocab.System.Node(), rdf.Sym(vocab.ProcedureCodeSystem))
	g.AddTriple(coding, vocab.Code.Node(), rdf.Lit(code))
	g.AddTriple(coding, vocab.Display.Node(), rdf.Lit(t.Name))

	return g, concept, nil
}

// Intervention emits the procedure subgraph: code reference to the embedded
// type conversion, occurrence date, mapped clinical status, an optional
// performer indirection to the doctor, and one body-site block per affected
// tooth.
func (c *Converter) Intervention(iv *clinic.Intervention, typ *clinic.InterventionType, doctor *clinic.Doctor) (*rdf.Graph, error) {
	typeGraph, concept, err := c.InterventionType(typ)
	if err != nil {
		return nil, fmt.Errorf("converting intervention %s: %w", iv.ID, err)
	}

	g := rdf.NewGraph()
	node := vocab.ResourceNode("Procedure", iv.ID)

	g.AddTriple(node, vocab.Code.Node(), concept)
	g.AddTriple(node, vocab.OccurrenceDateTime.Node(), rdf.TypedLit(iv.Date, rdf.XSDDate))
	g.AddTriple(node, vocab.Status.Node(), rdf.Lit(ExportStatus(iv.State)))
	g.Merge(typeGraph)

	if doctor != nil {
		performer := vocab.NestedNode(node, "performer")
		doctorGraph, doctorNode := c.Doctor(doctor)
		g.AddTriple(node, vocab.Performer.Node(), performer)
		g.AddTriple(performer, vocab.Actor.Node(), doctorNode)
		g.Merge(doctorGraph)
	}

	for _, tooth := range iv.TeethAffected {
		name, err := terminology.ToothName(tooth)
		if err != nil {
			return nil, fmt.Errorf("converting intervention %s: %w", iv.ID, err)
		}

		toothStr := strconv.Itoa(tooth)
		bodySite := vocab.NestedNode(node, "bodySite", toothStr)
		coding := vocab.NestedNode(bodySite, "coding")

		g.AddTriple(node, vocab.BodySite.Node(), bodySite)
		g.AddTriple(bodySite, vocab.Coding.Node(), coding)
		g.AddTriple(bodySite, vocab.Text.Node(), rdf.Lit(name))
		g.AddTriple(coding, vocab.System.Node(), rdf.Sym(vocab.ToothNotationSystem))
		g.AddTriple(coding, vocab.Code.Node(), rdf.Lit(toothStr))
		g.AddTriple(coding, vocab.Display.Node(), rdf.Lit(name))
	}

	return g, nil
}

// AllergyType emits a codeable concept block for an allergy catalogue entry,
// tagged with the SNOMED code system.
func (c *Converter) AllergyType(cat *clinic.AllergyCatalogue) (*rdf.Graph, rdf.Node, error) {
	code, err := c.allergies.StandardCode(cat.Code)
	if err != nil {
		return nil, rdf.Node{}, err
	}
	if code == "" {
		return nil, rdf.Node{}, fmt.Errorf("no standard allergy code mapped for catalogue code %q", cat.Code)
	}

	g := rdf.NewGraph()
	concept := vocab.ResourceNode("AllergyType", cat.ID)
	coding := vocab.NestedNode(concept, "coding")

	g.AddTriple(concept, vocab.Coding.Node(), coding)
	g.AddTriple(concept, vocab.Text.Node(), rdf.Lit(cat.Name))
	g.AddTriple(coding, vocab.System.Node(), rdf.Sym(vocab.AllergyCodeSystem))
	g.AddTriple(coding, vocab.Code.Node(), rdf.Lit(code))
	g.AddTriple(coding, vocab.Display.Node(), rdf.Lit(cat.Name))

	return g, concept, nil
}

// Allergy emits the allergy-intolerance subgraph for one patient-allergy
// relation: code reference to the embedded catalogue conversion, criticality,
// a clinical-status indirection block and the recorded date.
func (c *Converter) Allergy(rel *clinic.PatientAllergy, cat *clinic.AllergyCatalogue) (*rdf.Graph, error) {
	typeGraph, concept, err := c.AllergyType(cat)
	if err != nil {
		return nil, fmt.Errorf("converting allergy %s: %w", rel.ID, err)
	}

	g := rdf.NewGraph()
	node := vocab.ResourceNode("AllergyIntolerance", rel.ID)

	g.AddTriple(node, vocab.Code.Node(), concept)
	g.AddTriple(node, vocab.Criticality.Node(), rdf.Lit(rel.Severity))

	status := vocab.NestedNode(node, "clinicalStatus")
	statusCoding := vocab.NestedNode(status, "coding")
	g.AddTriple(node, vocab.ClinicalStatus.Node(), status)
	g.AddTriple(status, vocab.Coding.Node(), statusCoding)
	g.AddTriple(statusCoding, vocab.System.Node(), rdf.Sym(vocab.ClinicalStatusSystem))
	g.AddTriple(statusCoding, vocab.Code.Node(), rdf.Lit(rel.Status))
	g.AddTriple(statusCoding, vocab.Display.Node(), rdf.Lit(capitalize(rel.Status)))

	g.AddTriple(node, vocab.RecordedDate.Node(), rdf.TypedLit(rel.DetectionDate, rdf.XSDDate))
	g.Merge(typeGraph)

	return g, nil
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
