// Package vocab is the closed vocabulary surface of the pod interop layer:
// the FHIR predicates the converters emit, the code-system URIs terminology
// codes are tagged with, and the deterministic resource-node URI scheme.
// Keeping the vocabulary as typed constants means a predicate typo is a
// compile error, not a silently unclassifiable graph node.
package vocab

import (
	"strings"

	"github.com/SmileCareNL/dentix/cmd/dentix/rdf"
)

// Namespace roots.
const (
	FHIRBase     = "http://hl7.org/fhir/"
	ResourceBase = "https://dentix.smilecare.nl/fhir/"
)

// Code-system URIs attached to coding blocks.
const (
	ProcedureCodeSystem  = "http://www.ada.org/cdt"
	ToothNotationSystem  = "http://hl7.org/fhir/fdi-tooth-notation"
	AllergyCodeSystem    = "http://snomed.info/sct"
	ClinicalStatusSystem = "http://terminology.hl7.org/CodeSystem/allergyintolerance-clinical"
)

// Predicate is one of the FHIR properties the converters may emit.
type Predicate string

const (
	Name               Predicate = "name"
	Given              Predicate = "given"
	Family             Predicate = "family"
	Text               Predicate = "text"
	Identifier         Predicate = "identifier"
	BirthDate          Predicate = "birthDate"
	Gender             Predicate = "gender"
	Telecom            Predicate = "telecom"
	System             Predicate = "system"
	Value              Predicate = "value"
	Code               Predicate = "code"
	Coding             Predicate = "coding"
	Display            Predicate = "display"
	Status             Predicate = "status"
	OccurrenceDateTime Predicate = "occurrenceDateTime"
	BodySite           Predicate = "bodySite"
	Performer          Predicate = "performer"
	Actor              Predicate = "actor"
	Criticality        Predicate = "criticality"
	ClinicalStatus     Predicate = "clinicalStatus"
	RecordedDate       Predicate = "recordedDate"
)

// URI renders the predicate as its full FHIR URI.
func (p Predicate) URI() string {
	return FHIRBase + string(p)
}

// Node returns the predicate as a graph node.
func (p Predicate) Node() rdf.Node {
	return rdf.Sym(p.URI())
}

// ResourceURI derives the synthetic node URI for an entity of the given kind
// and id. The derivation is deterministic: converting the same entity twice
// anchors both graphs at the same node.
func ResourceURI(kind, id string) string {
	return ResourceBase + kind + "/" + id
}

// ResourceNode is ResourceURI wrapped as a node.
func ResourceNode(kind, id string) rdf.Node {
	return rdf.Sym(ResourceURI(kind, id))
}

// NestedNode derives the node for a nested value block (coding, contact
// point, name) from its parent node and one or more discriminator segments.
func NestedNode(parent rdf.Node, segments ...string) rdf.Node {
	return rdf.Sym(parent.URI + "/" + strings.Join(segments, "/"))
}
