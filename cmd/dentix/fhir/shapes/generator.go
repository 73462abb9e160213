// Package shapes infers a structural shape for every subject node of an
// assembled graph and renders the node->shape mapping as a flat shape map.
// This is a heuristic classification of what the graph happens to contain,
// not schema validation: the static ShEx schema shipped alongside the export
// is a separate, hand-written artifact.
package shapes

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/vocab"
	"github.com/SmileCareNL/dentix/cmd/dentix/rdf"
)

// rule classifies a subject by the predicates attached to it. Rules are
// checked in order and the first match wins, so more specific predicate sets
// come first.
type rule struct {
	name string
	all  []vocab.Predicate
	none []vocab.Predicate
}

var rules = []rule{
	{name: "PatientShape", all: []vocab.Predicate{vocab.Name, vocab.BirthDate, vocab.Gender}},
	{name: "ProcedureShape", all: []vocab.Predicate{vocab.Code, vocab.OccurrenceDateTime, vocab.Status}},
	{name: "PractitionerShape", all: []vocab.Predicate{vocab.Identifier, vocab.Name}, none: []vocab.Predicate{vocab.BirthDate}},
	{name: "PerformerShape", all: []vocab.Predicate{vocab.Actor}},
	{name: "ContactPointShape", all: []vocab.Predicate{vocab.System, vocab.Value}},
	{name: "AllergyIntoleranceShape", all: []vocab.Predicate{vocab.Code, vocab.ClinicalStatus, vocab.RecordedDate}},
	{name: "CodeableConceptShape", all: []vocab.Predicate{vocab.Coding, vocab.Text}},
	{name: "CodingShape", all: []vocab.Predicate{vocab.System, vocab.Code, vocab.Display}},
}

// Generate scans the graph once, classifies every subject against the rule
// list and emits one "<subject>@Shape" line per classified node. Shapes are
// sorted lexicographically, subjects stay in discovery order, and every line
// but the last is comma-terminated. Subjects matching no rule are dropped.
// Malformed graphs never make Generate fail; at worst the output is empty.
func Generate(g *rdf.Graph) string {
	subjects, order := predicatesBySubject(g)

	byShape := make(map[string][]string)
	for _, subject := range order {
		shape, ok := classify(subjects[subject])
		if !ok {
			continue
		}
		byShape[shape] = append(byShape[shape], subject)
	}

	names := make([]string, 0, len(byShape))
	for name := range byShape {
		names = append(names, name)
	}
	slices.Sort(names)

	var lines []string
	for _, name := range names {
		for _, subject := range byShape[name] {
			lines = append(lines, "<"+subject+">@"+name)
		}
	}
	return strings.Join(lines, ",\n")
}

// predicatesBySubject builds subject -> observed predicate URIs, keeping the
// order in which subjects first appear.
func predicatesBySubject(g *rdf.Graph) (map[string][]string, []string) {
	subjects := make(map[string][]string)
	var order []string

	for _, st := range g.Statements() {
		uri := st.Subject.URI
		if _, seen := subjects[uri]; !seen {
			order = append(order, uri)
		}
		subjects[uri] = append(subjects[uri], st.Predicate.URI)
	}
	return subjects, order
}

func classify(predicates []string) (string, bool) {
	for _, r := range rules {
		if matches(r, predicates) {
			return r.name, true
		}
	}
	return "", false
}

func matches(r rule, predicates []string) bool {
	for _, p := range r.all {
		if !hasProperty(predicates, p) {
			return false
		}
	}
	for _, p := range r.none {
		if hasProperty(predicates, p) {
			return false
		}
	}
	return true
}

// hasProperty is deliberately loose, matching by URI substring: a predicate
// counts as carrying property p when its URI contains "/fhir/<p>" or ends
// with "/<p>". Predicates whose URIs share suffixes can therefore satisfy a
// rule they were not emitted for.
func hasProperty(predicates []string, p vocab.Predicate) bool {
	infix := "/fhir/" + string(p)
	suffix := "/" + string(p)
	for _, uri := range predicates {
		if strings.Contains(uri, infix) || strings.HasSuffix(uri, suffix) {
			return true
		}
	}
	return false
}
