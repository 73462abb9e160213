package export

import (
	"strconv"

	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/vocab"
	"github.com/SmileCareNL/dentix/cmd/dentix/rdf"
)

// Fixed pattern templates the import pipeline runs over a reconstructed
// graph. Each template is a conjunctive basic graph pattern; results come
// back as a finite binding slice.
const (
	varNode        = rdf.Var("node")
	varStatus      = rdf.Var("status")
	varDate        = rdf.Var("date")
	varCriticality = rdf.Var("criticality")
	varConcept     = rdf.Var("concept")
	varCoding      = rdf.Var("coding")
	varCode        = rdf.Var("code")
)

// interventionBindings recovers one (node, status, date) binding per
// procedure node in the graph.
func interventionBindings(g *rdf.Graph) []rdf.Binding {
	return rdf.Query(g, []rdf.Pattern{
		{Subject: varNode, Predicate: vocab.Status.Node(), Object: varStatus},
		{Subject: varNode, Predicate: vocab.OccurrenceDateTime.Node(), Object: varDate},
	})
}

// allergyBindings recovers one (node, date, criticality) binding per
// allergy-intolerance node in the graph.
func allergyBindings(g *rdf.Graph) []rdf.Binding {
	return rdf.Query(g, []rdf.Pattern{
		{Subject: varNode, Predicate: vocab.RecordedDate.Node(), Object: varDate},
		{Subject: varNode, Predicate: vocab.Criticality.Node(), Object: varCriticality},
	})
}

// conceptCode resolves the code attached to node's codeable concept under
// the given code system. Returns false when the node carries no such coding.
func conceptCode(g *rdf.Graph, node rdf.Node, system string) (string, bool) {
	bindings := rdf.Query(g, []rdf.Pattern{
		{Subject: node, Predicate: vocab.Code.Node(), Object: varConcept},
		{Subject: varConcept, Predicate: vocab.Coding.Node(), Object: varCoding},
		{Subject: varCoding, Predicate: vocab.System.Node(), Object: rdf.Sym(system)},
		{Subject: varCoding, Predicate: vocab.Code.Node(), Object: varCode},
	})
	if len(bindings) == 0 {
		return "", false
	}
	return bindings[0][varCode].RawValue(), true
}

// clinicalStatus resolves the clinical-status code attached to an allergy
// node through its status indirection block.
func clinicalStatus(g *rdf.Graph, node rdf.Node) (string, bool) {
	bindings := rdf.Query(g, []rdf.Pattern{
		{Subject: node, Predicate: vocab.ClinicalStatus.Node(), Object: varConcept},
		{Subject: varConcept, Predicate: vocab.Coding.Node(), Object: varCoding},
		{Subject: varCoding, Predicate: vocab.System.Node(), Object: rdf.Sym(vocab.ClinicalStatusSystem)},
		{Subject: varCoding, Predicate: vocab.Code.Node(), Object: varCode},
	})
	if len(bindings) == 0 {
		return "", false
	}
	return bindings[0][varCode].RawValue(), true
}

// affectedTeeth resolves every tooth-notation code attached to node through
// its body-site blocks, in graph order. Codes that do not parse as numbers
// are dropped.
func affectedTeeth(g *rdf.Graph, node rdf.Node) []int {
	bindings := rdf.Query(g, []rdf.Pattern{
		{Subject: node, Predicate: vocab.BodySite.Node(), Object: varConcept},
		{Subject: varConcept, Predicate: vocab.Coding.Node(), Object: varCoding},
		{Subject: varCoding, Predicate: vocab.System.Node(), Object: rdf.Sym(vocab.ToothNotationSystem)},
		{Subject: varCoding, Predicate: vocab.Code.Node(), Object: varCode},
	})

	var teeth []int
	for _, b := range bindings {
		tooth, err := strconv.Atoi(b[varCode].RawValue())
		if err != nil {
			continue
		}
		teeth = append(teeth, tooth)
	}
	return teeth
}
