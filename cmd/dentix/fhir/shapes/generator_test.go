package shapes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/vocab"
	"github.com/SmileCareNL/dentix/cmd/dentix/rdf"
)

func TestGenerateClassifiesPatientAndCoding(t *testing.T) {
	g := rdf.NewGraph()

	patient := vocab.ResourceNode("Patient", "p1")
	g.AddTriple(patient, vocab.Name.Node(), rdf.Lit("John Doe"))
	g.AddTriple(patient, vocab.BirthDate.Node(), rdf.Lit("1990-04-02"))
	g.AddTriple(patient, vocab.Gender.Node(), rdf.Lit("male"))

	coding := vocab.NestedNode(patient, "coding")
	g.AddTriple(coding, vocab.System.Node(), rdf.Sym(vocab.ProcedureCodeSystem))
	g.AddTriple(coding, vocab.Code.Node(), rdf.Lit("D1110"))
	g.AddTriple(coding, vocab.Display.Node(), rdf.Lit("Cleaning"))

	out := Generate(g)

	// Shapes sort lexicographically, so the coding line comes first and only
	// the last line has no trailing comma.
	want := "<" + coding.URI + ">@CodingShape,\n" +
		"<" + patient.URI + ">@PatientShape"
	assert.Equal(t, want, out)
}

// A subject satisfying both the patient and the coding predicate sets takes
// the first matching rule.
func TestGenerateFirstMatchWins(t *testing.T) {
	g := rdf.NewGraph()

	node := vocab.ResourceNode("Patient", "p1")
	g.AddTriple(node, vocab.Name.Node(), rdf.Lit("John Doe"))
	g.AddTriple(node, vocab.BirthDate.Node(), rdf.Lit("1990-04-02"))
	g.AddTriple(node, vocab.Gender.Node(), rdf.Lit("male"))
	g.AddTriple(node, vocab.System.Node(), rdf.Sym(vocab.ProcedureCodeSystem))
	g.AddTriple(node, vocab.Code.Node(), rdf.Lit("D1110"))
	g.AddTriple(node, vocab.Display.Node(), rdf.Lit("Cleaning"))

	out := Generate(g)
	assert.Equal(t, "<"+node.URI+">@PatientShape", out)
}

func TestGeneratePractitionerExcludesBirthDate(t *testing.T) {
	g := rdf.NewGraph()

	practitioner := vocab.ResourceNode("Practitioner", "d1")
	g.AddTriple(practitioner, vocab.Identifier.Node(), rdf.Lit("d1"))
	g.AddTriple(practitioner, vocab.Name.Node(), rdf.Lit("Eva Smit"))

	withBirthDate := vocab.ResourceNode("Practitioner", "d2")
	g.AddTriple(withBirthDate, vocab.Identifier.Node(), rdf.Lit("d2"))
	g.AddTriple(withBirthDate, vocab.Name.Node(), rdf.Lit("Jan Kok"))
	g.AddTriple(withBirthDate, vocab.BirthDate.Node(), rdf.Lit("1980-01-01"))

	out := Generate(g)
	assert.Contains(t, out, "<"+practitioner.URI+">@PractitionerShape")
	assert.NotContains(t, out, "<"+withBirthDate.URI+">@PractitionerShape")
}

func TestGenerateDropsUnclassifiedSubjects(t *testing.T) {
	g := rdf.NewGraph()
	node := vocab.ResourceNode("Patient", "p1")
	g.AddTriple(node, vocab.Gender.Node(), rdf.Lit("male"))

	assert.Empty(t, Generate(g))
}

func TestGenerateEmptyGraph(t *testing.T) {
	assert.Empty(t, Generate(rdf.NewGraph()))
}

func TestGenerateLineFormat(t *testing.T) {
	g := rdf.NewGraph()
	for _, id := range []string{"a1", "a2", "a3"} {
		cp := vocab.ResourceNode("ContactPoint", id)
		g.AddTriple(cp, vocab.System.Node(), rdf.Lit("phone"))
		g.AddTriple(cp, vocab.Value.Node(), rdf.Lit("+31"+id))
	}

	out := Generate(g)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		if i < len(lines)-1 {
			assert.True(t, strings.HasSuffix(line, ","), "line %d: %q", i, line)
		} else {
			assert.False(t, strings.HasSuffix(line, ","), "last line: %q", line)
		}
	}
	assert.False(t, strings.HasSuffix(out, "\n"))
}
