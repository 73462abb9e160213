package rdf

import "strings"

// SerializeNTriples renders the graph as N-Triples, one statement per line in
// insertion order. The output is the plain triple text uploaded to the pod;
// it carries no prefix or container syntax so the line parser can read it
// back.
func SerializeNTriples(g *Graph) string {
	var sb strings.Builder
	for _, st := range g.Statements() {
		sb.WriteString(st.Subject.NTriples())
		sb.WriteString(" ")
		sb.WriteString(st.Predicate.NTriples())
		sb.WriteString(" ")
		sb.WriteString(st.Object.NTriples())
		sb.WriteString(" .\n")
	}
	return sb.String()
}
