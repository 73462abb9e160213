package rdf

// Graph is an append-ordered collection of statements. One graph is built per
// export or import operation and discarded afterwards; nothing caches graphs
// across calls. Duplicate statements are kept as-is, they are semantically
// inert.
type Graph struct {
	statements []Statement
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends a single statement.
func (g *Graph) Add(st Statement) {
	g.statements = append(g.statements, st)
}

// AddTriple appends a statement built from its three terms.
func (g *Graph) AddTriple(subject, predicate Node, object Term) {
	g.statements = append(g.statements, Statement{Subject: subject, Predicate: predicate, Object: object})
}

// AddAll appends every statement in the slice.
func (g *Graph) AddAll(sts []Statement) {
	g.statements = append(g.statements, sts...)
}

// Merge appends every statement of other into g. The other graph is left
// untouched.
func (g *Graph) Merge(other *Graph) {
	if other == nil {
		return
	}
	g.statements = append(g.statements, other.statements...)
}

// Statements returns the underlying statement slice in insertion order.
// Callers must not mutate it.
func (g *Graph) Statements() []Statement {
	return g.statements
}

// Len returns the number of statements in the graph.
func (g *Graph) Len() int {
	return len(g.statements)
}
