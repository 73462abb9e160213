package rdf

// Var is a query variable. A Var in a pattern position is bound by the
// matcher; any other term must match exactly.
type Var string

// Pattern is a single triple pattern. Each position holds a Node, a Literal
// or a Var.
type Pattern struct {
	Subject   any
	Predicate any
	Object    any
}

// Binding maps query variables to the terms they were bound to. The result
// of a query is a finite slice of bindings, one per solution, consumed with
// a plain range loop.
type Binding map[Var]Term

// Matcher answers conjunctive basic-graph-pattern queries over a graph. The
// import pipeline only ever needs fixed pattern templates, so this stands in
// for a full query engine.
type Matcher interface {
	Query(g *Graph, patterns []Pattern) []Binding
}

// Query matches all patterns conjunctively against g and returns every
// consistent binding of the variables, in graph order of the first pattern's
// matches.
func Query(g *Graph, patterns []Pattern) []Binding {
	if len(patterns) == 0 {
		return nil
	}
	return solve(g, patterns, Binding{})
}

func solve(g *Graph, patterns []Pattern, bound Binding) []Binding {
	if len(patterns) == 0 {
		return []Binding{cloneBinding(bound)}
	}

	var results []Binding
	pattern := patterns[0]
	for _, st := range g.Statements() {
		next, ok := unify(pattern, st, bound)
		if !ok {
			continue
		}
		results = append(results, solve(g, patterns[1:], next)...)
	}
	return results
}

// unify matches one statement against one pattern under the current binding.
// It returns an extended binding on success.
func unify(p Pattern, st Statement, bound Binding) (Binding, bool) {
	next := bound
	var ok bool
	if next, ok = unifyTerm(p.Subject, st.Subject, next); !ok {
		return nil, false
	}
	if next, ok = unifyTerm(p.Predicate, st.Predicate, next); !ok {
		return nil, false
	}
	if next, ok = unifyTerm(p.Object, st.Object, next); !ok {
		return nil, false
	}
	return next, true
}

func unifyTerm(pos any, term Term, bound Binding) (Binding, bool) {
	switch want := pos.(type) {
	case Var:
		if existing, ok := bound[want]; ok {
			if !sameTerm(existing, term) {
				return nil, false
			}
			return bound, true
		}
		next := cloneBinding(bound)
		next[want] = term
		return next, true
	case Node:
		other, ok := term.(Node)
		if !ok || other.URI != want.URI {
			return nil, false
		}
		return bound, true
	case Literal:
		other, ok := term.(Literal)
		if !ok || other.Value != want.Value {
			return nil, false
		}
		return bound, true
	default:
		return nil, false
	}
}

func sameTerm(a, b Term) bool {
	switch at := a.(type) {
	case Node:
		bt, ok := b.(Node)
		return ok && at.URI == bt.URI
	case Literal:
		bt, ok := b.(Literal)
		return ok && at.Value == bt.Value
	}
	return false
}

func cloneBinding(b Binding) Binding {
	out := make(Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// BGPMatcher is the default Matcher backed by Query.
type BGPMatcher struct{}

func (BGPMatcher) Query(g *Graph, patterns []Pattern) []Binding {
	return Query(g, patterns)
}
