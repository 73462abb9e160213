// Package rdf holds the in-memory triple model the pod export and import
// pipelines are built on: terms, statements, a transient graph, an N-Triples
// serializer and the matching line parser, and a basic-graph-pattern matcher.
package rdf

import (
	"fmt"
	"strings"
)

// XSD datatype URIs used for typed literals.
const (
	XSDDate     = "http://www.w3.org/2001/XMLSchema#date"
	XSDDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
	XSDInteger  = "http://www.w3.org/2001/XMLSchema#integer"
)

// Term is either a Node (a URI reference) or a Literal.
type Term interface {
	// NTriples renders the term in N-Triples syntax.
	NTriples() string
	// RawValue returns the URI of a Node or the value of a Literal.
	RawValue() string
}

// Node is a URI reference.
type Node struct {
	URI string
}

// Sym returns a Node for the given URI string.
func Sym(uri string) Node {
	return Node{URI: uri}
}

func (n Node) NTriples() string {
	return "<" + n.URI + ">"
}

func (n Node) RawValue() string {
	return n.URI
}

// Literal is a literal value with an optional XSD datatype.
type Literal struct {
	Value    string
	Datatype string
}

// Lit returns a plain string literal.
func Lit(value string) Literal {
	return Literal{Value: value}
}

// TypedLit returns a literal carrying an XSD datatype.
func TypedLit(value, datatype string) Literal {
	return Literal{Value: value, Datatype: datatype}
}

func (l Literal) NTriples() string {
	if l.Datatype != "" {
		return fmt.Sprintf(`"%s"^^<%s>`, escapeLiteral(l.Value), l.Datatype)
	}
	return `"` + escapeLiteral(l.Value) + `"`
}

func (l Literal) RawValue() string {
	return l.Value
}

// escapeLiteral escapes characters that would break an N-Triples literal.
func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

// Statement is a single (subject, predicate, object) triple. A statement has
// no identity beyond its three terms.
type Statement struct {
	Subject   Node
	Predicate Node
	Object    Term
}

func (s Statement) String() string {
	return fmt.Sprintf("%s %s %s .", s.Subject.NTriples(), s.Predicate.NTriples(), s.Object.NTriples())
}
