package rdf

import (
	"net/url"
	"strings"
)

// ParseIssue reports a line the triple parser could not turn into a
// statement. Issues never abort a parse; the caller decides whether to log
// or surface them.
type ParseIssue struct {
	Line   int
	Text   string
	Reason string
}

// ParseTriples reads plain triple text line by line and rebuilds the
// statements. Empty lines are skipped. Lines that do not tokenize into at
// least subject, predicate and object are reported as issues and skipped.
//
// Objects are re-wrapped as node references when the stripped token is a
// syntactically valid absolute URI, otherwise they stay literals. Datatype
// suffixes (^^type) are discarded, so typed literals come back as plain
// strings.
func ParseTriples(text string) ([]Statement, []ParseIssue) {
	var (
		statements []Statement
		issues     []ParseIssue
	)

	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		tokens := tokenizeLine(trimmed)
		// Drop the statement terminator if it survived as its own token.
		if len(tokens) > 0 && tokens[len(tokens)-1] == "." {
			tokens = tokens[:len(tokens)-1]
		}
		if len(tokens) < 3 {
			issues = append(issues, ParseIssue{Line: i + 1, Text: trimmed, Reason: "expected subject, predicate and object"})
			continue
		}

		subject := stripAngles(tokens[0])
		predicate := stripAngles(tokens[1])
		if subject == "" || predicate == "" {
			issues = append(issues, ParseIssue{Line: i + 1, Text: trimmed, Reason: "empty subject or predicate"})
			continue
		}

		statements = append(statements, Statement{
			Subject:   Sym(subject),
			Predicate: Sym(predicate),
			Object:    parseObject(tokens[2]),
		})
	}

	return statements, issues
}

// tokenizeLine splits on spaces outside double-quoted spans. Backslash
// escapes inside quotes are honored so quoted literals may contain spaces
// and escaped quotes.
func tokenizeLine(line string) []string {
	var (
		tokens   []string
		current  strings.Builder
		inQuotes bool
		escaped  bool
	)

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && inQuotes:
			current.WriteRune(r)
			escaped = true
		case r == '"':
			current.WriteRune(r)
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// parseObject strips angle brackets, quotes and any ^^type suffix, then
// decides between node reference and literal.
func parseObject(token string) Term {
	if idx := strings.Index(token, `"^^`); idx >= 0 {
		token = token[:idx+1]
	}
	token = strings.TrimSuffix(token, ".")
	token = stripAngles(token)
	token = strings.Trim(token, `"`)
	token = unescapeLiteral(token)

	if isURI(token) {
		return Sym(token)
	}
	return Lit(token)
}

func stripAngles(s string) string {
	s = strings.TrimPrefix(s, "<")
	return strings.TrimSuffix(s, ">")
}

func unescapeLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\r`, "\r")
	s = strings.ReplaceAll(s, `\t`, "\t")
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

// isURI reports whether s is a syntactically valid absolute URI.
func isURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
