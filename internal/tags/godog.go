package tags

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// maxClauses bounds the size of a converted filter. Distributing "or" over
// "and" can grow the filter exponentially.
const maxClauses = 256

// ErrUnsupportedTag is returned for tag names godog's filter cannot express.
var ErrUnsupportedTag = errors.New("tag name cannot be used in a godog filter")

// ToGodog rewrites a tag expression such as "not @a and (@b or @c)" into the
// filter syntax godog applies to scenarios: clauses joined by "&&", tags
// inside a clause joined by "," and negation written "~@tag". Every
// expression has such a form (conjunctive normal form); an empty expression
// yields an empty filter, which selects everything.
func ToGodog(expr string) (string, error) {
	if strings.TrimSpace(expr) == "" {
		return "", nil
	}

	p := &parser{tokens: tokenize(expr)}
	n, err := p.parseOr()
	if err != nil {
		return "", fmt.Errorf("parse tag expression %q: %w", expr, err)
	}
	if tok, ok := p.peek(); ok {
		return "", fmt.Errorf("parse tag expression %q: unexpected %q", expr, tok)
	}

	clauses, err := toCNF(n, false)
	if err != nil {
		return "", fmt.Errorf("convert tag expression %q: %w", expr, err)
	}
	return render(clauses), nil
}

type nodeKind int

const (
	nodeTag nodeKind = iota
	nodeNot
	nodeAnd
	nodeOr
)

type node struct {
	kind        nodeKind
	tag         string
	left, right *node
}

func tokenize(expr string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range expr {
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (string, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) parseOr() (*node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if tok, ok := p.peek(); !ok || tok != "or" {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeOr, left: left, right: right}
	}
}

func (p *parser) parseAnd() (*node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		if tok, ok := p.peek(); !ok || tok != "and" {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeAnd, left: left, right: right}
	}
}

func (p *parser) parseUnary() (*node, error) {
	tok, ok := p.next()
	if !ok {
		return nil, errors.New("unexpected end of expression")
	}
	switch tok {
	case "not":
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeNot, left: operand}, nil
	case "(":
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing, ok := p.next(); !ok || closing != ")" {
			return nil, errors.New("missing )")
		}
		return inner, nil
	case ")", "and", "or":
		return nil, fmt.Errorf("unexpected %q", tok)
	}
	name, err := tagName(tok)
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeTag, tag: name}, nil
}

// tagName normalizes tok to "@name". godog drops every "@", splits on ","
// and "&&" and treats a leading "~" as negation, so names using those
// characters are rejected.
func tagName(tok string) (string, error) {
	name := strings.ReplaceAll(tok, "@", "")
	if name == "" || strings.HasPrefix(name, "~") || strings.ContainsAny(name, ",&") {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTag, tok)
	}
	return "@" + name, nil
}

type literal struct {
	tag string
	neg bool
}

func (l literal) String() string {
	if l.neg {
		return "~" + l.tag
	}
	return l.tag
}

type clause []literal

// toCNF converts n (negated when neg is set) into clauses that must all
// hold, each satisfied by any one of its literals.
func toCNF(n *node, neg bool) ([]clause, error) {
	switch n.kind {
	case nodeTag:
		return []clause{{{tag: n.tag, neg: neg}}}, nil
	case nodeNot:
		return toCNF(n.left, !neg)
	}

	left, err := toCNF(n.left, neg)
	if err != nil {
		return nil, err
	}
	right, err := toCNF(n.right, neg)
	if err != nil {
		return nil, err
	}

	// De Morgan: a negated "and" is an "or" and vice versa.
	conjunction := (n.kind == nodeAnd) != neg
	if conjunction {
		return simplify(append(left, right...))
	}

	if len(left)*len(right) > maxClauses {
		return nil, fmt.Errorf("expression expands to more than %d clauses", maxClauses)
	}
	out := make([]clause, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			merged := make(clause, 0, len(l)+len(r))
			merged = append(merged, l...)
			merged = append(merged, r...)
			out = append(out, merged)
		}
	}
	return simplify(out)
}

// simplify removes repeated literals and clauses, and drops clauses that
// always hold because they contain a tag and its negation.
func simplify(clauses []clause) ([]clause, error) {
	out := make([]clause, 0, len(clauses))
	seenClause := map[string]bool{}
	for _, c := range clauses {
		seen := map[literal]bool{}
		var kept clause
		tautology := false
		for _, l := range c {
			if seen[l] {
				continue
			}
			if seen[literal{tag: l.tag, neg: !l.neg}] {
				tautology = true
				break
			}
			seen[l] = true
			kept = append(kept, l)
		}
		if tautology {
			continue
		}
		key := kept.String()
		if seenClause[key] {
			continue
		}
		seenClause[key] = true
		out = append(out, kept)
	}
	if len(out) > maxClauses {
		return nil, fmt.Errorf("expression expands to more than %d clauses", maxClauses)
	}
	return out, nil
}

func (c clause) String() string {
	parts := make([]string, len(c))
	for i, l := range c {
		parts[i] = l.String()
	}
	return strings.Join(parts, ",")
}

func render(clauses []clause) string {
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " && ")
}
