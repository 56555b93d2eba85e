// Package tags builds the godog tag expressions used to select scenarios.
package tags

import (
	"regexp"
	"strings"
)

// DefaultExcludes is prepended to every project expression.
const DefaultExcludes = "not @Skip and not @ignore"

var expressionPattern = regexp.MustCompile(`\s|@|\bnot\b|\band\b|\bor\b`)

// Options configures ForProject.
type Options struct {
	// ProjectTag selects the project's scenarios, e.g. "@api".
	ProjectTag string
	// ExtraTags is an already resolved expression ANDed onto the result.
	ExtraTags string
	// DefaultExcludes overrides DefaultExcludes when non-empty.
	DefaultExcludes string
}

// ForProject composes "{excludes} and {project}" plus "and ({extra})" when
// extra tags are given.
func ForProject(opts Options) string {
	excludes := opts.DefaultExcludes
	if excludes == "" {
		excludes = DefaultExcludes
	}
	expr := excludes + " and " + opts.ProjectTag
	if opts.ExtraTags != "" {
		expr += " and (" + opts.ExtraTags + ")"
	}
	return expr
}

// ResolveExtraTags turns user input into a tag expression. Empty input
// yields "". Input that already reads like an expression is returned
// trimmed; otherwise it is treated as a comma list of tag names that are
// @-prefixed and ORed together.
func ResolveExtraTags(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if expressionPattern.MatchString(trimmed) {
		return trimmed
	}

	var out []string
	for _, tok := range strings.Split(trimmed, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if !strings.HasPrefix(tok, "@") {
			tok = "@" + tok
		}
		out = append(out, tok)
	}
	return strings.Join(out, " or ")
}
