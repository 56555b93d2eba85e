package tags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGodog(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"@api", "@api"},
		{"not @Skip and not @ignore and @api", "~@Skip && ~@ignore && @api"},
		{"not @Skip and not @ignore and @api and (@smoke or @critical)", "~@Skip && ~@ignore && @api && @smoke,@critical"},
		{"not (@a or @b)", "~@a && ~@b"},
		{"not (@a and @b)", "~@a,~@b"},
		{"(@a and @b) or @c", "@a,@c && @b,@c"},
		{"@a or @a", "@a"},
		{"@a or not @a", ""},
		{"not not @a", "@a"},
		{"smoke", "@smoke"},
		{"(@a)and(@b)", "@a && @b"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ToGodog(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToGodog_Errors(t *testing.T) {
	tests := []struct {
		expr        string
		unsupported bool
	}{
		{expr: "@smoke,critical", unsupported: true},
		{expr: "smoke, critical", unsupported: true},
		{expr: "~@wip", unsupported: true},
		{expr: "@a&&@b", unsupported: true},
		{expr: "@"},
		{expr: "@a and"},
		{expr: "(@a or @b"},
		{expr: "@a @b"},
		{expr: "or @a"},
		{expr: "@a)"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := ToGodog(tt.expr)
			require.Error(t, err)
			if tt.unsupported {
				assert.ErrorIs(t, err, ErrUnsupportedTag)
			}
		})
	}
}

func TestToGodog_TooLarge(t *testing.T) {
	var parts []string
	for i := 0; i < 10; i++ {
		parts = append(parts, "(@a"+string(rune('a'+i))+" and @b"+string(rune('a'+i))+")")
	}
	_, err := ToGodog(strings.Join(parts, " or "))
	assert.ErrorContains(t, err, "clauses")
}

// godogMatch applies a filter the way godog does: "&&" separates clauses,
// "," separates alternatives and "~" negates.
func godogMatch(filter string, tags map[string]bool) bool {
	if filter == "" {
		return true
	}
	for _, c := range strings.Split(filter, "&&") {
		ok := false
		for _, tag := range strings.Split(c, ",") {
			tag = strings.TrimSpace(tag)
			if strings.HasPrefix(tag, "~") {
				ok = ok || !tags[tag[1:]]
			} else {
				ok = ok || tags[tag]
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func eval(n *node, tags map[string]bool) bool {
	switch n.kind {
	case nodeTag:
		return tags[n.tag]
	case nodeNot:
		return !eval(n.left, tags)
	case nodeAnd:
		return eval(n.left, tags) && eval(n.right, tags)
	default:
		return eval(n.left, tags) || eval(n.right, tags)
	}
}

func TestToGodog_SelectsSameScenarios(t *testing.T) {
	names := []string{"@a", "@b", "@c", "@d"}
	exprs := []string{
		"not @Skip and not @ignore and @a and (@b or @c)",
		"(@a or @b) and (@c or not @d)",
		"not ((@a and @b) or (@c and not @d))",
		"@a or @b and @c",
		"not @a or (@b and (@c or @d))",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			p := &parser{tokens: tokenize(expr)}
			n, err := p.parseOr()
			require.NoError(t, err)
			filter, err := ToGodog(expr)
			require.NoError(t, err)

			for mask := 0; mask < 1<<len(names); mask++ {
				set := map[string]bool{}
				for i, name := range names {
					if mask&(1<<i) != 0 {
						set[name] = true
					}
				}
				assert.Equal(t, eval(n, set), godogMatch(filter, set), "tags %v filter %q", set, filter)
			}
		})
	}
}
