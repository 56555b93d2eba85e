// Package vars holds the string and JSON helpers used by step definitions:
// variable interpolation, JSON path selection and expected-value parsing.
package vars

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{([A-Za-z0-9_-]+)\}`)

// Interpolate replaces every {name} token in template with vars[name].
// Unknown tokens are left verbatim. Substitution is a single pass: a value
// that itself contains {...} text is not expanded again.
func Interpolate(template string, vars map[string]string) string {
	if !strings.Contains(template, "{") {
		return template
	}
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

// ParseExpected interpolates input against vars and then coerces the result:
// "null" becomes nil, "true"/"false" become bools, a finite number becomes
// float64, anything else stays a string.
//
// Coercion runs after interpolation, so a variable holding "42" compares as
// the number 42.
func ParseExpected(input string, vars map[string]string) any {
	s := Interpolate(input, vars)
	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	trimmed := strings.TrimSpace(s)
	if trimmed != "" {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f
		}
	}
	return s
}
