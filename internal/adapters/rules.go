package adapters

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"bddkit/internal/config"
	"bddkit/internal/world"
	"bddkit/pkg/logging"
)

var (
	uuidPattern  = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	testyPattern = regexp.MustCompile(`(?i)__|run[0-9a-f]+|test`)

	validate = validator.New()
)

// MatchKind selects how a VarMatcher compares variable names.
type MatchKind int

const (
	MatchSubstring MatchKind = iota
	MatchRegex
)

func (k MatchKind) String() string {
	if k == MatchRegex {
		return "regex"
	}
	return "substring"
}

// VarMatcher tests lower-cased variable names. The kind is fixed when the
// rule is compiled.
type VarMatcher struct {
	Kind  MatchKind
	Value string
	re    *regexp.Regexp
}

// Substring returns a matcher for names containing s.
func Substring(s string) VarMatcher {
	return VarMatcher{Kind: MatchSubstring, Value: strings.ToLower(s)}
}

// Regex returns a case-insensitive regular expression matcher.
func Regex(expr string) (VarMatcher, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return VarMatcher{}, fmt.Errorf("invalid varMatch expression %q: %w", expr, err)
	}
	return VarMatcher{Kind: MatchRegex, Value: expr, re: re}, nil
}

// ParseVarMatcher reads the wire form: "/expr/" is a regex, anything else a
// substring.
func ParseVarMatcher(raw string) (VarMatcher, error) {
	if len(raw) >= 2 && strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") {
		return Regex(raw[1 : len(raw)-1])
	}
	return Substring(raw), nil
}

// Matches reports whether name satisfies the matcher.
func (m VarMatcher) Matches(name string) bool {
	name = strings.ToLower(name)
	if m.Kind == MatchRegex {
		return m.re != nil && m.re.MatchString(name)
	}
	return strings.Contains(name, m.Value)
}

// CleanupRule maps matching variable names to a reversal request.
type CleanupRule struct {
	Match  VarMatcher
	Method string
	Path   string
}

// CompileRule validates spec and builds its matcher.
func CompileRule(spec config.RuleSpec) (CleanupRule, error) {
	spec.Method = strings.ToUpper(strings.TrimSpace(spec.Method))
	if err := validate.Struct(spec); err != nil {
		return CleanupRule{}, fmt.Errorf("invalid cleanup rule %q: %w", spec.VarMatch, err)
	}
	m, err := ParseVarMatcher(spec.VarMatch)
	if err != nil {
		return CleanupRule{}, err
	}
	method := spec.Method
	if method == "" {
		method = http.MethodDelete
	}
	return CleanupRule{Match: m, Method: method, Path: spec.Path}, nil
}

// CompileRules compiles every spec, failing on the first invalid one.
func CompileRules(specs []config.RuleSpec) ([]CleanupRule, error) {
	rules := make([]CleanupRule, 0, len(specs))
	for i, s := range specs {
		r, err := CompileRule(s)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// ParseRulesJSON compiles a JSON array of rules as found in CLEANUP_RULES.
func ParseRulesJSON(raw string) ([]CleanupRule, error) {
	var specs []config.RuleSpec
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, fmt.Errorf("failed to parse cleanup rules: %w", err)
	}
	return CompileRules(specs)
}

// DefaultRuleSpecs is the built-in rule table. More specific names come
// first since the first matching rule wins.
func DefaultRuleSpecs() []config.RuleSpec {
	return []config.RuleSpec{
		{VarMatch: "/api_?key/", Path: "/api/v1/api-keys/{id}"},
		{VarMatch: "webhook", Path: "/api/v1/webhooks/{id}"},
		{VarMatch: "team", Path: "/api/v1/teams/{id}"},
		{VarMatch: "role", Path: "/api/v1/roles/{id}"},
		{VarMatch: "project", Path: "/api/v1/projects/{id}"},
		{VarMatch: "/org(anization)?/", Path: "/api/v1/organizations/{id}"},
		{VarMatch: "user", Path: "/api/v1/users/{id}"},
	}
}

// DefaultRules compiles DefaultRuleSpecs.
func DefaultRules() []CleanupRule {
	rules, err := CompileRules(DefaultRuleSpecs())
	if err != nil {
		panic(err)
	}
	return rules
}

// RuleOption configures a RuleCleanup.
type RuleOption func(*RuleCleanup)

// WithRules overrides every configured rule source.
func WithRules(rules []CleanupRule) RuleOption {
	return func(c *RuleCleanup) {
		c.rules = rules
		c.explicit = true
	}
}

// WithAllowAll overrides the CLEANUP_ALLOW_ALL setting.
func WithAllowAll(allow bool) RuleOption {
	return func(c *RuleCleanup) {
		c.allowAll = allow
	}
}

// RuleCleanup implements ports.Cleanup by matching variable names against
// cleanup rules.
type RuleCleanup struct {
	rules    []CleanupRule
	allowAll bool
	explicit bool
}

// NewRuleCleanup loads rules once. Precedence: WithRules, then
// CLEANUP_RULES, then rules from the config file, then the default table.
// Invalid sources are logged and skipped.
func NewRuleCleanup(cfg config.Config, opts ...RuleOption) *RuleCleanup {
	c := &RuleCleanup{allowAll: cfg.Cleanup.AllowAll}
	for _, opt := range opts {
		opt(c)
	}
	if c.explicit {
		return c
	}

	if raw := strings.TrimSpace(cfg.Cleanup.RulesJSON); raw != "" {
		rules, err := ParseRulesJSON(raw)
		if err == nil {
			c.rules = rules
			return c
		}
		logging.WarnErr("Registrar", err, "Ignoring CLEANUP_RULES")
	}

	if len(cfg.Cleanup.Rules) > 0 {
		rules, err := CompileRules(cfg.Cleanup.Rules)
		if err == nil {
			c.rules = rules
			return c
		}
		logging.WarnErr("Registrar", err, "Ignoring cleanup rules from config file")
	}

	c.rules = DefaultRules()
	return c
}

// Rules returns the active rules in match order.
func (c *RuleCleanup) Rules() []CleanupRule {
	out := make([]CleanupRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// RegisterFromVar queues a reversal request when id is UUID shaped, the
// gate is open and a rule matches varName.
func (c *RuleCleanup) RegisterFromVar(w *world.World, varName, id string, meta string) bool {
	if id == "" || !uuidPattern.MatchString(id) {
		return false
	}
	if !c.allowAll && !looksTesty(varName) && !looksTesty(meta) {
		logging.Debug("Registrar", "Not registering cleanup for %s: name does not look like test data", varName)
		return false
	}

	for _, rule := range c.rules {
		if !rule.Match.Matches(varName) {
			continue
		}
		added := w.Register(world.CleanupItem{
			Method: rule.Method,
			Path:   strings.ReplaceAll(rule.Path, "{id}", id),
		})
		if added {
			logging.Debug("Registrar", "Registered cleanup %s %s for %s", rule.Method, rule.Path, varName)
		}
		return added
	}
	return false
}

// Register queues item unconditionally.
func (c *RuleCleanup) Register(w *world.World, item world.CleanupItem) bool {
	return w.Register(item)
}

func looksTesty(s string) bool {
	return s != "" && testyPattern.MatchString(s)
}
