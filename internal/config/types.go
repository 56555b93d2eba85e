package config

// ProjectKind tells fixtures which surface a project exercises.
type ProjectKind string

const (
	ProjectKindAPI ProjectKind = "api"
	ProjectKindUI  ProjectKind = "ui"
	ProjectKindTUI ProjectKind = "tui"
)

// Config is the merged bddkit configuration.
type Config struct {
	// APIBaseURL is the explicit base URL override (API_BASE_URL).
	APIBaseURL string `yaml:"api_base_url,omitempty"`
	// ControlTowerBaseURL is the alternate override (CONTROL_TOWER_BASE_URL).
	ControlTowerBaseURL string `yaml:"control_tower_base_url,omitempty"`
	// ControlTowerPort derives http://localhost:<port> (CONTROL_TOWER_PORT).
	ControlTowerPort string `yaml:"control_tower_port,omitempty"`
	// UIBaseURL resolves relative browser navigation (UI_BASE_URL).
	UIBaseURL string `yaml:"ui_base_url,omitempty"`

	// Project is the active project name (BDDKIT_PROJECT).
	Project  string    `yaml:"project,omitempty"`
	Projects []Project `yaml:"projects,omitempty"`
	// Tags holds extra tags in raw form (BDDKIT_TAGS).
	Tags string `yaml:"tags,omitempty"`

	Admin     Credentials `yaml:"admin,omitempty"`
	User      Credentials `yaml:"user,omitempty"`
	LoginPath string      `yaml:"login_path,omitempty"`

	Cleanup CleanupSettings `yaml:"cleanup,omitempty"`
	Browser BrowserSettings `yaml:"browser,omitempty"`
}

// Project describes one test project: its selecting tag and surface.
type Project struct {
	Name    string      `yaml:"name"`
	Tag     string      `yaml:"tag"`
	Kind    ProjectKind `yaml:"kind"`
	BaseURL string      `yaml:"base_url,omitempty"`
}

// Credentials holds a login pair.
type Credentials struct {
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// CleanupSettings configures heuristic cleanup registration.
type CleanupSettings struct {
	// AllowAll disables the "looks like test data" gate (CLEANUP_ALLOW_ALL).
	AllowAll bool `yaml:"allow_all,omitempty"`
	// Rules from the project file; used when CLEANUP_RULES is unset.
	Rules []RuleSpec `yaml:"rules,omitempty"`
	// RulesJSON is the raw CLEANUP_RULES value.
	RulesJSON string `yaml:"-"`
}

// RuleSpec is the wire form of a cleanup rule. VarMatch is a substring or,
// when wrapped in slashes, a regular expression.
type RuleSpec struct {
	VarMatch string `yaml:"var_match" json:"varMatch" validate:"required"`
	Method   string `yaml:"method,omitempty" json:"method,omitempty" validate:"omitempty,oneof=DELETE POST PATCH PUT"`
	Path     string `yaml:"path" json:"path" validate:"required,contains={id}"`
}

// BrowserSettings configures the go-rod UI adapter.
type BrowserSettings struct {
	// Headed shows the browser window; the default is headless.
	Headed              bool   `yaml:"headed,omitempty"`
	Bin                 string `yaml:"bin,omitempty"`
	ControlURL          string `yaml:"control_url,omitempty"`
	NavigationTimeoutMs int    `yaml:"navigation_timeout_ms,omitempty"`

	LoginPath        string `yaml:"login_path,omitempty"`
	UsernameSelector string `yaml:"username_selector,omitempty"`
	PasswordSelector string `yaml:"password_selector,omitempty"`
	SubmitSelector   string `yaml:"submit_selector,omitempty"`
}

// ActiveProject returns the project named by c.Project.
func (c Config) ActiveProject() (Project, bool) {
	for _, p := range c.Projects {
		if p.Name == c.Project {
			return p, true
		}
	}
	return Project{}, false
}
