package config

const (
	DefaultLoginPath     = "/api/v1/auth/login"
	DefaultFallbackURL   = "http://localhost:3000"
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin"
)

// GetDefaultConfig returns the configuration used when no file or
// environment overrides exist.
func GetDefaultConfig() Config {
	return Config{
		Project: "api",
		Projects: []Project{
			{Name: "api", Tag: "@api", Kind: ProjectKindAPI},
			{Name: "ui", Tag: "@ui", Kind: ProjectKindUI},
			{Name: "tui", Tag: "@tui", Kind: ProjectKindTUI},
		},
		Admin: Credentials{
			Username: DefaultAdminUsername,
			Password: DefaultAdminPassword,
		},
		LoginPath: DefaultLoginPath,
		Browser: BrowserSettings{
			NavigationTimeoutMs: 30000,
			LoginPath:           "/login",
			UsernameSelector:    `input[name="username"]`,
			PasswordSelector:    `input[name="password"]`,
			SubmitSelector:      `button[type="submit"]`,
		},
	}
}
