package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withEnv replaces the environment lookup for the duration of a test.
func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = original })
}

// withProjectDir points the project config lookup at dir.
func withProjectDir(t *testing.T, dir string) {
	t.Helper()
	original := getProjectConfigPath
	getProjectConfigPath = func() (string, error) {
		return filepath.Join(dir, projectConfigDir, configFileName), nil
	}
	t.Cleanup(func() { getProjectConfigPath = original })
}

func writeProjectFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, projectConfigDir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, projectConfigDir, configFileName), []byte(content), 0644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	withEnv(t, nil)
	withProjectDir(t, t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig(), cfg)
	p, ok := cfg.ActiveProject()
	require.True(t, ok)
	assert.Equal(t, ProjectKindAPI, p.Kind)
}

func TestLoadConfig_ProjectFileOverride(t *testing.T) {
	dir := t.TempDir()
	withEnv(t, nil)
	withProjectDir(t, dir)
	writeProjectFile(t, dir, `
project: backoffice
login_path: /auth/token
projects:
  - name: backoffice
    tag: "@backoffice"
    kind: api
    base_url: http://backoffice.test
  - name: ui
    tag: "@web"
    kind: ui
cleanup:
  rules:
    - var_match: invoice
      path: /invoices/{id}
browser:
  headed: true
`)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/auth/token", cfg.LoginPath)
	assert.Len(t, cfg.Projects, 4)
	p, ok := cfg.ActiveProject()
	require.True(t, ok)
	assert.Equal(t, "http://backoffice.test", p.BaseURL)

	for _, p := range cfg.Projects {
		if p.Name == "ui" {
			assert.Equal(t, "@web", p.Tag)
		}
	}
	require.Len(t, cfg.Cleanup.Rules, 1)
	assert.Equal(t, "invoice", cfg.Cleanup.Rules[0].VarMatch)
	assert.True(t, cfg.Browser.Headed)
	assert.Equal(t, 30000, cfg.Browser.NavigationTimeoutMs)
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	withProjectDir(t, dir)
	writeProjectFile(t, dir, "login_path: /file/login\n")
	withEnv(t, map[string]string{
		"API_AUTH_LOGIN_PATH":    "/env/login",
		"API_BASE_URL":           "http://api.test",
		"CONTROL_TOWER_PORT":     "4100",
		"DEFAULT_ADMIN_EMAIL":    "admin@example.test",
		"DEFAULT_ADMIN_PASSWORD": "s3cret",
		"DEFAULT_USER_EMAIL":     "user@example.test",
		"CLEANUP_ALLOW_ALL":      "YES",
		"CLEANUP_RULES":          ` [{"varMatch":"x","path":"/x/{id}"}] `,
		"BROWSER_HEADLESS":       "false",
		"BDDKIT_PROJECT":         "ui",
	})

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/env/login", cfg.LoginPath)
	assert.Equal(t, "http://api.test", cfg.APIBaseURL)
	assert.Equal(t, "4100", cfg.ControlTowerPort)
	assert.Equal(t, "admin@example.test", cfg.Admin.Username)
	assert.Equal(t, "s3cret", cfg.Admin.Password)
	assert.Equal(t, "user@example.test", cfg.User.Username)
	assert.True(t, cfg.Cleanup.AllowAll)
	assert.Equal(t, `[{"varMatch":"x","path":"/x/{id}"}]`, cfg.Cleanup.RulesJSON)
	assert.True(t, cfg.Browser.Headed)
	assert.Equal(t, "ui", cfg.Project)
}

func TestLoadConfig_UsernameBeatsEmail(t *testing.T) {
	withProjectDir(t, t.TempDir())
	withEnv(t, map[string]string{
		"DEFAULT_ADMIN_EMAIL":    "admin@example.test",
		"DEFAULT_ADMIN_USERNAME": "root",
	})

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.Admin.Username)
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	withEnv(t, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tags: smoke\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", cfg.Tags)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	withEnv(t, nil)
	withProjectDir(t, dir)
	writeProjectFile(t, dir, "projects: [unterminated\n")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "On", " on "} {
		assert.True(t, IsTruthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "no", "off", "y"} {
		assert.False(t, IsTruthy(v), v)
	}
}
