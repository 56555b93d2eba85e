package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"bddkit/pkg/logging"
)

// For mocking in tests
var osGetwd = os.Getwd
var lookupEnv = os.LookupEnv

const (
	projectConfigDir = ".bddkit"
	configFileName   = "config.yaml"
)

// LoadConfig layers the default configuration, the project file and the
// environment. An explicit path replaces the project file lookup.
func LoadConfig(path string) (Config, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. Project file, explicit or ./.bddkit/config.yaml
	filePath := path
	if filePath == "" {
		p, err := getProjectConfigPath()
		if err != nil {
			logging.Warn("Config", "Could not determine project config path: %v", err)
		}
		filePath = p
	}
	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			fileConfig, err := loadConfigFromFile(filePath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading config from %s: %w", filePath, err)
			}
			config = mergeConfigs(config, fileConfig)
		} else if path != "" {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	// 3. Environment
	return applyEnv(config), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	setString(&merged.APIBaseURL, overlay.APIBaseURL)
	setString(&merged.ControlTowerBaseURL, overlay.ControlTowerBaseURL)
	setString(&merged.ControlTowerPort, overlay.ControlTowerPort)
	setString(&merged.UIBaseURL, overlay.UIBaseURL)
	setString(&merged.Project, overlay.Project)
	setString(&merged.Tags, overlay.Tags)
	setString(&merged.LoginPath, overlay.LoginPath)
	setString(&merged.Admin.Username, overlay.Admin.Username)
	setString(&merged.Admin.Password, overlay.Admin.Password)
	setString(&merged.User.Username, overlay.User.Username)
	setString(&merged.User.Password, overlay.User.Password)

	// Projects merge by name; overlay wins
	if len(overlay.Projects) > 0 {
		byName := make(map[string]int, len(merged.Projects))
		projects := append([]Project(nil), merged.Projects...)
		for i, p := range projects {
			byName[p.Name] = i
		}
		for _, p := range overlay.Projects {
			if i, ok := byName[p.Name]; ok {
				projects[i] = p
				continue
			}
			byName[p.Name] = len(projects)
			projects = append(projects, p)
		}
		merged.Projects = projects
	}

	if overlay.Cleanup.AllowAll {
		merged.Cleanup.AllowAll = true
	}
	if len(overlay.Cleanup.Rules) > 0 {
		merged.Cleanup.Rules = overlay.Cleanup.Rules
	}

	b := overlay.Browser
	setString(&merged.Browser.Bin, b.Bin)
	setString(&merged.Browser.ControlURL, b.ControlURL)
	setString(&merged.Browser.LoginPath, b.LoginPath)
	setString(&merged.Browser.UsernameSelector, b.UsernameSelector)
	setString(&merged.Browser.PasswordSelector, b.PasswordSelector)
	setString(&merged.Browser.SubmitSelector, b.SubmitSelector)
	if b.NavigationTimeoutMs > 0 {
		merged.Browser.NavigationTimeoutMs = b.NavigationTimeoutMs
	}
	if b.Headed {
		merged.Browser.Headed = true
	}

	return merged
}

func applyEnv(config Config) Config {
	envString(&config.APIBaseURL, "API_BASE_URL")
	envString(&config.ControlTowerBaseURL, "CONTROL_TOWER_BASE_URL")
	envString(&config.ControlTowerPort, "CONTROL_TOWER_PORT")
	envString(&config.UIBaseURL, "UI_BASE_URL")
	envString(&config.Project, "BDDKIT_PROJECT")
	envString(&config.Tags, "BDDKIT_TAGS")
	envString(&config.LoginPath, "API_AUTH_LOGIN_PATH")

	envString(&config.Admin.Username, "DEFAULT_ADMIN_EMAIL")
	envString(&config.Admin.Username, "DEFAULT_ADMIN_USERNAME")
	envString(&config.Admin.Password, "DEFAULT_ADMIN_PASSWORD")
	envString(&config.User.Username, "DEFAULT_USER_EMAIL")
	envString(&config.User.Username, "DEFAULT_USER_USERNAME")
	envString(&config.User.Password, "DEFAULT_USER_PASSWORD")

	if v, ok := lookupEnv("CLEANUP_ALLOW_ALL"); ok {
		config.Cleanup.AllowAll = IsTruthy(v)
	}
	if v, ok := lookupEnv("CLEANUP_RULES"); ok {
		config.Cleanup.RulesJSON = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv("BROWSER_HEADLESS"); ok && strings.TrimSpace(v) != "" {
		config.Browser.Headed = !IsTruthy(v)
	}
	return config
}

// IsTruthy reports whether v is one of 1, true, yes or on (any case).
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// envString overrides dst with a non-empty environment value. Later calls
// win, so DEFAULT_ADMIN_USERNAME takes precedence over DEFAULT_ADMIN_EMAIL.
func envString(dst *string, key string) {
	if v, ok := lookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}
