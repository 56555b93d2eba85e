// Package config provides configuration management for bddkit.
//
// Configuration is loaded and merged in the following order, later sources
// overriding earlier ones:
//
//  1. Default Configuration (embedded in binary)
//     - Projects api, ui and tui tagged @api, @ui and @tui
//     - Admin login admin/admin against /api/v1/auth/login
//
//  2. Project Configuration (./.bddkit/config.yaml, or --config)
//     - Shared by a team through version control
//
//  3. Environment
//     - API_BASE_URL, CONTROL_TOWER_BASE_URL, CONTROL_TOWER_PORT, UI_BASE_URL
//     - DEFAULT_ADMIN_USERNAME / DEFAULT_ADMIN_EMAIL, DEFAULT_ADMIN_PASSWORD
//     - DEFAULT_USER_USERNAME / DEFAULT_USER_EMAIL, DEFAULT_USER_PASSWORD
//     - API_AUTH_LOGIN_PATH, CLEANUP_RULES, CLEANUP_ALLOW_ALL
//     - BDDKIT_PROJECT, BDDKIT_TAGS, BROWSER_HEADLESS
//
// # Configuration Structure
//
//	project: api
//	projects:
//	  - name: api
//	    tag: "@api"
//	    kind: api
//	    base_url: http://localhost:8080
//	login_path: /api/v1/auth/login
//	cleanup:
//	  allow_all: false
//	  rules:
//	    - var_match: user
//	      path: /api/v1/users/{id}
//	browser:
//	  headed: false
//	  navigation_timeout_ms: 30000
package config
