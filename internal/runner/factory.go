package runner

import (
	"fmt"
	"strings"
	"time"
)

var formatters = map[string]bool{
	"pretty":   true,
	"progress": true,
	"cucumber": true,
	"events":   true,
	"junit":    true,
}

// DefaultConfiguration returns the configuration used by "bddkit run".
func DefaultConfiguration() Configuration {
	return Configuration{
		Paths:       []string{"features"},
		Format:      "pretty",
		Concurrency: 1,
		Timeout:     30 * time.Minute,
	}
}

// ValidateConfiguration validates a run configuration
func ValidateConfiguration(c Configuration) error {
	if len(c.Paths) == 0 {
		return fmt.Errorf("at least one feature path is required")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	for _, f := range strings.Split(c.Format, ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(f), ":")
		if !formatters[name] {
			return fmt.Errorf("unknown format %q", name)
		}
	}

	return nil
}
