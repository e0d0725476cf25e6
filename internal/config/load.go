package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a studio.yaml settings file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	applyDefaults(&cfg)
	ApplyEnv(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &cfg, nil
}

// Save writes the settings file atomically using a temp file and rename.
// The repository write-back on first run goes through here, before any
// upgrade step starts.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp settings %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp settings to %s: %w", path, err)
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.TempDir == "" {
		cfg.TempDir = "temp"
	}
	if cfg.ReleaseManifest == "" {
		cfg.ReleaseManifest = DefaultReleaseManifest
	}
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.MasterTenant == "" {
		errs = append(errs, "'masterTenant' is required")
	}

	if cfg.Database.URI == "" {
		errs = append(errs, "'database.uri' is required")
	} else if !strings.HasPrefix(cfg.Database.URI, "mongodb://") && !strings.HasPrefix(cfg.Database.URI, "mongodb+srv://") {
		errs = append(errs, fmt.Sprintf("'database.uri' must be a mongodb:// URI, got '%s'", cfg.Database.URI))
	}

	if cfg.Database.Name == "" {
		errs = append(errs, "'database.name' is required")
	}

	for _, repo := range []struct{ key, value string }{
		{"authoringToolRepository", cfg.AuthoringToolRepository},
		{"frameworkRepository", cfg.FrameworkRepository},
	} {
		if repo.value == "" {
			continue // filled in by EnsureRepositoryDefaults
		}
		if !validRepoURL(repo.value) {
			errs = append(errs, fmt.Sprintf("'%s' is not a usable git remote: '%s'", repo.key, repo.value))
		}
	}

	return errs
}

// validRepoURL accepts the remotes git itself accepts: http(s) and ssh URLs
// plus scp-like git@host:path shorthand.
func validRepoURL(remote string) bool {
	if strings.Contains(remote, "@") && strings.Contains(remote, ":") && !strings.Contains(remote, "://") {
		return true
	}
	u, err := url.Parse(remote)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
		return u.Host != ""
	default:
		return false
	}
}
