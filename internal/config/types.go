package config

// Default repository URLs for a stock Studio install. Auto-upgrade is only
// supported when both repositories still point here.
const (
	DefaultAuthoringToolRepository = "https://github.com/bianoble/studio.git"
	DefaultFrameworkRepository     = "https://github.com/bianoble/courseware.git"
)

// DefaultReleaseManifest is the published release metadata for Studio.
const DefaultReleaseManifest = "https://updates.bianoble.io/studio/releases.yaml"

// Config represents the server settings file, conf/studio.yaml.
type Config struct {
	// AuthoringToolRepository is the git remote the server itself is
	// deployed from. Empty means the default, filled in on first load.
	AuthoringToolRepository string `yaml:"authoringToolRepository,omitempty"`

	// FrameworkRepository is the git remote for the courseware framework.
	FrameworkRepository string `yaml:"frameworkRepository,omitempty"`

	// MasterTenant is the ID of the tenant that owns framework builds.
	MasterTenant string `yaml:"masterTenant"`

	// TempDir holds the tool's working checkouts. Relative paths are
	// resolved against the server root.
	TempDir string `yaml:"tempDir,omitempty"`

	// ReleaseManifest is where update metadata is fetched from. Either an
	// http(s) URL or a local file path for air-gapped mirrors.
	ReleaseManifest string `yaml:"releaseManifest,omitempty"`

	Database Database `yaml:"database"`
}

// Database holds the MongoDB connection settings shared with the server.
type Database struct {
	URI  string `yaml:"uri"`
	Name string `yaml:"name"`
}

// EnsureRepositoryDefaults fills empty repository URLs with the stock
// defaults. Returns true if anything changed so the caller knows to persist.
func EnsureRepositoryDefaults(cfg *Config) bool {
	changed := false
	if cfg.AuthoringToolRepository == "" {
		cfg.AuthoringToolRepository = DefaultAuthoringToolRepository
		changed = true
	}
	if cfg.FrameworkRepository == "" {
		cfg.FrameworkRepository = DefaultFrameworkRepository
		changed = true
	}
	return changed
}

// CustomRepositories returns the names of repository settings that differ
// from the stock defaults. Auto-upgrade refuses to run when non-empty.
func CustomRepositories(cfg *Config) []string {
	var custom []string
	if cfg.AuthoringToolRepository != "" && cfg.AuthoringToolRepository != DefaultAuthoringToolRepository {
		custom = append(custom, "authoringToolRepository")
	}
	if cfg.FrameworkRepository != "" && cfg.FrameworkRepository != DefaultFrameworkRepository {
		custom = append(custom, "frameworkRepository")
	}
	return custom
}
