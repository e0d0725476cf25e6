package config

import "os"

// Environment variables recognized as overrides of the settings file.
// Deployment scripts use these to point a run at a different database or
// manifest without editing conf/studio.yaml.
const (
	EnvDatabaseURI     = "STUDIO_DB_URI"
	EnvDatabaseName    = "STUDIO_DB_NAME"
	EnvMasterTenant    = "STUDIO_MASTER_TENANT"
	EnvTempDir         = "STUDIO_TEMP_DIR"
	EnvReleaseManifest = "STUDIO_RELEASE_MANIFEST"
)

// ApplyEnv overlays environment variable overrides onto cfg. The settings
// file is never written with these values; they apply to this process only.
func ApplyEnv(cfg *Config) {
	setIfPresent(EnvDatabaseURI, &cfg.Database.URI)
	setIfPresent(EnvDatabaseName, &cfg.Database.Name)
	setIfPresent(EnvMasterTenant, &cfg.MasterTenant)
	setIfPresent(EnvTempDir, &cfg.TempDir)
	setIfPresent(EnvReleaseManifest, &cfg.ReleaseManifest)
}

func setIfPresent(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
