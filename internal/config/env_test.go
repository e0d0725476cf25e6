package config

import "testing"

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvDatabaseURI, "mongodb://env-host:27017/studio")
	t.Setenv(EnvDatabaseName, "studio-env")
	t.Setenv(EnvMasterTenant, "tenant-from-env")
	t.Setenv(EnvTempDir, "/var/lib/studio/tmp")
	t.Setenv(EnvReleaseManifest, "https://mirror.example.com/releases.yaml")

	cfg := &Config{
		MasterTenant: "tenant-from-file",
		TempDir:      "temp",
		Database: Database{
			URI:  "mongodb://localhost:27017/studio",
			Name: "studio",
		},
	}
	ApplyEnv(cfg)

	if cfg.Database.URI != "mongodb://env-host:27017/studio" {
		t.Errorf("database.uri = %q", cfg.Database.URI)
	}
	if cfg.Database.Name != "studio-env" {
		t.Errorf("database.name = %q", cfg.Database.Name)
	}
	if cfg.MasterTenant != "tenant-from-env" {
		t.Errorf("masterTenant = %q", cfg.MasterTenant)
	}
	if cfg.TempDir != "/var/lib/studio/tmp" {
		t.Errorf("tempDir = %q", cfg.TempDir)
	}
	if cfg.ReleaseManifest != "https://mirror.example.com/releases.yaml" {
		t.Errorf("releaseManifest = %q", cfg.ReleaseManifest)
	}
}

func TestApplyEnvUnsetKeepsFileValues(t *testing.T) {
	// Guard against pollution from the surrounding environment.
	t.Setenv(EnvDatabaseURI, "")
	t.Setenv(EnvMasterTenant, "")

	cfg := &Config{
		MasterTenant: "tenant-from-file",
		Database:     Database{URI: "mongodb://localhost:27017/studio"},
	}
	ApplyEnv(cfg)

	if cfg.MasterTenant != "tenant-from-file" {
		t.Errorf("masterTenant = %q, want file value", cfg.MasterTenant)
	}
	if cfg.Database.URI != "mongodb://localhost:27017/studio" {
		t.Errorf("database.uri = %q, want file value", cfg.Database.URI)
	}
}
