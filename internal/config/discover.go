package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultRelPath is the settings file location inside a server checkout.
const DefaultRelPath = "conf/studio.yaml"

// Discover walks upward from startDir looking for conf/studio.yaml and
// returns the settings path and the server root (the directory holding
// conf/). This lets the tool run from anywhere inside the server tree.
func Discover(startDir string) (configPath, serverRoot string, err error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", startDir, err)
	}

	for {
		candidate := filepath.Join(dir, filepath.FromSlash(DefaultRelPath))
		if fi, statErr := os.Stat(candidate); statErr == nil && !fi.IsDir() {
			return candidate, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("no %s found in %s or any parent directory: run from inside a server checkout or pass --config", DefaultRelPath, startDir)
		}
		dir = parent
	}
}

// ServerRootFor returns the server root implied by an explicit settings
// path: the parent of its conf/ directory, or the file's directory when the
// settings live outside the usual layout.
func ServerRootFor(configPath string) (string, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", configPath, err)
	}
	dir := filepath.Dir(abs)
	if filepath.Base(dir) == "conf" {
		return filepath.Dir(dir), nil
	}
	return dir, nil
}
