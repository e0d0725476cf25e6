package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PathFor returns the state file location for a server root.
func PathFor(serverRoot string) string {
	return filepath.Join(serverRoot, FileName)
}

// Load reads the installed-state file. A missing file is not an error: it
// means nothing has been recorded yet, so a zero State is returned.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("reading state file %s: %w", path, err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", path, err)
	}

	return &st, nil
}

// Save writes the state file atomically using a temp file and rename, so a
// crash mid-write never leaves a corrupt record behind.
func Save(path string, st *State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp state file %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp state file to %s: %w", path, err)
	}

	return nil
}
