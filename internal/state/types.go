package state

import "time"

// FileName is the installed-state file kept at the server root. It records
// which authoring tool and framework revisions a deployment is running so
// later upgrades know where they are starting from.
const FileName = "version.yaml"

// State describes the currently installed components of a server.
type State struct {
	AuthoringTool ComponentState `yaml:"authoringTool"`
	Framework     ComponentState `yaml:"framework"`
}

// ComponentState records one installed component. Version is the release
// number when known; Revision is the exact git ref that was checked out.
// A fresh checkout that predates this tool has neither.
type ComponentState struct {
	Version   string    `yaml:"version,omitempty"`
	Revision  string    `yaml:"revision,omitempty"`
	UpdatedAt time.Time `yaml:"updatedAt,omitempty"`
}

// Installed reports whether any component has ever been recorded.
func (s *State) Installed() bool {
	return s.AuthoringTool.Revision != "" || s.Framework.Revision != "" ||
		s.AuthoringTool.Version != "" || s.Framework.Version != ""
}
