// Package release reads the published release manifest and decides whether
// an installed server has an update available.
package release

import (
	"fmt"

	"github.com/juju/version/v2"
	"gopkg.in/yaml.v3"
)

// Manifest is the published releases document. The latest field names the
// release that automatic upgrades should move to.
type Manifest struct {
	Latest   string    `yaml:"latest"`
	Releases []Release `yaml:"releases"`
}

// Release describes one published release: the version number and the git
// revisions of the two components that make it up.
type Release struct {
	Version       string `yaml:"version"`
	AuthoringTool string `yaml:"authoringTool"`
	Framework     string `yaml:"framework"`
	Published     string `yaml:"published,omitempty"`
	Notes         string `yaml:"notes,omitempty"`
}

// Parse decodes and validates a release manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing release manifest: %w", err)
	}

	if m.Latest == "" {
		return nil, fmt.Errorf("release manifest has no 'latest' release")
	}
	if _, err := version.Parse(m.Latest); err != nil {
		return nil, fmt.Errorf("release manifest 'latest' is not a version number: %q", m.Latest)
	}
	for i, rel := range m.Releases {
		if rel.Version == "" {
			return nil, fmt.Errorf("release manifest entry %d has no version", i)
		}
		if _, err := version.Parse(rel.Version); err != nil {
			return nil, fmt.Errorf("release manifest entry %q is not a version number", rel.Version)
		}
		if rel.AuthoringTool == "" && rel.Framework == "" {
			return nil, fmt.Errorf("release %s names no component revisions", rel.Version)
		}
	}
	if m.Find(m.Latest) == nil {
		return nil, fmt.Errorf("release manifest 'latest' %s has no matching release entry", m.Latest)
	}

	return &m, nil
}

// Find returns the release entry for an exact version, or nil.
func (m *Manifest) Find(ver string) *Release {
	for i := range m.Releases {
		if m.Releases[i].Version == ver {
			return &m.Releases[i]
		}
	}
	return nil
}

// LatestRelease returns the entry named by the latest field.
func (m *Manifest) LatestRelease() *Release {
	return m.Find(m.Latest)
}
