package release

import (
	"context"

	"github.com/juju/version/v2"
)

// UpdateInfo describes an available update: the release version and the
// component revisions an upgrade should check out.
type UpdateInfo struct {
	Version               string
	AuthoringToolRevision string
	FrameworkRevision     string
	Published             string
	Notes                 string
}

// Check fetches the manifest and compares its latest release against the
// installed version. It returns nil when the installation is already at or
// past the latest release. An installed version that does not parse is
// treated as out of date, so damaged state offers an update instead of
// silently pinning the server forever.
func (f *Fetcher) Check(ctx context.Context, installed string) (*UpdateInfo, error) {
	m, err := f.Manifest(ctx)
	if err != nil {
		return nil, err
	}

	rel := m.LatestRelease()
	latest := version.MustParse(rel.Version)

	if installed != "" {
		if cur, err := version.Parse(installed); err == nil && latest.Compare(cur) <= 0 {
			return nil, nil
		}
	}

	return &UpdateInfo{
		Version:               rel.Version,
		AuthoringToolRevision: rel.AuthoringTool,
		FrameworkRevision:     rel.Framework,
		Published:             rel.Published,
		Notes:                 rel.Notes,
	}, nil
}
