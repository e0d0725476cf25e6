package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// frameworkDirName is the checkout directory for the courseware framework
// inside a tenant's scratch area.
const frameworkDirName = "courseware"

// Workdir is the scratch area used during upgrades. Each master tenant gets
// its own subtree so concurrent tenants never share checkouts.
type Workdir struct {
	Root   string
	Tenant string
}

// For builds the Workdir for a server. A relative tempDir is anchored at the
// server root, matching how conf/studio.yaml records it.
func For(serverRoot, tempDir, tenant string) Workdir {
	root := tempDir
	if !filepath.IsAbs(root) {
		root = filepath.Join(serverRoot, root)
	}
	return Workdir{Root: root, Tenant: tenant}
}

// TenantDir returns the scratch subtree for this tenant.
func (w Workdir) TenantDir() string {
	return filepath.Join(w.Root, w.Tenant)
}

// FrameworkDir returns where the framework is checked out.
func (w Workdir) FrameworkDir() string {
	return filepath.Join(w.TenantDir(), frameworkDirName)
}

// Ensure creates the tenant scratch area. It refuses tenant values that
// would place the area outside the workdir root, so a mangled settings file
// cannot direct later cleanup at an arbitrary path.
func (w Workdir) Ensure() error {
	dir, err := w.containedTenantDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating workdir %s: %w", dir, err)
	}
	return nil
}

// Probe verifies the tenant scratch area could be created and written,
// without creating it. The probe file goes into the deepest existing
// ancestor of the tenant dir, the directory any later MkdirAll would
// write into.
func (w Workdir) Probe() error {
	dir, err := w.containedTenantDir()
	if err != nil {
		return err
	}

	probeDir := dir
	for {
		if fi, statErr := os.Stat(probeDir); statErr == nil {
			if !fi.IsDir() {
				return fmt.Errorf("workdir path %s is not a directory", probeDir)
			}
			break
		}
		parent := filepath.Dir(probeDir)
		if parent == probeDir {
			break
		}
		probeDir = parent
	}

	f, err := os.CreateTemp(probeDir, ".writecheck-*")
	if err != nil {
		return fmt.Errorf("workdir not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}

// Clean removes the tenant scratch area, containment checked the same way
// as Ensure.
func (w Workdir) Clean() error {
	dir, err := w.containedTenantDir()
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing workdir %s: %w", dir, err)
	}
	return nil
}

func (w Workdir) containedTenantDir() (string, error) {
	if w.Tenant == "" {
		return "", fmt.Errorf("workdir tenant is empty")
	}

	absRoot, err := filepath.Abs(w.Root)
	if err != nil {
		return "", fmt.Errorf("resolving workdir root: %w", err)
	}
	realRoot, err := resolveExistingPath(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving workdir root: %w", err)
	}

	candidate, err := resolveExistingPath(filepath.Clean(filepath.Join(realRoot, w.Tenant)))
	if err != nil {
		return "", fmt.Errorf("resolving tenant dir: %w", err)
	}

	rootPrefix := realRoot + string(filepath.Separator)
	if candidate == realRoot || !strings.HasPrefix(candidate, rootPrefix) {
		return "", fmt.Errorf("tenant %q resolves to %s, outside the workdir root %s", w.Tenant, candidate, realRoot)
	}

	return candidate, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of
// the path, then appends the non-existing suffix. Scratch paths usually do
// not exist yet on the first run.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	if dir == path {
		return path, nil
	}

	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, filepath.Base(path)), nil
}
