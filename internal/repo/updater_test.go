package repo

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// fakeGit records every git invocation, can fail a chosen subcommand, and
// controls whether origin/<rev> resolves.
type fakeGit struct {
	calls        []string
	failCmd      string
	failWith     string
	remoteBranch bool
}

func (f *fakeGit) run(ctx context.Context, dir string, args ...string) (string, error) {
	joined := strings.Join(args, " ")
	f.calls = append(f.calls, joined)
	if f.failCmd != "" && args[0] == f.failCmd {
		return f.failWith, errors.New("exit status 128")
	}
	if strings.HasPrefix(joined, "rev-parse --verify") {
		if f.remoteBranch {
			return "0123456789abcdef", nil
		}
		return "", errors.New("exit status 1")
	}
	if args[0] == "rev-parse" {
		return "0123456789abcdef\n", nil
	}
	return "", nil
}

func TestUpdateMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		target Target
	}{
		{"no_repository", Target{Component: "framework", Revision: "v5.45.1", Directory: "/tmp/x"}},
		{"no_revision", Target{Component: "framework", Repository: "https://example.com/fw.git", Directory: "/tmp/x"}},
		{"no_directory", Target{Component: "framework", Repository: "https://example.com/fw.git", Revision: "v5.45.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeGit{}
			u := &Updater{Run: fake.run}
			err := u.Update(context.Background(), tt.target)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if len(fake.calls) != 0 {
				t.Errorf("git should not run, got %v", fake.calls)
			}
		})
	}
}

func TestUpdateClonesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "courseware")
	fake := &fakeGit{}
	u := &Updater{Run: fake.run}

	err := u.Update(context.Background(), Target{
		Component:  "framework",
		Repository: "https://example.com/fw.git",
		Revision:   "v5.45.1",
		Directory:  dir,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := []string{
		"clone --no-checkout https://example.com/fw.git " + dir,
		"rev-parse --verify --quiet origin/v5.45.1",
		"checkout --force --detach v5.45.1",
	}
	if len(fake.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", fake.calls, want)
	}
	for i := range want {
		if fake.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, fake.calls[i], want[i])
		}
	}
}

func TestUpdateFetchesExistingCheckout(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	fake := &fakeGit{}
	u := &Updater{Run: fake.run}

	err := u.Update(context.Background(), Target{
		Component:  "authoring tool",
		Repository: "https://example.com/studio.git",
		Revision:   "v1.9.0",
		Directory:  dir,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := []string{
		"fetch --tags --force origin",
		"rev-parse --verify --quiet origin/v1.9.0",
		"checkout --force --detach v1.9.0",
	}
	if len(fake.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", fake.calls, want)
	}
	for i := range want {
		if fake.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, fake.calls[i], want[i])
		}
	}
}

func TestUpdateFollowsRemoteBranch(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	fake := &fakeGit{remoteBranch: true}
	u := &Updater{Run: fake.run}

	err := u.Update(context.Background(), Target{
		Component:  "framework",
		Repository: "https://example.com/fw.git",
		Revision:   "main",
		Directory:  dir,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	last := fake.calls[len(fake.calls)-1]
	if last != "checkout --force --detach origin/main" {
		t.Errorf("final checkout = %q, want origin/main", last)
	}
}

func TestUpdateRefusesNonRepoDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeGit{}
	u := &Updater{Run: fake.run}

	err := u.Update(context.Background(), Target{
		Component:  "framework",
		Repository: "https://example.com/fw.git",
		Revision:   "main",
		Directory:  dir,
	})
	if err == nil {
		t.Fatal("expected error for non-repo directory")
	}
	if len(fake.calls) != 0 {
		t.Errorf("git should not run, got %v", fake.calls)
	}

	var ue *UpdateError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T, want *UpdateError", err)
	}
	if ue.Component != "framework" {
		t.Errorf("component = %q", ue.Component)
	}
}

func TestUpdateCheckoutFailure(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	fake := &fakeGit{failCmd: "checkout", failWith: "error: pathspec 'nope' did not match"}
	u := &Updater{Run: fake.run}

	err := u.Update(context.Background(), Target{
		Component:  "framework",
		Repository: "https://example.com/fw.git",
		Revision:   "nope",
		Directory:  dir,
	})
	if err == nil {
		t.Fatal("expected checkout failure")
	}

	var ue *UpdateError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T, want *UpdateError", err)
	}
	if ue.Revision != "nope" {
		t.Errorf("revision = %q", ue.Revision)
	}
	if !strings.Contains(err.Error(), "pathspec") {
		t.Errorf("error should carry git output: %v", err)
	}
}

func TestRevisionTrimsOutput(t *testing.T) {
	fake := &fakeGit{}
	u := &Updater{Run: fake.run}

	rev, err := u.Revision(context.Background(), "/srv/studio")
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if rev != "0123456789abcdef" {
		t.Errorf("revision = %q", rev)
	}
}

func TestUpdateWithLocalRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	srcDir := t.TempDir()
	bareRepo := t.TempDir()

	run := func(dir string, args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test.com", "GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test.com")
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %s: %v", args, out, err)
		}
	}

	run(srcDir, "init", "-b", "main")
	if err := os.WriteFile(filepath.Join(srcDir, "package.json"), []byte(`{"version":"5.44.0"}`), 0644); err != nil {
		t.Fatal(err)
	}
	run(srcDir, "add", ".")
	run(srcDir, "commit", "-m", "initial")
	run(srcDir, "clone", "--bare", srcDir, bareRepo)

	checkout := filepath.Join(t.TempDir(), "courseware")
	u := &Updater{}
	target := Target{
		Component:  "framework",
		Repository: bareRepo,
		Revision:   "main",
		Directory:  checkout,
	}

	if err := u.Update(context.Background(), target); err != nil {
		t.Fatalf("Update (clone): %v", err)
	}
	if _, err := os.Stat(filepath.Join(checkout, "package.json")); err != nil {
		t.Errorf("expected package.json after checkout: %v", err)
	}

	firstRev, err := u.Revision(context.Background(), checkout)
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}

	// Publish a new commit and update the same checkout again.
	if err := os.WriteFile(filepath.Join(srcDir, "CHANGELOG.md"), []byte("# 5.45.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run(srcDir, "add", ".")
	run(srcDir, "commit", "-m", "second")
	run(srcDir, "push", bareRepo, "main")

	if err := u.Update(context.Background(), target); err != nil {
		t.Fatalf("Update (fetch): %v", err)
	}

	secondRev, err := u.Revision(context.Background(), checkout)
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if firstRev == secondRev {
		t.Error("checkout should have moved to the new commit")
	}
	if _, err := os.Stat(filepath.Join(checkout, "CHANGELOG.md")); err != nil {
		t.Errorf("expected CHANGELOG.md after update: %v", err)
	}
}
