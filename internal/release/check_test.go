package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func manifestServer(t *testing.T) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(exampleManifest))
	}))
	t.Cleanup(srv.Close)
	return &Fetcher{URL: srv.URL + "/releases.yaml"}
}

func TestCheckOffersUpdateWhenBehind(t *testing.T) {
	f := manifestServer(t)

	info, err := f.Check(context.Background(), "1.8.2")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if info == nil {
		t.Fatal("expected an update for 1.8.2")
	}
	if info.Version != "1.9.0" {
		t.Errorf("version = %q", info.Version)
	}
	if info.AuthoringToolRevision != "v1.9.0" {
		t.Errorf("authoring tool revision = %q", info.AuthoringToolRevision)
	}
	if info.FrameworkRevision != "v5.45.1" {
		t.Errorf("framework revision = %q", info.FrameworkRevision)
	}
}

func TestCheckUpToDate(t *testing.T) {
	f := manifestServer(t)

	info, err := f.Check(context.Background(), "1.9.0")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if info != nil {
		t.Errorf("expected no update at latest, got %+v", info)
	}
}

func TestCheckAheadOfManifest(t *testing.T) {
	// A development install newer than the manifest must not be downgraded.
	f := manifestServer(t)

	info, err := f.Check(context.Background(), "2.0.0")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if info != nil {
		t.Errorf("expected no update ahead of latest, got %+v", info)
	}
}

func TestCheckUnknownInstalledVersion(t *testing.T) {
	f := manifestServer(t)

	tests := []string{"", "not-a-version", "deadbeef"}
	for _, installed := range tests {
		info, err := f.Check(context.Background(), installed)
		if err != nil {
			t.Fatalf("Check(%q): %v", installed, err)
		}
		if info == nil {
			t.Errorf("Check(%q) = nil, want update offer", installed)
		}
	}
}
