package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// HTTPClient abstracts HTTP operations for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient is an HTTPClient using http.DefaultClient.
type DefaultHTTPClient struct{}

func (DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}

// maxManifestSize bounds how much of a manifest response is read. A release
// manifest is a few KB; anything near this limit is not one.
const maxManifestSize = 1 << 20

// FetchError represents a failure to obtain or decode the release manifest.
type FetchError struct {
	URL  string
	Err  error
	Hint string
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("release manifest %s: %s", e.URL, e.Err)
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves the release manifest from an HTTP(S) URL or, for
// air-gapped mirrors, a plain file path.
type Fetcher struct {
	Client  HTTPClient
	URL     string
	Timeout time.Duration
}

// Manifest fetches and parses the release manifest.
func (f *Fetcher) Manifest(ctx context.Context) (*Manifest, error) {
	data, err := f.fetch(ctx)
	if err != nil {
		return nil, err
	}

	m, err := Parse(data)
	if err != nil {
		return nil, &FetchError{URL: f.URL, Err: err, Hint: "the manifest may be corrupt or from an incompatible tool version"}
	}
	return m, nil
}

func (f *Fetcher) fetch(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(f.URL, "http://") && !strings.HasPrefix(f.URL, "https://") {
		data, err := os.ReadFile(f.URL)
		if err != nil {
			return nil, &FetchError{URL: f.URL, Err: err, Hint: "check the releaseManifest path in conf/studio.yaml"}
		}
		return data, nil
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	client := f.Client
	if client == nil {
		client = DefaultHTTPClient{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: f.URL, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.URL, Err: err, Hint: "check network connectivity and the releaseManifest URL"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:  f.URL,
			Err:  fmt.Errorf("HTTP %d", resp.StatusCode),
			Hint: "check that the manifest URL is accessible",
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize+1))
	if err != nil {
		return nil, &FetchError{URL: f.URL, Err: fmt.Errorf("reading response: %w", err)}
	}
	if len(data) > maxManifestSize {
		return nil, &FetchError{URL: f.URL, Err: fmt.Errorf("response exceeds %d bytes", maxManifestSize)}
	}

	return data, nil
}
