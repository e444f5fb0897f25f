// Package hub downloads faster-whisper model snapshots from a Hugging Face
// style file host. It is the production implementation of the snapshot
// downloader collaborator: a blocking fetch with no incremental progress
// interface. Progress is observed externally from on-disk growth.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultBaseURL = "https://huggingface.co"
	defaultTimeout = 45 * time.Minute
)

// RequiredSnapshotFiles is the file set that defines a usable snapshot.
var RequiredSnapshotFiles = []string{"config.json", "vocabulary.txt", "model.bin"}

// optionalSnapshotFiles are fetched best-effort; a missing one does not fail
// the fetch, the acquirer's readiness check decides success.
var optionalSnapshotFiles = []string{"tokenizer.json", "preprocessor_config.json"}

// Downloader fetches one remote model snapshot into a local directory.
type Downloader interface {
	Fetch(ctx context.Context, remoteID, targetDir, proxyURL string) error
}

// Client downloads snapshot files over HTTP with an optional explicit proxy.
type Client struct {
	baseURL string
	timeout time.Duration
	doer    func(proxyURL string) (*http.Client, error)
}

// NewClient creates a downloader against the default snapshot host.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		doer:    newHTTPClient,
	}
}

// NewClientForTests creates a downloader against a custom host and timeout.
func NewClientForTests(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		doer:    newHTTPClient,
	}
}

// Fetch populates targetDir with the snapshot file set for remoteID.
// The proxy, when non-empty, is applied to this client's transport only;
// process environment is never consulted or mutated.
func (c *Client) Fetch(ctx context.Context, remoteID, targetDir, proxyURL string) error {
	if remoteID == "" {
		return fmt.Errorf("remote snapshot id is required")
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("prepare snapshot directory: %w", err)
	}

	client, err := c.doer(proxyURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	for _, name := range RequiredSnapshotFiles {
		if err := c.fetchFile(ctx, client, remoteID, targetDir, name); err != nil {
			return fmt.Errorf("fetch %s: %w", name, err)
		}
	}
	for _, name := range optionalSnapshotFiles {
		_ = c.fetchFile(ctx, client, remoteID, targetDir, name)
	}

	return nil
}

// fetchFile downloads one snapshot file through a temp file and renames it
// into place so partial transfers never masquerade as complete files.
func (c *Client) fetchFile(ctx context.Context, client *http.Client, remoteID, targetDir, name string) error {
	sourceURL := fmt.Sprintf("%s/%s/resolve/main/%s", c.baseURL, remoteID, name)
	destinationPath := filepath.Join(targetDir, name)

	tmpPath := destinationPath + ".download"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "batch-transcriber")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	_, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write snapshot file: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close snapshot file: %w", closeErr)
	}

	if err := os.Remove(destinationPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("remove old snapshot file: %w", err)
	}
	if err := os.Rename(tmpPath, destinationPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move snapshot file into place: %w", err)
	}

	return nil
}

// newHTTPClient builds an HTTP client with an optional explicit proxy.
func newHTTPClient(proxyURL string) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{}, nil
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(parsed)},
	}, nil
}
