package models

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// fakeDownloader simulates the snapshot fetch collaborator.
type fakeDownloader struct {
	fetch func(ctx context.Context, remoteID, targetDir, proxyURL string) error
}

// Fetch delegates to injected behavior.
func (f *fakeDownloader) Fetch(ctx context.Context, remoteID, targetDir, proxyURL string) error {
	if f.fetch == nil {
		return nil
	}
	return f.fetch(ctx, remoteID, targetDir, proxyURL)
}

// TestAcquireSuccessReportsReady checks the happy path end state.
func TestAcquireSuccessReportsReady(t *testing.T) {
	root := t.TempDir()
	variant, _ := VariantByID("tiny")

	var gotRemote, gotProxy string
	downloader := &fakeDownloader{
		fetch: func(ctx context.Context, remoteID, targetDir, proxyURL string) error {
			gotRemote = remoteID
			gotProxy = proxyURL
			writeSnapshotFiles(t, targetDir, RequiredFiles...)
			return nil
		},
	}

	ready, err := NewAcquirer(downloader).Acquire(context.Background(), root, variant, "http://proxy:8080", nil)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !ready {
		t.Fatal("expected ready snapshot")
	}
	if gotRemote != "Systran/faster-whisper-tiny" {
		t.Fatalf("remote id = %q", gotRemote)
	}
	if gotProxy != "http://proxy:8080" {
		t.Fatalf("proxy = %q", gotProxy)
	}
}

// TestAcquireIncompleteSnapshotReturnsFalseNil checks the silent-failure
// signal: transfer completed but required files are missing.
func TestAcquireIncompleteSnapshotReturnsFalseNil(t *testing.T) {
	root := t.TempDir()
	variant, _ := VariantByID("base")

	downloader := &fakeDownloader{
		fetch: func(ctx context.Context, remoteID, targetDir, proxyURL string) error {
			writeSnapshotFiles(t, targetDir, "config.json")
			return nil
		},
	}

	ready, err := NewAcquirer(downloader).Acquire(context.Background(), root, variant, "", nil)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if ready {
		t.Fatal("incomplete snapshot must not report ready")
	}
}

// TestAcquireFetchErrorPropagates checks transfer errors reach the caller.
func TestAcquireFetchErrorPropagates(t *testing.T) {
	root := t.TempDir()
	variant, _ := VariantByID("base")
	wantErr := errors.New("connection reset")

	downloader := &fakeDownloader{
		fetch: func(ctx context.Context, remoteID, targetDir, proxyURL string) error {
			return wantErr
		},
	}

	ready, err := NewAcquirer(downloader).Acquire(context.Background(), root, variant, "", nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if ready {
		t.Fatal("failed fetch must not report ready")
	}
}

// TestAcquireReleasesDirectoryLock checks a second acquire can run after the
// first returns.
func TestAcquireReleasesDirectoryLock(t *testing.T) {
	root := t.TempDir()
	variant, _ := VariantByID("tiny")
	downloader := &fakeDownloader{
		fetch: func(ctx context.Context, remoteID, targetDir, proxyURL string) error {
			writeSnapshotFiles(t, targetDir, RequiredFiles...)
			return nil
		},
	}
	acquirer := NewAcquirer(downloader)

	for i := 0; i < 2; i++ {
		if _, err := acquirer.Acquire(context.Background(), root, variant, "", nil); err != nil {
			t.Fatalf("acquire %d: %v", i+1, err)
		}
	}
}

// TestAcquireEmitsProgressSamples checks the monitor reports during fetch.
func TestAcquireEmitsProgressSamples(t *testing.T) {
	root := t.TempDir()
	variant, _ := VariantByID("tiny")
	collector := &sampleCollector{}

	downloader := &fakeDownloader{
		fetch: func(ctx context.Context, remoteID, targetDir, proxyURL string) error {
			writeSnapshotFiles(t, targetDir, RequiredFiles...)
			waitForSamples(t, collector, 1)
			return nil
		},
	}

	ready, err := NewAcquirer(downloader).Acquire(context.Background(), root, variant, "", collector.add)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !ready {
		t.Fatal("expected ready snapshot")
	}
	if len(collector.all()) == 0 {
		t.Fatal("expected at least one progress sample")
	}
	if filepath.Join(root, variant.ID) != PathFor(root, variant) {
		t.Fatalf("unexpected snapshot path %q", PathFor(root, variant))
	}
}
