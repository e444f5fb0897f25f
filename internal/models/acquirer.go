package models

import (
	"context"
	"fmt"
	"os"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/hub"
	"batch-transcriber/internal/runlock"
)

// Acquirer drives a remote snapshot fetch for one model variant, supervised
// by a download monitor.
type Acquirer struct {
	downloader hub.Downloader
}

// NewAcquirer creates an acquirer backed by the given snapshot downloader.
func NewAcquirer(downloader hub.Downloader) *Acquirer {
	return &Acquirer{downloader: downloader}
}

// Acquire downloads the snapshot for variant into modelsRoot and reports
// whether the required files are present afterward. The returned bool is the
// sole success signal: false with a nil error means the transfer completed
// but the snapshot is incomplete, and callers must treat that as failure.
// Progress samples are emitted from a background goroutine for the duration
// of the fetch; the sampler is always joined before Acquire returns.
func (a *Acquirer) Acquire(
	ctx context.Context,
	modelsRoot string,
	variant domain.ModelVariant,
	proxyURL string,
	onProgress func(domain.DownloadProgressSample),
) (bool, error) {
	if a.downloader == nil {
		return false, fmt.Errorf("snapshot downloader is not configured")
	}

	targetDir := PathFor(modelsRoot, variant)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return false, fmt.Errorf("create snapshot directory: %w", err)
	}

	lock, err := runlock.Acquire(targetDir)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = lock.Release()
	}()

	monitor := NewMonitor(targetDir, variant.SizeMB, onProgress)
	monitor.Start()

	fetchErr := a.downloader.Fetch(ctx, variant.RemoteID, targetDir, proxyURL)
	monitor.Stop()

	if fetchErr != nil {
		return false, fetchErr
	}

	return IsReady(modelsRoot, variant), nil
}
