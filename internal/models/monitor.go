package models

import (
	"io/fs"
	"path/filepath"
	"time"

	"batch-transcriber/internal/domain"
)

const (
	monitorInterval = 500 * time.Millisecond
	monitorJoinWait = time.Second

	// Estimates divide by a hard-coded approximate size, never the real
	// remote size, so the fraction is capped below completion.
	estimateCeiling = 0.98

	bytesPerMB = 1024 * 1024
)

// Monitor is a background sampler that watches a download directory's byte
// size and emits progress estimates. It never inspects download protocol
// state; progress is inferred purely from on-disk growth.
type Monitor struct {
	dir       string
	totalMB   float64
	interval  time.Duration
	onSample  func(domain.DownloadProgressSample)
	dirSizeFn func(string) int64

	stop chan struct{}
	done chan struct{}
}

// NewMonitor creates a monitor for one download directory. approxTotalMB of
// zero disables the fraction estimate (samples report 0.0).
func NewMonitor(dir string, approxTotalMB float64, onSample func(domain.DownloadProgressSample)) *Monitor {
	return &Monitor{
		dir:       dir,
		totalMB:   approxTotalMB,
		interval:  monitorInterval,
		onSample:  onSample,
		dirSizeFn: dirSizeBytes,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// NewMonitorForTests creates a monitor with injectable interval and sizer.
func NewMonitorForTests(
	dir string,
	approxTotalMB float64,
	interval time.Duration,
	dirSize func(string) int64,
	onSample func(domain.DownloadProgressSample),
) *Monitor {
	return &Monitor{
		dir:       dir,
		totalMB:   approxTotalMB,
		interval:  interval,
		onSample:  onSample,
		dirSizeFn: dirSize,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sampling goroutine.
func (m *Monitor) Start() {
	go m.loop()
}

// Stop signals the sampler and waits for it to exit, with a bounded wait so
// the owning operation can always return.
func (m *Monitor) Stop() {
	close(m.stop)
	select {
	case <-m.done:
	case <-time.After(monitorJoinWait):
	}
}

func (m *Monitor) loop() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	lastTime := time.Now()
	lastBytes := m.dirSizeFn(m.dir)

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			bytes := m.dirSizeFn(m.dir)
			elapsed := now.Sub(lastTime).Seconds()
			if elapsed <= 0 {
				elapsed = 1e-6
			}

			delta := bytes - lastBytes
			if delta < 0 {
				delta = 0
			}

			sample := domain.DownloadProgressSample{
				DownloadedMB: float64(bytes) / bytesPerMB,
				SpeedMBs:     float64(delta) / bytesPerMB / elapsed,
			}
			if m.totalMB > 0 {
				fraction := sample.DownloadedMB / m.totalMB
				if fraction > estimateCeiling {
					fraction = estimateCeiling
				}
				sample.EstimatedFraction = fraction
			}

			if m.onSample != nil {
				m.onSample(sample)
			}

			lastTime = now
			lastBytes = bytes
		}
	}
}

// dirSizeBytes sums file sizes under dir recursively, skipping unreadable
// entries.
func dirSizeBytes(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
