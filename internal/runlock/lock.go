// Package runlock provides an advisory per-directory lock used to keep two
// operations from mutating the same models or output directory concurrently.
// The lock is a marker directory; it guards cooperating processes, not
// arbitrary writers.
package runlock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	lockDirName   = ".transcriber.lock"
	lockOwnerFile = "owner.json"
)

// Lock represents one held directory lock.
type Lock struct {
	lockDir string
}

type lockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

// Acquire takes the advisory lock for dir, creating dir if needed. It fails
// when another holder already owns the lock.
func Acquire(dir string) (Lock, error) {
	target := strings.TrimSpace(dir)
	if target == "" {
		return Lock{}, fmt.Errorf("lock directory is required")
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return Lock{}, fmt.Errorf("prepare directory %s: %w", target, err)
	}

	lockDir := filepath.Join(target, lockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			ownerPath := filepath.Join(lockDir, lockOwnerFile)
			var owner lockOwner
			if data, readErr := os.ReadFile(ownerPath); readErr == nil {
				if json.Unmarshal(data, &owner) == nil && owner.PID > 0 {
					return Lock{}, fmt.Errorf(
						"directory is locked: %s (pid=%d created_at=%s host=%s)",
						target, owner.PID, owner.CreatedAt, owner.Hostname,
					)
				}
			}
			return Lock{}, fmt.Errorf("directory is locked: %s", target)
		}
		return Lock{}, fmt.Errorf("acquire lock for %s: %w", target, err)
	}

	owner := lockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	data, err := json.MarshalIndent(owner, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(lockDir, lockOwnerFile), data, 0o644)
	}
	if err != nil {
		_ = os.Remove(lockDir)
		return Lock{}, fmt.Errorf("write lock owner for %s: %w", target, err)
	}

	return Lock{lockDir: lockDir}, nil
}

// Release drops the lock. Releasing a zero Lock is a no-op.
func (l Lock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, lockOwnerFile))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock %s: %w", l.lockDir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
