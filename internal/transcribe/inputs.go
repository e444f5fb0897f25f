package transcribe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// mediaExtensions is the fixed allow-list of eligible input files.
var mediaExtensions = map[string]bool{
	".mp4":  true,
	".mp3":  true,
	".wav":  true,
	".mkv":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
}

// ListInputFiles returns eligible media files in dir, sorted by name.
func ListInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !mediaExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(files)
	return files, nil
}
