package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestFetchDownloadsRequiredFiles checks the full snapshot file set lands.
func TestFetchDownloadsRequiredFiles(t *testing.T) {
	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "tokenizer.json") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("content of " + filepath.Base(r.URL.Path)))
	}))
	defer server.Close()

	targetDir := filepath.Join(t.TempDir(), "base")
	client := NewClientForTests(server.URL, time.Minute)
	if err := client.Fetch(context.Background(), "Systran/faster-whisper-base", targetDir, ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	for _, name := range RequiredSnapshotFiles {
		data, err := os.ReadFile(filepath.Join(targetDir, name))
		if err != nil {
			t.Fatalf("required file %s missing: %v", name, err)
		}
		if string(data) != "content of "+name {
			t.Fatalf("file %s content = %q", name, data)
		}
	}

	wantPrefix := "/Systran/faster-whisper-base/resolve/main/"
	for _, path := range requested {
		if !strings.HasPrefix(path, wantPrefix) {
			t.Fatalf("requested path %q, want prefix %q", path, wantPrefix)
		}
	}
}

// TestFetchOptionalFileFailureIsIgnored checks best-effort extras.
func TestFetchOptionalFileFailureIsIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		if name == "tokenizer.json" || name == "preprocessor_config.json" {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	targetDir := t.TempDir()
	client := NewClientForTests(server.URL, time.Minute)
	if err := client.Fetch(context.Background(), "Systran/faster-whisper-tiny", targetDir, ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetDir, "tokenizer.json")); err == nil {
		t.Fatal("tokenizer.json should not exist after failed optional fetch")
	}
}

// TestFetchRequiredFileFailureReturnsError checks hard failure propagation.
func TestFetchRequiredFileFailureReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "model.bin") {
			http.Error(w, "no such file", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClientForTests(server.URL, time.Minute)
	err := client.Fetch(context.Background(), "Systran/faster-whisper-tiny", t.TempDir(), "")
	if err == nil {
		t.Fatal("expected error for missing required file")
	}
	if !strings.Contains(err.Error(), "model.bin") {
		t.Fatalf("error = %v, want mention of model.bin", err)
	}
}

// TestFetchRejectsEmptyRemoteID checks input validation.
func TestFetchRejectsEmptyRemoteID(t *testing.T) {
	if err := NewClient().Fetch(context.Background(), "", t.TempDir(), ""); err == nil {
		t.Fatal("expected error for empty remote id")
	}
}

// TestFetchRejectsUnparsableProxy checks the proxy value is validated.
func TestFetchRejectsUnparsableProxy(t *testing.T) {
	err := NewClient().Fetch(context.Background(), "Systran/faster-whisper-tiny", t.TempDir(), "http://bad proxy:1")
	if err == nil {
		t.Fatal("expected error for malformed proxy url")
	}
}

// TestFetchLeavesNoTempFiles checks partial transfers never linger.
func TestFetchLeavesNoTempFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	targetDir := t.TempDir()
	client := NewClientForTests(server.URL, time.Minute)
	if err := client.Fetch(context.Background(), "Systran/faster-whisper-tiny", targetDir, ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	entries, err := os.ReadDir(targetDir)
	if err != nil {
		t.Fatalf("read target dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".download") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}
