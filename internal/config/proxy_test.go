package config

import (
	"testing"

	"batch-transcriber/internal/domain"
)

// TestResolveProxyURLDisabledOrIncomplete checks the empty-result cases.
func TestResolveProxyURLDisabledOrIncomplete(t *testing.T) {
	cases := []struct {
		name string
		cfg  domain.ProxyConfig
	}{
		{"disabled", domain.ProxyConfig{Scheme: "http", Host: "h", Port: "8080"}},
		{"empty host", domain.ProxyConfig{Enabled: true, Scheme: "http", Port: "8080"}},
		{"empty port", domain.ProxyConfig{Enabled: true, Scheme: "http", Host: "h"}},
	}

	for _, tc := range cases {
		if got := ResolveProxyURL(tc.cfg); got != "" {
			t.Fatalf("%s: resolved = %q, want empty", tc.name, got)
		}
	}
}

// TestResolveProxyURLWithoutCredentials checks the plain host:port form.
func TestResolveProxyURLWithoutCredentials(t *testing.T) {
	got := ResolveProxyURL(domain.ProxyConfig{
		Enabled: true,
		Scheme:  "http",
		Host:    "h",
		Port:    "8080",
	})
	if got != "http://h:8080" {
		t.Fatalf("resolved = %q, want http://h:8080", got)
	}
}

// TestResolveProxyURLEmbedsCredentialsVerbatim checks no encoding is applied.
func TestResolveProxyURLEmbedsCredentialsVerbatim(t *testing.T) {
	got := ResolveProxyURL(domain.ProxyConfig{
		Enabled:  true,
		Scheme:   "socks5",
		Host:     "proxy.local",
		Port:     "1080",
		Username: "user@corp",
		Password: "p:ss",
	})
	if got != "socks5://user@corp:p:ss@proxy.local:1080" {
		t.Fatalf("resolved = %q", got)
	}
}

// TestResolveProxyURLEmptyPasswordStillAllowed checks user-only credentials.
func TestResolveProxyURLEmptyPasswordStillAllowed(t *testing.T) {
	got := ResolveProxyURL(domain.ProxyConfig{
		Enabled:  true,
		Scheme:   "http",
		Host:     "h",
		Port:     "8080",
		Username: "user",
	})
	if got != "http://user:@h:8080" {
		t.Fatalf("resolved = %q, want http://user:@h:8080", got)
	}
}
