package config

import "batch-transcriber/internal/domain"

// ResolveProxyURL builds a proxy endpoint from config, or "" when the proxy
// is disabled or missing host/port. Credentials are embedded verbatim: no
// URL-encoding is applied, so special characters in username or password pass
// through unchanged. The resolved value is handed to network collaborators
// explicitly; process environment is never touched.
func ResolveProxyURL(cfg domain.ProxyConfig) string {
	if !cfg.Enabled || cfg.Host == "" || cfg.Port == "" {
		return ""
	}

	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}

	auth := ""
	if cfg.Username != "" {
		auth = cfg.Username + ":" + cfg.Password + "@"
	}

	return scheme + "://" + auth + cfg.Host + ":" + cfg.Port
}
