package headed

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"jobscout/internal/config"
)

// ProxyMode describes how a session reaches the network
type ProxyMode int

const (
	ProxyNone ProxyMode = iota
	ProxyUnauthenticated
	ProxyAuthenticated
)

func (m ProxyMode) String() string {
	switch m {
	case ProxyUnauthenticated:
		return "unauthenticated"
	case ProxyAuthenticated:
		return "authenticated"
	default:
		return "none"
	}
}

// ProxyConfig holds optional upstream proxy settings
type ProxyConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// ProxyFromConfig copies the proxy section of the application config
func ProxyFromConfig(cfg *config.Config) ProxyConfig {
	return ProxyConfig{
		Host:     cfg.Proxy.Host,
		Port:     cfg.Proxy.Port,
		Username: cfg.Proxy.Username,
		Password: cfg.Proxy.Password,
	}
}

// Mode picks authenticated only when all four fields are set, and
// unauthenticated when at least host and port are
func (p ProxyConfig) Mode() ProxyMode {
	switch {
	case p.Host != "" && p.Port != "" && p.Username != "" && p.Password != "":
		return ProxyAuthenticated
	case p.Host != "" && p.Port != "":
		return ProxyUnauthenticated
	default:
		return ProxyNone
	}
}

// Server returns the host:port pair for the proxy-server flag
func (p ProxyConfig) Server() string {
	return net.JoinHostPort(p.Host, p.Port)
}

// ExtensionBundle is an unpacked browser extension held in memory
type ExtensionBundle struct {
	Files map[string][]byte
}

// BuildProxyExtension generates an extension that points the browser at the
// proxy and answers its authentication challenges with the credentials
func BuildProxyExtension(p ProxyConfig) (*ExtensionBundle, error) {
	if p.Mode() != ProxyAuthenticated {
		return nil, fmt.Errorf("proxy extension needs host, port, username and password")
	}
	port, err := strconv.Atoi(p.Port)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid proxy port %q", p.Port)
	}

	// Manifest V3: a service worker answers auth challenges asynchronously
	manifest, err := json.MarshalIndent(map[string]interface{}{
		"version":                "1.0.0",
		"manifest_version":       3,
		"name":                   "jobscout proxy auth",
		"permissions":            []string{"proxy", "webRequest", "webRequestAuthProvider"},
		"host_permissions":       []string{"<all_urls>"},
		"background":             map[string]interface{}{"service_worker": "background.js"},
		"minimum_chrome_version": "108",
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	// JSON string literals are valid JavaScript string literals
	quote := func(s string) string {
		b, _ := json.Marshal(s)
		return string(b)
	}

	background := fmt.Sprintf(`const config = {
  mode: "fixed_servers",
  rules: {
    singleProxy: { scheme: "http", host: %s, port: %d },
    bypassList: ["localhost"]
  }
};

chrome.proxy.settings.set({ value: config, scope: "regular" }, function() {});

chrome.webRequest.onAuthRequired.addListener(
  function(details, callback) {
    callback({ authCredentials: { username: %s, password: %s } });
  },
  { urls: ["<all_urls>"] },
  ["asyncBlocking"]
);
`, quote(p.Host), port, quote(p.Username), quote(p.Password))

	return &ExtensionBundle{
		Files: map[string][]byte{
			"manifest.json": manifest,
			"background.js": []byte(background),
		},
	}, nil
}

// Materialize writes the bundle into a fresh private temp directory, which
// the browser loads as an unpacked extension. The caller removes it.
func (b *ExtensionBundle) Materialize() (string, error) {
	dir, err := os.MkdirTemp("", "jobscout-proxy-*")
	if err != nil {
		return "", fmt.Errorf("failed to create extension dir: %w", err)
	}

	names := make([]string, 0, len(b.Files))
	for name := range b.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), b.Files[name], 0o600); err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return dir, nil
}
