package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type BackendConfig struct {
	URL string `toml:"url"`
}

type DisplayConfig struct {
	ShowQueries  bool `toml:"show_queries"`
	SidebarWidth int  `toml:"sidebar_width"`
}

// Settings mirrors settings.toml
type Settings struct {
	Backend BackendConfig `toml:"backend"`
	Display DisplayConfig `toml:"display"`
}

type Config struct {
	BackendURL   string
	ShowQueries  bool
	SidebarWidth int
	Keys         *KeyBindingsConfig
}

var Debug = false
var DebugLog *log.Logger

const (
	defaultBackendURL   = "http://localhost:5000"
	defaultSidebarWidth = 32
	minSidebarWidth     = 20
)

func (c *Config) applyEnvOverrides() {
	if u := os.Getenv("SALESASSIST_URL"); u != "" {
		c.BackendURL = u
	}
}

func CheckDebug() bool {
	debug := os.Getenv("SALESASSIST_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens debug.log in the cache directory when SALESASSIST_DEBUG is set.
func InitDebugLog(dir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	if err := EnsureDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create log directory %s: %v\n", dir, err)
		return
	}
	logPath := filepath.Join(dir, "debug.log")

	// 0600: request bodies end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (SALESASSIST_DEBUG=%s) ===", os.Getenv("SALESASSIST_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// Load reads settings.toml (creating it on first run), applies env overrides
// and loads keybindings.
func Load() (*Config, error) {
	settings, err := LoadSettings(GetSettingsFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	keys, err := LoadKeybindings(GetConfigDir())
	if err != nil {
		return nil, fmt.Errorf("failed to load keybindings: %w", err)
	}

	if ok, warning := keys.Validate(); !ok {
		return nil, fmt.Errorf("invalid keybindings: %s", warning)
	} else if warning != "" && DebugLog != nil {
		DebugLog.Printf("[Config] %s", warning)
	}

	cfg := FromSettings(settings)
	cfg.Keys = keys
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromSettings converts the on-disk representation, filling defaults for zero values.
func FromSettings(s *Settings) *Config {
	cfg := &Config{
		BackendURL:   strings.TrimSpace(s.Backend.URL),
		ShowQueries:  s.Display.ShowQueries,
		SidebarWidth: s.Display.SidebarWidth,
		Keys:         DefaultKeybindings(),
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = defaultBackendURL
	}
	if cfg.SidebarWidth == 0 {
		cfg.SidebarWidth = defaultSidebarWidth
	}
	return cfg
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL %q: %w", c.BackendURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend URL %q: scheme must be http or https", c.BackendURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid backend URL %q: missing host", c.BackendURL)
	}
	if c.SidebarWidth < minSidebarWidth {
		return fmt.Errorf("sidebar_width must be at least %d, got %d", minSidebarWidth, c.SidebarWidth)
	}
	return nil
}
