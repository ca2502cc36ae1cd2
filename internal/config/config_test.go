package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Set only required env var
	os.Setenv("SOURCE_PATH", "verbs.csv")
	defer os.Unsetenv("SOURCE_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Store.Path != "verbs.db" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, "verbs.db")
	}
	if cfg.Store.Table != "conjugations" {
		t.Errorf("Store.Table = %q, want %q", cfg.Store.Table, "conjugations")
	}
	if cfg.Store.MinSize != 4096 {
		t.Errorf("Store.MinSize = %d, want %d", cfg.Store.MinSize, 4096)
	}
	if cfg.Store.Rebuild != "stale" {
		t.Errorf("Store.Rebuild = %q, want %q", cfg.Store.Rebuild, "stale")
	}
	if len(cfg.Source.Encodings) != 3 || cfg.Source.Encodings[0] != "utf-8" {
		t.Errorf("Source.Encodings = %v, want [utf-8 iso-8859-7 windows-1253]", cfg.Source.Encodings)
	}
	if cfg.Server.RequestTimeout != 60*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 60s", cfg.Server.RequestTimeout)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	os.Setenv("SOURCE_PATH", "verbs.csv")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("STORE_REBUILD", "always")
	os.Setenv("SOURCE_ENCODINGS", "utf-8, iso-8859-7")
	os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("SOURCE_PATH")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("STORE_REBUILD")
		os.Unsetenv("SOURCE_ENCODINGS")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if !cfg.Store.RebuildAlways() {
		t.Error("Store.RebuildAlways() = false, want true")
	}
	if len(cfg.Source.Encodings) != 2 || cfg.Source.Encodings[1] != "iso-8859-7" {
		t.Errorf("Source.Encodings = %v, want trimmed 2-element list", cfg.Source.Encodings)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	// Test that CSV_PATH works as fallback
	os.Setenv("CSV_PATH", "greek verb conjugation table v2.csv")
	defer os.Unsetenv("CSV_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.Path != "greek verb conjugation table v2.csv" {
		t.Errorf("Source.Path = %q, want CSV_PATH value", cfg.Source.Path)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("SOURCE_PATH")
	os.Unsetenv("CSV_PATH")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want missing SOURCE_PATH error")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "SERVER_PORT", "99999"},
		{"bad rebuild policy", "STORE_REBUILD", "sometimes"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"bad duration", "SERVER_READ_TIMEOUT", "soon"},
		{"bad integer", "STORE_MIN_SIZE", "tiny"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("SOURCE_PATH", "verbs.csv")
			os.Setenv(tt.key, tt.value)
			defer func() {
				os.Unsetenv("SOURCE_PATH")
				os.Unsetenv(tt.key)
			}()

			if _, err := Load(); err == nil {
				t.Errorf("Load() error = nil, want failure for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	c := ServerConfig{Host: "0.0.0.0", Port: 8080}
	if got := c.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q, want %q", got, "0.0.0.0:8080")
	}

	c = ServerConfig{Host: "", Port: 9090}
	if got := c.Addr(); got != ":9090" {
		t.Errorf("Addr() = %q, want %q", got, ":9090")
	}
}
