package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://127.0.0.1:5001" {
			t.Errorf("expected api base URL http://127.0.0.1:5001, got %s", config.API.BaseURL)
		}

		if config.API.Timeout.Duration != 15*time.Second {
			t.Errorf("expected api timeout 15s, got %s", config.API.Timeout)
		}

		if config.Storage.Backend != "file" {
			t.Errorf("expected storage backend file, got %s", config.Storage.Backend)
		}

		if config.Database.Path != "./favx.db" {
			t.Errorf("expected database path ./favx.db, got %s", config.Database.Path)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "http://localhost:9090"
timeout = "3s"
rate_limit = 0.0

[storage]
backend = "sqlite"

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "http://localhost:9090" {
			t.Errorf("expected base URL http://localhost:9090, got %s", config.API.BaseURL)
		}

		if config.API.Timeout.Duration != 3*time.Second {
			t.Errorf("expected timeout 3s, got %s", config.API.Timeout)
		}

		if config.Storage.Backend != "sqlite" {
			t.Errorf("expected storage backend sqlite, got %s", config.Storage.Backend)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Log.Level != "info" {
			t.Errorf("expected omitted log level to keep default info, got %s", config.Log.Level)
		}
	})

	t.Run("LoadConfig Rejects Unknown Backend", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[storage]\nbackend = \"s3\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Rejects Bad Duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api]\ntimeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error for bad duration")
		}
	})

	t.Run("ResolveConfig", func(t *testing.T) {
		t.Run("explicit path wins", func(t *testing.T) {
			t.Setenv("FAVX_API_URL", "")
			configPath := filepath.Join(t.TempDir(), "custom.toml")
			if err := os.WriteFile(configPath, []byte("[api]\nbase_url = \"http://explicit\"\n"), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			config, used, err := ResolveConfig(configPath)
			if err != nil {
				t.Fatalf("ResolveConfig() error = %v", err)
			}
			if used != configPath {
				t.Errorf("used = %q, want %q", used, configPath)
			}
			if config.API.BaseURL != "http://explicit" {
				t.Errorf("expected explicit base URL, got %s", config.API.BaseURL)
			}
		})

		t.Run("env override", func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("FAVX_API_URL", "http://from-env")

			config, _, err := ResolveConfig(filepath.Join(t.TempDir(), "missing.toml"))
			if err != nil {
				t.Fatalf("ResolveConfig() error = %v", err)
			}
			if config.API.BaseURL != "http://from-env" {
				t.Errorf("expected env base URL, got %s", config.API.BaseURL)
			}
		})
	})
}
