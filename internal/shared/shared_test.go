package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"  WARN ", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"loud", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger respects level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)
		SetLogLevel(l, log.WarnLevel)

		l.Info("hidden")
		WithLogger(l, "component", "test").Warn("shown")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info line should be filtered: %q", out)
		}
		if !strings.Contains(out, "shown") || !strings.Contains(out, "component=test") {
			t.Errorf("warn line missing fields: %q", out)
		}
	})

	t.Run("NewFileLogger creates parent dirs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "favx.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		l.Error("written")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log: %v", err)
		}
		if !strings.Contains(string(data), "written") {
			t.Errorf("log file missing entry: %q", data)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("GenerateID() = %q is not a uuid: %v", a, err)
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"n": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil || string(compact) != `{"n":1}` {
		t.Errorf("compact = %s, %v", compact, err)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil || string(pretty) != "{\n  \"n\": 1\n}" {
		t.Errorf("pretty = %s, %v", pretty, err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tc := []struct {
		name string
		in   string
		want string
	}{
		{"relative", "./favx.db", "./favx.db"},
		{"trimmed", "  /tmp/favx.db ", "/tmp/favx.db"},
		{"home", "~/.favx/token", filepath.Join(home, ".favx/token")},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.in)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ExpandPath("   "); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("blank path error = %v, want ErrInvalidConfig", err)
	}
}

func TestOpenBrowser(t *testing.T) {
	t.Run("rejects non http urls", func(t *testing.T) {
		for _, target := range []string{"", "poster.jpg", "file:///etc/passwd", "https://"} {
			if err := OpenBrowser(target); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("OpenBrowser(%q) error = %v, want ErrInvalidArgument", target, err)
			}
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		t.Cleanup(func() { getRuntime = orig })

		err := OpenBrowser("https://image.tmdb.org/t/p/w500/dune.jpg")
		if err == nil || !strings.Contains(err.Error(), "unsupported platform: plan9") {
			t.Errorf("OpenBrowser() error = %v, want unsupported platform", err)
		}
	})

	t.Run("launcher per platform", func(t *testing.T) {
		tc := map[string]string{"darwin": "open", "linux": "xdg-open", "windows": "rundll32"}
		for goos, bin := range tc {
			cmd := browserCommand(goos, "https://example.com")
			if cmd == nil {
				t.Fatalf("browserCommand(%q) = nil", goos)
			}
			if filepath.Base(cmd.Args[0]) != bin {
				t.Errorf("browserCommand(%q) runs %q, want %q", goos, cmd.Args[0], bin)
			}
			if last := cmd.Args[len(cmd.Args)-1]; last != "https://example.com" {
				t.Errorf("browserCommand(%q) target = %q", goos, last)
			}
		}
	})
}
