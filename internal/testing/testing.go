// Package testing contains shared test doubles: writers and transports that fail on demand,
// file assertions and [FakeAPI], an in-memory favorites server.
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

// ErrInjected is returned by every double in this package when it is told to fail.
var ErrInjected = errors.New("injected failure")

// FlakyWriter passes the first OK writes through to Target and fails every write after that.
//
// The zero value fails immediately.
type FlakyWriter struct {
	OK     int
	Target io.Writer
	writes int
}

func (w *FlakyWriter) Write(p []byte) (int, error) {
	if w.writes >= w.OK {
		return 0, ErrInjected
	}
	w.writes++
	if w.Target == nil {
		return len(p), nil
	}
	return w.Target.Write(p)
}

// RoundTripFunc adapts a function to [http.RoundTripper].
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Transport returns a client whose requests all resolve to resp and err without touching the network.
func Transport(resp *http.Response, err error) *http.Client {
	return &http.Client{Transport: RoundTripFunc(func(*http.Request) (*http.Response, error) {
		return resp, err
	})}
}

// BrokenBody is a response body whose reads always fail.
type BrokenBody struct{}

func (BrokenBody) Read([]byte) (int, error) { return 0, ErrInjected }
func (BrokenBody) Close() error             { return nil }

// ReadFile fails the test unless path is a regular file, and returns its contents.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected file %s: %v", path, err)
	}
	if info.IsDir() {
		t.Fatalf("expected file, found directory: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(content)
}

// AssertFileContains reports an error for each want missing from the file at path.
func AssertFileContains(t *testing.T, path string, want ...string) {
	t.Helper()
	content := ReadFile(t, path)
	for _, w := range want {
		if !strings.Contains(content, w) {
			t.Errorf("%s: missing %q", path, w)
		}
	}
}
