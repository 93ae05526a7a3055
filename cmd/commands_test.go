package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/favx/internal/models"
	"github.com/desertthunder/favx/internal/shared"
	tu "github.com/desertthunder/favx/internal/testing"
)

func TestAuthCommands(t *testing.T) {
	t.Setenv(PasswordEnv, "")

	t.Run("register does not sign in", func(t *testing.T) {
		tr := newTestRunner(t)

		out, err := tr.run("auth", "register", "--password", "pw", "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "✓ Account created for alice") {
			t.Errorf("unexpected output %q", out)
		}
		if !strings.Contains(out, "User created successfully") {
			t.Errorf("expected server message in output, got %q", out)
		}
		if _, ok, _ := tr.store.Get(); ok {
			t.Error("expected no token after register")
		}
	})

	t.Run("register reports server errors", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.api.AddUser("alice", "pw")

		_, err := tr.run("auth", "register", "--password", "pw", "alice")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), "Username already exists") {
			t.Errorf("expected server message, got %v", err)
		}
	})

	t.Run("login stores the token", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.api.AddUser("bob", "hunter2")

		out, err := tr.run("auth", "login", "--password", "hunter2", "bob")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "✓ Signed in as bob") {
			t.Errorf("unexpected output %q", out)
		}
		if tok, ok, _ := tr.store.Get(); !ok || tok == "" {
			t.Error("expected token to be stored")
		}
	})

	t.Run("login reads the password from the environment", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.api.AddUser("bob", "hunter2")
		t.Setenv(PasswordEnv, "hunter2")

		if _, err := tr.run("auth", "login", "bob"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok, _ := tr.store.Get(); !ok {
			t.Error("expected token to be stored")
		}
	})

	t.Run("login with bad credentials", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.api.AddUser("bob", "hunter2")

		_, err := tr.run("auth", "login", "--password", "wrong", "bob")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), "Invalid credentials") {
			t.Errorf("expected server message, got %v", err)
		}
		if _, ok, _ := tr.store.Get(); ok {
			t.Error("expected no token after failed login")
		}
	})

	t.Run("missing arguments", func(t *testing.T) {
		tr := newTestRunner(t)

		for _, args := range [][]string{
			{"auth", "login", "bob"},
			{"auth", "login", "--password", "pw"},
			{"auth", "register", "alice"},
		} {
			_, err := tr.run(args...)
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("%v: expected ErrMissingArgument, got %v", args, err)
			}
		}
		if tr.api.RequestCount() != 0 {
			t.Errorf("expected no requests, got %d", tr.api.RequestCount())
		}
	})

	t.Run("logout removes the token", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)

		out, err := tr.run("auth", "logout")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "✓ Signed out") {
			t.Errorf("unexpected output %q", out)
		}
		if _, ok, _ := tr.store.Get(); ok {
			t.Error("expected token to be removed")
		}

		if _, err := tr.run("auth", "logout"); err != nil {
			t.Errorf("expected second logout to succeed, got %v", err)
		}
	})

	t.Run("status", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)

		out, err := tr.run("auth", "status", "--json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var info AuthStatusInfo
		if err := json.Unmarshal([]byte(out), &info); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", out, err)
		}
		if !info.Authenticated || info.Username != "bob" {
			t.Errorf("unexpected status %+v", info)
		}
		if info.Storage != "memory" {
			t.Errorf("expected memory storage, got %s", info.Storage)
		}
	})

	t.Run("status after a stale token", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.store.Set("revoked"); err != nil {
			t.Fatal(err)
		}

		out, err := tr.run("auth", "status")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Not signed in") || !strings.Contains(out, "Last error: Unauthorized") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("whoami", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)

		out, err := tr.run("auth", "whoami")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out != "bob (id 1)\n" {
			t.Errorf("unexpected output %q", out)
		}
	})
}

func TestFavoritesCommands(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		t.Run("empty", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)

			out, err := tr.run("favorites", "list")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out != "No favorites yet\n" {
				t.Errorf("unexpected output %q", out)
			}
		})

		t.Run("plain", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)
			seedBob(tr)

			out, err := tr.run("favorites", "list")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			for _, want := range []string{
				"[movie] Dune - Completed (8.5/10)",
				"[show] Severance - Watching",
				"2 favorites",
			} {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in output %q", want, out)
				}
			}
		})

		t.Run("json with filter", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)
			seedBob(tr)

			out, err := tr.run("favorites", "list", "--json", "--status", "watching")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var items []models.FavoriteItem
			if err := json.Unmarshal([]byte(out), &items); err != nil {
				t.Fatalf("expected JSON output, got %q: %v", out, err)
			}
			if len(items) != 1 || items[0].Title != "Severance" {
				t.Errorf("unexpected items %+v", items)
			}
		})

		t.Run("invalid status", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)

			_, err := tr.run("favorites", "list", "--status", "dropped")
			if !errors.Is(err, shared.ErrInvalidFlag) {
				t.Fatalf("expected ErrInvalidFlag, got %v", err)
			}
		})
	})

	t.Run("get", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)
		seeded := seedBob(tr)

		out, err := tr.run("favorites", "get", seeded[0].ID.String())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Dune", "Status: Completed", "Rating: 8.5/10", "External ID: 438631"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output %q", want, out)
			}
		}

		_, err = tr.run("favorites", "get", "999")
		if !errors.Is(err, shared.ErrFavoriteNotFound) {
			t.Errorf("expected ErrFavoriteNotFound, got %v", err)
		}
	})

	t.Run("add", func(t *testing.T) {
		t.Run("new and duplicate", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)

			out, err := tr.run("favorites", "add", "--title", "Arrival", "--type", "movie", "--external-id", "329865", "--rating", "9")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(out, "✓ Added Arrival (id 1)") {
				t.Errorf("unexpected output %q", out)
			}

			out, err = tr.run("favorites", "add", "--title", "Arrival", "--type", "movie", "--external-id", "329865")
			if err != nil {
				t.Fatalf("expected duplicate to succeed, got %v", err)
			}
			if !strings.Contains(out, "= Arrival is already tracked (id 1)") {
				t.Errorf("unexpected output %q", out)
			}

			items := tr.api.Items("bob")
			if len(items) != 1 {
				t.Fatalf("expected 1 stored item, got %d", len(items))
			}
			if items[0].Status != models.StatusPlanToWatch {
				t.Errorf("expected default status, got %s", items[0].Status)
			}
		})

		t.Run("json output", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)

			out, err := tr.run("favorites", "add", "--json", "--title", "Hades", "--type", "game")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var res AddOutput
			if err := json.Unmarshal([]byte(out), &res); err != nil {
				t.Fatalf("expected JSON output, got %q: %v", out, err)
			}
			if res.Outcome != "added" || res.Item.Title != "Hades" {
				t.Errorf("unexpected result %+v", res)
			}
		})

		t.Run("invalid input", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)

			_, err := tr.run("favorites", "add", "--type", "movie")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}

			_, err = tr.run("favorites", "add", "--title", "Dune", "--type", "movie", "--rating", "11")
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if len(tr.api.Items("bob")) != 0 {
				t.Error("expected nothing stored")
			}
		})
	})

	t.Run("update keeps unset fields", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)
		seeded := seedBob(tr)

		out, err := tr.run("favorites", "update", "--status", "watching", "--notes", "rewatch", seeded[0].ID.String())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "✓ Updated Dune") {
			t.Errorf("unexpected output %q", out)
		}

		stored := tr.api.Items("bob")[0]
		if stored.Status != models.StatusWatching || stored.Notes != "rewatch" {
			t.Errorf("expected changed fields, got %+v", stored)
		}
		if stored.Rating == nil || *stored.Rating != 8.5 || stored.ExternalID != "438631" {
			t.Errorf("expected unset fields to be kept, got %+v", stored)
		}

		_, err = tr.run("favorites", "update", seeded[0].ID.String())
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without flags, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)
		seeded := seedBob(tr)

		out, err := tr.run("favorites", "delete", seeded[0].ID.String())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "✓ Deleted Dune") {
			t.Errorf("unexpected output %q", out)
		}
		if len(tr.api.Items("bob")) != 1 {
			t.Errorf("expected 1 remaining item, got %d", len(tr.api.Items("bob")))
		}

		if _, err := tr.run("favorites", "delete", "999"); err != nil {
			t.Errorf("expected missing id to count as deleted, got %v", err)
		}
	})

	t.Run("delete server error", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)
		seeded := seedBob(tr)
		tr.api.Fail(http.MethodDelete, "/api/favorites/"+seeded[0].ID.String(), http.StatusInternalServerError, "database is locked")

		_, err := tr.run("favorites", "delete", seeded[0].ID.String())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "database is locked") {
			t.Errorf("expected server message, got %v", err)
		}
	})

	t.Run("expired session is cleared", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)
		tr.api.Fail(http.MethodGet, "/api/favorites", http.StatusUnauthorized, "Unauthorized")

		_, err := tr.run("favorites", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, ok, _ := tr.store.Get(); ok {
			t.Error("expected token to be removed")
		}
	})

	t.Run("export", func(t *testing.T) {
		t.Run("to file", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)
			seedBob(tr)
			path := filepath.Join(t.TempDir(), "exports", "favs.csv")

			out, err := tr.run("favorites", "export", "--format", "csv", "--output", path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(out, "✓ Exported 2 favorites to "+path) {
				t.Errorf("unexpected output %q", out)
			}

			content := tu.ReadFile(t, path)
			if !strings.HasPrefix(content, strings.Join([]string{"ID", "External ID", "Type", "Title"}, ",")) {
				t.Errorf("expected CSV header, got %q", content)
			}
			if !strings.Contains(content, "Severance") {
				t.Errorf("expected rows in export, got %q", content)
			}
		})

		t.Run("to stdout", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)
			seedBob(tr)

			out, err := tr.run("favorites", "export", "--format", "md", "--stdout")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.HasPrefix(out, "# Favorites") || !strings.Contains(out, "**Dune**") {
				t.Errorf("unexpected markdown %q", out)
			}
		})

		t.Run("unknown format", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.signIn(t)

			_, err := tr.run("favorites", "export", "--format", "xml")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("import and history", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)
		seedBob(tr)

		path := filepath.Join(t.TempDir(), "import.json")
		data := `[
			{"title": "Dune", "type": "movie", "external_id": "438631"},
			{"title": "Arrival", "type": "movie", "external_id": "329865"}
		]`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}

		out, err := tr.run("favorites", "import", path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Import Complete!", "Added: 1", "Already tracked: 1", "Failed: 0"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output %q", want, out)
			}
		}
		if len(tr.api.Items("bob")) != 3 {
			t.Errorf("expected 3 stored items, got %d", len(tr.api.Items("bob")))
		}

		out, err = tr.run("favorites", "history")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, path+": 1 added, 1 duplicates, 0 failed") {
			t.Errorf("unexpected history %q", out)
		}
	})

	t.Run("import with every item failing", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)
		tr.api.Fail(http.MethodPost, "/api/favorites", http.StatusInternalServerError, "boom")

		path := filepath.Join(t.TempDir(), "import.csv")
		data := "Title,Type\nHades,game\n"
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}

		out, err := tr.run("favorites", "import", "--no-history", path)
		if err == nil {
			t.Fatal("expected error when every item fails")
		}
		if !strings.Contains(out, "✗ Hades: boom") {
			t.Errorf("expected failure detail, got %q", out)
		}
	})

	t.Run("history when empty", func(t *testing.T) {
		tr := newTestRunner(t)

		out, err := tr.run("favorites", "history")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out != "No imports recorded\n" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("open", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)
		seeded := seedBob(tr)

		if _, err := tr.run("favorites", "open", seeded[0].ID.String()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tr.opened) != 1 || tr.opened[0] != seeded[0].PosterPath {
			t.Errorf("expected poster to be opened, got %v", tr.opened)
		}

		_, err := tr.run("favorites", "open", seeded[1].ID.String())
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument without poster, got %v", err)
		}
	})
}

func TestSearchCommand(t *testing.T) {
	setup := func(t *testing.T) *testRunner {
		tr := newTestRunner(t)
		tr.signIn(t)
		tr.api.SetCatalog(
			models.SearchResult{ID: "438631", Title: "Dune", ReleaseDate: "2021-09-15", VoteAverage: models.Float(7.8)},
			models.SearchResult{ID: "841", Title: "Dune", ReleaseDate: "1984-12-14", Overview: "Lynch"},
			models.SearchResult{ID: "329865", Title: "Arrival"},
		)
		return tr
	}

	t.Run("lists results", func(t *testing.T) {
		tr := setup(t)

		out, err := tr.run("search", "dune")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "1. Dune (2021) ★ 7.8") || !strings.Contains(out, "2. Dune (1984)") {
			t.Errorf("unexpected output %q", out)
		}
		if strings.Contains(out, "Arrival") {
			t.Errorf("expected filtered results, got %q", out)
		}
	})

	t.Run("adds a result", func(t *testing.T) {
		tr := setup(t)

		out, err := tr.run("search", "--add", "2", "dune")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "✓ Added Dune") {
			t.Errorf("unexpected output %q", out)
		}

		items := tr.api.Items("bob")
		if len(items) != 1 {
			t.Fatalf("expected 1 stored item, got %d", len(items))
		}
		if items[0].ExternalID != "841" || items[0].Type != models.MediaMovie || items[0].Description != "Lynch" {
			t.Errorf("unexpected stored item %+v", items[0])
		}
	})

	t.Run("add out of range", func(t *testing.T) {
		tr := setup(t)

		_, err := tr.run("search", "--add", "5", "dune")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestAPIGetCommand(t *testing.T) {
	t.Run("prints JSON", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)

		out, err := tr.run("api", "get", "api/auth/me")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, `"username": "bob"`) {
			t.Errorf("expected pretty JSON, got %q", out)
		}

		out, err = tr.run("api", "get", "--json", "/api/auth/me")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, `"username":"bob"`) {
			t.Errorf("expected compact JSON, got %q", out)
		}
	})

	t.Run("non-2xx status", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.signIn(t)

		_, err := tr.run("api", "get", "/api/nope")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status in error, got %v", err)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	tr := newTestRunner(t)
	configPath := filepath.Join(t.TempDir(), "favx", "config.toml")

	out, err := tr.run("--config", configPath, "setup", "database")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tu.AssertFileContains(t, configPath, "[api]", "base_url")
	tu.ReadFile(t, tr.config.Database.Path)
	if !strings.Contains(out, "✓ Config written to "+configPath) {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "✓ Database ready") {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := shared.LoadConfig(configPath); err != nil {
		t.Errorf("expected written config to load, got %v", err)
	}

	out, err = tr.run("--config", configPath, "setup", "database")
	if err != nil {
		t.Fatalf("expected rerun to succeed, got %v", err)
	}
	if strings.Contains(out, "Config written") {
		t.Errorf("expected existing config to be kept, got %q", out)
	}
}
