package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/repositories"
	"github.com/desertthunder/mpdx/internal/server"
	"github.com/desertthunder/mpdx/internal/shared"
	tu "github.com/desertthunder/mpdx/internal/testing"
)

func newTestRunner(t *testing.T, serverURL string) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	if serverURL != "" {
		config.Server.URL = serverURL
	}
	config.Database.Path = filepath.Join(t.TempDir(), "mpdx.db")

	output := &bytes.Buffer{}
	return NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.NewLogger(io.Discard)}), output
}

func newMockServer(t *testing.T, pin string) *httptest.Server {
	t.Helper()
	mock := server.NewMock(server.MockOpts{PIN: pin, Logger: shared.NewLogger(io.Discard)})
	ts := httptest.NewServer(mock)
	t.Cleanup(func() {
		mock.Socket.CloseAll()
		ts.Close()
	})
	return ts
}

func run(r *Runner, args ...string) error {
	return r.app().Run(context.Background(), append([]string{"mpdx"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("fails once the output stops accepting writes", func(t *testing.T) {
			buf := &bytes.Buffer{}
			limitedWriter := tu.NewLimitedWriter(1, 0, buf)
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected first write to succeed, got %v", err)
			}
			if buf.String() != "{\"key\":\"value\"}\n" {
				t.Errorf("expected document and newline in a single write, got %q", buf.String())
			}

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlainHeader", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writePlainHeader("Queue/Current")
		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) != 3 || lines[1] != "Queue/Current" || lines[0] != lines[2] {
			t.Errorf("expected title framed by rules, got %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if names[cmd.Name] {
				t.Errorf("command %q registered twice", cmd.Name)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "api", "route", "player", "watch", "tui", "notifications", "mock", "open"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("creates config and database", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		dir := t.TempDir()
		tu.MustChdir(t, dir)
		defer tu.MustChdir(t, wd)

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

		if err := run(runner, "-c", "config.toml", "setup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		tu.AssertFileExists(t, filepath.Join(dir, "mpdx.db"))
		if !strings.Contains(output.String(), "(0 pending)") {
			t.Errorf("expected no pending migrations, got %q", output.String())
		}
	})
}

func TestRouteCommands(t *testing.T) {
	t.Run("encode", func(t *testing.T) {
		t.Run("completes the active tab", func(t *testing.T) {
			runner, output := newTestRunner(t, "")

			if err := run(runner, "route", "encode", "Queue"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := output.String(); got != "#/Queue/Current!0/any/-/-/\n" {
				t.Errorf("unexpected fragment %q", got)
			}
		})

		t.Run("applies overrides", func(t *testing.T) {
			runner, output := newTestRunner(t, "")

			err := run(runner, "route", "encode", "--tab", "Database", "--view", "Detail", "--page", "2", "--search", "abba", "Browse")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := output.String(); got != "#/Browse/Database/Detail!2/-/-/-/abba\n" {
				t.Errorf("unexpected fragment %q", got)
			}
		})

		t.Run("rejects unknown apps", func(t *testing.T) {
			runner, _ := newTestRunner(t, "")

			err := run(runner, "route", "encode", "Nowhere")
			if !errors.Is(err, shared.ErrNoRoute) {
				t.Errorf("expected ErrNoRoute, got %v", err)
			}
		})

		t.Run("requires an app", func(t *testing.T) {
			runner, _ := newTestRunner(t, "")

			err := run(runner, "route", "encode")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("decode", func(t *testing.T) {
		t.Run("prints the resolved location as JSON", func(t *testing.T) {
			runner, output := newTestRunner(t, "")

			if err := run(runner, "route", "decode", "--json", "#/Search!1/any/-Title/-/abba"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got := tu.MustJSON(t, output.String())
			if got["app"] != "Search" || got["page"] != float64(1) || got["sort"] != "-Title" {
				t.Errorf("unexpected location %v", got)
			}
		})

		t.Run("prints a summary", func(t *testing.T) {
			runner, output := newTestRunner(t, "")

			if err := run(runner, "route", "decode", "#/Home!0/-/-/-/"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "Screen:   Home") {
				t.Errorf("expected screen line, got %q", output.String())
			}
		})

		t.Run("rejects malformed fragments", func(t *testing.T) {
			runner, _ := newTestRunner(t, "")

			err := run(runner, "route", "decode", "Home")
			if !errors.Is(err, shared.ErrInvalidFragment) {
				t.Errorf("expected ErrInvalidFragment, got %v", err)
			}
		})
	})

	t.Run("list", func(t *testing.T) {
		runner, output := newTestRunner(t, "")

		if err := run(runner, "route", "list", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.HasPrefix(result, "Screen,Fragment\n") {
			t.Errorf("expected CSV header, got %q", result)
		}
		if !strings.Contains(result, "QueueJukebox,#/Queue/Jukebox!0/any/-/-/") {
			t.Errorf("expected jukebox row, got %q", result)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("call", func(t *testing.T) {
		t.Run("prints the reply envelope", func(t *testing.T) {
			ts := newMockServer(t, "")
			runner, output := newTestRunner(t, ts.URL)

			if err := run(runner, "api", "call", "MYMPD_API_PLAYER_STATE"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"result"`) || !strings.Contains(result, `"state":"stop"`) {
				t.Errorf("expected player state result, got %s", result)
			}
		})

		t.Run("prints error envelopes and fails", func(t *testing.T) {
			ts := newMockServer(t, "")
			runner, output := newTestRunner(t, ts.URL)

			err := run(runner, "api", "call", "MYMPD_API_NOPE")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(output.String(), `"error"`) {
				t.Errorf("expected error envelope, got %s", output.String())
			}
		})

		t.Run("rejects invalid params", func(t *testing.T) {
			runner, _ := newTestRunner(t, "")

			err := run(runner, "api", "call", "--params", "{nope", "MYMPD_API_PLAYER_STATE")
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("logs in before protected calls", func(t *testing.T) {
			ts := newMockServer(t, "1234")
			runner, output := newTestRunner(t, ts.URL)

			if err := run(runner, "api", "call", "--pin", "1234", "MYMPD_API_DATABASE_UPDATE"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"result"`) {
				t.Errorf("expected result envelope, got %s", output.String())
			}
		})

		t.Run("protected calls without a session fail", func(t *testing.T) {
			ts := newMockServer(t, "1234")
			runner, _ := newTestRunner(t, ts.URL)

			err := run(runner, "api", "call", "MYMPD_API_DATABASE_UPDATE")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("login", func(t *testing.T) {
		t.Run("opens and validates a session", func(t *testing.T) {
			ts := newMockServer(t, "1234")
			runner, output := newTestRunner(t, ts.URL)

			if err := run(runner, "api", "login", "--pin", "1234"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "Session opened") {
				t.Errorf("expected confirmation, got %q", output.String())
			}
		})

		t.Run("wrong pin fails", func(t *testing.T) {
			ts := newMockServer(t, "1234")
			runner, _ := newTestRunner(t, ts.URL)

			err := run(runner, "api", "login", "--pin", "0000")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("requires a pin", func(t *testing.T) {
			runner, _ := newTestRunner(t, "")

			err := run(runner, "api", "login")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("player", func(t *testing.T) {
		ts := newMockServer(t, "")
		runner, output := newTestRunner(t, ts.URL)

		if err := run(runner, "player"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "State: stop") || !strings.Contains(result, "Volume: 50") {
			t.Errorf("unexpected player output %q", result)
		}
	})
}

func TestNotificationsCommand(t *testing.T) {
	seed := func(t *testing.T, runner *Runner) {
		t.Helper()
		db, err := shared.OpenConfigured(runner.config.Database)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		repo := repositories.NewNotificationRepository(db)
		for _, n := range []*models.Notification{
			models.NewNotification(0, "Connected to myMPD", "Partition: default", "info"),
			models.NewNotification(0, "Database update failed", "", "danger"),
		} {
			if err := repo.Create(n); err != nil {
				t.Fatalf("failed to create notification: %v", err)
			}
		}
	}

	t.Run("prints history as CSV", func(t *testing.T) {
		runner, output := newTestRunner(t, "")
		seed(t, runner)

		if err := run(runner, "notifications", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.HasPrefix(result, "Time,Severity,Title,Text,Occurrence\n") {
			t.Errorf("expected CSV header, got %q", result)
		}
		if strings.Index(result, "Database update failed") > strings.Index(result, "Connected to myMPD") {
			t.Errorf("expected newest first, got %q", result)
		}
	})

	t.Run("filters by severity", func(t *testing.T) {
		runner, output := newTestRunner(t, "")
		seed(t, runner)

		if err := run(runner, "notifications", "--severity", "error"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(output.String(), "Connected to myMPD") {
			t.Errorf("expected only danger entries, got %q", output.String())
		}
	})

	t.Run("writes to a file and clears", func(t *testing.T) {
		runner, output := newTestRunner(t, "")
		seed(t, runner)
		path := filepath.Join(t.TempDir(), "out", "notes.json")

		if err := run(runner, "notifications", "--format", "json", "--output", path, "--clear"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", output.String())
		}
		if !strings.Contains(tu.MustReadFile(t, path), "Connected to myMPD") {
			t.Error("expected history in file")
		}

		output.Reset()
		if err := run(runner, "notifications"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.Len() != 0 {
			t.Errorf("expected cleared history, got %q", output.String())
		}
	})
}

func TestWatch(t *testing.T) {
	t.Run("prints push events until the context ends", func(t *testing.T) {
		ts := newMockServer(t, "")
		runner, output := newTestRunner(t, ts.URL)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := runner.app().Run(ctx, []string{"mpdx", "watch", "--kind", "welcome"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "welcome") {
			t.Errorf("expected welcome event, got %q", output.String())
		}
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		runner, _ := newTestRunner(t, "")

		err := run(runner, "watch", "--kind", "update_everything")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
