package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
)

// fakeAPI answers folder and release queries for a single "Team" folder.
func fakeAPI(t *testing.T, releases string) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/{project}/_apis/release/folders/*", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.URL.Path, "Team") {
			fmt.Fprint(w, `{"count":1,"value":[{"path":"\\Team"}]}`)
			return
		}
		fmt.Fprint(w, `{"count":0,"value":[]}`)
	})
	r.Get("/{project}/_apis/release/releases", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, releases)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// sequenceAPI fails the first failFolder folder lookups with 503 and then serves
// releases[i] on the i-th release listing, repeating the last one.
type sequenceAPI struct {
	*httptest.Server
	folderCalls  atomic.Int32
	releaseCalls atomic.Int32
}

func newSequenceAPI(t *testing.T, failFolder int32, releases ...string) *sequenceAPI {
	t.Helper()

	api := &sequenceAPI{}
	r := chi.NewRouter()
	r.Get("/{project}/_apis/release/folders/*", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if api.folderCalls.Add(1) <= failFolder {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"message":"Service unavailable"}`)
			return
		}
		fmt.Fprint(w, `{"count":1,"value":[{"path":"\\Team"}]}`)
	})
	r.Get("/{project}/_apis/release/releases", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		i := int(api.releaseCalls.Add(1)) - 1
		fmt.Fprint(w, releases[min(i, len(releases)-1)])
	})

	api.Server = httptest.NewServer(r)
	t.Cleanup(api.Close)
	return api
}

// hookCommand appends the change variables to logPath.
func hookCommand(logPath string) string {
	return fmt.Sprintf(`sh -c 'echo "$MR_RELEASE_CHANGED|$MR_RELEASE_FOLDER|$MR_RELEASE_ENVIRONMENT" >> %s'`, logPath)
}

const oneRelease = `{"count":1,"value":[{
	"id": 42,
	"name": "Release-42",
	"createdOn": "2024-03-01T10:00:00Z",
	"releaseDefinition": {"id": 1, "name": "Web", "path": "\\Team"},
	"environments": [{
		"id": 7,
		"name": "Production",
		"status": "succeeded",
		"deploySteps": [{"id": 1, "attempt": 1, "status": "succeeded", "lastModifiedOn": "2024-03-01T11:00:00Z"}]
	}],
	"_links": {"web": {"href": "https://dev.azure.com/contoso/_release?releaseId=42"}}
}]}`

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".mr-release")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}
	return path
}

func validSettings(t *testing.T, apiURL string) string {
	return writeSettings(t, fmt.Sprintf(`collection: https://dev.azure.com/contoso
project: Platform
personal_access_token: secret
release_url: %s
requests_per_second: 0
`, apiURL))
}

// execute runs the root command with fresh flag values and returns stdout, stderr and the exit code.
func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	configPath, verbose = "", false
	showProject, showDetailed, showFailed, showOrderBy = "", false, false, "deployedon"
	showWatch, showExact, showInterval = false, false, 0
	showFormat, showOnChange, showCount = "table", "", 0

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	code := run(context.Background(), &stderr)
	return stdout.String(), stderr.String(), code
}

func TestShow_Table(t *testing.T) {
	api := fakeAPI(t, oneRelease)
	config := validSettings(t, api.URL)

	stdout, stderr, code := execute(t, "show", "Team", "Prod", "--config", config)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", code, stderr)
	}

	for _, want := range []string{"Directory:   Team", "Environment: Prod", "Web", "Release-42", "OK", "Production"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestShow_Detailed(t *testing.T) {
	api := fakeAPI(t, oneRelease)
	config := validSettings(t, api.URL)

	stdout, _, code := execute(t, "show", "Team", "Production", "-d", "--exact", "--config", config)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout, "Id: 42") || !strings.Contains(stdout, "releaseId=42") {
		t.Errorf("Expected detailed output, got:\n%s", stdout)
	}
}

func TestShow_NoReleases(t *testing.T) {
	api := fakeAPI(t, `{"count":0,"value":[]}`)
	config := validSettings(t, api.URL)

	stdout, _, code := execute(t, "show", "Team", "Production", "--config", config)
	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if !strings.Contains(stdout, "No releases.") {
		t.Errorf("Expected 'No releases.' message, got:\n%s", stdout)
	}
}

func TestShow_FolderNotFound(t *testing.T) {
	api := fakeAPI(t, oneRelease)
	config := validSettings(t, api.URL)

	_, stderr, code := execute(t, "show", "Missing", "Production", "--config", config)
	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr, `no release folder found for: "Missing"`) {
		t.Errorf("Expected folder not found error, got:\n%s", stderr)
	}
}

func TestShow_InvalidConfiguration(t *testing.T) {
	config := writeSettings(t, "project: Platform\n")

	_, stderr, code := execute(t, "show", "Team", "Production", "--config", config)
	if code != 2 {
		t.Errorf("Expected exit code 2, got %d", code)
	}
	for _, want := range []string{"Invalid configuration", "collection is required", "mr-release init"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("Expected stderr to contain %q, got:\n%s", want, stderr)
		}
	}
}

func TestShow_JSONFormat(t *testing.T) {
	api := fakeAPI(t, oneRelease)
	config := validSettings(t, api.URL)

	stdout, _, code := execute(t, "show", "Team", "Production", "--format", "json", "--config", config)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if strings.Contains(stdout, "Directory:") {
		t.Errorf("Expected bare JSON without header, got:\n%s", stdout)
	}

	var deployed []map[string]any
	if err := json.Unmarshal([]byte(stdout), &deployed); err != nil {
		t.Fatalf("Expected valid JSON, got %v:\n%s", err, stdout)
	}
	if len(deployed) != 1 || deployed[0]["releaseName"] != "Release-42" {
		t.Errorf("Unexpected JSON output: %v", deployed)
	}
}

func TestShow_TemplateFormat(t *testing.T) {
	api := fakeAPI(t, oneRelease)
	config := validSettings(t, api.URL)

	stdout, _, code := execute(t, "show", "Team", "Production", "--format", "{{.Pipeline}}={{status .Status}}", "--config", config)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if stdout != "Web=OK\n" {
		t.Errorf("Expected template output, got %q", stdout)
	}
}

func TestShow_WarnsOnReadableSettings(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}

	api := fakeAPI(t, oneRelease)
	config := validSettings(t, api.URL)
	if err := os.Chmod(config, 0644); err != nil {
		t.Fatalf("Failed to chmod settings: %v", err)
	}

	_, stderr, code := execute(t, "show", "Team", "Production", "--config", config)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stderr, "Warning:") || !strings.Contains(stderr, "chmod 600") {
		t.Errorf("Expected permission warning, got: %s", stderr)
	}
}

func TestShow_WatchRetriesAfterFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook uses sh")
	}

	api := newSequenceAPI(t, 1, oneRelease)
	config := validSettings(t, api.URL)
	logPath := filepath.Join(t.TempDir(), "changes.log")

	stdout, stderr, code := execute(t, "show", "Team", "Production",
		"--watch", "--interval", "1", "--count", "2",
		"--on-change", hookCommand(logPath),
		"--config", config)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", code, stderr)
	}

	for _, want := range []string{"api request failed (503): Service unavailable", "Refresh in 1s", "Release-42"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, stdout)
		}
	}
	if strings.Index(stdout, "Service unavailable") > strings.Index(stdout, "Release-42") {
		t.Errorf("Expected the failure frame before the table, got:\n%s", stdout)
	}
	if got := api.folderCalls.Load(); got != 2 {
		t.Errorf("Expected 2 folder lookups, got %d", got)
	}

	// The first successful refresh is the baseline, so nothing changed.
	if _, err := os.Stat(logPath); !errors.Is(err, os.ErrNotExist) {
		data, _ := os.ReadFile(logPath)
		t.Errorf("Expected hook not to run, got log %q", data)
	}
}

func TestShow_WatchRunsHookOnChange(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook uses sh")
	}

	redeployed := strings.ReplaceAll(oneRelease, "42", "43")
	api := newSequenceAPI(t, 0, oneRelease, redeployed)
	config := validSettings(t, api.URL)
	logPath := filepath.Join(t.TempDir(), "changes.log")

	stdout, stderr, code := execute(t, "show", "Team", "Production",
		"--watch", "--interval", "1", "--count", "2",
		"--on-change", hookCommand(logPath),
		"--config", config)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Release-43") {
		t.Errorf("Expected the second refresh to show Release-43, got:\n%s", stdout)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Expected hook to run: %v", err)
	}
	if string(data) != "Web|Team|Production\n" {
		t.Errorf("Expected hook environment %q, got %q", "Web|Team|Production\n", data)
	}
}

func TestShow_WatchUnchangedSkipsHook(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook uses sh")
	}

	api := newSequenceAPI(t, 0, oneRelease)
	config := validSettings(t, api.URL)
	logPath := filepath.Join(t.TempDir(), "changes.log")

	_, stderr, code := execute(t, "show", "Team", "Production",
		"--watch", "--interval", "1", "--count", "2",
		"--on-change", hookCommand(logPath),
		"--config", config)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", code, stderr)
	}
	if got := api.releaseCalls.Load(); got != 2 {
		t.Errorf("Expected 2 release listings, got %d", got)
	}
	if _, err := os.Stat(logPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected hook not to run, stat error = %v", err)
	}
}

func TestShow_NegativeCount(t *testing.T) {
	_, stderr, code := execute(t, "show", "Team", "Production", "--watch", "--count", "-1")
	if code != 1 || !strings.Contains(stderr, "count cannot be negative") {
		t.Errorf("Expected count validation error, got %d: %s", code, stderr)
	}
}

func TestShow_OnChangeRequiresWatch(t *testing.T) {
	_, stderr, code := execute(t, "show", "Team", "Production", "--on-change", "true")
	if code != 1 || !strings.Contains(stderr, "--on-change requires --watch") {
		t.Errorf("Expected on-change validation error, got %d: %s", code, stderr)
	}
}

func TestShow_InvalidOrder(t *testing.T) {
	_, stderr, code := execute(t, "show", "Team", "Production", "-o", "age")
	if code != 1 || !strings.Contains(stderr, "invalid order") {
		t.Errorf("Expected invalid order error, got %d: %s", code, stderr)
	}
}

func TestInit_SavesSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings", ".mr-release")
	rootCmd.SetIn(strings.NewReader("https://dev.azure.com/contoso\nPlatform\nsecret\n15\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	stdout, stderr, code := execute(t, "init", "--config", path)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Settings saved to "+path) {
		t.Errorf("Expected saved message, got:\n%s", stdout)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved settings: %v", err)
	}
	for _, want := range []string{"collection: https://dev.azure.com/contoso", "project: Platform", "refresh_seconds: 15"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected saved settings to contain %q, got:\n%s", want, data)
		}
	}
}

func TestVersion(t *testing.T) {
	stdout, _, code := execute(t, "version")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout, "mr-release version dev") {
		t.Errorf("Unexpected version output:\n%s", stdout)
	}
}

func TestExitError(t *testing.T) {
	wrapped := &exitError{code: 2, err: errors.New("bad settings")}
	if wrapped.Error() != "bad settings" {
		t.Errorf("Expected wrapped message, got %q", wrapped.Error())
	}
	if (&exitError{code: 1}).Error() != "exit status 1" {
		t.Errorf("Unexpected message for silent exit error")
	}
}
