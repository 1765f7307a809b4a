package e2e

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"gopkg.in/yaml.v3"
)

const (
	binaryName = "sidecar"
)

var binaryPath string

// TestMain builds the binary before running tests
func TestMain(m *testing.M) {
	name := binaryName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	// Build the binary
	cmd := exec.Command("go", "build", "-o", name, "../../cmd/sidecar")
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	// Get absolute path to binary
	binaryPath, _ = filepath.Abs(name)

	// Run tests
	code := m.Run()

	// Cleanup
	os.Remove(name)

	os.Exit(code)
}

// executableName is the sidecar asset name on this platform.
func executableName() string {
	if runtime.GOOS == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

// feed is a fake GitHub release feed.
type feed struct {
	server    *httptest.Server
	tag       string
	exe       []byte
	digest    string
	downloads atomic.Int32
}

func newFeed(t *testing.T, tag string, exe []byte) *feed {
	t.Helper()

	sum := sha256.Sum256(exe)
	f := &feed{tag: tag, exe: exe, digest: hex.EncodeToString(sum[:])}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/yt-dlp/yt-dlp/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tag_name": f.tag,
			"assets": []map[string]string{
				{"name": "yt-dlp", "browser_download_url": f.server.URL + "/dl/yt-dlp"},
				{"name": "yt-dlp.exe", "browser_download_url": f.server.URL + "/dl/yt-dlp.exe"},
				{"name": "SHA2-256SUMS", "browser_download_url": f.server.URL + "/dl/SHA2-256SUMS"},
			},
		})
	})
	mux.HandleFunc("/dl/", func(w http.ResponseWriter, r *http.Request) {
		f.downloads.Add(1)
		switch name := filepath.Base(r.URL.Path); name {
		case "SHA2-256SUMS":
			fmt.Fprintf(w, "%s  yt-dlp\n%s  yt-dlp.exe\n", f.digest, f.digest)
		default:
			_, _ = w.Write(f.exe)
		}
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// env isolates the binary from the developer's home and config.
type env struct {
	home    string
	dataDir string
	apiURL  string
}

func newEnv(t *testing.T, apiURL string) *env {
	t.Helper()
	home := t.TempDir()
	return &env{
		home:    home,
		dataDir: filepath.Join(home, "data"),
		apiURL:  apiURL,
	}
}

// runSidecar executes the sidecar binary with given arguments
func (e *env) runSidecar(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+e.home,
		"USERPROFILE="+e.home,
		"XDG_CONFIG_HOME="+filepath.Join(e.home, ".config"),
		"SIDECAR_CONFIG=",
		"SIDECAR_DATA_DIR="+e.dataDir,
		"SIDECAR_API_URL="+e.apiURL,
		"GITHUB_TOKEN=",
	)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to run sidecar: %v", err)
	}
	return stdout.String(), stderr.String(), code
}

func TestUpdateInstallsAndIsIdempotent(t *testing.T) {
	exe := []byte("#!/bin/sh\necho fake yt-dlp\n")
	f := newFeed(t, "2023.06.15", exe)
	e := newEnv(t, f.server.URL)

	stdout, stderr, code := e.runSidecar(t, "update", "--yes")
	if code != 0 {
		t.Fatalf("update exited %d\nstdout: %s\nstderr: %s", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "Updated 0.0.0 -> 2023.06.15") {
		t.Errorf("unexpected stdout: %s", stdout)
	}

	installed := filepath.Join(e.dataDir, executableName())
	content, err := os.ReadFile(installed)
	if err != nil {
		t.Fatalf("executable not installed: %v", err)
	}
	if string(content) != string(exe) {
		t.Error("installed executable differs from the release asset")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(installed)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0111 == 0 {
			t.Errorf("installed executable is not executable: %v", info.Mode())
		}
	}

	before := f.downloads.Load()
	stdout, _, code = e.runSidecar(t, "update", "--yes")
	if code != 0 {
		t.Fatalf("second update exited %d", code)
	}
	if !strings.Contains(stdout, "Already running latest version 2023.06.15") {
		t.Errorf("unexpected stdout: %s", stdout)
	}
	if f.downloads.Load() != before {
		t.Error("second update downloaded assets")
	}
}

func TestUpdateJSONOutput(t *testing.T) {
	f := newFeed(t, "2023.06.15", []byte("binary"))
	e := newEnv(t, f.server.URL)

	stdout, stderr, code := e.runSidecar(t, "update", "--yes", "-o", "json", "-q")
	if code != 0 {
		t.Fatalf("update exited %d: %s", code, stderr)
	}

	dec := json.NewDecoder(strings.NewReader(stdout))
	var records []map[string]any
	for dec.More() {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
		}
		records = append(records, rec)
	}

	if len(records) != 6 {
		t.Fatalf("got %d records, want 5 events and a result:\n%s", len(records), stdout)
	}
	if records[0]["stage"] != "checking" || records[4]["stage"] != "done" {
		t.Errorf("unexpected event sequence: %v", records)
	}
	if records[4]["percent"] != float64(100) {
		t.Errorf("done percent = %v", records[4]["percent"])
	}
	if records[5]["outcome"] != "updated" || records[5]["current"] != "2023.06.15" {
		t.Errorf("unexpected result: %v", records[5])
	}
}

func TestUpdateCheckOnly(t *testing.T) {
	f := newFeed(t, "2023.06.15", []byte("binary"))
	e := newEnv(t, f.server.URL)

	stdout, _, code := e.runSidecar(t, "update", "--check")
	if code != 0 {
		t.Fatalf("update --check exited %d", code)
	}
	if !strings.Contains(stdout, "2023.06.15 available") {
		t.Errorf("unexpected stdout: %s", stdout)
	}
	if f.downloads.Load() != 0 {
		t.Error("--check downloaded assets")
	}
}

func TestUpdateIntegrityMismatchExitCode(t *testing.T) {
	f := newFeed(t, "2023.06.15", []byte("binary"))
	f.digest = strings.Repeat("0", 64)
	e := newEnv(t, f.server.URL)

	// Seed an installed executable that must survive the failed update.
	if err := os.MkdirAll(e.dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	installed := filepath.Join(e.dataDir, executableName())
	if err := os.WriteFile(installed, []byte("previous"), 0755); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := e.runSidecar(t, "update", "--yes")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "checksum verification failed") {
		t.Errorf("stderr missing checksum failure: %s", stderr)
	}

	content, err := os.ReadFile(installed)
	if err != nil || string(content) != "previous" {
		t.Errorf("previous executable was modified: %q, %v", content, err)
	}
}

func TestUpdateNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	e := newEnv(t, server.URL)

	_, stderr, code := e.runSidecar(t, "update", "--yes")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "status 503") {
		t.Errorf("stderr missing status: %s", stderr)
	}
}

func TestStatusAfterUpdate(t *testing.T) {
	exe := []byte("binary")
	f := newFeed(t, "2023.06.15", exe)
	e := newEnv(t, f.server.URL)

	if _, stderr, code := e.runSidecar(t, "update", "--yes"); code != 0 {
		t.Fatalf("update exited %d: %s", code, stderr)
	}

	stdout, _, code := e.runSidecar(t, "status", "-o", "yaml")
	if code != 0 {
		t.Fatalf("status exited %d", code)
	}

	var status struct {
		Version   string `yaml:"version"`
		Installed bool   `yaml:"installed"`
		Digest    string `yaml:"digest"`
	}
	if err := yaml.Unmarshal([]byte(stdout), &status); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, stdout)
	}
	if status.Version != "2023.06.15" || !status.Installed || status.Digest != f.digest {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestPathAndClean(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:1")

	stdout, _, code := e.runSidecar(t, "path")
	if code != 0 {
		t.Fatalf("path exited %d", code)
	}
	if strings.TrimSpace(stdout) != filepath.Join(e.dataDir, executableName()) {
		t.Errorf("path = %q", stdout)
	}

	stale := filepath.Join(e.dataDir, ".sidecar-tmp-123")
	if err := os.MkdirAll(stale, 0755); err != nil {
		t.Fatal(err)
	}
	if _, _, code := e.runSidecar(t, "clean"); code != 0 {
		t.Fatalf("clean exited %d", code)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("clean left the scratch dir behind")
	}
}

func TestConfigFile(t *testing.T) {
	f := newFeed(t, "2023.06.15", []byte("binary"))
	e := newEnv(t, f.server.URL)

	cfgPath := filepath.Join(e.home, ".config", "sidecar", "config.toml")
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgPath, []byte("compare = \"calver\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := e.runSidecar(t, "status")
	if code != 1 {
		t.Errorf("invalid config: exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "compare") {
		t.Errorf("stderr should name the bad field: %s", stderr)
	}
}

func TestVersion(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:1")

	stdout, _, code := e.runSidecar(t, "version", "-o", "json")
	if code != 0 {
		t.Fatalf("version exited %d", code)
	}

	var info map[string]string
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info["version"] != "dev" {
		t.Errorf("version = %q, want dev", info["version"])
	}
}
