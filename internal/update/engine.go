package update

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/adamancini/sidecar/internal/types"
)

// ScratchPrefix names the per-run scratch directories created in the data dir.
const ScratchPrefix = ".sidecar-tmp-"

// Progress percentages reported at each stage.
const (
	percentChecking    = 0
	percentDownloading = 33
	percentVerifying   = 66
	percentInstalling  = 85
	percentDone        = 100
)

// Deps are the collaborators an Engine drives. Resolver, Downloader,
// Installer and Versions are required.
type Deps struct {
	Resolver   ReleaseResolver
	Downloader Downloader
	Installer  Installer
	Versions   VersionStore
	Reporter   Reporter   // Defaults to NopReporter
	Comparator Comparator // Defaults to LexicalComparator

	Policy       Policy
	DataDir      string // Holds the executable, the version record and scratch dirs
	ManifestName string // Defaults to DefaultManifestName
}

// Result describes a run that did not fail.
type Result struct {
	Outcome  types.Outcome `json:"outcome" yaml:"outcome"`
	Previous string        `json:"previous" yaml:"previous"`           // Version before the run
	Current  string        `json:"current" yaml:"current"`             // Version after the run
	Latest   string        `json:"latest" yaml:"latest"`               // Upstream tag seen by the run
	Path     string        `json:"path" yaml:"path"`                   // Executable path
	URL      string        `json:"url,omitempty" yaml:"url,omitempty"` // Release page of Latest
}

// String renders the result for text output.
func (r *Result) String() string {
	switch r.Outcome {
	case types.OutcomeAlreadyLatest:
		return fmt.Sprintf("Already running latest version %s", r.Current)
	case types.OutcomeUpdated:
		return fmt.Sprintf("Updated %s -> %s (%s)", r.Previous, r.Current, r.Path)
	case types.OutcomeDeclined:
		return fmt.Sprintf("Update to %s declined; keeping %s", r.Latest, r.Current)
	case types.OutcomeAvailable:
		if r.URL == "" {
			return fmt.Sprintf("Latest version: %s available (installed: %s)", r.Latest, r.Current)
		}
		return fmt.Sprintf("Latest version: %s available (installed: %s)\nRelease notes: %s", r.Latest, r.Current, r.URL)
	default:
		return string(r.Outcome)
	}
}

// Engine runs the check, download, verify, install sequence.
// It holds no state between runs beyond what its VersionStore persists.
type Engine struct {
	deps   Deps
	logger *log.Logger
	permit PermitFunc

	mu sync.Mutex // single-slot guard; at most one run in flight
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPermit installs a hook consulted before downloading a newer release.
func WithPermit(fn PermitFunc) Option {
	return func(e *Engine) {
		e.permit = fn
	}
}

// NewEngine validates deps and returns an Engine.
func NewEngine(deps Deps, opts ...Option) (*Engine, error) {
	switch {
	case deps.Resolver == nil:
		return nil, fmt.Errorf("engine requires a release resolver")
	case deps.Downloader == nil:
		return nil, fmt.Errorf("engine requires a downloader")
	case deps.Installer == nil:
		return nil, fmt.Errorf("engine requires an installer")
	case deps.Versions == nil:
		return nil, fmt.Errorf("engine requires a version store")
	case deps.DataDir == "":
		return nil, fmt.Errorf("engine requires a data directory")
	}
	if err := deps.Policy.Validate(); err != nil {
		return nil, err
	}
	if deps.Reporter == nil {
		deps.Reporter = NopReporter{}
	}
	if deps.Comparator == nil {
		deps.Comparator = LexicalComparator{}
	}
	if deps.ManifestName == "" {
		deps.ManifestName = DefaultManifestName
	}

	e := &Engine{
		deps:   deps,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ExecutablePath returns where the sidecar executable is installed.
func (e *Engine) ExecutablePath() string {
	return filepath.Join(e.deps.DataDir, e.deps.Policy.ExecutableName)
}

// run tracks the progress of a single Run call.
type run struct {
	e       *Engine
	percent int
}

func (r *run) emit(stage types.Stage, percent int, format string, args ...any) {
	r.percent = percent
	r.e.deps.Reporter.Report(Event{Stage: stage, Percent: percent, Message: fmt.Sprintf(format, args...)})
}

// fail reports the terminal failure once and returns err classified as kind
// unless it already carries a Kind.
func (r *run) fail(kind Kind, op string, err error) error {
	if KindOf(err) == KindUnknown {
		err = newError(kind, op, err)
	}
	r.e.logger.Debug("update failed", "kind", KindOf(err), "error", err)
	r.e.deps.Reporter.Report(Event{Stage: types.StageFailed, Percent: r.percent, Message: err.Error()})
	return err
}

// Check resolves the latest release and compares it with the installed
// version without downloading anything. The outcome is OutcomeAvailable or
// OutcomeAlreadyLatest.
func (e *Engine) Check(ctx context.Context) (*Result, error) {
	if !e.mu.TryLock() {
		return nil, ErrBusy
	}
	defer e.mu.Unlock()

	r := &run{e: e}
	local, release, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Previous: local,
		Current:  local,
		Latest:   release.TagName,
		Path:     e.ExecutablePath(),
		URL:      release.HTMLURL,
	}
	if IsNewer(e.deps.Comparator, local, release.TagName) {
		res.Outcome = types.OutcomeAvailable
	} else {
		res.Outcome = types.OutcomeAlreadyLatest
	}
	return res, nil
}

// resolve runs the CheckingVersion state.
func (r *run) resolve(ctx context.Context) (string, *Release, error) {
	r.emit(types.StageChecking, percentChecking, "Checking for updates...")

	local, err := r.e.deps.Versions.Read()
	if err != nil {
		return "", nil, r.fail(KindFilesystem, "read version", err)
	}

	release, err := r.e.deps.Resolver.Latest(ctx)
	if err != nil {
		return "", nil, r.fail(KindNetwork, "resolve latest release", err)
	}
	if release == nil || release.TagName == "" {
		return "", nil, r.fail(KindParse, "resolve latest release", fmt.Errorf("resolver returned no release tag"))
	}
	r.e.logger.Debug("resolved release",
		"local", local,
		"latest", release.TagName,
		"name", release.Name,
		"assets", len(release.Assets),
	)

	return local, release, nil
}

// Run performs one update. It returns ErrBusy if another Run or Check on
// the same Engine is in flight. On any error the previously installed
// executable and version record are left as they were, with one exception:
// an *InstallError with Renamed set means the verified executable was
// moved into place but could not be made executable.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if !e.mu.TryLock() {
		return nil, ErrBusy
	}
	defer e.mu.Unlock()

	r := &run{e: e}
	finalPath := e.ExecutablePath()

	// CheckingVersion
	local, release, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}
	tag := release.TagName

	if !IsNewer(e.deps.Comparator, local, tag) {
		r.emit(types.StageAlreadyLatest, percentDone, "Ready (version %s)", local)
		return &Result{
			Outcome:  types.OutcomeAlreadyLatest,
			Previous: local,
			Current:  local,
			Latest:   tag,
			Path:     finalPath,
		}, nil
	}

	if e.permit != nil && !e.permit(ctx, local, release) {
		e.logger.Debug("update declined", "latest", tag)
		return &Result{
			Outcome:  types.OutcomeDeclined,
			Previous: local,
			Current:  local,
			Latest:   tag,
			Path:     finalPath,
			URL:      release.HTMLURL,
		}, nil
	}

	// Downloading
	r.emit(types.StageDownloading, percentDownloading, "Downloading new version %s...", tag)

	exeName := e.deps.Policy.ExecutableName
	exeAsset, ok := release.FindAsset(exeName)
	if !ok {
		return nil, r.fail(KindAssetMissing, "find asset",
			fmt.Errorf("release %s has no asset named %s", tag, exeName))
	}
	manifestAsset, ok := release.FindAsset(e.deps.ManifestName)
	if !ok {
		return nil, r.fail(KindAssetMissing, "find manifest", &Error{
			Kind:     KindAssetMissing,
			Op:       "find manifest",
			Manifest: true,
			Err:      fmt.Errorf("release %s has no asset named %s", tag, e.deps.ManifestName),
		})
	}

	// Scratch lives in the data dir so the final rename stays on one volume.
	if err := os.MkdirAll(e.deps.DataDir, 0755); err != nil {
		return nil, r.fail(KindFilesystem, "create data dir", err)
	}
	scratch, err := os.MkdirTemp(e.deps.DataDir, ScratchPrefix+"*")
	if err != nil {
		return nil, r.fail(KindFilesystem, "create scratch dir", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			e.logger.Debug("failed to remove scratch dir", "path", scratch, "error", rmErr)
		}
	}()

	manifestPath := filepath.Join(scratch, e.deps.ManifestName)
	exePath := filepath.Join(scratch, exeName)

	if err := e.deps.Downloader.Fetch(ctx, manifestAsset.BrowserDownloadURL, manifestPath); err != nil {
		return nil, r.fail(KindNetwork, "fetch manifest", err)
	}
	if err := e.deps.Downloader.Fetch(ctx, exeAsset.BrowserDownloadURL, exePath); err != nil {
		return nil, r.fail(KindNetwork, "fetch executable", err)
	}

	// Verifying
	r.emit(types.StageVerifying, percentVerifying, "Verifying checksum...")

	manifest, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, r.fail(KindFilesystem, "read manifest", err)
	}
	expected, err := ExpectedDigest(string(manifest), exeName)
	if err != nil {
		return nil, r.fail(KindManifestEntryMissing, "find digest", err)
	}
	got, match, err := Verify(exePath, expected)
	if err != nil {
		return nil, r.fail(KindFilesystem, "verify", err)
	}
	if !match {
		return nil, r.fail(KindIntegrityMismatch, "verify", &Error{
			Kind: KindIntegrityMismatch,
			Op:   "verify " + exeName,
			Err:  &ChecksumError{Filename: exeName, Expected: expected, Got: got},
		})
	}
	e.logger.Debug("checksum verified", "digest", expected)

	// Installing
	r.emit(types.StageInstalling, percentInstalling, "Installing version %s...", tag)

	if err := e.deps.Installer.Install(exePath, finalPath); err != nil {
		return nil, r.fail(KindFilesystem, "install", err)
	}
	if err := e.deps.Versions.Write(tag); err != nil {
		return nil, r.fail(KindFilesystem, "write version", err)
	}

	r.emit(types.StageDone, percentDone, "Update complete (version %s)", tag)
	return &Result{
		Outcome:  types.OutcomeUpdated,
		Previous: local,
		Current:  tag,
		Latest:   tag,
		Path:     finalPath,
	}, nil
}
