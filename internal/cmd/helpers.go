package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/adamancini/sidecar/internal/config"
	"github.com/adamancini/sidecar/internal/output"
	"github.com/adamancini/sidecar/internal/update"
)

// Exit codes returned by the sidecar binary.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitIntegrityMismatch = 2
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, update.ErrIntegrityMismatch):
		return ExitIntegrityMismatch
	default:
		return ExitFailure
	}
}

// app bundles what every command needs, resolved from flags and config.
type app struct {
	cfg     *config.Config
	dataDir string
	policy  update.Policy
	logger  *log.Logger
	out     *output.Writer
}

// loadApp resolves the global flags and the config file into an app.
func loadApp(stdout, stderr io.Writer) (*app, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}

	a, err := newApp(cfg, stdout, newLogger(stderr), format)
	if err != nil {
		return nil, err
	}
	if path != "" {
		a.logger.Debug("loaded config", "path", path)
	}
	return a, nil
}

// newApp builds an app from an already loaded config.
func newApp(cfg *config.Config, stdout io.Writer, logger *log.Logger, format output.Format) (*app, error) {
	dataDir, err := cfg.ResolvedDataDir()
	if err != nil {
		return nil, err
	}
	dataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}

	policy := update.CurrentPolicy(cfg.Executable)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		dataDir: dataDir,
		policy:  policy,
		logger:  logger,
		out:     output.NewWriter(stdout, format),
	}, nil
}

// newLogger returns a stderr logger honoring --verbose and --quiet.
func newLogger(w io.Writer) *log.Logger {
	level := log.InfoLevel
	switch {
	case quiet:
		level = log.ErrorLevel
	case verbose:
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "sidecar",
		Level:  level,
	})
}

// executablePath is where the sidecar executable lives.
func (a *app) executablePath() string {
	return filepath.Join(a.dataDir, a.policy.ExecutableName)
}

// newEngine wires the update components described by the config.
func (a *app) newEngine(reporter update.Reporter, opts ...update.Option) (*update.Engine, error) {
	comparator, err := update.ComparatorFor(a.cfg.Compare)
	if err != nil {
		return nil, err
	}

	resolver := update.NewGitHubResolver(a.cfg.Repo.Owner, a.cfg.Repo.Name,
		update.WithBaseURL(a.cfg.APIURL),
		update.WithToken(a.cfg.Token),
		update.WithUserAgent(a.cfg.UserAgent),
		update.WithHTTPClient(&http.Client{Timeout: a.cfg.TimeoutDuration()}),
	)

	// Downloads are bounded by the command context, not a client timeout.
	downloader := update.NewHTTPDownloader(nil, a.cfg.UserAgent)

	opts = append([]update.Option{update.WithLogger(a.logger)}, opts...)
	return update.NewEngine(update.Deps{
		Resolver:     resolver,
		Downloader:   downloader,
		Installer:    update.NewFileInstaller(a.policy),
		Versions:     update.NewFileVersionStore(a.dataDir),
		Reporter:     reporter,
		Comparator:   comparator,
		Policy:       a.policy,
		DataDir:      a.dataDir,
		ManifestName: a.cfg.Manifest,
	}, opts...)
}
