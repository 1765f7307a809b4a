package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/adamancini/sidecar/internal/interactive"
	"github.com/adamancini/sidecar/internal/lock"
	"github.com/adamancini/sidecar/internal/types"
	"github.com/adamancini/sidecar/internal/update"
)

var (
	assumeYes   bool
	checkOnly   bool
	compareFlag string
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Install or update the sidecar executable",
		Long: `Check the upstream release feed and install the latest executable if it is
newer than the installed one.

The download is verified against the release's SHA2-256SUMS manifest before it
replaces the installed file. A failed update leaves the previous executable and
version record untouched.

When stdin is a terminal you are asked before a newer release is downloaded;
--yes skips the question.

Examples:
  sidecar update            # Update if a newer release exists
  sidecar update --check    # Only report whether an update is available
  sidecar update --yes -o json
  sidecar update --compare semver`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if compareFlag != "" {
				mode, err := types.ParseCompareMode(compareFlag)
				if err != nil {
					return err
				}
				a.cfg.Compare = mode
			}

			var permit update.PermitFunc
			if !assumeYes && !checkOnly && interactive.IsTerminal() {
				permit = interactive.NewPrompter().Permit
			}

			return runUpdate(cmd.Context(), a, checkOnly, permit)
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Install without asking")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Check for updates without installing")
	cmd.Flags().StringVar(&compareFlag, "compare", "", "Version ordering: lexical or semver (overrides config)")

	_ = cmd.RegisterFlagCompletionFunc("compare", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(types.AllCompareModes(), func(m types.CompareMode, _ int) string {
			return m.String()
		}), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runUpdate runs one engine pass under the data dir lock and writes the
// result. A nil permit installs without asking.
func runUpdate(ctx context.Context, a *app, check bool, permit update.PermitFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}

	lk, err := lock.Acquire(a.dataDir)
	if errors.Is(err, lock.ErrLocked) {
		return fmt.Errorf("another update is running in %s: %w", a.dataDir, update.ErrBusy)
	}
	if err != nil {
		return err
	}
	defer func() { _ = lk.Release() }()

	reporter := update.MultiReporter{update.NewLogReporter(a.logger)}
	if a.out.Format().IsStructured() {
		reporter = append(reporter, update.ReporterFunc(func(e update.Event) {
			if err := a.out.Stream(e); err != nil {
				a.logger.Debug("failed to write event", "error", err)
			}
		}))
	}

	var opts []update.Option
	if permit != nil {
		opts = append(opts, update.WithPermit(permit))
	}
	engine, err := a.newEngine(reporter, opts...)
	if err != nil {
		return err
	}

	a.logger.Debug("starting update",
		"repo", a.cfg.Repo.String(),
		"executable", engine.ExecutablePath(),
		"compare", a.cfg.Compare.Default(),
	)

	run := engine.Run
	if check {
		run = engine.Check
	}
	res, err := run(ctx)
	if err != nil {
		var ie *update.InstallError
		if errors.As(err, &ie) && ie.Renamed {
			a.logger.Warn("executable installed but not usable; run update again to retry",
				"path", ie.Path, "step", ie.Step)
		}
		return err
	}
	if res.Outcome.Changed() {
		a.logger.Debug("installed executable", "path", res.Path, "version", res.Current)
	}

	return a.out.Write(res)
}
