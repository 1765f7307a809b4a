package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/sidecar/internal/lock"
	"github.com/adamancini/sidecar/internal/update"
)

type cleanResult struct {
	Removed []string `json:"removed" yaml:"removed"`
}

func (c cleanResult) String() string {
	if len(c.Removed) == 0 {
		return "Nothing to clean"
	}
	return fmt.Sprintf("Removed %d scratch director%s:\n  %s",
		len(c.Removed), pluralY(len(c.Removed)), strings.Join(c.Removed, "\n  "))
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove scratch directories left by interrupted updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runClean(a)
		},
	}
}

func runClean(a *app) error {
	// Holding the lock guarantees no update owns the scratch dirs.
	lk, err := lock.Acquire(a.dataDir)
	if errors.Is(err, lock.ErrLocked) {
		return fmt.Errorf("an update is running in %s; try again later: %w", a.dataDir, update.ErrBusy)
	}
	if err != nil {
		return err
	}
	defer func() { _ = lk.Release() }()

	removed, err := update.CleanScratch(a.dataDir)
	if err != nil {
		return err
	}
	for _, dir := range removed {
		a.logger.Debug("removed scratch dir", "path", dir)
	}

	if removed == nil {
		removed = []string{}
	}
	return a.out.Write(cleanResult{Removed: removed})
}
