package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/sidecar/internal/update"
)

// Status describes the installed sidecar.
type Status struct {
	Repo      string `json:"repo" yaml:"repo"`
	Version   string `json:"version" yaml:"version"`
	Path      string `json:"path" yaml:"path"`
	Installed bool   `json:"installed" yaml:"installed"`
	Digest    string `json:"digest,omitempty" yaml:"digest,omitempty"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
}

func (s *Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", s.Repo)
	fmt.Fprintf(&b, "Version:    %s\n", s.Version)
	fmt.Fprintf(&b, "Path:       %s", s.Path)
	if !s.Installed {
		b.WriteString(" (not installed)")
	}
	if s.Digest != "" {
		fmt.Fprintf(&b, "\nSHA-256:    %s", s.Digest)
	}
	return b.String()
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the installed sidecar version",
		Long:  `Status shows the recorded version, the executable path and the digest of the installed file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runStatus(a)
		},
	}
}

func runStatus(a *app) error {
	version, err := update.NewFileVersionStore(a.dataDir).Read()
	if err != nil {
		return err
	}

	st := &Status{
		Repo:    a.cfg.Repo.String(),
		Version: version,
		Path:    a.executablePath(),
		DataDir: a.dataDir,
	}

	info, err := os.Stat(st.Path)
	switch {
	case err == nil && info.Mode().IsRegular():
		st.Installed = true
		if st.Digest, err = update.DigestOf(st.Path); err != nil {
			return err
		}
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("failed to stat %s: %w", st.Path, err)
	}

	return a.out.Write(st)
}
