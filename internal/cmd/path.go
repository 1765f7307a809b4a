package cmd

import (
	"github.com/spf13/cobra"
)

type pathInfo struct {
	Path string `json:"path" yaml:"path"`
}

func (p pathInfo) String() string { return p.Path }

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the sidecar executable path",
		Long: `Print where the sidecar executable is installed, for host applications that
spawn it. The path is printed whether or not the file exists yet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.out.Write(pathInfo{Path: a.executablePath()})
		},
	}
}
