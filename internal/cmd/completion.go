package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// shell pairs a completion generator with a one-line install hint.
type shell struct {
	name    string
	install string
	gen     func(root *cobra.Command, w io.Writer) error
}

var shells = []shell{
	{
		name:    "bash",
		install: "sidecar completion bash > ~/.local/share/bash-completion/completions/sidecar",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	},
	{
		name:    "zsh",
		install: `sidecar completion zsh > "${fpath[1]}/_sidecar"`,
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	},
	{
		name:    "fish",
		install: "sidecar completion fish > ~/.config/fish/completions/sidecar.fish",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	},
	{
		name:    "powershell",
		install: "sidecar completion powershell | Out-String | Invoke-Expression",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
	},
}

func newCompletionCmd() *cobra.Command {
	names := lo.Map(shells, func(s shell, _ int) string { return s.name })

	var long strings.Builder
	long.WriteString("Generate a shell completion script for sidecar and write it to stdout.\n\nInstall:\n")
	for _, s := range shells {
		fmt.Fprintf(&long, "  %-11s %s\n", s.name+":", s.install)
	}

	return &cobra.Command{
		Use:                   "completion [" + strings.Join(names, "|") + "]",
		Short:                 "Generate shell completion script",
		Long:                  long.String(),
		DisableFlagsInUseLine: true,
		ValidArgs:             names,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := lo.Find(shells, func(s shell) bool { return s.name == args[0] })
			if !ok {
				return fmt.Errorf("unsupported shell %q", args[0])
			}
			return s.gen(cmd.Root(), cmd.OutOrStdout())
		},
	}
}
