package cli

import (
	"io"
	"sort"

	"github.com/spf13/cobra"
)

// completionGenerators maps a shell to the cobra generator for it.
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

func completionShells() []string {
	shells := make([]string, 0, len(completionGenerators))
	for shell := range completionGenerators {
		shells = append(shells, shell)
	}
	sort.Strings(shells)
	return shells
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|fish|powershell|zsh]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for stacktrim and print it to stdout.

Load it for the current session:

  bash:        source <(stacktrim completion bash)
  zsh:         source <(stacktrim completion zsh)
  fish:        stacktrim completion fish | source
  powershell:  stacktrim completion powershell | Out-String | Invoke-Expression

To load completions for every session, write the script to your shell's
completion directory instead, for example:

  stacktrim completion zsh > "${fpath[1]}/_stacktrim"
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells(),
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
