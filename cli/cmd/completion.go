package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for mqbundle.

To load completions:

Bash:
  $ source <(mqbundle completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ mqbundle completion bash > /etc/bash_completion.d/mqbundle
  # macOS:
  $ mqbundle completion bash > $(brew --prefix)/etc/bash_completion.d/mqbundle

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ mqbundle completion zsh > "${fpath[1]}/_mqbundle"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ mqbundle completion fish | source

  # To load completions for each session, execute once:
  $ mqbundle completion fish > ~/.config/fish/completions/mqbundle.fish

PowerShell:
  PS> mqbundle completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> mqbundle completion powershell > mqbundle.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			_ = cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			_ = cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			_ = cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			_ = cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
	},
}
