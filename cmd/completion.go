// Package cmd provides the CLI commands for WaterMe.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd represents the completion command.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for waterme.

To load completions:

Bash:
  $ source <(waterme completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ waterme completion bash > /etc/bash_completion.d/waterme
  # macOS:
  $ waterme completion bash > $(brew --prefix)/etc/bash_completion.d/waterme

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ waterme completion zsh > "${fpath[1]}/_waterme"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ waterme completion fish | source

  # To load completions for each session, execute once:
  $ waterme completion fish > ~/.config/fish/completions/waterme.fish

PowerShell:
  PS> waterme completion powershell | Out-String | Invoke-Expression

Plant names and PLANT:KIND reminder names complete from your store.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(w, true)
		case "zsh":
			return rootCmd.GenZshCompletion(w)
		case "fish":
			return rootCmd.GenFishCompletion(w, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
