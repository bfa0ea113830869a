package ctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// buildRootCmd is a convenience for help-only fallbacks.
func buildRootCmd() *cobra.Command { return buildRootCmdWith(&Config{Port: -1, LogLvl: "info"}) }

// buildRootCmdWith constructs a Cobra command tree wired to the fn* actions.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "lamactl",
		Short:         "Bring up a local model daemon, resolve a model, and proxy completions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	root.PersistentFlags().Int("port", cfg.Port, "API server port; 0 picks a free port (defaults LAMACTL_PORT or 8080)")
	root.PersistentFlags().String("config", cfg.SettingsPath, "Path to a settings file (.yaml|.json|.toml)")
	root.PersistentFlags().String("log-level", cfg.LogLvl, "Log level: debug|info|warn|error (defaults LAMACTL_LOG_LEVEL or info)")
	root.PersistentFlags().Bool("yes", cfg.Yes, "Assume yes for all prompts")
	root.PersistentFlags().Bool("no-install", cfg.NoInstall, "Never install missing tools")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if f := cmd.InheritedFlags().Lookup("port"); f != nil && f.Changed {
			var n int
			_, _ = fmt.Sscanf(f.Value.String(), "%d", &n)
			cfg.Port = n
		}
		if f := cmd.InheritedFlags().Lookup("config"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.SettingsPath = v
			}
		}
		if f := cmd.InheritedFlags().Lookup("log-level"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.LogLvl = v
			}
		}
		if f := cmd.InheritedFlags().Lookup("yes"); f != nil {
			cfg.Yes = f.Value.String() == "true"
		}
		if f := cmd.InheritedFlags().Lookup("no-install"); f != nil {
			cfg.NoInstall = f.Value.String() == "true"
		}
		SetLogLevel(cfg.LogLvl)
	}

	checkCmd := &cobra.Command{Use: "check", Short: "Report required tools and daemon state without changing anything", Example: "  lamactl check", RunE: func(cmd *cobra.Command, args []string) error {
		return fnCheck(cfg)
	}}
	setupCmd := &cobra.Command{Use: "setup", Short: "Install missing required tools", Example: "  lamactl setup --yes", RunE: func(cmd *cobra.Command, args []string) error {
		return fnSetup(cfg, policyFor(cfg.Yes))
	}}
	runCmd := &cobra.Command{Use: "run", Short: "Start the daemon and resolve the configured model", Example: "  lamactl run", RunE: func(cmd *cobra.Command, args []string) error {
		return fnRun(cfg, policyFor(cfg.Yes))
	}}
	serveCmd := &cobra.Command{Use: "serve", Short: "Full flow: daemon, model, then HTTP proxy API", Example: "  lamactl serve --port 8080", RunE: func(cmd *cobra.Command, args []string) error {
		return fnServe(cfg, policyFor(cfg.Yes))
	}}
	root.AddCommand(checkCmd, setupCmd, runCmd, serveCmd)

	// models group
	modelsCmd := &cobra.Command{Use: "models", Short: "Inspect or change the active model", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("models requires a subcommand: get|set|list")
	}}
	modelsGetCmd := &cobra.Command{Use: "get", Short: "Print the configured model", RunE: func(cmd *cobra.Command, args []string) error {
		return fnModelsGet(cfg)
	}}
	modelsSetCmd := &cobra.Command{Use: "set <name>", Short: "Persist the active model", Example: "  lamactl models set llama3", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return fnModelsSet(cfg, args[0])
	}}
	modelsListCmd := &cobra.Command{Use: "list", Short: "List models installed in the daemon", RunE: func(cmd *cobra.Command, args []string) error {
		return fnModelsList(cfg)
	}}
	modelsCmd.AddCommand(modelsGetCmd, modelsSetCmd, modelsListCmd)
	root.AddCommand(modelsCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}
