package ctl

import (
	"fmt"
	"os"
)

// Config carries parsed global flags through every command.
type Config struct {
	// SettingsPath is the optional structured settings file.
	SettingsPath string
	// Port overrides the configured API port; -1 means not given,
	// 0 means pick a free port.
	Port int
	// LogLvl is debug|info|warn|error.
	LogLvl string
	// Yes approves every prompt without asking.
	Yes bool
	// NoInstall forbids package-manager side effects.
	NoInstall bool
}

func defaultCLIConfig() *Config {
	return &Config{
		SettingsPath: envStr("LAMACTL_CONFIG", ""),
		Port:         -1,
		LogLvl:       envStr("LAMACTL_LOG_LEVEL", "info"),
		Yes:          envBool("LAMACTL_YES", false),
		NoInstall:    envBool("LAMACTL_NO_INSTALL", false),
	}
}

// MainWithArgs is a testable variant of Main that accepts args explicitly.
// It returns an exit code (0 for success, non-zero on error).
func MainWithArgs(args []string) int {
	cfg := defaultCLIConfig()
	root := buildRootCmdWith(cfg)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

// Main returns an exit code (0 for success, non-zero on error) for use by cmd/lamactl.
func Main() int { return MainWithArgs(os.Args[1:]) }
