// Package cli wires the commands: the root command runs the watch, init
// writes a starter config, version prints build info.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Persistent and root flags.
var (
	configFlag   string
	hostFlag     string
	serviceFlag  string
	intervalFlag string
	insecureFlag bool
	initForce    bool
)

// rootCmd runs the monitor when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "servicemon",
	Short: "Watch a remote service and restart it when it stops",
	Long: `servicemon watches one named service on a remote host over SSH,
restarts it automatically when it is observed not running, and shows a live
dashboard with interactive controls.

Examples:
  servicemon
  servicemon --host winbox --service "FileMaker Server"
  servicemon --config /etc/servicemon.yaml --interval 30s`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand()
	},
}

// initCmd creates a starter .servicemon.yaml.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .servicemon.yaml configuration",
	Long: `Write a starter configuration file in the current directory.

Examples:
  servicemon init
  servicemon init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(".", initForce)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file path")
	rootCmd.Flags().StringVar(&hostFlag, "host", "", "remote host to connect to")
	rootCmd.Flags().StringVar(&serviceFlag, "service", "", "service name to watch")
	rootCmd.Flags().StringVar(&intervalFlag, "interval", "", "check interval (e.g., 30s, 2m)")
	rootCmd.Flags().BoolVar(&insecureFlag, "insecure-host-key", false, "skip host key verification")

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI, printing structured errors on failure. The error is
// held on screen until the operator confirms, so a terminal window that
// closes on exit doesn't swallow it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		awaitExitAck(os.Stdin, term.IsTerminal(int(os.Stdin.Fd())))
		os.Exit(1)
	}
}

// awaitExitAck blocks until the operator presses enter. Skipped when stdin is
// not a terminal so scripts and CI never hang on a failed start.
func awaitExitAck(in io.Reader, interactive bool) {
	if !interactive {
		return
	}
	fmt.Fprint(os.Stderr, "Press enter to exit...")
	_, _ = bufio.NewReader(in).ReadString('\n')
}
