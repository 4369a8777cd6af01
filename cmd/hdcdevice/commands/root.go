package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the top-level cobra command for hdcdevice.
var rootCmd = &cobra.Command{
	Use:   "hdcdevice",
	Short: "Run or simulate an HDC protocol device",
	Long:  "hdcdevice drives the HDC protocol engine against a real serial link or an in-memory loopback, for development and testing without firmware hardware.",

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (YAML)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(simulateHostCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
