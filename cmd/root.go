package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the voicecal application
var rootCmd = &cobra.Command{
	Use:   "voicecal",
	Short: "Appointment booking backend for voice assistants",
	Long: `voicecal answers voice-assistant webhooks for a single business calendar.
Callers ask for appointments in plain speech; voicecal lets a language model
check free slots and book them on Google Calendar.

It can run as:
  - An HTTP webhook server (default)
  - An MCP (Model Context Protocol) server over stdio
  - A set of operator commands for checking and booking slots by hand`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var (
	configFile string
	debugMode  bool
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "voicecal version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (default: $VOICECAL_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAvailabilityCmd())
	rootCmd.AddCommand(newBookCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
