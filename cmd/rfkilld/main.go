// Command rfkilld connects input-layer radio hotkeys and kill switches
// to the radio-control backend: it watches matching input devices,
// debounces and serializes the resulting commands, and applies them
// through /dev/rfkill (or a fake backend for development).
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is stamped by the build.
var Version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "rfkilld",
	Short: "Input layer to RF kill switch connector",
	Long: `rfkilld observes radio hotkeys and kill switches on input devices and
translates them into debounced, serialized radio enable/disable commands.`,
}

var debug bool

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(newServeCmd(), newVersionCmd())

	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("rfkilld command failed")
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rfkilld version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("rfkilld %s\n", Version)
		},
	}
}
