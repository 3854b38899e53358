package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/cobra"

	"github.com/openpv/icsrgen/internal/config"
)

var (
	cfg     *config.Config
	log     zerolog.Logger
	verbose bool

	mappingPath string
)

var rootCmd = &cobra.Command{
	Use:   "icsrgen",
	Short: "Generate E2B R3 ICSR XML in HL7 format from JSON case records",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log = log.Level(zerolog.DebugLevel)
		} else {
			log = log.Level(zerolog.InfoLevel)
		}
	},
}

func main() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	log = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).
		With().Timestamp().Caller().Logger()

	cfg = config.Load()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&mappingPath, "mapping", "m", "", "path to the CSV mapping file (default: bundled map_metadata.csv)")
	rootCmd.AddCommand(generateCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Stack().Err(errors.WithStack(err)).Msg("Command failed")
		os.Exit(1)
	}
}
