package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QTest-hq/sdkgen/internal/config"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogging(cfg)

	rootCmd := newRootCmd(cfg)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(cfg.Level())
	if !cfg.LogJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "sdkgen",
		Short: "sdkgen - typed JSON-RPC client SDKs from backend IR",
		Long: `sdkgen reads the IR of backend classes and writes a client SDK for
TypeScript, JavaScript, Python, Go, Kotlin or Dart.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return cfg.Validate()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(generateCmd(cfg))
	rootCmd.AddCommand(linkCmd(cfg))
	rootCmd.AddCommand(verifyCmd(cfg))
	rootCmd.AddCommand(languagesCmd())
	rootCmd.AddCommand(historyCmd(cfg))
	rootCmd.AddCommand(initCmd())

	return rootCmd
}

// maskConnectionString hides the password of a connection URL for display
func maskConnectionString(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	pw, ok := u.User.Password()
	if !ok {
		return raw
	}
	return strings.Replace(raw, ":"+pw+"@", ":****@", 1)
}
