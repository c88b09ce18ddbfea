package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/promptdeck/promptdeck/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "promptdeck",
	Short: "Writing-prompt engine with named lists, usage tracking, and fair selection",
	Long: `Promptdeck serves one writing prompt at a time from a named list.

It parses markdown-ish prompt lists, tracks which prompts you have used,
favors never-used prompts when rolling the dice, and persists personal
lists per user in its document store. The HTTP API and SSE event stream
are the surface a presentation layer renders from.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ~/.promptdeck/settings.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	}

	viper.SetEnvPrefix("PROMPTDECK")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(parseCmd)
}

// loadConfig resolves the settings file (flag wins over default path) and
// applies environment overrides.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.SettingsPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if addr := viper.GetString("listen_addr"); addr != "" {
		cfg.ListenAddr = addr
	}
	if secret := viper.GetString("jwt_secret"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if dsn := viper.GetString("db_dsn"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	return cfg, nil
}
