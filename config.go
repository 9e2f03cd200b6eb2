package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind            string
	databaseURL     string
	livenessTimeout time.Duration
	maxDraws        int
	minPlayers      int
	pingInterval    time.Duration
	port            int
	prefix          string
	profile         bool
	sendBuffer      int
	tlsCert         string
	tlsKey          string
	valuesFile      string
	verbose         bool
	version         bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.minPlayers < 2 {
		return fmt.Errorf("invalid minimum players (must be at least 2): %d", c.minPlayers)
	}
	if c.maxDraws < 1 {
		return fmt.Errorf("invalid draw ceiling (must be at least 1): %d", c.maxDraws)
	}
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be at least 1): %d", c.sendBuffer)
	}
	if c.pingInterval <= 0 {
		return fmt.Errorf("invalid ping interval (must be positive): %s", c.pingInterval)
	}
	if c.livenessTimeout <= c.pingInterval {
		return fmt.Errorf("liveness timeout (%s) must be longer than ping interval (%s)", c.livenessTimeout, c.pingInterval)
	}
	if c.valuesFile != "" && c.databaseURL != "" {
		return errors.New("--values-file and --database-url are mutually exclusive")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("OUTLIER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "outlier",
		Short:         "A single-room party game: everyone shares a secret, except one.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: OUTLIER_BIND)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres connection string to load secret values from (env: OUTLIER_DATABASE_URL)")
	fs.DurationVar(&cfg.livenessTimeout, "liveness-timeout", 45*time.Second, "time without a pong before a player is evicted (env: OUTLIER_LIVENESS_TIMEOUT)")
	fs.IntVar(&cfg.maxDraws, "max-draws", 64, "random draws allowed when picking a distinct outlier value (env: OUTLIER_MAX_DRAWS)")
	fs.IntVar(&cfg.minPlayers, "min-players", 3, "players required before a round can start (env: OUTLIER_MIN_PLAYERS)")
	fs.DurationVar(&cfg.pingInterval, "ping-interval", 15*time.Second, "time between websocket pings (env: OUTLIER_PING_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: OUTLIER_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: OUTLIER_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: OUTLIER_PROFILE)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 16, "messages queued per connection before it is dropped (env: OUTLIER_SEND_BUFFER)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: OUTLIER_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: OUTLIER_TLS_KEY)")
	fs.StringVar(&cfg.valuesFile, "values-file", "", "path to a json table of secret values (env: OUTLIER_VALUES_FILE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: OUTLIER_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: OUTLIER_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("outlier v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
