// Package config builds the command line, environment and .env configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/scythe504/hangman-rooms/internal"
	"github.com/scythe504/hangman-rooms/internal/logger"
	"github.com/scythe504/hangman-rooms/internal/protocol"
)

const (
	EnvPrefix      = "HANGMAN"
	releaseVersion = "1.0.0"
)

type Config struct {
	Bind           string
	Port           int
	HTTPPort       int
	TimeLimit      time.Duration
	TickInterval   time.Duration
	ResyncInterval time.Duration
	SettleDelay    time.Duration
	MaxLineLength  int
	OutboxSize     int
	RateLimit      float64
	RateBurst      int
	WordsFile      string
	DatabaseURL    string
	LogLevel       string
	LogFormat      string
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port (must be 0 or between 1-65535 inclusive): %d", c.HTTPPort)
	}
	if c.HTTPPort != 0 && c.HTTPPort == c.Port {
		return errors.New("--port and --http-port must differ")
	}
	for name, d := range map[string]time.Duration{
		"time-limit":      c.TimeLimit,
		"tick-interval":   c.TickInterval,
		"resync-interval": c.ResyncInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("--%s must be positive: %s", name, d)
		}
	}
	if c.SettleDelay < 0 || c.SettleDelay >= c.TickInterval {
		return fmt.Errorf("--settle-delay must be between 0 and --tick-interval: %s", c.SettleDelay)
	}
	if c.MaxLineLength <= 0 {
		return fmt.Errorf("--max-line-length must be positive: %d", c.MaxLineLength)
	}
	if c.OutboxSize <= 0 {
		return fmt.Errorf("--outbox-size must be positive: %d", c.OutboxSize)
	}
	if c.RateLimit < 0 || (c.RateLimit > 0 && c.RateBurst < 1) {
		return fmt.Errorf("invalid rate limit %v with burst %d", c.RateLimit, c.RateBurst)
	}
	if c.LogFormat != logger.FormatConsole && c.LogFormat != logger.FormatJSON {
		return fmt.Errorf("invalid log format (must be console or json): %q", c.LogFormat)
	}
	return nil
}

// Addr is the TCP address of the line protocol.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// HTTPAddr is empty when the HTTP side is disabled.
func (c *Config) HTTPAddr() string {
	if c.HTTPPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.HTTPPort))
}

// NewCommand returns the root command. Every flag can also be set through a
// HANGMAN_ prefixed environment variable or a .env file in the working directory.
func NewCommand(cfg *Config, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "hangman-server",
		Short:   "A room-based multiplayer hangman server speaking a line protocol over TCP.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: HANGMAN_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 5000, "tcp port of the game protocol (env: HANGMAN_PORT)")
	fs.IntVar(&cfg.HTTPPort, "http-port", 8080, "port of the http routes and websocket bridge, 0 disables (env: HANGMAN_HTTP_PORT)")
	fs.DurationVar(&cfg.TimeLimit, "time-limit", internal.DefaultTimeLimit, "length of a round (env: HANGMAN_TIME_LIMIT)")
	fs.DurationVar(&cfg.TickInterval, "tick-interval", internal.DefaultTickInterval, "game state broadcast interval (env: HANGMAN_TICK_INTERVAL)")
	fs.DurationVar(&cfg.ResyncInterval, "resync-interval", internal.DefaultResyncInterval, "room list and state resync interval (env: HANGMAN_RESYNC_INTERVAL)")
	fs.DurationVar(&cfg.SettleDelay, "settle-delay", internal.DefaultSettleDelay, "pause between ROOM_LOBBY and the ranking (env: HANGMAN_SETTLE_DELAY)")
	fs.IntVar(&cfg.MaxLineLength, "max-line-length", protocol.DefaultMaxLineLength, "longest accepted client line in bytes (env: HANGMAN_MAX_LINE_LENGTH)")
	fs.IntVar(&cfg.OutboxSize, "outbox-size", 64, "queued lines per client before it is dropped (env: HANGMAN_OUTBOX_SIZE)")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", 20, "commands per second per client, 0 disables (env: HANGMAN_RATE_LIMIT)")
	fs.IntVar(&cfg.RateBurst, "rate-burst", 40, "command burst per client (env: HANGMAN_RATE_BURST)")
	fs.StringVar(&cfg.WordsFile, "words-file", "", "csv file replacing the built-in word list (env: HANGMAN_WORDS_FILE)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres url for round history, empty disables (env: HANGMAN_DATABASE_URL)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "trace, debug, info, warn or error (env: HANGMAN_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", logger.FormatConsole, "console or json (env: HANGMAN_LOG_FORMAT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("hangman-server v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
