// Package logger configures the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Setup installs the global logger writing to stdout.
func Setup(level, format string) error {
	return SetupWriter(os.Stdout, level, format)
}

func SetupWriter(out io.Writer, level, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch format {
	case FormatConsole, "":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(lvl)
	return nil
}
