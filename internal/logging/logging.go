// Package logging configures the global zerolog logger from viper and masks
// credentials that spec URLs may carry.
package logging

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Viper keys bound to the --log-level, --log-format and --no-color flags.
const (
	LogLevelKey   = "log.level"
	LogFormatKey  = "log.format"
	LogNoColorKey = "log.no_color"
)

const redacted = "********"

// Init points the global logger at stderr. sensitiveValues, usually
// spec.Resolved.SensitiveValues, are masked in everything it writes.
func Init(sensitiveValues []string) {
	InitWriter(os.Stderr, sensitiveValues)
}

// InitWriter is Init with an explicit destination.
func InitWriter(output io.Writer, sensitiveValues []string) {
	level, warning := parseLevel(viper.GetString(LogLevelKey))
	zerolog.SetGlobalLevel(level)

	var queue []string
	if warning != "" {
		queue = append(queue, warning)
	}

	if len(sensitiveValues) > 0 {
		output = NewRedactingWriter(output, sensitiveValues)
	}

	switch format := strings.ToLower(viper.GetString(LogFormatKey)); format {
	case "json":
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	default:
		if format != "console" && format != "" {
			queue = append(queue, fmt.Sprintf("unknown log format %q, using console", format))
		}
		log.Logger = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = output
			w.NoColor = viper.GetBool(LogNoColorKey)
			w.TimeFormat = "15:04:05.000"
		})).With().Timestamp().Logger()
	}

	// logged only once the new logger is in place
	for _, msg := range queue {
		log.Warn().Msg(msg)
	}
}

// parseLevel falls back to info, returning a warning when s was set but invalid.
func parseLevel(s string) (zerolog.Level, string) {
	s = strings.ToLower(s)
	if s == "" {
		return zerolog.InfoLevel, ""
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Sprintf("invalid log level %q, using info", s)
	}
	return level, ""
}

// RedactingWriter replaces each sensitive value with asterisks before passing
// the bytes on. A value split across two Write calls is not caught, which is
// fine for zerolog since it writes one event per call.
type RedactingWriter struct {
	underlying io.Writer
	sensitive  [][]byte
}

// NewRedactingWriter drops empty values and masks the longest ones first, so a
// password that contains another secret is still hidden entirely.
func NewRedactingWriter(underlying io.Writer, sensitive []string) *RedactingWriter {
	var values [][]byte
	for _, s := range sensitive {
		if s != "" {
			values = append(values, []byte(s))
		}
	}
	slices.SortStableFunc(values, func(a, b []byte) int {
		return cmp.Compare(len(b), len(a))
	})
	return &RedactingWriter{
		underlying: underlying,
		sensitive:  values,
	}
}

// Write reports len(p) on success so callers don't treat the (possibly
// shorter) redacted write as a short write.
func (rw *RedactingWriter) Write(p []byte) (int, error) {
	message := p
	for _, secret := range rw.sensitive {
		message = bytes.ReplaceAll(message, secret, []byte(redacted))
	}

	if _, err := rw.underlying.Write(message); err != nil {
		return 0, err
	}
	return len(p), nil
}
