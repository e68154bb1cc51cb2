// Package logging configures zerolog for the host tools and routes the
// core debug writer into it.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ledkit/core"
)

// Config selects the global level and output format
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // console or json
}

// Setup installs the global zerolog logger and returns it. Output goes to
// out, os.Stderr when nil.
func Setup(cfg Config, out io.Writer) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", cfg.Level)
	}
	zerolog.SetGlobalLevel(level)

	switch cfg.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	case "json":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", cfg.Format)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger, nil
}

// Component returns a child logger tagged with component
func Component(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// BridgeCore sends core debug lines to l at debug level. Core debug output
// is only produced when l would print it.
func BridgeCore(l zerolog.Logger) {
	cl := Component(l, "core")
	core.SetDebugWriter(func(msg string) {
		cl.Debug().Msg(msg)
	})
	core.SetDebugEnabled(cl.GetLevel() <= zerolog.DebugLevel && zerolog.GlobalLevel() <= zerolog.DebugLevel)
}

// LogEvent writes one core lifecycle event
func LogEvent(l zerolog.Logger, e core.Event) {
	ev := l.Debug()
	switch e.Type {
	case core.EvtWriteFailed, core.EvtSpawnFailed:
		ev = l.Warn()
	}
	ev.Str("event", e.Type.String()).
		Uint32("pin", uint32(e.Pin)).
		Str("remaining", countString(e.Remaining)).
		Uint32("on_ms", e.OnMS).
		Uint32("off_ms", e.OffMS).
		Msg("led event")
}

func countString(n uint64) string {
	if n == core.Forever {
		return "forever"
	}
	return fmt.Sprint(n)
}
