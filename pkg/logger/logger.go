// Package logger keeps the teacher's package-level call surface
// (Debug/Info/Warn/Error/Success/Fatal/Section/Banner) but backs every
// call with a zerolog.Logger writing through a zerolog.ConsoleWriter,
// so each line gets structured fields instead of an fmt.Sprintf string.
package logger

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

var base zerolog.Logger

func init() {
	base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// SetLevel adjusts the minimum level the package-level helpers emit at.
func SetLevel(level zerolog.Level) { base = base.Level(level) }

// Logger returns the underlying zerolog.Logger, for callers (pkg/server,
// pkg/connection) that want structured fields per call site rather than
// the package-level Printf-style helpers below.
func Logger() zerolog.Logger { return base }

// With starts a child logger carrying extra fields, e.g.
// logger.With().Str("conn_id", id.String()).Logger().
func With() zerolog.Context { return base.With() }

func Debug(format string, args ...interface{}) { base.Debug().Msg(fmt.Sprintf(format, args...)) }
func Info(format string, args ...interface{})  { base.Info().Msg(fmt.Sprintf(format, args...)) }
func Warn(format string, args ...interface{})  { base.Warn().Msg(fmt.Sprintf(format, args...)) }
func Error(format string, args ...interface{}) { base.Error().Msg(fmt.Sprintf(format, args...)) }

// Success logs at Info level with a success marker field, since zerolog
// has no dedicated level for it.
func Success(format string, args ...interface{}) {
	base.Info().Bool("success", true).Msg(fmt.Sprintf(format, args...))
}

// Fatal logs at Fatal level and exits, matching zerolog's own Fatal
// semantics (zerolog calls os.Exit(1) after writing the event).
func Fatal(format string, args ...interface{}) {
	base.Fatal().Msg(fmt.Sprintf(format, args...))
}

// Section prints a section header to stdout directly: a cosmetic CLI
// banner, not a structured log line, so it bypasses zerolog entirely.
func Section(title string) {
	border := "═══════════════════════════════════════════════════════════"
	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║ %-57s ║\n", title)
	fmt.Printf("╚%s╝\n\n", border)
}

// Banner prints the application banner for a demo binary's startup.
func Banner(title, version string) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                             ║
║   ██████╗ ███████╗███╗   ██╗███████╗████████╗              ║
║   ██╔══██╗██╔════╝████╗  ██║██╔════╝╚══██╔══╝              ║
║   ██║  ██║█████╗  ██╔██╗ ██║█████╗     ██║                 ║
║   ██║  ██║██╔══╝  ██║╚██╗██║██╔══╝     ██║                 ║
║   ██████╔╝███████╗██║ ╚████║███████╗   ██║                 ║
║   ╚═════╝ ╚══════╝╚═╝  ╚═══╝╚══════╝   ╚═╝                 ║
║                                                             ║
║              %-45s║
║                    Version %-7s                      ║
║                                                             ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, title, version)
}
