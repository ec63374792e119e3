// Package logging builds the zerolog loggers used by the command line.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall back
// to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "OFF", "DISABLED":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to w. JSON output is line-delimited; the
// console format is uncoloured so it survives redirection.
func New(w io.Writer, level string, json bool) zerolog.Logger {
	if !json {
		w = console(w)
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(level))
}

// Tee logs to out, formatted as New would, and copies every entry as a JSON
// line to each of files.
func Tee(out io.Writer, level string, json bool, files ...io.Writer) zerolog.Logger {
	if !json {
		out = console(out)
	}
	ws := append([]io.Writer{out}, files...)
	return zerolog.New(zerolog.MultiLevelWriter(ws...)).With().Timestamp().Logger().Level(ParseLevel(level))
}

func console(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
}
