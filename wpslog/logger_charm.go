//go:build !tinygo

package wpslog

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// NewCharmLogger builds a Logger backed by charmbracelet/log, for hosts that
// want leveled, colorized output (the CLI tool selects this one explicitly
// with Set; it is never the implicit default).
func NewCharmLogger() Logger {
	return &charmLogger{
		l: charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: true,
			Prefix:          "wps",
			Level:           charmlog.DebugLevel,
		}),
	}
}

type charmLogger struct {
	l *charmlog.Logger
}

func (c *charmLogger) Debug(msg string) { c.l.Debug(msg) }
func (c *charmLogger) Info(msg string)  { c.l.Info(msg) }
func (c *charmLogger) Warn(msg string)  { c.l.Warn(msg) }
func (c *charmLogger) Error(msg string) { c.l.Error(msg) }
