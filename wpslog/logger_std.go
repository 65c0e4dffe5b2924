//go:build !tinygo

package wpslog

import (
	"log"
	"os"
	"time"

	"github.com/lestrrat-go/strftime"
)

func init() {
	global = &stdLogger{}
}

// stdLogger is the default host logger, timestamped with strftime the same
// way the distillation's calibration tooling formats its own log lines.
type stdLogger struct{}

var timestampFormat = strftime.MustNew("%Y-%m-%d %H:%M:%S")

// stdOut carries no flags, so the strftime stamp is the only timestamp.
var stdOut = log.New(os.Stderr, "", 0)

func (l *stdLogger) log(level, msg string) {
	var buf []byte
	buf, _ = timestampFormat.AppendFormat(buf, time.Now())
	stdOut.Printf("%s %s %s", buf, level, msg)
}

func (l *stdLogger) Debug(msg string) { l.log("[DEBUG]", msg) }
func (l *stdLogger) Info(msg string)  { l.log("[INFO] ", msg) }
func (l *stdLogger) Warn(msg string)  { l.log("[WARN] ", msg) }
func (l *stdLogger) Error(msg string) { l.log("[ERROR]", msg) }
