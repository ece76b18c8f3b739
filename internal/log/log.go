// Package log wraps apex/log with a single line handler and a level picked
// up from the REGWATCH_LOG env variable.
package log

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
)

// Init sets up the handler and log level. Level defaults to info.
func Init() {
	level := log.InfoLevel
	switch strings.ToLower(os.Getenv("REGWATCH_LOG")) {
	case "debug":
		level = log.DebugLevel
	case "warn":
		level = log.WarnLevel
	case "error":
		level = log.ErrorLevel
	}
	log.SetHandler(&lineHandler{})
	log.SetLevel(level)
}

// lineHandler writes "timestamp LEVEL message key=value ..." lines to stderr.
type lineHandler struct{}

// HandleLog implements the log.Handler interface
func (h *lineHandler) HandleLog(e *log.Entry) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %-5s %s",
		time.Now().Format("2006-01-02 15:04:05"),
		strings.ToUpper(e.Level.String()),
		e.Message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&sb, " %s=%v", name, e.Fields.Get(name))
	}
	fmt.Fprintln(os.Stderr, sb.String())
	return nil
}

// Debugf logs at Debug level.
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Infof logs at Info level.
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Warnf logs at Warn level.
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// Errorf logs at Error level.
func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

// Fatalf logs at Fatal level and exits.
func Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}

// WithError returns an entry with the error attached.
func WithError(err error) *log.Entry {
	return log.WithError(err)
}
