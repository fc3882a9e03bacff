// Package logging provides the shared logrus setup and Gin middleware for
// HTTP request logging and panic recovery.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupBaseLogger applies the process-wide logrus defaults. Called from init
// in cmd/server before any configuration is available.
func SetupBaseLogger() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(log.InfoLevel)
	log.SetOutput(os.Stderr)
}

// ConfigureLogOutput applies the configured log level and, when a file path
// is set, routes output through a size-rotated file.
//
// Parameters:
//   - level: logrus level name (debug, info, warn, error)
//   - file: log file path, empty for stderr
func ConfigureLogOutput(level, file string) {
	if parsed, err := log.ParseLevel(strings.TrimSpace(level)); err == nil {
		log.SetLevel(parsed)
	} else if strings.TrimSpace(level) != "" {
		log.Warnf("unknown log level %q, keeping %s", level, log.GetLevel())
	}

	if strings.TrimSpace(file) == "" {
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotated))
}
