// Package logger builds the structured logger shared by the binaries.
package logger

import (
	"io"
	"os"

	"github.com/Domenick1991/ridepay/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON logrus logger writing to stdout and, when cfg.File is
// set, to a size-rotated file as well.
func New(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	log.SetOutput(out)

	if err != nil {
		log.WithField("level", cfg.Level).Warn("unknown log level, falling back to info")
	}
	return log
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
