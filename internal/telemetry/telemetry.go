// Package telemetry builds the logrus logger cemu's packages log through,
// reproducing the reference implementation's severity levels and
// file:line-stamped output.
package telemetry

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New builds a logger at the given level, writing to w with a full
// timestamp and the calling file:line, matching the reference's
// log_info/log_error prefix.
func New(w io.Writer, level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	logger.SetReportCaller(true)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// LevelFromFlags resolves a level name and a quiet switch into a
// logrus.Level: quiet wins over an explicit level name, and an unrecognized
// name falls back to Info. The cemu command does not call it; it logs at
// Info, and its --log flag names a log file.
func LevelFromFlags(levelName string, quiet bool) logrus.Level {
	if quiet {
		return logrus.ErrorLevel
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
