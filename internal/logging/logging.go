// Package logging configures the process-wide logrus logger, grounded on
// the anago-stage release tool's logrus.SetFormatter/TextFormatter setup
// (other_examples), generalized to also support JSON output for non-tty
// operation under a supervisor.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures Setup.
type Options struct {
	Level  string // debug, info, warn, error; default info
	JSON   bool   // structured JSON instead of the human-readable formatter
	Output io.Writer
}

// Setup installs Options on the standard logrus logger and returns an
// *logrus.Entry with module/component fields pre-populated, the form every
// package under internal/ accepts as a *logrus.Entry parameter.
func Setup(component string, opts Options) *logrus.Entry {
	logger := logrus.StandardLogger()

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger.WithField("component", component)
}
