// Package logging provides the shared structured logger used across the
// mesh: every component logs through a *logrus.Entry tagged with its own
// "component" field instead of rolling its own *log.Logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetOutput redirects all component loggers, defaulting to os.Stderr.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}

// SetDebug toggles debug-level verbosity across every component
// (Trace lines stay suppressed either way).
func SetDebug(on bool) {
	if on {
		root.SetLevel(logrus.DebugLevel)
	} else {
		root.SetLevel(logrus.InfoLevel)
	}
}

// For returns a logger tagged with the given component name, e.g.
// logging.For("registry").Warnf("evicting %s", name).
func For(component string) *logrus.Entry {
	return root.WithField("component", component)
}
