// Package logging configures the process-wide logrus logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Configure sets the logrus level and formatter. Production output is JSON so
// it can be shipped as-is; everything else gets human readable text.
func Configure(level string, production bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stdout)

	if production {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
