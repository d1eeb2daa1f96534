package devicesim

import (
	"github.com/sirupsen/logrus"
)

// Logger is the logger used by the core and that should be used by
// client code built on top of it.
var Logger = logrus.StandardLogger()

// SetLogLevel sets Logger's level to either debug or info based on the
// debug flag. Only these two levels are supported: debug for
// development, info for production, since info-level messages here are
// informational enough to be worth surfacing outside of development too.
func SetLogLevel(debug bool) {
	if debug {
		Logger.Level = logrus.DebugLevel
	} else {
		Logger.Level = logrus.InfoLevel
	}
}
