// Package logging holds the logrus setup shared by all packages.
package logging

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// FieldModule is the log field for the module name.
	FieldModule = "module"
	// FieldSession is the log field for a session ID.
	FieldSession = "session"
	// FieldChannel is the log field for a channel name.
	FieldChannel = "channel"
	// FieldAddrPrefix is the log field for a masked remote address.
	FieldAddrPrefix = "addrPrefix"
	// FieldHeader is the log field for a request header name.
	FieldHeader = "header"
)

var _logger = logrus.StandardLogger().WithField(FieldModule, "SenderInfo")

// Log returns the logger used throughout the service.
func Log() *logrus.Entry {
	return _logger
}

// Configure sets the level and output format of the standard logger.
// Supported formats are "text" and "json".
func Configure(verbosity, format string) error {
	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	switch strings.ToLower(format) {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unsupported logger format: %s", format)
	}
	return nil
}
