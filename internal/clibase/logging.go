package clibase

import (
	"fmt"
	"os"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const (
	envLogFormat      = "LOG_FORMAT"
	envLogLevel       = "LOG_LEVEL"
	logDefaultLevel   = "info"
	logFlagFormatName = "log-format"
	logFlagLevelName  = "log-level"
	logTextFormatName = "text"
	logJSONFormatName = "json"
)

var (
	logFormats = map[string]log.Formatter{
		logJSONFormatName: &log.JSONFormatter{},
		logTextFormatName: &log.TextFormatter{},
	}
	logDefaultFormat = logTextFormatName

	// ErrorLogInitFailure is the error logged when the initial log configuration setup fails
	ErrorLogInitFailure = fmt.Errorf("failure during logging init")
	// ErrorLogUnknownFormat is the error logged when an unrecognized log format is specified
	ErrorLogUnknownFormat = fmt.Errorf("unknown log format specified")
)

func init() {
	// stdout carries command results (thumbnail paths), so every log level goes to stderr
	log.SetOutput(os.Stderr)

	if err := configureLogging(getLogSettings()); err != nil {
		log.Error(ErrorLogInitFailure.Error())
	}
}

func addLogFlags(flags *pflag.FlagSet) {
	logFlags := &pflag.FlagSet{}
	format, level := getLogSettings()

	formats := make([]string, 0, len(logFormats))
	for k := range logFormats {
		formats = append(formats, k)
	}
	sort.Strings(formats)
	logFlags.String(logFlagFormatName, format, fmt.Sprintf("The log format (valid values are: %s)", strings.Join(formats, ", ")))
	logFlags.String(logFlagLevelName, level, "The log level (trace, debug, info, warn, error, fatal)")

	flags.AddFlagSet(logFlags)
}

// getLogSettings returns the LOG_FORMAT and LOG_LEVEL environment settings, falling back to the defaults
func getLogSettings() (logFormat, logLevel string) {
	level, isDefined := os.LookupEnv(envLogLevel)
	if !isDefined {
		level = logDefaultLevel
	}
	format, isDefined := os.LookupEnv(envLogFormat)
	if !isDefined {
		format = logDefaultFormat
	}
	return format, level
}

func configureLogging(logFormat, logLevel string) error {
	formatter, ok := logFormats[logFormat]
	if !ok {
		log.WithFields(log.Fields{
			"submitted.log.format": logFormat,
		}).Error(ErrorLogUnknownFormat.Error())
		return ErrorLogUnknownFormat
	}
	log.SetFormatter(formatter)

	logLevelParsed, err := log.ParseLevel(logLevel)
	if err != nil {
		log.WithFields(log.Fields{
			"error":               err,
			"submitted.log.level": logLevel,
		}).Error("unable to parse specified log level")
		return err
	}
	log.SetLevel(logLevelParsed)

	log.WithFields(log.Fields{
		"log.format": logFormat,
		"log.level":  log.GetLevel(),
	}).Trace("logging configured")
	return nil
}
