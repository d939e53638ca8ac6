package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger instance. It starts with library defaults
// so package code can log before Init runs (tests never call Init).
var Log = logrus.New()

// Init builds the global logger. Call once from main before anything logs.
func Init() {
	Log = logrus.New()

	// Level comes from the environment so headless batch runs can be
	// turned up to debug without a rebuild. Default is "info".
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// "json" for machine collection, text with timestamps otherwise.
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if logFormat == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	Log.SetOutput(os.Stdout)
}
