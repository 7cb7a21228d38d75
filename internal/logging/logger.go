package logging

import (
	"io"
	"os"
	"strings"

	"github.com/flexpro/backend/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileMaxSizeMB = 50

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the global logrus logger: level, format, outputs and the
// sentry hook for error-and-above entries.
func Setup(params LoggerSetupParams) {
	logrus.SetLevel(ParseLevel(params.LogLevel))
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if params.SentryEnabled {
		setupSentry(params)
	}

	logrus.SetOutput(logOutput(params))
}

func setupSentry(params LoggerSetupParams) {
	err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.SentryServerName,
	})
	if err != nil {
		logrus.Errorf("sentry init: %s", err)
		return
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Info("sentry error reporting enabled")
}

func logOutput(params LoggerSetupParams) io.Writer {
	if params.LogFileName == "" {
		logrus.Info("logging to stdout only")
		return os.Stdout
	}

	fileName := params.LogFileName
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}

	// rotated and compressed, timestamps in UTC
	fileLogger := &lumberjack.Logger{
		Filename:  fileName,
		MaxSize:   logFileMaxSizeMB,
		LocalTime: false,
		Compress:  true,
	}

	if params.LogToStdout {
		logrus.Infof("logging to stdout and %s", fileName)
		return pkg.NewCombinedWriter(os.Stdout, fileLogger)
	}

	logrus.Infof("logging to %s", fileName)
	return fileLogger
}

// ParseLevel maps a config level string to a logrus level. Unknown values
// fall back to trace so nothing gets silently dropped.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.TraceLevel
	}
}
