package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
)

// Components lists the package loggers of the module
var Components = []string{"registry", "resolver", "adapter", "serializer", "manifest"}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// binserLogger implements the ILogger interface. Every line names the module
// and the component it was written by, e.g.
//
//	2024/01/02 15:04:05 binser/adapter    WARN  created shim Int -> Level
type binserLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

// levelTags maps the levels written by binserLogger to their line tag
var levelTags = map[logger.LogLevel]string{
	logger.DEBUG:   "DEBUG",
	logger.INFO:    "INFO",
	logger.WARNING: "WARN",
	logger.ERROR:   "ERROR",
}

func (l *binserLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *binserLogger) Debugf(format string, args ...any) {
	l.logf(logger.DEBUG, format, args)
}

func (l *binserLogger) Infof(format string, args ...any) {
	l.logf(logger.INFO, format, args)
}

func (l *binserLogger) Warningf(format string, args ...any) {
	l.logf(logger.WARNING, format, args)
}

func (l *binserLogger) Errorf(format string, args ...any) {
	l.logf(logger.ERROR, format, args)
}

// Panicf logs and panics regardless of the level
func (l *binserLogger) Panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("binser/%-10s %-5s %s", l.name, "PANIC", msg)
	panic(msg)
}

func (l *binserLogger) logf(level logger.LogLevel, format string, args []any) {
	if l.level < level {
		return
	}
	l.logger.Printf("binser/%-10s %-5s %s", l.name, levelTags[level], fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// output is the destination of all loggers created by CreateLogger
var output io.Writer = os.Stderr

// CreateLogger implements the dragonboat logger factory
func CreateLogger(pkgName string) logger.ILogger {
	return &binserLogger{
		name:   pkgName,
		level:  logger.WARNING,
		logger: log.New(output, "", log.Ldate|log.Ltime),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// factoryOnce guards logger.SetLoggerFactory, which panics when called twice
var factoryOnce sync.Once

// InitLoggers installs the custom logger factory and sets the configured level
// on every component logger. It may be called repeatedly; later calls only
// change the level. Loggers are created lazily by dragonboat, so the first call
// must happen before the first log line of a component.
func InitLoggers(config *Config) error {
	level, err := ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}

	factoryOnce.Do(func() { logger.SetLoggerFactory(CreateLogger) })

	for _, name := range Components {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}
