// Package logger configures the process-wide logrus logger and adapts it to
// echo.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for every lumberjack file this service writes.
const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 10
	DefaultMaxAgeDays = 30
)

// Options controls Setup.  An empty Dir keeps logging on stdout only.
type Options struct {
	Level  string
	Format string
	Dir    string
	Name   string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup applies opts to the standard logrus logger.  The returned Closer
// releases the log file and must be closed on shutdown.
func Setup(opts Options) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(lvl)

	switch opts.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	if opts.Dir == "" {
		logrus.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}

	name := opts.Name
	if name == "" {
		name = "server"
	}
	file, err := NewRotatingFile(opts.Dir, name+".log")
	if err != nil {
		return nil, err
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, file))
	return file, nil
}

// NewRotatingFile creates dir when missing and returns a size-rotated writer
// for dir/name.
func NewRotatingFile(dir, name string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
		LocalTime:  true,
	}, nil
}
