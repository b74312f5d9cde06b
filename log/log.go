// Package log provides the logging seam used by the store and the
// module binding layer. It wraps logrus so callers can plug in their
// own sink (JSON for production, the pretty formatter for local work)
// without the core depending on a concrete logging framework choice
// beyond the one the rest of the stack already uses.
package log

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Fields aliases logrus.Fields.
type Fields = logrus.Fields

// Entry aliases logrus.Entry.
type Entry = logrus.Entry

// Logger is the interface components accept. A nil Logger is never
// passed to user code; components fall back to NewNoOp() internally.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})

	Info(...interface{})
	Infof(string, ...interface{})

	Warn(...interface{})
	Warnf(string, ...interface{})

	Error(...interface{})
	Errorf(string, ...interface{})

	WithField(key string, value interface{}) *Entry
	WithFields(Fields) *Entry
	WithContext(context.Context) Logger

	SetLevel(string) error
	SetOutput(io.Writer)
	SetJSONFormatter()
	SetPrettyFormatter()
}

type logger struct {
	entry *logrus.Entry
}

// New returns a logger backed by a fresh logrus instance at Info
// level with the JSON formatter, suitable for production use.
func New() Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	return logger{entry: logrus.NewEntry(l)}
}

// NewNoOp returns a logger that discards everything. Components use
// this when the caller does not supply a Logger.
func NewNoOp() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logger{entry: logrus.NewEntry(l)}
}

func (l logger) WithContext(ctx context.Context) Logger {
	return logger{l.entry.WithContext(ctx)}
}

func (l logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l logger) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l logger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l logger) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l logger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l logger) WithField(key string, value interface{}) *Entry {
	return l.entry.WithField(key, value)
}

func (l logger) WithFields(fields Fields) *Entry {
	return l.entry.WithFields(fields)
}

func (l logger) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.entry.Logger.SetLevel(lvl)
	return nil
}

func (l logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

func (l logger) SetJSONFormatter() {
	l.entry.Logger.SetFormatter(&logrus.JSONFormatter{})
}

func (l logger) SetPrettyFormatter() {
	l.entry.Logger.SetFormatter(&prettyFormatter{})
}
