// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/sirupsen/logrus"

	"github.com/gitzipqr/gitzipqr/log"
)

// logrusFactory adapts logrus to the log.Factory/log.Logger interfaces the
// rest of this repository's packages depend on, so those packages stay
// decoupled from any concrete logging library - only cmd/ knows logrus
// exists.
type logrusFactory struct {
	base *logrus.Logger
}

var (
	_ log.Factory = (*logrusFactory)(nil)
	_ log.Logger  = (*logrusEntry)(nil)
)

func newLogrusFactory(verbose bool) *logrusFactory {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		base.SetLevel(logrus.DebugLevel)
	} else {
		base.SetLevel(logrus.WarnLevel)
	}

	return &logrusFactory{base: base}
}

func (f *logrusFactory) New() log.Logger {
	return &logrusEntry{entry: logrus.NewEntry(f.base)}
}

type logrusEntry struct {
	entry *logrus.Entry
}

func (l *logrusEntry) Level(lvl log.LoggerLevel) log.Logger {
	clone := l.entry.Logger
	switch lvl {
	case log.DebugLevel:
		clone.SetLevel(logrus.DebugLevel)
	case log.InfoLevel:
		clone.SetLevel(logrus.InfoLevel)
	case log.ErrorLevel:
		clone.SetLevel(logrus.ErrorLevel)
	default:
	}

	return l
}

func (l *logrusEntry) Field(k string, v any) log.Logger {
	return &logrusEntry{entry: l.entry.WithField(k, v)}
}

func (l *logrusEntry) Fields(data map[string]any) log.Logger {
	return &logrusEntry{entry: l.entry.WithFields(logrus.Fields(data))}
}

func (l *logrusEntry) Error(err error) log.Logger {
	return &logrusEntry{entry: l.entry.WithError(err)}
}

func (l *logrusEntry) Message(msg string) {
	l.entry.Warn(msg)
}

func (l *logrusEntry) Messagef(format string, v ...any) {
	l.entry.Warnf(format, v...)
}
