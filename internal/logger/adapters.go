package logger

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/pressly/goose/v3"
)

// watermillLogger adapts our Logger to watermill's logging interface
type watermillLogger struct {
	logger *Logger
	fields watermill.LogFields
}

// GetWatermillLogger returns a watermill-compatible logger
func (l *Logger) GetWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{logger: l}
}

func (w *watermillLogger) keyvals(fields watermill.LogFields) []interface{} {
	merged := w.fields.Add(fields)
	kv := make([]interface{}, 0, len(merged)*2)
	for k, v := range merged {
		kv = append(kv, k, v)
	}
	return kv
}

func (w *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.logger.Errorw(msg, append(w.keyvals(fields), "error", err)...)
}

func (w *watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.logger.Infow(msg, w.keyvals(fields)...)
}

func (w *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debugw(msg, w.keyvals(fields)...)
}

func (w *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.logger.Debugw(msg, w.keyvals(fields)...)
}

func (w *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: w.logger, fields: w.fields.Add(fields)}
}

// gooseLogger routes migration output through the application logger
type gooseLogger struct {
	logger *Logger
}

// GetGooseLogger returns a logger usable with goose.SetLogger
func (l *Logger) GetGooseLogger() goose.Logger {
	return &gooseLogger{logger: l}
}

func (g *gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Errorw(fmt.Sprintf(format, v...), "component", "migrate")
}

func (g *gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Infow(fmt.Sprintf(format, v...), "component", "migrate")
}
