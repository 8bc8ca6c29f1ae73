package notify

import (
	"log"

	"go.uber.org/zap"
)

type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

type stdLogger struct{}

func (stdLogger) Debug(msg string, args ...interface{}) {
	log.Printf("[NOTIFY DEBUG] "+msg, args...)
}

func (stdLogger) Info(msg string, args ...interface{}) {
	log.Printf("[NOTIFY INFO] "+msg, args...)
}

func (stdLogger) Error(msg string, args ...interface{}) {
	log.Printf("[NOTIFY ERROR] "+msg, args...)
}

func NewStdLogger() Logger {
	return stdLogger{}
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debug(msg string, args ...interface{}) {
	l.s.Debugf(msg, args...)
}

func (l zapLogger) Info(msg string, args ...interface{}) {
	l.s.Infof(msg, args...)
}

func (l zapLogger) Error(msg string, args ...interface{}) {
	l.s.Errorf(msg, args...)
}

func NewZapLogger(s *zap.SugaredLogger) Logger {
	return zapLogger{s: s}
}
