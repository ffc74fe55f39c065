// Package logger is the application log: a rotating file under the config dir,
// mirrored to stderr with --debug. Store backends log through a Scope that tags
// every line with the backend and, where known, the user.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is nil until Init; every helper is a no-op before that.
var Logger *log.Logger

type Config struct {
	Debug     bool
	ConfigDir string
}

// FileName is the log file inside <config dir>/logs.
const FileName = "practicebuddy.log"

func Init(cfg Config) error {
	logDir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return err
	}

	var w io.Writer = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    5, // megabytes
		MaxBackups: 2,
		MaxAge:     30, // days
	}

	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
		w = io.MultiWriter(os.Stderr, w)
	}

	Logger = log.NewWithOptions(w, log.Options{
		Prefix:          "buddy",
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    cfg.Debug,
	})
	return nil
}

func Debug(msg string, keyvals ...interface{}) { write(log.DebugLevel, msg, keyvals) }
func Info(msg string, keyvals ...interface{})  { write(log.InfoLevel, msg, keyvals) }
func Warn(msg string, keyvals ...interface{})  { write(log.WarnLevel, msg, keyvals) }
func Error(msg string, keyvals ...interface{}) { write(log.ErrorLevel, msg, keyvals) }

func write(level log.Level, msg string, keyvals []interface{}) {
	if Logger == nil {
		return
	}
	Logger.Helper()
	Logger.Log(level, msg, keyvals...)
}

// Scope carries fields added to every line it logs. It resolves the global
// Logger at call time, so a store opened before Init still logs once Init runs.
type Scope struct {
	fields []interface{}
}

// Store returns the scope for a store backend ("sqlite", "libsql", "memory").
func Store(backend string) *Scope {
	return &Scope{fields: []interface{}{"backend", backend}}
}

// With returns a copy of the scope with more fields.
func (s *Scope) With(keyvals ...interface{}) *Scope {
	fields := s.Fields()
	return &Scope{fields: append(fields, keyvals...)}
}

// User tags lines with the owning user id.
func (s *Scope) User(uid string) *Scope {
	return s.With("uid", uid)
}

// Fields returns the scope's key/value pairs. A nil scope has none.
func (s *Scope) Fields() []interface{} {
	if s == nil {
		return nil
	}
	return append([]interface{}{}, s.fields...)
}

func (s *Scope) Debug(msg string, keyvals ...interface{}) { s.write(log.DebugLevel, msg, keyvals) }
func (s *Scope) Info(msg string, keyvals ...interface{})  { s.write(log.InfoLevel, msg, keyvals) }
func (s *Scope) Warn(msg string, keyvals ...interface{})  { s.write(log.WarnLevel, msg, keyvals) }

func (s *Scope) write(level log.Level, msg string, keyvals []interface{}) {
	if Logger == nil {
		return
	}
	Logger.Helper()
	Logger.Log(level, msg, append(s.Fields(), keyvals...)...)
}
