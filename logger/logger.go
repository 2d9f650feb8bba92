// Copyright (c) 2023-2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package logger is the leveled logger of perlink. Log lines go to stderr through zap; when the console runs on
// a terminal, the console line is cleared before a log line is written and restored afterwards.
package logger

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the log-level for logging what happens in a link run or in the console.
type Level int8

const (
	MicroLevel   Level = 7
	TraceLevel   Level = 6
	DebugLevel   Level = 5
	InfoLevel    Level = 4
	NoteLevel    Level = 3
	WarnLevel    Level = 2
	ErrorLevel   Level = 1
	PanicLevel   Level = 0
	FatalLevel   Level = -1
	OffLevel     Level = -2
	MinLevel           = OffLevel
	DefaultLevel       = InfoLevel

	timeLayout = "2006-01-02 15:04:05.000"
)

type StdoutCallback interface {
	OnStdout()
}

var (
	lock            sync.Mutex
	zaplogger       *zap.Logger
	outputPaths     = []string{"stderr"}
	currentLevel    = DefaultLevel
	isLogToTerminal bool
	cbStdout        StdoutCallback
)

func init() {
	if o, err := os.Stdout.Stat(); err == nil && (o.Mode()&os.ModeCharDevice) == os.ModeCharDevice {
		isLogToTerminal = true
	}
	if err := buildLogger(outputPaths); err != nil {
		panic(err)
	}
}

// zapLevel maps a Level onto the zap level that writes it. Levels below Debug have no zap equivalent.
func zapLevel(lv Level) zapcore.Level {
	switch {
	case lv >= DebugLevel:
		return zapcore.DebugLevel
	case lv >= NoteLevel:
		return zapcore.InfoLevel
	case lv == WarnLevel:
		return zapcore.WarnLevel
	case lv == ErrorLevel:
		return zapcore.ErrorLevel
	case lv == PanicLevel:
		return zapcore.PanicLevel
	default:
		return zapcore.FatalLevel
	}
}

func buildLogger(outputs []string) error {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.DebugLevel),
		Encoding:         "console",
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:     "time",
			LevelKey:    "level",
			MessageKey:  "message",
			EncodeTime:  zapcore.TimeEncoderOfLayout(timeLayout),
			EncodeLevel: zapcore.LowercaseLevelEncoder,
		},
	}
	newLogger, err := cfg.Build()
	if err != nil {
		return err
	}

	lock.Lock()
	defer lock.Unlock()
	if zaplogger != nil {
		_ = zaplogger.Sync()
	}
	zaplogger = newLogger
	outputPaths = outputs
	return nil
}

// SetLevel sets the log level
func SetLevel(lv Level) {
	currentLevel = lv
}

// GetLevel get the current log level
func GetLevel() Level {
	return currentLevel
}

// SetStdoutCallback sets a callback, that the logger will call when new log content was written to stdout/stderr.
func SetStdoutCallback(cb StdoutCallback) {
	lock.Lock()
	defer lock.Unlock()
	cbStdout = cb
}

// SetOutput sets the output paths, e.g. logger.SetOutput([]string{"stderr", "perlink.log"})
func SetOutput(outputs []string) error {
	return buildLogger(outputs)
}

// Sync flushes buffered log output, e.g. to a log file.
func Sync() {
	lock.Lock()
	defer lock.Unlock()
	_ = zaplogger.Sync()
}

// TraceError prints the stack and error
func TraceError(format string, args ...interface{}) {
	Error(string(debug.Stack()))
	Errorf(format, args...)
}

// getMessage formats a string efficiently with Sprint, Sprintf, or neither.
func getMessage(template string, fmtArgs []interface{}) string {
	if len(fmtArgs) == 0 {
		return template
	}

	if template != "" {
		return fmt.Sprintf(template, fmtArgs...)
	}

	if len(fmtArgs) == 1 {
		if str, ok := fmtArgs[0].(string); ok {
			return str
		}
	}
	return fmt.Sprint(fmtArgs...)
}

// Logf outputs formatted log message at specified level using logger.
func Logf(level Level, format string, args []interface{}) {
	if level > currentLevel {
		return
	}

	lock.Lock()
	l, cb := zaplogger, cbStdout
	lock.Unlock()

	if isLogToTerminal {
		_, _ = fmt.Fprint(os.Stdout, "\033[2K\r") // clear the console line
	}
	l.Log(zapLevel(level), getMessage(format, args))
	if isLogToTerminal && cb != nil {
		cb.OnStdout()
	}
}

func Tracef(format string, args ...interface{}) {
	Logf(TraceLevel, format, args)
}

func Debugf(format string, args ...interface{}) {
	Logf(DebugLevel, format, args)
}

func Infof(format string, args ...interface{}) {
	Logf(InfoLevel, format, args)
}

func Warnf(format string, args ...interface{}) {
	Logf(WarnLevel, format, args)
}

func Errorf(format string, args ...interface{}) {
	Logf(ErrorLevel, format, args)
}

func Panicf(format string, args ...interface{}) {
	Logf(PanicLevel, format, args)
}

func Fatalf(format string, args ...interface{}) {
	Logf(FatalLevel, format, args)
}

func Error(args ...interface{}) {
	Logf(ErrorLevel, "", args)
}

func Panic(args ...interface{}) {
	Logf(PanicLevel, "", args)
}

func Fatal(args ...interface{}) {
	Logf(FatalLevel, "", args)
}

func PanicIfError(err error, args ...interface{}) {
	if err == nil {
		return
	}
	if len(args) == 0 {
		args = []interface{}{err}
	}
	Panic(args...)
}

func FatalIfError(err error, args ...interface{}) {
	if err == nil {
		return
	}
	if len(args) == 0 {
		args = []interface{}{err}
	}
	Fatal(args...)
}

// assertLogger turns a failed assertion into a panic log entry.
type assertLogger struct{}

func (t assertLogger) Errorf(format string, args ...interface{}) {
	Panicf(format, args...)
}

func AssertEqual(expected, actual interface{}, msgAndArgs ...interface{}) bool {
	return assert.Equal(assertLogger{}, expected, actual, msgAndArgs...)
}

func AssertNotNil(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.NotNil(assertLogger{}, object, msgAndArgs...)
}

func AssertTrue(value bool, msgAndArgs ...interface{}) bool {
	return assert.True(assertLogger{}, value, msgAndArgs...)
}

func AssertFalse(value bool, msgAndArgs ...interface{}) bool {
	return assert.False(assertLogger{}, value, msgAndArgs...)
}
