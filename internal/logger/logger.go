package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	logFile     *os.File
	logDir      string
	currentDay  string
	logMu       sync.Mutex
	fileLogging bool
	minLevel    = LevelInfo
	console     io.Writer = os.Stdout
	useColor    = true
)

// ParseLevel maps debug|info|warn|error to a Level. Empty means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unsupported log level %q", s)
}

func SetLevel(l Level) {
	logMu.Lock()
	defer logMu.Unlock()
	minLevel = l
}

// SetOutput redirects console output (without colour) and returns a func
// restoring the previous writer.
func SetOutput(w io.Writer) func() {
	logMu.Lock()
	defer logMu.Unlock()
	prev, prevColor := console, useColor
	console, useColor = w, false
	return func() {
		logMu.Lock()
		defer logMu.Unlock()
		console, useColor = prev, prevColor
	}
}

// Init enables file logging under dataDir/logs, one file per day.
func Init(dataDir string) error {
	if dataDir == "" {
		return nil
	}
	resolved := dataDir
	if path.Base(filepath.ToSlash(dataDir)) != "logs" {
		resolved = filepath.Join(dataDir, "logs")
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return err
	}

	logMu.Lock()
	defer logMu.Unlock()
	logDir = resolved
	fileLogging = true
	if err := rotateLocked(time.Now()); err != nil {
		fileLogging = false
		return err
	}
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	fileLogging = false
}

func Debug(format string, args ...interface{}) {
	log(LevelDebug, format, args...)
}

func Info(format string, args ...interface{}) {
	log(LevelInfo, format, args...)
}

func Warn(format string, args ...interface{}) {
	log(LevelWarn, format, args...)
}

func Error(format string, args ...interface{}) {
	log(LevelError, format, args...)
}

func log(lvl Level, format string, args ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	if lvl < minLevel {
		return
	}

	nowTime := time.Now()
	now := nowTime.Format("2006/01/02 15:04:05")
	msg := fmt.Sprintf(format, args...)
	var label, color string
	switch lvl {
	case LevelDebug:
		color, label = "\033[36m", "[DBUG] "
	case LevelInfo:
		color, label = "\033[32m", "[INFO] "
	case LevelWarn:
		color, label = "\033[33m", "[WARN] "
	case LevelError:
		color, label = "\033[31m", "[EROR] "
	}

	if fileLogging {
		if err := rotateLocked(nowTime); err == nil && logFile != nil {
			_, _ = fmt.Fprintf(logFile, "%s %s%s\n", now, label, msg)
		}
	}

	if useColor {
		fmt.Fprintf(console, "%s %s%s\033[0m%s\n", now, color, label, msg)
		return
	}
	fmt.Fprintf(console, "%s %s%s\n", now, label, msg)
}

func rotateLocked(t time.Time) error {
	if logDir == "" {
		return nil
	}
	day := t.Format("2006-01-02")
	if logFile != nil && currentDay == day {
		return nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	f, err := os.OpenFile(filepath.Join(logDir, day+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	currentDay = day
	return nil
}
