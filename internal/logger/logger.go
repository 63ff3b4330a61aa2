package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logDir      = "log"
	logFilename = "tuichain.log"
)

// Logger is the process-wide logger. Components receive a child of it.
var Logger = zerolog.New(io.Discard)

// Init configures Logger to write to the console at the named level
// ("debug", "info", ...). Unknown names fall back to info.
func Init(level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	Logger = zerolog.New(consoleWriter()).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	if lvl <= zerolog.DebugLevel {
		Logger = Logger.With().Caller().Logger()
	}
}

// AddFileLogger tees Logger into a rotated file under workdir/log.
func AddFileLogger(workdir string) (string, error) {
	dir := filepath.Join(workdir, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, logFilename)
	fileLogger := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxAge:     7,
		MaxBackups: 3,
	}
	Logger = Logger.Output(zerolog.MultiLevelWriter(consoleWriter(), fileLogger))
	return path, nil
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
}
