package logger

import (
	"FlowTagger/internal/config"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/op/go-logging"
)

const (
	LOG_ROTATION_INTERVAL = 24 * time.Hour
	LOG_FORMAT            = "%{time:2006-01-02 15:04:05.000} [%{level:.4s}] %{module} %{shortfile} %{message}"
	LOG_COLOR_FORMAT      = "%{color}%{time:2006-01-02 15:04:05.000} [%{level:.4s}]%{color:reset} %{module} %{message}"
)

// MustGetLogger returns the logger for a package, named under the application prefix.
func MustGetLogger(module string) *logging.Logger {
	return logging.MustGetLogger("flowtagger." + module)
}

// InitConsoleLog sends everything at level and above to stderr.
func InitConsoleLog(levelString string) error {
	level, err := logging.LogLevel(levelString)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", levelString, err)
	}
	logging.SetBackend(consoleBackend(os.Stderr, level))
	return nil
}

// InitLog configures console logging and, when cfg.File is set, a rotating
// log file that is rotated by size and keeps cfg.RotationCount old files.
func InitLog(cfg config.LogConfig) error {
	level, err := logging.LogLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
	}

	stderr := consoleBackend(os.Stderr, level)
	if cfg.File == "" {
		logging.SetBackend(stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	options := []rotatelogs.Option{
		rotatelogs.WithLinkName(cfg.File),
		rotatelogs.WithRotationTime(LOG_ROTATION_INTERVAL),
	}
	if cfg.MaxSizeBytes > 0 {
		options = append(options, rotatelogs.WithRotationSize(cfg.MaxSizeBytes))
	}
	if cfg.RotationCount > 0 {
		options = append(options, rotatelogs.WithMaxAge(-1), rotatelogs.WithRotationCount(cfg.RotationCount))
	}
	ioWriter, err := rotatelogs.New(cfg.File+".%Y-%m-%d", options...)
	if err != nil {
		return fmt.Errorf("failed to open rotating log '%s': %w", cfg.File, err)
	}

	file := logging.AddModuleLevel(
		logging.NewBackendFormatter(
			logging.NewLogBackend(ioWriter, "", 0),
			logging.MustStringFormatter(LOG_FORMAT),
		),
	)
	file.SetLevel(level, "")
	logging.SetBackend(stderr, file)
	return nil
}

func consoleBackend(w io.Writer, level logging.Level) logging.LeveledBackend {
	backend := logging.AddModuleLevel(
		logging.NewBackendFormatter(
			logging.NewLogBackend(w, "", 0),
			logging.MustStringFormatter(LOG_COLOR_FORMAT),
		),
	)
	backend.SetLevel(level, "")
	return backend
}
