package main

import (
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logFilePrefix   = "gbm_bridge"
	logMaxAge       = 7 * 24 * time.Hour
	logRotationTime = 24 * time.Hour
)

//initLogger installs the global logger: console output on stderr and, when logPath is set,
//JSON records in daily rotated files under logPath.
func initLogger(verbose bool, logPath string) error {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.Lock(os.Stderr), level),
	}

	if logPath != "" {
		if err := os.MkdirAll(logPath, 0o755); err != nil {
			return errors.Wrapf(err, "creating log directory %s", logPath)
		}
		base := filepath.Join(logPath, logFilePrefix)
		writer, err := rotatelogs.New(
			base+"_%Y-%m-%d.log",
			rotatelogs.WithLinkName(base+"_last.log"),
			rotatelogs.WithMaxAge(logMaxAge),
			rotatelogs.WithRotationTime(logRotationTime),
		)
		if err != nil {
			return errors.Wrap(err, "opening rotated log")
		}
		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(writer), zapcore.DebugLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
	return nil
}
