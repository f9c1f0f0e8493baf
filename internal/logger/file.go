package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap/zapcore"
)

const (
	// fileLogMaxAge is how long rotated log files are kept.
	fileLogMaxAge = 7 * 24 * time.Hour
	// fileLogRotationTime is how often a new log file is started.
	fileLogRotationTime = 24 * time.Hour
	// fileLogSuffix is the strftime pattern appended to the configured path.
	fileLogSuffix = ".%Y-%m-%d"
)

// AttachFile makes the global logger write to stdout and to a daily rotated
// file derived from path ("alarm-server.log" becomes "alarm-server.log.2025-01-07").
// The returned closer flushes and closes the file.
func AttachFile(path string) (io.Closer, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty: %w", os.ErrInvalid)
	}

	path = filepath.Clean(path)

	rotating, err := rotatelogs.New(
		path+fileLogSuffix,
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge(fileLogMaxAge),
		rotatelogs.WithRotationTime(fileLogRotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("open rotating log %s: %w", path, err)
	}

	SetLogger(NewWithSyncers(defaultLevel, []zapcore.WriteSyncer{
		zapcore.AddSync(os.Stdout),
		zapcore.AddSync(rotating),
	}))

	return rotating, nil
}
