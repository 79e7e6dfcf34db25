package deploy

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// deployLogger writes simultaneously to the application's structured
// logger and a per-function log file on disk. There is no database
// status to flip on failure: Deploy is synchronous, so the caller
// observes failure directly as a returned error and never needs to
// poll a status column.
type deployLogger struct {
	logger *slog.Logger
	key    string
	file   *os.File // nil if the log file could not be opened
}

// openDeployLogger opens (or creates) the log file for a function key
// in append mode, so redeploys add to the existing log rather than
// overwriting it. A failure to open the file is non-fatal: logging
// falls back to the structured logger alone.
func (pipeline *Pipeline) openDeployLogger(key string) *deployLogger {
	dl := &deployLogger{logger: pipeline.logger, key: key}

	if pipeline.logRoot == "" {
		return dl
	}
	if err := os.MkdirAll(pipeline.logRoot, 0o755); err != nil {
		pipeline.logger.Warn("failed to create deploy log directory", "error", err)
		return dl
	}

	logPath := filepath.Join(pipeline.logRoot, key+".log")
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		pipeline.logger.Warn("failed to open deploy log file", "key", key, "error", err)
		return dl
	}
	dl.file = file
	return dl
}

func (dl *deployLogger) info(message string, args ...any) {
	dl.logger.Info(message, append([]any{"key", dl.key}, args...)...)
	dl.writeLine("INFO", message)
}

func (dl *deployLogger) failure(message string, err error) {
	dl.logger.Error(message, "key", dl.key, "error", err)
	dl.writeLine("FAIL", fmt.Sprintf("%s: %v", message, err))
}

func (dl *deployLogger) writeLine(level, message string) {
	if dl.file == nil {
		return
	}
	line := fmt.Sprintf("[%s] %s: %s\n", time.Now().UTC().Format(time.RFC3339), level, message)
	dl.file.WriteString(line)
}

func (dl *deployLogger) close() {
	if dl.file != nil {
		dl.file.Close()
	}
}
