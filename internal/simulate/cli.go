package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/skins/pkg/logger"
)

// SetupLogging initializes the global logger to stderr and, when logFile is
// set, to that file as well.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = f
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, err
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
