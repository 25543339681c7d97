package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// CreateFileLogger truncates <logDir>/<name>_log.txt and logs into it. An empty logDir
// yields a logger that discards everything.
func CreateFileLogger(setAsDefault bool, logDir string, name string) (*log.Logger, error) {
	if logDir == "" {
		return log.New(io.Discard, "", 0), nil
	}

	fileName := filepath.Join(logDir, fmt.Sprintf("%s_log.txt", name))
	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open/create log file %s: %w", fileName, err)
	}

	if setAsDefault {
		log.SetOutput(f)
		log.SetFlags(log.Ltime | log.Lshortfile)
		return log.Default(), nil
	}
	return log.New(f, name+" ", log.Ltime|log.Lshortfile), nil
}
