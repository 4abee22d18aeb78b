package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const pidFileName = "daemon.pid"

func pidFilePath(dir string) string {
	return filepath.Join(dir, pidFileName)
}

// WritePidFile writes the current process ID into dir.
func WritePidFile(dir string) error {
	return os.WriteFile(pidFilePath(dir), []byte(strconv.Itoa(os.Getpid())), 0600)
}

// ReadPidFile returns the daemon PID recorded in dir.
func ReadPidFile(dir string) (int, error) {
	data, err := os.ReadFile(pidFilePath(dir))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID: %d", pid)
	}
	return pid, nil
}

// RemovePidFile removes the PID file. A missing file is not an error.
func RemovePidFile(dir string) error {
	err := os.Remove(pidFilePath(dir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
