package detector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"
)

// PIDFileDetector detects a running instance through a PID file written at
// launch time. It is the stronger alternative to the command-line scan:
// it cannot produce substring false positives, though a recycled PID with
// a matching executable name can still fool it.
type PIDFileDetector struct {
	// Path is the PID file location.
	Path string
}

// pidFilePermissions restricts the PID file to the owning user.
const pidFilePermissions = 0o644

var errInvalidPIDFile = errors.New("invalid pid file")

// Alive reports whether the recorded process still exists in the process table.
// A missing or empty PID file means no instance is running.
func (d PIDFileDetector) Alive(_ context.Context) (bool, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("read pid file: %w", err)
	}

	// First line is the PID, optional second line is the executable base name.
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || pid <= 0 {
		return false, fmt.Errorf("%s: %w", d.Path, errInvalidPIDFile)
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, fmt.Errorf("query process table: %w", err)
	}

	if process == nil {
		return false, nil
	}

	// Guard against PID reuse when the launch recorded an executable name.
	// Process table names may be truncated (15 chars on Linux), so compare
	// by prefix in either direction.
	if len(lines) > 1 {
		recorded := strings.TrimSpace(lines[1])
		current := process.Executable()

		if recorded != "" && !strings.HasPrefix(recorded, current) && !strings.HasPrefix(current, recorded) {
			return false, nil
		}
	}

	return true, nil
}

// Describe identifies the detection method.
func (d PIDFileDetector) Describe() string {
	return "pidfile:" + d.Path
}

// RecordPID persists the PID and executable name of a freshly launched
// process for later detection. Failures are surfaced so the caller can
// decide whether to warn; the launch itself is already done at that point.
func RecordPID(path string, pid int, executablePath string) error {
	content := fmt.Sprintf("%d\n%s\n", pid, filepath.Base(executablePath))
	if err := os.WriteFile(path, []byte(content), pidFilePermissions); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}

	return nil
}
