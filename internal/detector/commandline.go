package detector

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/oshokin/cursor-launcher/internal/logger"
)

// CommandLineDetector scans the process table for any process whose full
// command line contains the pattern, using `pgrep -f`. This is a heuristic:
// an unrelated process embedding the same string is a false positive, and a
// process that rewrote its argv is a false negative. Both are accepted.
type CommandLineDetector struct {
	// Pattern is the substring to look for, normally the latest pointer path.
	Pattern string
}

// Alive reports whether any process command line contains the pattern.
// A missing pgrep tool or a failed query maps to "not running", never an error.
func (d CommandLineDetector) Alive(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "pgrep", "-f", d.Pattern)

	output, err := cmd.Output()
	if err == nil {
		return strings.TrimSpace(string(output)) != "", nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Non-zero exit means no match.
		return false, nil
	}

	// pgrep unavailable or not executable; treat as not running.
	logger.DebugKV(ctx, "Process table query unavailable", "error", err)

	return false, nil
}

// Describe identifies the detection method.
func (d CommandLineDetector) Describe() string {
	return "pgrep:" + d.Pattern
}
