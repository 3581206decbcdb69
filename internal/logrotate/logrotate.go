package logrotate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/cursor-launcher/internal/logger"
)

// OldSuffix marks the single retained rotation generation.
const OldSuffix = ".old"

// RotateIfOversize renames the file to its `.old` sibling when it exceeds
// maxSize bytes, discarding any previous sibling first. A file at exactly
// maxSize is left alone. Missing files are a no-op.
//
// Rotation is a single rename, not a copy. It runs before the launched
// process opens the log for appending, so no writer holds the file yet.
// The active file is not recreated here; the next launch does that.
func RotateIfOversize(ctx context.Context, path string, maxSize int64) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("stat log file: %w", err)
	}

	if info.Size() <= maxSize {
		return false, nil
	}

	oldPath := path + OldSuffix
	if _, err = os.Stat(oldPath); err == nil {
		if err = os.Remove(oldPath); err != nil {
			return false, fmt.Errorf("discard previous rotation: %w", err)
		}
	}

	if err = os.Rename(path, oldPath); err != nil {
		return false, fmt.Errorf("rotate log file: %w", err)
	}

	logger.InfoKV(ctx, "Rotated log file", "path", path, "size", info.Size())

	return true, nil
}
