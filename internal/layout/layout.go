package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/cursor-launcher/internal/config"
)

// Layout resolves the fixed filesystem locations used by the launcher.
// All paths hang off the configured home directory:
//
//	<home>/.local/bin                 executable images and the latest pointer
//	<home>/.local/logs/<app>          stdout/stderr logs and their rotated siblings
type Layout struct {
	binDir    string
	logDir    string
	appName   string
	extension string
}

const (
	// pointerSuffix names the latest pointer: `<app>.latest`.
	pointerSuffix = ".latest"

	// logDirPermissions is used when creating the log directory tree.
	logDirPermissions = 0o755

	stdoutLogName = "stdout.log"
	stderrLogName = "stderr.log"
	pidFileName   = "launcher.pid"
)

// New builds a Layout from validated configuration.
func New(cfg *config.Config) *Layout {
	return &Layout{
		binDir:    filepath.Join(cfg.HomeDir, ".local", "bin"),
		logDir:    filepath.Join(cfg.HomeDir, ".local", "logs", cfg.AppName),
		appName:   cfg.AppName,
		extension: cfg.ImageExtension,
	}
}

// BinDir returns the directory holding executable images and the latest pointer.
func (l *Layout) BinDir() string {
	return l.binDir
}

// LogDir returns the directory holding the launched process's log files.
func (l *Layout) LogDir() string {
	return l.logDir
}

// StdoutLog returns the path of the standard output log file.
func (l *Layout) StdoutLog() string {
	return filepath.Join(l.logDir, stdoutLogName)
}

// StderrLog returns the path of the standard error log file.
func (l *Layout) StderrLog() string {
	return filepath.Join(l.logDir, stderrLogName)
}

// PIDFile returns the path used by the PID-file instance detector.
func (l *Layout) PIDFile() string {
	return filepath.Join(l.logDir, pidFileName)
}

// PointerPath returns the path of the latest pointer (`<app>.latest`).
func (l *Layout) PointerPath() string {
	return filepath.Join(l.binDir, l.appName+pointerSuffix)
}

// ImagePattern returns the glob matching executable images (`<app>-*.<ext>`).
func (l *Layout) ImagePattern() string {
	return filepath.Join(l.binDir, l.appName+"-*."+l.extension)
}

// ImageName composes an image file name from a version discriminator.
func (l *Layout) ImageName(discriminator string) string {
	return fmt.Sprintf("%s-%s.%s", l.appName, discriminator, l.extension)
}

// Images enumerates executable image paths in the binary directory.
// An empty slice (not an error) is returned when none exist.
func (l *Layout) Images() ([]string, error) {
	matches, err := filepath.Glob(l.ImagePattern())
	if err != nil {
		return nil, fmt.Errorf("enumerate images: %w", err)
	}

	return matches, nil
}

// EnsureLogDir creates the log directory tree if it does not exist yet.
func (l *Layout) EnsureLogDir() error {
	if err := os.MkdirAll(l.logDir, logDirPermissions); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	return nil
}

// EnsureBinDir creates the binary directory tree if it does not exist yet.
func (l *Layout) EnsureBinDir() error {
	if err := os.MkdirAll(l.binDir, logDirPermissions); err != nil {
		return fmt.Errorf("create binary directory: %w", err)
	}

	return nil
}
