package launcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/cursor-launcher/internal/config"
	"github.com/oshokin/cursor-launcher/internal/detector"
	"github.com/oshokin/cursor-launcher/internal/image"
	"github.com/oshokin/cursor-launcher/internal/installer"
	"github.com/oshokin/cursor-launcher/internal/layout"
	"github.com/oshokin/cursor-launcher/internal/logger"
	"github.com/oshokin/cursor-launcher/internal/logrotate"
	"github.com/oshokin/cursor-launcher/internal/spawn"
)

// Options are inputs accepted by the launcher entry points.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Args are passed through to the target application verbatim.
	Args []string
	// AutoInstall permits an implicit installation when no image exists yet.
	AutoInstall bool
}

var (
	// ErrStartupProbeFailed is returned when the spawned process exits before
	// the liveness probe elapses. The application may be legitimately
	// fast-exiting; callers should point users at the logs rather than
	// treat this as a hard fault.
	ErrStartupProbeFailed = errors.New("application may have failed to start, check the logs for details")

	// errNoImagesInstallDisabled tells the user to install explicitly.
	errNoImagesInstallDisabled = errors.New("no executable images installed, run with --install first")

	// errInstallationProducedNothing indicates the auto-install completed
	// without yielding a usable image.
	errInstallationProducedNothing = errors.New("installation failed to produce an executable image")
)

// imageInstaller fetches and materializes a new executable image.
type imageInstaller interface {
	Install(ctx context.Context) (image.Image, error)
}

// processHandle is what the orchestrator needs from a spawned process.
type processHandle interface {
	PID() int
	ExitedWithin(delay time.Duration) bool
}

// spawnFunc launches the target detached with redirected output streams.
type spawnFunc func(path string, args []string, stdoutPath, stderrPath string) (processHandle, error)

// runner composes the launcher components for a single invocation.
// It is intentionally unexported—call Run or Install from callers.
type runner struct {
	cfg       *config.Config
	layout    *layout.Layout
	selector  *image.Selector
	installer imageInstaller
	detector  detector.Detector
	spawn     spawnFunc
}

// Run executes the end-to-end launch flow: ensure the latest pointer,
// short-circuit when an instance is already running, rotate logs, spawn
// the application detached and probe its liveness.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cursor-launcher")

	r, err := newRunner(opts.ConfigPath)
	if err != nil {
		return err
	}

	return r.run(ctx, opts)
}

// Install fetches and installs the latest build without launching it.
// Used by the explicit --install command.
func Install(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cursor-launcher")

	r, err := newRunner(opts.ConfigPath)
	if err != nil {
		return err
	}

	installed, err := r.installer.Install(ctx)
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}

	logger.InfoKV(ctx, "Installation complete", "image", installed.Path)

	return nil
}

// newRunner loads configuration and wires the default component set.
// The log directory is created here; failure to do so is fatal.
func newRunner(configPath string) (*runner, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	l := layout.New(cfg)
	if err = l.EnsureLogDir(); err != nil {
		return nil, err
	}

	selector := image.NewSelector(l)

	r := &runner{
		cfg:       cfg,
		layout:    l,
		selector:  selector,
		installer: installer.New(l, selector, cfg.DownloadURL, cfg.DownloadTimeout),
		spawn: func(path string, args []string, stdoutPath, stderrPath string) (processHandle, error) {
			return spawn.Detached(path, args, stdoutPath, stderrPath)
		},
	}

	switch cfg.InstanceCheck {
	case config.InstanceCheckPIDFile:
		r.detector = detector.PIDFileDetector{Path: l.PIDFile()}
	default:
		r.detector = detector.CommandLineDetector{Pattern: l.PointerPath()}
	}

	return r, nil
}

func (r *runner) run(ctx context.Context, opts *Options) error {
	if err := r.ensureLatestPointer(ctx, opts.AutoInstall); err != nil {
		return err
	}

	running, err := r.detector.Alive(ctx)
	if err != nil {
		// Detection is best-effort; a broken detector must not block the launch.
		logger.WarnKV(ctx, "Instance detection failed, assuming not running",
			"detector", r.detector.Describe(), "error", err)
	}

	if running {
		logger.Info(ctx, "Application is already running, nothing to do")
		return nil
	}

	r.rotateLogs(ctx)

	return r.launch(ctx, opts.Args)
}

// ensureLatestPointer guarantees the pointer resolves to the newest image,
// installing one first when permitted and none exists.
func (r *runner) ensureLatestPointer(ctx context.Context, autoInstall bool) error {
	_, _, err := r.selector.EnsurePointer(ctx)
	if err == nil {
		return nil
	}

	if !errors.Is(err, image.ErrNoImages) {
		return fmt.Errorf("update latest pointer: %w", err)
	}

	if !autoInstall {
		return errNoImagesInstallDisabled
	}

	logger.Info(ctx, "No executable images found, installing the latest build")

	if _, err = r.installer.Install(ctx); err != nil {
		return fmt.Errorf("install: %w", err)
	}

	if _, _, err = r.selector.EnsurePointer(ctx); err != nil {
		if errors.Is(err, image.ErrNoImages) {
			return errInstallationProducedNothing
		}

		return fmt.Errorf("update latest pointer: %w", err)
	}

	return nil
}

// rotateLogs caps both log files. Rotation is best-effort and must not
// block the launch, so failures are only warned about.
func (r *runner) rotateLogs(ctx context.Context) {
	for _, path := range []string{r.layout.StdoutLog(), r.layout.StderrLog()} {
		if _, err := logrotate.RotateIfOversize(ctx, path, r.cfg.MaxLogSize); err != nil {
			logger.WarnKV(ctx, "Log rotation failed", "path", path, "error", err)
		}
	}
}

// launch spawns the application through the latest pointer and probes
// that it did not exit immediately.
func (r *runner) launch(ctx context.Context, args []string) error {
	pointerPath := r.layout.PointerPath()

	handle, err := r.spawn(pointerPath, args, r.layout.StdoutLog(), r.layout.StderrLog())
	if err != nil {
		return fmt.Errorf("start application: %w", err)
	}

	logger.InfoKV(ctx, "Application started",
		"pid", handle.PID(),
		"stdout_log", r.layout.StdoutLog(),
		"stderr_log", r.layout.StderrLog())

	if err = detector.RecordPID(r.layout.PIDFile(), handle.PID(), pointerPath); err != nil {
		logger.WarnKV(ctx, "Could not record PID", "error", err)
	}

	if handle.ExitedWithin(r.cfg.StartupProbeDelay) {
		logger.WarnKV(ctx, "Application exited during the startup probe",
			"pid", handle.PID(), "probe_delay", r.cfg.StartupProbeDelay.String())

		return ErrStartupProbeFailed
	}

	logger.Info(ctx, "Application is running in the background")

	return nil
}
