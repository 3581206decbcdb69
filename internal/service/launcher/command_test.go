package launcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/cursor-launcher/internal/config"
	"github.com/oshokin/cursor-launcher/internal/image"
	"github.com/oshokin/cursor-launcher/internal/layout"
)

type fakeDetector struct {
	alive bool
	err   error
}

func (d fakeDetector) Alive(_ context.Context) (bool, error) { return d.alive, d.err }
func (d fakeDetector) Describe() string                      { return "fake" }

type fakeInstaller struct {
	install func(ctx context.Context) (image.Image, error)
	calls   int
}

func (f *fakeInstaller) Install(ctx context.Context) (image.Image, error) {
	f.calls++

	if f.install == nil {
		return image.Image{}, nil
	}

	return f.install(ctx)
}

type fakeHandle struct {
	pid    int
	exited bool
}

func (h fakeHandle) PID() int                          { return h.pid }
func (h fakeHandle) ExitedWithin(_ time.Duration) bool { return h.exited }

type spawnCall struct {
	path string
	args []string
}

func newTestRunner(t *testing.T) (*runner, *[]spawnCall) {
	t.Helper()

	cfg := &config.Config{
		HomeDir:           t.TempDir(),
		AppName:           "editor",
		ImageExtension:    "img",
		StartupProbeDelay: time.Millisecond,
	}
	require.NoError(t, config.Validate(cfg))

	l := layout.New(cfg)
	require.NoError(t, l.EnsureLogDir())
	require.NoError(t, l.EnsureBinDir())

	calls := new([]spawnCall)

	r := &runner{
		cfg:       cfg,
		layout:    l,
		selector:  image.NewSelector(l),
		installer: &fakeInstaller{},
		detector:  fakeDetector{},
		spawn: func(path string, args []string, _, _ string) (processHandle, error) {
			*calls = append(*calls, spawnCall{path: path, args: args})
			return fakeHandle{pid: 4242}, nil
		},
	}

	return r, calls
}

func installImage(t *testing.T, l *layout.Layout, name string) string {
	t.Helper()

	path := filepath.Join(l.BinDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0o755))

	return path
}

// TestRunLaunchesThroughPointer covers the happy path: pointer created,
// process spawned through it with pass-through args.
func TestRunLaunchesThroughPointer(t *testing.T) {
	t.Parallel()

	r, calls := newTestRunner(t)
	installImage(t, r.layout, "editor-1.img")

	err := r.run(context.Background(), &Options{Args: []string{"--foo", "bar"}})
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	require.Equal(t, r.layout.PointerPath(), (*calls)[0].path)
	require.Equal(t, []string{"--foo", "bar"}, (*calls)[0].args)

	// The launch recorded a PID file for the pidfile detector variant.
	content, err := os.ReadFile(r.layout.PIDFile())
	require.NoError(t, err)
	require.Contains(t, string(content), "4242")
}

// TestRunAlreadyRunningShortCircuit never spawns when an instance is detected.
func TestRunAlreadyRunningShortCircuit(t *testing.T) {
	t.Parallel()

	r, calls := newTestRunner(t)
	installImage(t, r.layout, "editor-1.img")
	r.detector = fakeDetector{alive: true}

	// An oversize log proves rotation is skipped on the short-circuit path.
	oversize := bytes.Repeat([]byte("x"), int(r.cfg.MaxLogSize)+1)
	require.NoError(t, os.WriteFile(r.layout.StdoutLog(), oversize, 0o644))

	err := r.run(context.Background(), &Options{Args: []string{"--flag"}})
	require.NoError(t, err)
	require.Empty(t, *calls)

	_, err = os.Stat(r.layout.StdoutLog() + ".old")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRunNoImagesInstallDisabled fails with an instructive error
// and creates no pointer.
func TestRunNoImagesInstallDisabled(t *testing.T) {
	t.Parallel()

	r, calls := newTestRunner(t)

	err := r.run(context.Background(), &Options{AutoInstall: false})
	require.ErrorIs(t, err, errNoImagesInstallDisabled)
	require.Empty(t, *calls)

	_, err = os.Lstat(r.layout.PointerPath())
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRunAutoInstall installs on demand, then launches through the fresh pointer.
func TestRunAutoInstall(t *testing.T) {
	t.Parallel()

	r, calls := newTestRunner(t)

	inst := &fakeInstaller{
		install: func(_ context.Context) (image.Image, error) {
			path := installImage(t, r.layout, "editor-1.img")
			return image.Image{Path: path, ModTime: time.Now()}, nil
		},
	}
	r.installer = inst

	err := r.run(context.Background(), &Options{AutoInstall: true})
	require.NoError(t, err)
	require.Equal(t, 1, inst.calls)
	require.Len(t, *calls, 1)

	target, err := os.Readlink(r.layout.PointerPath())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(r.layout.BinDir(), "editor-1.img"), target)
}

// TestRunAutoInstallProducesNothing distinguishes a vacuous install
// from a successful one.
func TestRunAutoInstallProducesNothing(t *testing.T) {
	t.Parallel()

	r, calls := newTestRunner(t)

	err := r.run(context.Background(), &Options{AutoInstall: true})
	require.ErrorIs(t, err, errInstallationProducedNothing)
	require.Empty(t, *calls)
}

// TestRunAutoInstallFailure propagates the installer's error.
func TestRunAutoInstallFailure(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	r.installer = &fakeInstaller{
		install: func(_ context.Context) (image.Image, error) {
			return image.Image{}, errors.New("network is down")
		},
	}

	err := r.run(context.Background(), &Options{AutoInstall: true})
	require.ErrorContains(t, err, "network is down")
}

// TestRunStartupProbeFailure maps a fast exit to ErrStartupProbeFailed.
func TestRunStartupProbeFailure(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	installImage(t, r.layout, "editor-1.img")
	r.spawn = func(_ string, _ []string, _, _ string) (processHandle, error) {
		return fakeHandle{pid: 4242, exited: true}, nil
	}

	err := r.run(context.Background(), &Options{})
	require.ErrorIs(t, err, ErrStartupProbeFailed)
}

// TestRunSpawnFailure surfaces the spawn error without panicking.
func TestRunSpawnFailure(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	installImage(t, r.layout, "editor-1.img")
	r.spawn = func(_ string, _ []string, _, _ string) (processHandle, error) {
		return nil, errors.New("permission denied")
	}

	err := r.run(context.Background(), &Options{})
	require.ErrorContains(t, err, "permission denied")
}

// TestRunRotatesOversizeLogs rotates before the spawn so the child starts
// on a fresh log file.
func TestRunRotatesOversizeLogs(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	installImage(t, r.layout, "editor-1.img")

	oversize := bytes.Repeat([]byte("x"), int(r.cfg.MaxLogSize)+1)
	require.NoError(t, os.WriteFile(r.layout.StdoutLog(), oversize, 0o644))

	err := r.run(context.Background(), &Options{})
	require.NoError(t, err)

	rotated, err := os.ReadFile(r.layout.StdoutLog() + ".old")
	require.NoError(t, err)
	require.Equal(t, oversize, rotated)

	_, err = os.Stat(r.layout.StdoutLog())
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRunDetectorErrorDoesNotBlockLaunch treats a broken detector as "not running".
func TestRunDetectorErrorDoesNotBlockLaunch(t *testing.T) {
	t.Parallel()

	r, calls := newTestRunner(t)
	installImage(t, r.layout, "editor-1.img")
	r.detector = fakeDetector{err: errors.New("process table unavailable")}

	err := r.run(context.Background(), &Options{})
	require.NoError(t, err)
	require.Len(t, *calls, 1)
}

// TestRunFromSettingsFile exercises the public entry point end to end
// for the no-images, no-auto-install path.
func TestRunFromSettingsFile(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	cfg := &config.Config{HomeDir: home, AppName: "editor", ImageExtension: "img"}
	require.NoError(t, config.Validate(cfg))

	configPath := filepath.Join(home, "settings.yaml")
	require.NoError(t, config.Save(configPath, cfg))

	err := Run(context.Background(), &Options{ConfigPath: configPath, AutoInstall: false})
	require.ErrorIs(t, err, errNoImagesInstallDisabled)

	// The log directory was created at startup even on the failure path.
	info, statErr := os.Stat(filepath.Join(home, ".local", "logs", "editor"))
	require.NoError(t, statErr)
	require.True(t, info.IsDir())
}
