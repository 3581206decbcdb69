package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/cursor-launcher/internal/image"
	"github.com/oshokin/cursor-launcher/internal/layout"
	"github.com/oshokin/cursor-launcher/internal/logger"
)

// Installer downloads the latest executable image and materializes it as a
// new version candidate in the binary directory.
//
// Failures never leave partial state behind: the download is staged in a
// private temporary directory that is removed on any error, and the final
// image is applied from fully buffered bytes in one atomic step.
type Installer struct {
	layout      *layout.Layout
	selector    *image.Selector
	downloadURL string
	timeout     time.Duration
}

const (
	// ImageFileMode marks installed images executable.
	ImageFileMode os.FileMode = 0o755

	// stagedFileName is the name of the in-progress download inside the scratch directory.
	stagedFileName = "download.partial"

	// timestampLayout produces the version discriminator of a freshly installed image.
	timestampLayout = "20060102-150405"
)

var errBadHTTPStatus = errors.New("unexpected http status")

// New builds an Installer.
func New(l *layout.Layout, s *image.Selector, downloadURL string, timeout time.Duration) *Installer {
	return &Installer{
		layout:      l,
		selector:    s,
		downloadURL: downloadURL,
		timeout:     timeout,
	}
}

// Install fetches the latest build, stages it, materializes it as a new
// executable image named by the current timestamp, and re-aims the latest
// pointer at it. The installed image is returned.
func (i *Installer) Install(ctx context.Context) (image.Image, error) {
	if err := i.layout.EnsureBinDir(); err != nil {
		return image.Image{}, err
	}

	staged, cleanup, err := i.download(ctx)
	defer cleanup()

	if err != nil {
		return image.Image{}, err
	}

	installed, err := i.materialize(ctx, staged)
	if err != nil {
		return image.Image{}, err
	}

	if _, _, err = i.selector.EnsurePointer(ctx); err != nil {
		return image.Image{}, err
	}

	return installed, nil
}

// download streams the remote image into a private scratch directory.
// The returned cleanup removes the scratch directory and is safe to call
// on every path, including after a successful materialization.
func (i *Installer) download(ctx context.Context) (string, func(), error) {
	scratchDir, err := os.MkdirTemp("", "cursor-launcher-")
	if err != nil {
		return "", func() {}, fmt.Errorf("create scratch directory: %w", err)
	}

	cleanup := func() { _ = os.RemoveAll(scratchDir) }

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, i.downloadURL, http.NoBody)
	if err != nil {
		return "", cleanup, fmt.Errorf("build download request: %w", err)
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return "", cleanup, fmt.Errorf("download image: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", cleanup, fmt.Errorf("%s, %s: %w", i.downloadURL, response.Status, errBadHTTPStatus)
	}

	logger.InfoKV(ctx, "Downloading image",
		"url", i.downloadURL, "content_length", response.ContentLength)

	stagedPath := filepath.Join(scratchDir, stagedFileName)

	stagedFile, err := os.OpenFile(stagedPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, ImageFileMode)
	if err != nil {
		return "", cleanup, fmt.Errorf("create staged file: %w", err)
	}

	reader := &progressReader{
		ctx:    ctx,
		reader: response.Body,
		total:  response.ContentLength,
	}

	if _, err = io.Copy(stagedFile, reader); err != nil {
		_ = stagedFile.Close()

		return "", cleanup, fmt.Errorf("download image: %w", err)
	}

	if err = stagedFile.Close(); err != nil {
		return "", cleanup, fmt.Errorf("finish staged file: %w", err)
	}

	return stagedPath, cleanup, nil
}

// materialize turns the staged download into a new executable image.
// The bytes are fully buffered first, so the apply step cannot fail
// midway and leave a partial file in the binary directory.
func (i *Installer) materialize(ctx context.Context, stagedPath string) (image.Image, error) {
	data, err := os.ReadFile(stagedPath)
	if err != nil {
		return image.Image{}, fmt.Errorf("read staged file: %w", err)
	}

	discriminator := fmt.Sprintf("%s-%09d", time.Now().UTC().Format(timestampLayout), time.Now().Nanosecond())
	imagePath := filepath.Join(i.layout.BinDir(), i.layout.ImageName(discriminator))

	// The apply step renames the existing target aside, so the brand-new
	// image path needs an (empty) file to stand in for it.
	placeholder, err := os.Create(imagePath)
	if err != nil {
		return image.Image{}, fmt.Errorf("create image file: %w", err)
	}

	if err = placeholder.Close(); err != nil {
		return image.Image{}, fmt.Errorf("create image file: %w", err)
	}

	options := goupdate.Options{
		TargetPath: imagePath,
		TargetMode: ImageFileMode,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		_ = os.Remove(imagePath)

		return image.Image{}, fmt.Errorf("install image: %w", err)
	}

	// Drop the backup of the placeholder left by the apply step.
	_ = os.Remove(imagePath + ".old")

	info, err := os.Stat(imagePath)
	if err != nil {
		return image.Image{}, fmt.Errorf("stat installed image: %w", err)
	}

	logger.InfoKV(ctx, "Installed new image", "path", imagePath, "size", info.Size())

	return image.Image{Path: imagePath, ModTime: info.ModTime()}, nil
}
