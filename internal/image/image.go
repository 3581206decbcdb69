package image

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/oshokin/cursor-launcher/internal/layout"
	"github.com/oshokin/cursor-launcher/internal/logger"
)

// Image is one installed executable image, discovered by naming convention.
// Images are never mutated; installation creates new ones.
type Image struct {
	// Path is the absolute location of the image file.
	Path string
	// ModTime is the file's last-modified timestamp, used for version selection.
	ModTime time.Time
}

// Selector discovers executable images and keeps the latest pointer aimed
// at the newest one.
type Selector struct {
	layout *layout.Layout
}

// ErrNoImages is returned when no executable image exists in the binary directory.
var ErrNoImages = errors.New("no executable images found")

// NewSelector builds a Selector over the provided layout.
func NewSelector(l *layout.Layout) *Selector {
	return &Selector{layout: l}
}

// Discover enumerates installed images with their modification timestamps.
func (s *Selector) Discover() ([]Image, error) {
	paths, err := s.layout.Images()
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(paths))

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			// The file vanished between glob and stat; skip it.
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("stat image: %w", err)
		}

		images = append(images, Image{Path: path, ModTime: info.ModTime()})
	}

	return images, nil
}

// SelectLatest picks the image with the maximum modification timestamp.
// Ties are broken by lexicographic path order (the greatest path wins),
// so selection is deterministic regardless of enumeration order.
func SelectLatest(images []Image) (Image, error) {
	if len(images) == 0 {
		return Image{}, ErrNoImages
	}

	sorted := make([]Image, len(images))
	copy(sorted, images)

	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ModTime.Equal(sorted[j].ModTime) {
			return sorted[i].ModTime.Before(sorted[j].ModTime)
		}

		return sorted[i].Path < sorted[j].Path
	})

	return sorted[len(sorted)-1], nil
}

// EnsurePointer aims the latest pointer at the newest installed image.
// It reports the selected image and whether the pointer was (re)created.
// ErrNoImages is returned when the binary directory holds no images.
//
// Replacement goes through a temporary symlink renamed over the old one,
// so an existing pointer is never left missing halfway through.
func (s *Selector) EnsurePointer(ctx context.Context) (Image, bool, error) {
	images, err := s.Discover()
	if err != nil {
		return Image{}, false, err
	}

	latest, err := SelectLatest(images)
	if err != nil {
		return Image{}, false, err
	}

	pointerPath := s.layout.PointerPath()

	// Up to date already: pointer is a symlink aimed at the selected image.
	if target, err := os.Readlink(pointerPath); err == nil && target == latest.Path {
		logger.DebugKV(ctx, "Latest pointer is current", "pointer", pointerPath, "target", target)
		return latest, false, nil
	}

	temporaryPointer := pointerPath + ".tmp"

	// A leftover from an interrupted run may be in the way.
	_ = os.Remove(temporaryPointer)

	if err = os.Symlink(latest.Path, temporaryPointer); err != nil {
		return Image{}, false, fmt.Errorf("create pointer: %w", err)
	}

	if err = os.Rename(temporaryPointer, pointerPath); err != nil {
		_ = os.Remove(temporaryPointer)

		return Image{}, false, fmt.Errorf("replace pointer: %w", err)
	}

	logger.InfoKV(ctx, "Updated latest pointer", "pointer", pointerPath, "target", latest.Path)

	return latest, true, nil
}
