package logrotate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testMaxSize = 64

func writeLog(t *testing.T, path string, size int) []byte {
	t.Helper()

	content := bytes.Repeat([]byte("a"), size)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	return content
}

// TestMissingFileIsNoop does not fail or create anything for an absent log.
func TestMissingFileIsNoop(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stdout.log")

	rotated, err := RotateIfOversize(context.Background(), path, testMaxSize)
	require.NoError(t, err)
	require.False(t, rotated)

	_, err = os.Stat(path + OldSuffix)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestThresholdBoundary keeps a file at exactly the threshold
// and rotates one byte over it.
func TestThresholdBoundary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	// Exactly at the threshold: untouched.
	atLimit := filepath.Join(dir, "at.log")
	writeLog(t, atLimit, testMaxSize)

	rotated, err := RotateIfOversize(ctx, atLimit, testMaxSize)
	require.NoError(t, err)
	require.False(t, rotated)

	_, err = os.Stat(atLimit)
	require.NoError(t, err)

	// One byte over: rotated, active file gone, content preserved in `.old`.
	overLimit := filepath.Join(dir, "over.log")
	content := writeLog(t, overLimit, testMaxSize+1)

	rotated, err = RotateIfOversize(ctx, overLimit, testMaxSize)
	require.NoError(t, err)
	require.True(t, rotated)

	_, err = os.Stat(overLimit)
	require.ErrorIs(t, err, os.ErrNotExist)

	oldContent, err := os.ReadFile(overLimit + OldSuffix)
	require.NoError(t, err)
	require.Equal(t, content, oldContent)
}

// TestSingleGeneration keeps only the most recent rotation's content.
func TestSingleGeneration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "stdout.log")
	ctx := context.Background()

	writeLog(t, path, testMaxSize+1)

	rotated, err := RotateIfOversize(ctx, path, testMaxSize)
	require.NoError(t, err)
	require.True(t, rotated)

	// The log grows again and is rotated a second time.
	second := bytes.Repeat([]byte("b"), testMaxSize+2)
	require.NoError(t, os.WriteFile(path, second, 0o644))

	rotated, err = RotateIfOversize(ctx, path, testMaxSize)
	require.NoError(t, err)
	require.True(t, rotated)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	oldContent, err := os.ReadFile(path + OldSuffix)
	require.NoError(t, err)
	require.Equal(t, second, oldContent)
}
