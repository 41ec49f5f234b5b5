package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldierill/board/internal/config"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(nil, t.TempDir(), config.S3Config{})
	require.NoError(t, err)
	return svc
}

func TestNewServiceCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewService(nil, dir, config.S3Config{})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveRejectsBadNames(t *testing.T) {
	svc := newService(t)

	_, err := svc.Resolve("", nil, false, "")
	assert.ErrorIs(t, err, errBadFileName)

	_, err = svc.Resolve(".", nil, false, "")
	assert.ErrorIs(t, err, errBadFileName)
}

func TestSweepOrphansEmptyDir(t *testing.T) {
	svc := newService(t)
	assert.NoError(t, svc.SweepOrphans(context.Background()))
}

func TestSweepOrphansSkipsFreshFiles(t *testing.T) {
	// A file inside the grace window is never checked against the
	// database, so a nil handle proves the skip.
	svc := newService(t)
	path := filepath.Join(svc.dir, "fresh.png")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	assert.NoError(t, svc.SweepOrphans(context.Background()))
	_, err := os.Stat(path)
	assert.NoError(t, err, "fresh file must survive the sweep")
}
