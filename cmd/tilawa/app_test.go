package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tilawa/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewAppWorksOffline(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
storage:
  path: `+filepath.Join(dir, "tilawa.db")+`
audio:
  cache_dir: `+filepath.Join(dir, "audio")+`
logging:
  file: ""
`)
	ctx := context.Background()

	a, err := NewApp(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Progress.MarkRead(ctx, domain.VerseRef{Key: "1:1", PageNumber: 1}))
	last, ok, err := a.Progress.LastRead(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.VerseKey("1:1"), last.VerseKey)

	count, bytes, err := a.Audio.Usage(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, bytes)

	rows, err := a.Status(ctx)
	require.NoError(t, err)
	for _, r := range rows {
		assert.False(t, r.Populated)
	}

	_, err = a.Content()
	assert.ErrorContains(t, err, "client_id")
}

func TestNewAppConnectsWithCredentials(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
api:
  client_id: id
  client_secret: secret
storage:
  path: `+filepath.Join(dir, "tilawa.db")+`
logging:
  file: ""
`)

	a, err := NewApp(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	q, err := a.Content()
	require.NoError(t, err)
	assert.NotNil(t, q)

	src, err := a.Source()
	require.NoError(t, err)
	assert.NotNil(t, src.Tokens)

	// Connecting is idempotent
	s1, err := a.Search()
	require.NoError(t, err)
	s2, err := a.Search()
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}
