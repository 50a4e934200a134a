package codebuddy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oneChallenge = `
challenges:
  - id: 1
    slug: loop-error
    title: loop_error.py
    difficulty: Easy
`

const twoChallenges = oneChallenge + `
  - id: 2
    slug: memory-leak
    title: memory_leak.py
    difficulty: Hard
`

func TestWatchCatalogReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneChallenge), 0o644))

	a := New(SiteConfig{
		SessionSecret:        "secret",
		DatabasePath:         filepath.Join(dir, "app.db"),
		ProgressDatabasePath: filepath.Join(dir, "progress.db"),
		CatalogPath:          path,
	}, stubViews())
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(func() { a.Close() })

	count := func() int {
		c, err := a.Catalog.Get(context.Background())
		if err != nil {
			return -1
		}
		return len(c.Challenges)
	}
	require.Equal(t, 1, count())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.WatchCatalog(ctx) }()
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(twoChallenges), 0o644))
	assert.Eventually(t, func() bool { return count() == 2 }, 5*time.Second, 50*time.Millisecond)

	// A broken file keeps the last good catalog.
	require.NoError(t, os.WriteFile(path, []byte("challenges: [oops"), 0o644))
	time.Sleep(3 * catalogDebounce)
	assert.Equal(t, 2, count())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchCatalogNeedsPath(t *testing.T) {
	a := New(SiteConfig{SessionSecret: "secret"}, stubViews())
	assert.Error(t, a.WatchCatalog(context.Background()))
}
