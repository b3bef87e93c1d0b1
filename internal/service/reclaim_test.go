package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/pageza/recipebook/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestReclaimRemovesUnreferencedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	r := NewReclaimer(dir, nil, logger.NewNop())

	report := r.Reclaim(context.Background(), map[string]struct{}{"B": {}})

	assert.NoError(t, report.Err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Removed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, []string{"B"}, listDir(t, dir))
}

func TestReclaimSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.jpg"), []byte("x"), 0o644))
	r := NewReclaimer(dir, nil, logger.NewNop())

	report := r.Reclaim(context.Background(), nil)

	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, []string{"nested"}, listDir(t, dir))
}

func TestReclaimMissingDirectoryAborts(t *testing.T) {
	r := NewReclaimer(filepath.Join(t.TempDir(), "missing"), nil, logger.NewNop())

	report := r.Reclaim(context.Background(), nil)

	assert.Error(t, report.Err)
	assert.Zero(t, report.Scanned)
}

func TestReclaimerRunUsesRecipeReferences(t *testing.T) {
	dir := t.TempDir()
	recipes, _ := newTestRecipeService(t, &mockPhotoRemover{})
	ctx := context.Background()

	_, err := recipes.CreateRecipe(ctx, salmonFields(), strPtr("kept.jpg"))
	require.NoError(t, err)
	for _, name := range []string{"kept.jpg", "orphan.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}

	report := NewReclaimer(dir, recipes, logger.NewNop()).Run(ctx)

	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, []string{"kept.jpg"}, listDir(t, dir))
}

func TestScheduledReclaimSparesFreshFiles(t *testing.T) {
	dir := t.TempDir()
	recipes, _ := newTestRecipeService(t, &mockPhotoRemover{})

	fresh := filepath.Join(dir, "fresh.jpg")
	stale := filepath.Join(dir, "stale.jpg")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	report := NewReclaimer(dir, recipes, logger.NewNop()).run(context.Background(), scheduledMinAge)

	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, []string{"fresh.jpg"}, listDir(t, dir))
}

func TestScheduleRejectsInvalidSpec(t *testing.T) {
	r := NewReclaimer(t.TempDir(), nil, logger.NewNop())

	_, err := r.Schedule("not a schedule")
	assert.Error(t, err)

	c, err := r.Schedule("@every 1h")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
}
