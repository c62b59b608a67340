package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

func TestExclusionStore_AddAndList(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	require.NoError(t, es.Add(ctx, &domain.Exclusion{
		ID:         "ex-outdated",
		SourceID:   "handbook",
		DocumentID: "faq-ship",
		Path:       "faqs/outdated.md",
		Reason:     "stale copy",
		ExcludedAt: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}))

	listed, err := es.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "ex-outdated", listed[0].ID)
	assert.Equal(t, "faqs/outdated.md", listed[0].Path)
}

func TestExclusionStore_List_OrderedBySourceThenPath(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-w-drafts", SourceID: "wiki", Path: "drafts.md"}))
	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-h-ideas", SourceID: "handbook", Path: "ideas.md"}))
	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-h-drafts", SourceID: "handbook", Path: "drafts.md"}))

	all, err := es.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "ex-h-drafts", all[0].ID)
	assert.Equal(t, "ex-h-ideas", all[1].ID)
	assert.Equal(t, "ex-w-drafts", all[2].ID)
}

func TestExclusionStore_List_NothingExcluded(t *testing.T) {
	es := NewExclusionStore()

	listed, err := es.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.NotNil(t, listed)
}

func TestExclusionStore_GetBySourceID_FiltersAndSorts(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-ideas", SourceID: "handbook", Path: "ideas.md"}))
	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-drafts", SourceID: "handbook", Path: "drafts.md"}))
	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-scratch", SourceID: "wiki", Path: "scratch.md"}))

	listed, err := es.GetBySourceID(ctx, "handbook")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "drafts.md", listed[0].Path)
	assert.Equal(t, "ideas.md", listed[1].Path)

	none, err := es.GetBySourceID(ctx, "no-such-source")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExclusionStore_IsExcluded_PerSourcePath(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-old", SourceID: "handbook", Path: "faqs/old.md"}))

	ok, err := es.IsExcluded(ctx, "handbook", "faqs/old.md")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = es.IsExcluded(ctx, "handbook", "faqs/current.md")
	require.NoError(t, err)
	assert.False(t, ok)

	// Same path under a different source is not excluded.
	ok, err = es.IsExcluded(ctx, "wiki", "faqs/old.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExclusionStore_Add_ReplacesByID(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	require.NoError(t, es.Add(ctx, &domain.Exclusion{
		ID: "ex-1", SourceID: "handbook", Path: "first/take.md", Reason: "first pass",
	}))
	require.NoError(t, es.Add(ctx, &domain.Exclusion{
		ID: "ex-1", SourceID: "handbook", Path: "second/take.md", Reason: "second pass",
	}))

	listed, err := es.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "second/take.md", listed[0].Path)
	assert.Equal(t, "second pass", listed[0].Reason)

	// The replaced record releases its old path.
	ok, err := es.IsExcluded(ctx, "handbook", "first/take.md")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = es.IsExcluded(ctx, "handbook", "second/take.md")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExclusionStore_SharedPath_SurvivesPartialRemove(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	// Two records may pin the same path, say one per sync run.
	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-notes-a", SourceID: "handbook", Path: "notes.md"}))
	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-notes-b", SourceID: "handbook", Path: "notes.md"}))

	require.NoError(t, es.Remove(ctx, "ex-notes-a"))

	ok, err := es.IsExcluded(ctx, "handbook", "notes.md")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, es.Remove(ctx, "ex-notes-b"))

	ok, err = es.IsExcluded(ctx, "handbook", "notes.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExclusionStore_Remove_ReleasesPath(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	require.NoError(t, es.Add(ctx, &domain.Exclusion{ID: "ex-1", SourceID: "handbook", Path: "drafts.md"}))
	require.NoError(t, es.Remove(ctx, "ex-1"))

	listed, err := es.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	ok, err := es.IsExcluded(ctx, "handbook", "drafts.md")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing a missing ID is a no-op.
	assert.NoError(t, es.Remove(ctx, "no-such-exclusion"))
}

func TestExclusionStore_PathsNeedNoEscaping(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	paths := []string{
		"path with spaces/file.txt",
		"unicode/文件.txt",
		"quotes/\"file\".txt",
	}
	for i, path := range paths {
		require.NoError(t, es.Add(ctx, &domain.Exclusion{
			ID:       fmt.Sprintf("ex-%d", i),
			SourceID: "handbook",
			Path:     path,
		}))
	}

	for _, path := range paths {
		ok, err := es.IsExcluded(ctx, "handbook", path)
		require.NoError(t, err)
		assert.True(t, ok, path)
	}
}

func TestExclusionStore_ConcurrentAddAndCheck(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for n := range workers {
		go func() {
			defer wg.Done()
			path := fmt.Sprintf("path/%02d.md", n)
			_ = es.Add(ctx, &domain.Exclusion{
				ID:       fmt.Sprintf("ex-%02d", n),
				SourceID: "handbook",
				Path:     path,
			})
			_, _ = es.IsExcluded(ctx, "handbook", path)
		}()
	}
	wg.Wait()

	listed, err := es.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, workers)
}

func TestExclusionStore_ReturnsCopies(t *testing.T) {
	es := NewExclusionStore()
	ctx := context.Background()

	require.NoError(t, es.Add(ctx, &domain.Exclusion{
		ID: "ex-1", SourceID: "handbook", Path: "first/take.md", Reason: "first pass",
	}))

	listed, err := es.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	listed[0].Path = "scribbled/over.md"
	listed[0].Reason = "scribbled over"

	fresh, err := es.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first/take.md", fresh[0].Path)
	assert.Equal(t, "first pass", fresh[0].Reason)
}
