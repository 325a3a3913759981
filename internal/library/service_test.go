package library

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tilawa/internal/adapter"
	"github.com/mmcdole/tilawa/internal/domain"
	"github.com/mmcdole/tilawa/internal/library/librarytest"
	"github.com/mmcdole/tilawa/internal/store"
)

func newTestService(t *testing.T, pageSize int) (*Service, *librarytest.Source, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	src := librarytest.NewSource()
	return NewService(src, st, pageSize, adapter.NullLogger()), src, st
}

func TestEnsureChaptersIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, src, _ := newTestService(t, 50)

	first, err := svc.EnsureChapters(ctx)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, domain.ChapterCount, first.Count)

	second, err := svc.EnsureChapters(ctx)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, src.Calls("GetChapters"))
}

func TestEnsureVersesIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, src, st := newTestService(t, 50)

	result, err := svc.EnsureVerses(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Count)

	result, err = svc.EnsureVerses(ctx, 1, nil)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, 1, src.Calls("GetVerses:1"))

	n, err := st.CountVerses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestEnsureVersesPaginates(t *testing.T) {
	ctx := context.Background()
	svc, src, st := newTestService(t, 2)

	var progress [][2]int
	_, err := svc.EnsureVerses(ctx, 113, func(loaded, total int) {
		progress = append(progress, [2]int{loaded, total})
	})
	require.NoError(t, err)
	assert.Equal(t, 3, src.Calls("GetVerses:113"))
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, progress)

	verses, err := st.Verses(ctx, domain.VerseFilter{ChapterID: 113})
	require.NoError(t, err)
	assert.Len(t, verses, 5)
}

func TestEnsureVersesFailureLeavesNoRows(t *testing.T) {
	ctx := context.Background()
	svc, src, st := newTestService(t, 50)
	boom := errors.New("connection reset")
	src.SetFailure(112, boom)

	_, err := svc.EnsureVerses(ctx, 112, nil)
	require.ErrorIs(t, err, boom)

	has, err := st.HasVerses(ctx, 112)
	require.NoError(t, err)
	assert.False(t, has)

	src.SetFailure(112, nil)
	result, err := svc.EnsureVerses(ctx, 112, nil)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 4, result.Count)
	assert.Equal(t, 2, src.Calls("GetVerses:112"))
}

func TestEnsureVersesRejectsInvalidChapter(t *testing.T) {
	svc, src, _ := newTestService(t, 50)

	_, err := svc.EnsureVerses(context.Background(), 115, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
	assert.Zero(t, src.Calls("GetChapters"))
}

func TestEnsureVersesConcurrentCallsFetchOnce(t *testing.T) {
	ctx := context.Background()
	svc, src, _ := newTestService(t, 50)
	_, err := svc.EnsureChapters(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.EnsureVerses(ctx, 114, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, src.Calls("GetVerses:114"))
}

func TestEnsureTafsirsChapter112(t *testing.T) {
	ctx := context.Background()
	svc, src, st := newTestService(t, 50)

	result, err := svc.EnsureTafsirs(ctx, 112, 169, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Count)
	assert.Equal(t, domain.TafsirKind(169), result.Kind)

	verses, err := st.Verses(ctx, domain.VerseFilter{ChapterID: 112})
	require.NoError(t, err)
	require.Len(t, verses, 4)
	for i, v := range verses {
		assert.Equal(t, domain.NewVerseKey(112, i+1), v.Key)
	}

	count, err := st.CountTafsirs(ctx, 169)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	result, err = svc.EnsureTafsirs(ctx, 112, 169, nil)
	require.NoError(t, err)
	assert.True(t, result.FromCache)

	count, err = st.CountTafsirs(ctx, 169)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	n, err := st.CountVerses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 1, src.Calls("GetVerses:112"))
	assert.Equal(t, 1, src.Calls("GetTafsirs:112"))
}

func TestEnsureTafsirsSkipsMissingPayload(t *testing.T) {
	ctx := context.Background()
	svc, src, st := newTestService(t, 50)
	src.MissingTafsir["112:2"] = true

	result, err := svc.EnsureTafsirs(ctx, 112, 169, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)

	_, err = st.Tafsir(ctx, "112:2", 169)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	result, err = svc.EnsureTafsirs(ctx, 112, 169, nil)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, 1, src.Calls("GetTafsirs:112"))
}

func TestEnsureTafsirsWithoutAnyPayloadFetchesOnce(t *testing.T) {
	ctx := context.Background()
	svc, src, st := newTestService(t, 50)
	for v := 1; v <= 4; v++ {
		src.MissingTafsir[domain.NewVerseKey(112, v)] = true
	}

	result, err := svc.EnsureTafsirs(ctx, 112, 169, nil)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Zero(t, result.Count)

	for i := 0; i < 2; i++ {
		result, err = svc.EnsureTafsirs(ctx, 112, 169, nil)
		require.NoError(t, err)
		assert.True(t, result.FromCache)
	}
	assert.Equal(t, 1, src.Calls("GetTafsirs:112"))

	entries, err := st.TafsirsByChapter(ctx, 112, 169)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnsureChapterInfo(t *testing.T) {
	ctx := context.Background()
	svc, src, st := newTestService(t, 50)

	_, err := svc.EnsureChapterInfo(ctx, 36)
	require.NoError(t, err)
	result, err := svc.EnsureChapterInfo(ctx, 36)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, 1, src.Calls("GetChapterInfo:36"))

	info, err := st.ChapterInfo(ctx, 36)
	require.NoError(t, err)
	assert.Equal(t, "About 36", info.Text)
}

func TestEnsureLists(t *testing.T) {
	ctx := context.Background()
	svc, src, _ := newTestService(t, 50)

	for range 2 {
		_, err := svc.EnsureResources(ctx, domain.ResourceTafsir)
		require.NoError(t, err)
		_, err = svc.EnsureResources(ctx, domain.ResourceTranslation)
		require.NoError(t, err)
		_, err = svc.EnsureLanguages(ctx)
		require.NoError(t, err)
		_, err = svc.EnsureRecitations(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, src.Calls("GetResources"))
	assert.Equal(t, 1, src.Calls("GetLanguages"))
	assert.Equal(t, 1, src.Calls("GetRecitations"))

	_, err := svc.EnsureResources(ctx, domain.ResourceKind("audio"))
	assert.Error(t, err)
}

func TestEnsureHonoursCancellation(t *testing.T) {
	svc, src, _ := newTestService(t, 50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.EnsureVerses(ctx, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.Calls("GetVerses"))
}
