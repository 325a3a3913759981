package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tilawa/internal/adapter"
	"github.com/mmcdole/tilawa/internal/domain"
)

type fakeCatalog struct {
	chapters  []domain.Chapter
	resources map[domain.ResourceKind][]domain.Resource
	err       error
}

func (f *fakeCatalog) Chapters(ctx context.Context) ([]domain.Chapter, error) {
	return f.chapters, f.err
}

func (f *fakeCatalog) Resources(ctx context.Context, kind domain.ResourceKind) ([]domain.Resource, error) {
	return f.resources[kind], f.err
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		chapters: []domain.Chapter{
			{ID: 1, NameSimple: "Al-Fatihah", NameComplex: "Al-Fātiĥah", TranslatedName: "The Opener"},
			{ID: 2, NameSimple: "Al-Baqarah", TranslatedName: "The Cow"},
			{ID: 18, NameSimple: "Al-Kahf", TranslatedName: "The Cave"},
			{ID: 23, NameSimple: "Al-Mu'minun", TranslatedName: "The Believers"},
			{ID: 40, NameSimple: "Ghafir", TranslatedName: "The Forgiver"},
			{ID: 48, NameSimple: "Al-Fath", TranslatedName: "The Victory"},
			{ID: 112, NameSimple: "Al-Ikhlas", TranslatedName: "Sincerity"},
		},
		resources: map[domain.ResourceKind][]domain.Resource{
			domain.ResourceTafsir: {
				{ID: 169, Name: "Tafsir Ibn Kathir (abridged)", AuthorName: "Hafiz Ibn Kathir", LanguageName: "english"},
				{ID: 168, Name: "Ma'arif al-Qur'an", AuthorName: "Mufti Muhammad Shafi", LanguageName: "english"},
				{ID: 16, Name: "Tafsir Muyassar", AuthorName: "King Fahad Complex", LanguageName: "arabic"},
			},
		},
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Al-Fātiĥah", "al fatihah"},
		{"  Al-Mu'minun ", "al muminun"},
		{"The  Cow", "the cow"},
		{"Ya-Sin!", "ya sin"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestChapterSearch(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newCatalog(), adapter.NullLogger())

	t.Run("by name", func(t *testing.T) {
		results, err := svc.Chapters(ctx, "kahf", 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 18, results[0].Chapter.ID)
		assert.NotEmpty(t, results[0].MatchedIndexes)
	})

	t.Run("transliteration variants", func(t *testing.T) {
		results, err := svc.Chapters(ctx, "Fātiha", 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1, results[0].Chapter.ID)

		results, err = svc.Chapters(ctx, "muminun", 0)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, 23, results[0].Chapter.ID)
	})

	t.Run("by translated name", func(t *testing.T) {
		results, err := svc.Chapters(ctx, "cow", 0)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, 2, results[0].Chapter.ID)
	})

	t.Run("by number", func(t *testing.T) {
		results, err := svc.Chapters(ctx, " 112 ", 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Al-Ikhlas", results[0].Chapter.NameSimple)

		results, err = svc.Chapters(ctx, "114", 0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("limit", func(t *testing.T) {
		results, err := svc.Chapters(ctx, "al", 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("no match", func(t *testing.T) {
		results, err := svc.Chapters(ctx, "zzzz", 0)
		require.NoError(t, err)
		assert.Empty(t, results)

		results, err = svc.Chapters(ctx, "   ", 0)
		require.NoError(t, err)
		assert.Nil(t, results)
	})
}

func TestChapterSearchPropagatesCatalogErrors(t *testing.T) {
	catalog := newCatalog()
	catalog.err = domain.ErrServerOffline
	svc := NewService(catalog, adapter.NullLogger())

	_, err := svc.Chapters(context.Background(), "kahf", 0)
	assert.True(t, errors.Is(err, domain.ErrServerOffline))
}

func TestResourceSearch(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newCatalog(), adapter.NullLogger())

	results, err := svc.Resources(ctx, domain.ResourceTafsir, "kathir")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 169, results[0].Resource.ID)

	results, err = svc.Resources(ctx, domain.ResourceTafsir, "ARABIC")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 16, results[0].Resource.ID)

	results, err = svc.Resources(ctx, domain.ResourceTafsir, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 169, results[0].Resource.ID)

	results, err = svc.Resources(ctx, domain.ResourceTranslation, "kathir")
	require.NoError(t, err)
	assert.Empty(t, results)
}
