package quran

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tilawa/internal/adapter"
	"github.com/mmcdole/tilawa/internal/domain"
)

// fakeTokens hands out tok-1 and a new token on every forced refresh
type fakeTokens struct {
	mu     sync.Mutex
	n      int
	forced int
}

func (f *fakeTokens) GetToken(_ context.Context, forceFresh bool) (domain.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 || forceFresh {
		f.n++
	}
	if forceFresh {
		f.forced++
	}
	return domain.Token{
		AccessToken: fmt.Sprintf("tok-%d", f.n),
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeTokens) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tokens := &fakeTokens{}
	c := NewClient(srv.URL, "client-id", tokens, ContentOptions{
		Language:     "en",
		Translations: []int{131, 20},
		Words:        true,
	}, 5*time.Second, adapter.NullLogger())
	return c, tokens
}

const chaptersBody = `{"chapters":[{"id":112,"revelation_place":"makkah","revelation_order":22,
"bismillah_pre":true,"name_simple":"Al-Ikhlas","name_complex":"Al-Ikhlāṣ","name_arabic":"الإخلاص",
"verses_count":4,"pages":[604,604],"translated_name":{"language_name":"english","name":"Sincerity"}}]}`

func TestRequestSendsIdentityHeaders(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-1", r.Header.Get("x-auth-token"))
		assert.Equal(t, "client-id", r.Header.Get("x-client-id"))
		assert.Equal(t, "/chapters", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		fmt.Fprint(w, chaptersBody)
	})

	chapters, err := c.GetChapters(context.Background())
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, "Al-Ikhlas", chapters[0].NameSimple)
	assert.Equal(t, "Sincerity", chapters[0].TranslatedName)
	assert.Equal(t, domain.PageRange{First: 604, Last: 604}, chapters[0].Pages)
	assert.True(t, chapters[0].BismillahPre)
}

func TestRequestRecoversFromExpiredToken(t *testing.T) {
	var requests int
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("x-auth-token") == "tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Access token expired","type":"unauthorized"}`)
			return
		}
		fmt.Fprint(w, chaptersBody)
	})

	chapters, err := c.GetChapters(context.Background())
	require.NoError(t, err)
	assert.Len(t, chapters, 1)
	assert.Equal(t, 2, requests)
	assert.Equal(t, 1, tokens.forced)
}

func TestRequestFailsAfterSecondExpiredToken(t *testing.T) {
	var requests int
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"invalid_token"}`)
	})

	_, err := c.GetChapters(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.Equal(t, 2, requests)
	assert.Equal(t, 1, tokens.forced)
}

func TestRequestUnauthorizedWithoutExpirySignal(t *testing.T) {
	var requests int
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"client not allowed"}`)
	})

	_, err := c.GetChapters(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.NotErrorIs(t, err, domain.ErrTokenExpired)
	assert.Equal(t, 1, requests)
	assert.Zero(t, tokens.forced)
}

func TestRequestServerErrorNotRetried(t *testing.T) {
	var requests int
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	})

	_, err := c.GetChapters(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrContentFetch)
	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, 1, requests)
}

func TestRequestDecodeAndValidationFailures(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chapters":
			fmt.Fprint(w, `{"chapters":[{"id":900,"verses_count":3}]}`)
		default:
			fmt.Fprint(w, `not json`)
		}
	})

	_, err := c.GetChapters(context.Background())
	assert.ErrorIs(t, err, domain.ErrContentFetch)

	_, err = c.GetLanguages(context.Background())
	assert.ErrorIs(t, err, domain.ErrContentFetch)
}

func TestRequestServerOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL, "client-id", &fakeTokens{}, ContentOptions{}, time.Second, adapter.NullLogger())

	_, err := c.GetChapters(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.ErrorIs(t, err, domain.ErrContentFetch)
}

func TestGetVerses(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verses/by_chapter/112", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "131,20", q.Get("translations"))
		assert.Equal(t, "true", q.Get("words"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "2", q.Get("per_page"))
		fmt.Fprint(w, `{"verses":[
			{"id":6224,"verse_number":3,"verse_key":"112:3","juz_number":30,"hizb_number":60,
			 "rub_el_hizb_number":240,"page_number":604,"text_uthmani":"لَمْ يَلِدْ وَلَمْ يُولَدْ",
			 "translations":[{"id":1,"resource_id":131,"text":"He has never had offspring"}],
			 "words":[{"id":1,"position":1,"text_uthmani":"لَمْ","char_type_name":"word",
			   "translation":{"text":"Not"},"transliteration":{"text":"lam"}}]}],
			"pagination":{"per_page":2,"current_page":2,"next_page":null,"total_pages":2,"total_records":4}}`)
	})

	verses, total, err := c.GetVerses(context.Background(), 112, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, verses, 1)

	v := verses[0]
	assert.Equal(t, domain.VerseKey("112:3"), v.Key)
	assert.Equal(t, 112, v.ChapterID)
	assert.Equal(t, 604, v.PageNumber)
	assert.Equal(t, 240, v.RubElHizb)
	require.Len(t, v.Translations, 1)
	assert.Equal(t, 131, v.Translations[0].ResourceID)
	require.Len(t, v.Words, 1)
	assert.Equal(t, "lam", v.Words[0].Transliteration)
	assert.Equal(t, "word", v.Words[0].CharType)
}

func TestGetTafsirsSkipsMissingPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "169", r.URL.Query().Get("tafsirs"))
		fmt.Fprint(w, `{"verses":[
			{"id":1,"verse_number":1,"verse_key":"112:1","tafsirs":[{"id":9,"resource_id":169,
			 "name":"Ibn Kathir (Abridged)","language_name":"english","text":"<p>Say</p>"}]},
			{"id":2,"verse_number":2,"verse_key":"112:2","tafsirs":[]}],
			"pagination":{"per_page":50,"current_page":1,"total_pages":1,"total_records":2}}`)
	})

	entries, total, err := c.GetTafsirs(context.Background(), 112, 169, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, "<p>Say</p>", entries[0].Text)
	assert.Equal(t, "Ibn Kathir (Abridged)", entries[0].ResourceName)
	assert.Equal(t, domain.VerseKey("112:2"), entries[1].VerseKey)
	assert.Empty(t, entries[1].Text)
}

func TestGetResources(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/resources/tafsirs":
			fmt.Fprint(w, `{"tafsirs":[{"id":169,"name":"Ibn Kathir (Abridged)","author_name":"Hafiz Ibn Kathir","slug":"en-tafisr-ibn-kathir","language_name":"english"}]}`)
		case "/resources/translations":
			fmt.Fprint(w, `{"translations":[{"id":131,"name":"Dr. Mustafa Khattab","language_name":"english"}]}`)
		case "/resources/recitations":
			fmt.Fprint(w, `{"recitations":[{"id":7,"reciter_name":"Mishari Rashid al-Afasy","style":null}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	tafsirs, err := c.GetResources(ctx, domain.ResourceTafsir)
	require.NoError(t, err)
	require.Len(t, tafsirs, 1)
	assert.Equal(t, "en-tafisr-ibn-kathir", tafsirs[0].Slug)

	translations, err := c.GetResources(ctx, domain.ResourceTranslation)
	require.NoError(t, err)
	require.Len(t, translations, 1)
	assert.Equal(t, 131, translations[0].ID)

	recitations, err := c.GetRecitations(ctx)
	require.NoError(t, err)
	require.Len(t, recitations, 1)
	assert.Empty(t, recitations[0].Style)

	_, err = c.GetResources(ctx, domain.ResourceKind("audio"))
	assert.Error(t, err)

	_, err = c.GetLanguages(ctx)
	var statusErr *domain.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestIsExpiredSignal(t *testing.T) {
	assert.True(t, isExpiredSignal([]byte(`{"message":"Token Expired"}`)))
	assert.True(t, isExpiredSignal([]byte(`{"error":"invalid_token","error_description":"bad"}`)))
	assert.True(t, isExpiredSignal([]byte(`jwt expired`)))
	assert.False(t, isExpiredSignal([]byte(`{"message":"forbidden"}`)))
}
