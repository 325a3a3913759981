package quran

import (
	"errors"
	"fmt"

	"github.com/mmcdole/tilawa/internal/domain"
)

// validator is implemented by responses that check their own shape after decoding
type validator interface {
	Validate() error
}

// TokenResponse is the body of a successful client-credentials exchange
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // Seconds
	Scope       string `json:"scope"`
}

func (r TokenResponse) Validate() error {
	if r.AccessToken == "" {
		return errors.New("missing access_token")
	}
	if r.ExpiresIn <= 0 {
		return fmt.Errorf("invalid expires_in %d", r.ExpiresIn)
	}
	return nil
}

// ErrorResponse is the JSON error body returned with non-2xx statuses
type ErrorResponse struct {
	Message          string `json:"message"`
	Error            string `json:"error"`
	Type             string `json:"type"`
	ErrorDescription string `json:"error_description"`
}

// ChaptersResponse wraps GET /chapters
type ChaptersResponse struct {
	Chapters []Chapter `json:"chapters"`
}

func (r ChaptersResponse) Validate() error {
	if len(r.Chapters) == 0 {
		return errors.New("empty chapter list")
	}
	for _, c := range r.Chapters {
		if !domain.ValidChapter(c.ID) {
			return fmt.Errorf("chapter id %d out of range", c.ID)
		}
		if c.VersesCount <= 0 {
			return fmt.Errorf("chapter %d has no verses", c.ID)
		}
	}
	return nil
}

// Chapter is a chapter as returned by the API
type Chapter struct {
	ID              int            `json:"id"`
	RevelationPlace string         `json:"revelation_place"`
	RevelationOrder int            `json:"revelation_order"`
	BismillahPre    bool           `json:"bismillah_pre"`
	NameSimple      string         `json:"name_simple"`
	NameComplex     string         `json:"name_complex"`
	NameArabic      string         `json:"name_arabic"`
	VersesCount     int            `json:"verses_count"`
	Pages           []int          `json:"pages"` // [first, last]
	TranslatedName  TranslatedName `json:"translated_name"`
}

// TranslatedName is a name in the requested language
type TranslatedName struct {
	LanguageName string `json:"language_name"`
	Name         string `json:"name"`
}

// ChapterInfoResponse wraps GET /chapters/{id}/info
type ChapterInfoResponse struct {
	ChapterInfo ChapterInfo `json:"chapter_info"`
}

func (r ChapterInfoResponse) Validate() error {
	if !domain.ValidChapter(r.ChapterInfo.ChapterID) {
		return fmt.Errorf("chapter info for invalid chapter %d", r.ChapterInfo.ChapterID)
	}
	return nil
}

// ChapterInfo is the long-form chapter introduction
type ChapterInfo struct {
	ID           int    `json:"id"`
	ChapterID    int    `json:"chapter_id"`
	LanguageName string `json:"language_name"`
	ShortText    string `json:"short_text"`
	Source       string `json:"source"`
	Text         string `json:"text"`
}

// VersesResponse wraps GET /verses/by_chapter/{id}
type VersesResponse struct {
	Verses     []Verse    `json:"verses"`
	Pagination Pagination `json:"pagination"`
}

func (r VersesResponse) Validate() error {
	for _, v := range r.Verses {
		if _, _, err := domain.ParseVerseKey(v.VerseKey); err != nil {
			return err
		}
		if v.VerseNumber <= 0 {
			return fmt.Errorf("verse %s has no verse number", v.VerseKey)
		}
	}
	return nil
}

// Pagination describes one page of a paginated listing
type Pagination struct {
	PerPage      int  `json:"per_page"`
	CurrentPage  int  `json:"current_page"`
	NextPage     *int `json:"next_page"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
}

// Verse is a verse as returned by the API
type Verse struct {
	ID              int           `json:"id"`
	VerseNumber     int           `json:"verse_number"`
	VerseKey        string        `json:"verse_key"`
	JuzNumber       int           `json:"juz_number"`
	HizbNumber      int           `json:"hizb_number"`
	RubElHizbNumber int           `json:"rub_el_hizb_number"`
	PageNumber      int           `json:"page_number"`
	TextUthmani     string        `json:"text_uthmani"`
	Translations    []Translation `json:"translations,omitempty"`
	Words           []Word        `json:"words,omitempty"`
	Tafsirs         []Tafsir      `json:"tafsirs,omitempty"`
}

// Translation is a translated rendering embedded in a verse
type Translation struct {
	ID         int    `json:"id"`
	ResourceID int    `json:"resource_id"`
	Text       string `json:"text"`
}

// Word is a word-level entry embedded in a verse
type Word struct {
	ID              int      `json:"id"`
	Position        int      `json:"position"`
	TextUthmani     string   `json:"text_uthmani"`
	CharTypeName    string   `json:"char_type_name"`
	Translation     TextOnly `json:"translation"`
	Transliteration TextOnly `json:"transliteration"`
}

// TextOnly is a nested {"text": ...} object
type TextOnly struct {
	Text string `json:"text"`
}

// Tafsir is commentary embedded in a verse when requested with ?tafsirs=
type Tafsir struct {
	ID           int    `json:"id"`
	ResourceID   int    `json:"resource_id"`
	Name         string `json:"name"`
	LanguageName string `json:"language_name"`
	Text         string `json:"text"`
}

// ResourcesResponse wraps GET /resources/tafsirs and /resources/translations
type ResourcesResponse struct {
	Tafsirs      []Resource `json:"tafsirs"`
	Translations []Resource `json:"translations"`
}

// Resource is a translation or tafsir source
type Resource struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	AuthorName   string `json:"author_name"`
	Slug         string `json:"slug"`
	LanguageName string `json:"language_name"`
}

// LanguagesResponse wraps GET /resources/languages
type LanguagesResponse struct {
	Languages []Language `json:"languages"`
}

// Language is an interface language offered by the API
type Language struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	ISOCode    string `json:"iso_code"`
	NativeName string `json:"native_name"`
	Direction  string `json:"direction"`
}

// RecitationsResponse wraps GET /resources/recitations
type RecitationsResponse struct {
	Recitations []Recitation `json:"recitations"`
}

// Recitation is audio recitation metadata
type Recitation struct {
	ID          int    `json:"id"`
	ReciterName string `json:"reciter_name"`
	Style       string `json:"style"`
}
