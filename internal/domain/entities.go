package domain

import (
	"fmt"
	"time"
)

// ChapterCount is the size of the fixed content catalog.
const ChapterCount = 114

// Token is a bearer token issued by the authorization endpoint.
type Token struct {
	ID          string    // Record identifier (append-only ledger)
	AccessToken string    // Opaque bearer value sent as x-auth-token
	ExpiresAt   time.Time // Already reduced by the safety margin
	CreatedAt   time.Time
}

// Valid reports whether the token can still be used at now.
// Expiry is strict: a token expiring exactly at now is stale.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && t.ExpiresAt.After(now)
}

// PageRange is the first and last mushaf page a chapter spans.
type PageRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Contains reports whether page falls inside the range.
func (r PageRange) Contains(page int) bool {
	return page >= r.First && page <= r.Last
}

// Chapter is immutable catalog metadata for one surah.
type Chapter struct {
	ID              int
	NameSimple      string // Transliterated name ("Al-Fatihah")
	NameComplex     string // Transliteration with diacritics
	NameArabic      string
	TranslatedName  string // Name in the configured language
	RevelationPlace string // "makkah" or "madinah"
	RevelationOrder int
	BismillahPre    bool
	VersesCount     int
	Pages           PageRange
}

// ChapterInfo is the long-form introduction for a chapter.
type ChapterInfo struct {
	ChapterID    int
	LanguageName string
	ShortText    string
	Source       string
	Text         string
}

// Translation is one translated rendering of a verse, embedded in the verse row.
type Translation struct {
	ID         int    `json:"id"`
	ResourceID int    `json:"resource_id"`
	Text       string `json:"text"`
}

// Word is a word-level entry, embedded in the verse row.
type Word struct {
	ID              int    `json:"id"`
	Position        int    `json:"position"`
	TextUthmani     string `json:"text_uthmani"`
	CharType        string `json:"char_type"` // "word" or "end"
	Translation     string `json:"translation,omitempty"`
	Transliteration string `json:"transliteration,omitempty"`
}

// Verse is one content unit, keyed by "chapter:number".
type Verse struct {
	ID           int
	Key          VerseKey
	ChapterID    int
	VerseNumber  int
	TextUthmani  string
	PageNumber   int
	JuzNumber    int
	HizbNumber   int
	RubElHizb    int
	Translations []Translation
	Words        []Word
}

// TafsirEntry is commentary text for one verse from one tafsir resource.
type TafsirEntry struct {
	VerseKey     VerseKey
	ResourceID   int
	ResourceName string
	LanguageName string
	Text         string
}

// Resource describes a translation or tafsir source offered by the API.
type Resource struct {
	ID           int
	Name         string
	AuthorName   string
	Slug         string
	LanguageName string
}

// ResourceKind distinguishes translation resources from tafsir resources.
type ResourceKind string

const (
	ResourceTranslation ResourceKind = "translation"
	ResourceTafsir      ResourceKind = "tafsir"
)

// Language is an interface language offered by the API.
type Language struct {
	ID         int
	Name       string
	ISOCode    string
	NativeName string
	Direction  string // "ltr" or "rtl"
}

// Recitation is audio recitation metadata.
type Recitation struct {
	ID          int
	ReciterName string
	Style       string // "murattal", "mujawwad", ...
}

// PopulationKind names one entity kind tracked in the population ledger.
type PopulationKind string

const (
	KindChapters        PopulationKind = "chapters"
	KindVerses          PopulationKind = "verses"
	KindTranslations    PopulationKind = "translations"
	KindTafsirResources PopulationKind = "tafsir_resources"
	KindLanguages       PopulationKind = "languages"
	KindRecitations     PopulationKind = "recitations"
)

// TafsirKind is the ledger kind for catalog-wide population of one tafsir resource.
func TafsirKind(resourceID int) PopulationKind {
	return PopulationKind(fmt.Sprintf("tafsir:%d", resourceID))
}

// PopulationStatus is one row of the population ledger.
type PopulationStatus struct {
	Kind         PopulationKind
	IsPopulated  bool
	LastUpdated  time.Time
	TotalRecords int
}

// AudioEntry maps a (verse, narrator) pair to a cached file.
type AudioEntry struct {
	VerseKey     VerseKey
	Narrator     string
	Path         string
	SizeBytes    int64
	CreatedAt    time.Time
	LastAccessed time.Time
}

// ProgressEntry is the per-verse reading state of the user.
// Timestamps record the last time the flag became true; clearing a flag keeps them.
type ProgressEntry struct {
	VerseKey     VerseKey
	ChapterID    int
	VerseNumber  int
	PageNumber   int
	IsRead       bool
	IsBookmarked bool
	ReadAt       *time.Time
	BookmarkedAt *time.Time
	UpdatedAt    time.Time
}
