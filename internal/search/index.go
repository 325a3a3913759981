package search

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mmcdole/tilawa/internal/domain"
)

// ChapterIndex implements sahilm/fuzzy.Source over pre-normalized chapter names.
type ChapterIndex struct {
	chapters []domain.Chapter
	names    []string
}

// NewChapterIndex normalizes the searchable names of chapters once.
func NewChapterIndex(chapters []domain.Chapter) *ChapterIndex {
	idx := &ChapterIndex{
		chapters: chapters,
		names:    make([]string, len(chapters)),
	}
	for i, ch := range chapters {
		idx.names[i] = Normalize(ch.NameSimple + " " + ch.TranslatedName)
	}
	return idx
}

// String returns the normalized name at index i (implements fuzzy.Source)
func (idx *ChapterIndex) String(i int) string { return idx.names[i] }

// Len returns the number of chapters (implements fuzzy.Source)
func (idx *ChapterIndex) Len() int { return len(idx.chapters) }

// byID returns the position of chapter id in the index.
func (idx *ChapterIndex) byID(id int) (int, bool) {
	for i, ch := range idx.chapters {
		if ch.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Normalize lowercases s, strips diacritics and drops the punctuation used in
// transliterations, so "Al-Fātiĥah" and "al fatihah" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case r == '\'' || r == '`' || r == '’':
			// "Mu'minun" searches as "muminun"
		default:
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// chapterNumber parses a bare chapter number query.
func chapterNumber(query string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(query))
	if err != nil || !domain.ValidChapter(n) {
		return 0, false
	}
	return n, true
}
