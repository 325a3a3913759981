package quran

import (
	"github.com/mmcdole/tilawa/internal/domain"
)

// MapChapters converts API chapters to domain chapters
func MapChapters(chapters []Chapter) []domain.Chapter {
	out := make([]domain.Chapter, 0, len(chapters))
	for _, c := range chapters {
		out = append(out, mapChapter(c))
	}
	return out
}

func mapChapter(c Chapter) domain.Chapter {
	ch := domain.Chapter{
		ID:              c.ID,
		NameSimple:      c.NameSimple,
		NameComplex:     c.NameComplex,
		NameArabic:      c.NameArabic,
		TranslatedName:  c.TranslatedName.Name,
		RevelationPlace: c.RevelationPlace,
		RevelationOrder: c.RevelationOrder,
		BismillahPre:    c.BismillahPre,
		VersesCount:     c.VersesCount,
	}
	// pages is [first, last]; single-page chapters may send one value
	switch len(c.Pages) {
	case 0:
	case 1:
		ch.Pages = domain.PageRange{First: c.Pages[0], Last: c.Pages[0]}
	default:
		ch.Pages = domain.PageRange{First: c.Pages[0], Last: c.Pages[len(c.Pages)-1]}
	}
	return ch
}

// MapChapterInfo converts the API chapter introduction
func MapChapterInfo(info ChapterInfo) *domain.ChapterInfo {
	return &domain.ChapterInfo{
		ChapterID:    info.ChapterID,
		LanguageName: info.LanguageName,
		ShortText:    info.ShortText,
		Source:       info.Source,
		Text:         info.Text,
	}
}

// MapVerses converts API verses. The chapter is taken from the verse key.
func MapVerses(verses []Verse) []domain.Verse {
	out := make([]domain.Verse, 0, len(verses))
	for _, v := range verses {
		out = append(out, mapVerse(v))
	}
	return out
}

func mapVerse(v Verse) domain.Verse {
	verse := domain.Verse{
		ID:          v.ID,
		Key:         domain.VerseKey(v.VerseKey),
		VerseNumber: v.VerseNumber,
		TextUthmani: v.TextUthmani,
		PageNumber:  v.PageNumber,
		JuzNumber:   v.JuzNumber,
		HizbNumber:  v.HizbNumber,
		RubElHizb:   v.RubElHizbNumber,
	}
	if ch, _, err := verse.Key.Parts(); err == nil {
		verse.ChapterID = ch
	}
	for _, t := range v.Translations {
		verse.Translations = append(verse.Translations, domain.Translation{
			ID:         t.ID,
			ResourceID: t.ResourceID,
			Text:       t.Text,
		})
	}
	for _, w := range v.Words {
		verse.Words = append(verse.Words, domain.Word{
			ID:              w.ID,
			Position:        w.Position,
			TextUthmani:     w.TextUthmani,
			CharType:        w.CharTypeName,
			Translation:     w.Translation.Text,
			Transliteration: w.Transliteration.Text,
		})
	}
	return verse
}

// MapTafsirs returns one entry per verse for resourceID.
// Verses without a payload for the resource get an entry with empty Text.
func MapTafsirs(verses []Verse, resourceID int) []domain.TafsirEntry {
	out := make([]domain.TafsirEntry, 0, len(verses))
	for _, v := range verses {
		entry := domain.TafsirEntry{
			VerseKey:   domain.VerseKey(v.VerseKey),
			ResourceID: resourceID,
		}
		for _, t := range v.Tafsirs {
			if t.ResourceID != resourceID && t.ResourceID != 0 {
				continue
			}
			entry.ResourceName = t.Name
			entry.LanguageName = t.LanguageName
			entry.Text = t.Text
			break
		}
		out = append(out, entry)
	}
	return out
}

// MapResources converts translation or tafsir resources
func MapResources(resources []Resource) []domain.Resource {
	out := make([]domain.Resource, 0, len(resources))
	for _, r := range resources {
		out = append(out, domain.Resource{
			ID:           r.ID,
			Name:         r.Name,
			AuthorName:   r.AuthorName,
			Slug:         r.Slug,
			LanguageName: r.LanguageName,
		})
	}
	return out
}

// MapLanguages converts API languages
func MapLanguages(languages []Language) []domain.Language {
	out := make([]domain.Language, 0, len(languages))
	for _, l := range languages {
		out = append(out, domain.Language{
			ID:         l.ID,
			Name:       l.Name,
			ISOCode:    l.ISOCode,
			NativeName: l.NativeName,
			Direction:  l.Direction,
		})
	}
	return out
}

// MapRecitations converts API recitations
func MapRecitations(recitations []Recitation) []domain.Recitation {
	out := make([]domain.Recitation, 0, len(recitations))
	for _, r := range recitations {
		out = append(out, domain.Recitation{
			ID:          r.ID,
			ReciterName: r.ReciterName,
			Style:       r.Style,
		})
	}
	return out
}
