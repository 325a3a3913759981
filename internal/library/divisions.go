package library

import (
	"fmt"

	"github.com/mmcdole/tilawa/internal/domain"
)

const (
	JuzCount  = 30
	HizbCount = 60
	PageCount = 604
)

// juzStarts holds the first verse of each juz.
var juzStarts = [JuzCount]struct{ chapter, verse int }{
	{1, 1}, {2, 142}, {2, 253}, {3, 93}, {4, 24}, {4, 148}, {5, 82}, {6, 111}, {7, 88}, {8, 41},
	{9, 93}, {11, 6}, {12, 53}, {15, 1}, {17, 1}, {18, 75}, {21, 1}, {23, 1}, {25, 21}, {27, 56},
	{29, 46}, {33, 31}, {36, 28}, {39, 32}, {41, 47}, {46, 1}, {51, 31}, {58, 1}, {67, 1}, {78, 1},
}

// ChaptersInJuz returns the chapters with at least one verse in juz.
func ChaptersInJuz(juz int) ([]int, error) {
	if juz < 1 || juz > JuzCount {
		return nil, fmt.Errorf("%w: juz %d", domain.ErrInvalidKey, juz)
	}
	first := juzStarts[juz-1].chapter
	last := domain.ChapterCount
	if juz < JuzCount {
		next := juzStarts[juz]
		last = next.chapter
		if next.verse == 1 {
			last--
		}
	}

	chapters := make([]int, 0, last-first+1)
	for id := first; id <= last; id++ {
		chapters = append(chapters, id)
	}
	return chapters, nil
}

// JuzOfHizb returns the juz containing hizb. Every juz holds two hizbs.
func JuzOfHizb(hizb int) (int, error) {
	if hizb < 1 || hizb > HizbCount {
		return 0, fmt.Errorf("%w: hizb %d", domain.ErrInvalidKey, hizb)
	}
	return (hizb-1)/2 + 1, nil
}

// chaptersOnPage selects chapters whose page range contains page.
func chaptersOnPage(chapters []domain.Chapter, page int) []int {
	var ids []int
	for _, c := range chapters {
		if c.Pages.Contains(page) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
