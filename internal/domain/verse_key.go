package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// VerseKey is the composite "chapter:verse" identifier of a content unit.
type VerseKey string

// NewVerseKey builds the key for a chapter and verse number.
func NewVerseKey(chapter, verse int) VerseKey {
	return VerseKey(fmt.Sprintf("%d:%d", chapter, verse))
}

// ParseVerseKey splits a key into chapter and verse numbers. Only the
// canonical form built by NewVerseKey is accepted, so one verse always maps
// to one stored key.
func ParseVerseKey(s string) (chapter, verse int, err error) {
	chapter, verse, err = parseNumbers(s)
	if err != nil {
		return 0, 0, err
	}
	if s != string(NewVerseKey(chapter, verse)) {
		return 0, 0, fmt.Errorf("%w: %q is not in chapter:verse form", ErrInvalidKey, s)
	}
	return chapter, verse, nil
}

// CanonicalVerseKey accepts user input such as " 2:0255" and returns the
// canonical key ("2:255").
func CanonicalVerseKey(s string) (VerseKey, error) {
	chapter, verse, err := parseNumbers(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return NewVerseKey(chapter, verse), nil
}

func parseNumbers(s string) (chapter, verse int, err error) {
	left, right, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	chapter, err = strconv.Atoi(left)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	verse, err = strconv.Atoi(right)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	if chapter < 1 || chapter > ChapterCount || verse < 1 {
		return 0, 0, fmt.Errorf("%w: %q out of range", ErrInvalidKey, s)
	}
	return chapter, verse, nil
}

// Parts returns the chapter and verse numbers of a key.
func (k VerseKey) Parts() (chapter, verse int, err error) {
	return ParseVerseKey(string(k))
}

func (k VerseKey) String() string { return string(k) }

// ValidChapter reports whether id is inside the fixed catalog.
func ValidChapter(id int) bool {
	return id >= 1 && id <= ChapterCount
}
