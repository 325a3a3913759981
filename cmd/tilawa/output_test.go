package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tilawa/internal/domain"
)

func TestParseIntArg(t *testing.T) {
	n, err := parseIntArg("chapter", " 18 ", domain.ChapterCount)
	require.NoError(t, err)
	assert.Equal(t, 18, n)

	_, err = parseIntArg("chapter", "115", domain.ChapterCount)
	assert.ErrorContains(t, err, "between 1 and 114")

	_, err = parseIntArg("from", "0", 0)
	assert.ErrorContains(t, err, "positive")

	_, err = parseIntArg("page", "x", 604)
	assert.Error(t, err)
}

func TestParseKeyArg(t *testing.T) {
	key, err := parseKeyArg(" 2:255 ")
	require.NoError(t, err)
	assert.Equal(t, domain.VerseKey("2:255"), key)

	key, err = parseKeyArg("02:0255")
	require.NoError(t, err)
	assert.Equal(t, domain.VerseKey("2:255"), key)

	_, err = parseKeyArg("2-255")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Tafsir ...", truncate("Tafsir Ibn Kathir", 10))
	assert.Equal(t, "تفسير ا...", truncate("تفسير الميسر", 10))
}
