package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerseKey(t *testing.T) {
	tests := []struct {
		key     string
		chapter int
		verse   int
		wantErr bool
	}{
		{"2:255", 2, 255, false},
		{"114:6", 114, 6, false},
		{"2:0255", 0, 0, true},
		{"02:255", 0, 0, true},
		{"+2:255", 0, 0, true},
		{" 2:255", 0, 0, true},
		{"2:255 ", 0, 0, true},
		{"115:1", 0, 0, true},
		{"2:0", 0, 0, true},
		{"2-255", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			chapter, verse, err := ParseVerseKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.chapter, chapter)
			assert.Equal(t, tt.verse, verse)
		})
	}
}

func TestCanonicalVerseKey(t *testing.T) {
	for _, in := range []string{"2:255", " 2:255 ", "2:0255", "02:255", "+2:255"} {
		key, err := CanonicalVerseKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, VerseKey("2:255"), key, in)
	}

	_, err := CanonicalVerseKey("2:-1")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
