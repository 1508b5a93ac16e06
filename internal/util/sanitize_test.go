package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	t.Run("trims surrounding space", func(t *testing.T) {
		require.Equal(t, "Somchai", CleanText("  Somchai \n"))
	})

	t.Run("drops invisible characters", func(t *testing.T) {
		require.Equal(t, "สมชาย", CleanText("\uFEFFสม\u200Bชาย"))
	})

	t.Run("drops control characters", func(t *testing.T) {
		require.Equal(t, "Faculty of Science", CleanText("Faculty of\x00 Science\x07"))
	})

	t.Run("keeps inner spaces", func(t *testing.T) {
		require.Equal(t, "van der Berg", CleanText("van der Berg"))
	})

	t.Run("empty stays empty", func(t *testing.T) {
		require.Empty(t, CleanText(" \u200B "))
	})
}

func TestCleanTextLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("ก", 300)
	actual := CleanTextLimit(long, 200)
	require.True(t, utf8.ValidString(actual))
	require.Equal(t, 200, utf8.RuneCountInString(actual))

	require.Equal(t, "abc", CleanTextLimit("abc", 0))
}
