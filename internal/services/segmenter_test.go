package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewResponseSegmenter()

	assert.Empty(t, s.Split(""), "empty input must yield no bubbles")
	assert.Empty(t, s.Split("   \n\n  "), "whitespace-only input must yield no bubbles")
}

func TestSplitShortText(t *testing.T) {
	s := NewResponseSegmenter()

	got := s.Split("Halo! Ada yang bisa saya bantu?")
	require.Len(t, got, 1)
	assert.Equal(t, "Halo! Ada yang bisa saya bantu?", got[0].Text)
	assert.Equal(t, 0, got[0].DelayMS, "first bubble must have zero delay")
}

func TestSplitShortParagraphsStayOneBubble(t *testing.T) {
	s := NewResponseSegmenter()

	text := "Paket A cocok untuk pemula.\n\nPaket B untuk kebutuhan bisnis."
	got := s.Split(text)
	require.Len(t, got, 1, "text under the limit must stay one bubble")
	assert.Equal(t, text, got[0].Text, "paragraph breaks inside a bubble are preserved")
	assert.Equal(t, 0, got[0].DelayMS)
}

func TestSplitLongTextWrapsAtLimit(t *testing.T) {
	s := NewResponseSegmenter()

	text := strings.TrimSpace(strings.Repeat("kalimat penjelasan produk yang cukup panjang. ", 12))
	got := s.Split(text)
	require.Greater(t, len(got), 1)
	for _, b := range got {
		assert.LessOrEqual(t, len(b.Text), s.MaxBubbleLength)
	}
}

func TestSplitNeverBreaksWords(t *testing.T) {
	s := &ResponseSegmenter{MaxBubbleLength: 20, PacingDelayMS: 1200}

	long := "satu dua tiga empat lima enam tujuh delapan sembilan sepuluh"
	got := s.Split(long)
	require.GreaterOrEqual(t, len(got), 2)

	var words []string
	for _, b := range got {
		if len(b.Text) > 20 {
			assert.Len(t, strings.Fields(b.Text), 1, "only a single oversized word may exceed the limit: %q", b.Text)
		}
		words = append(words, strings.Fields(b.Text)...)
	}
	assert.Equal(t, long, strings.Join(words, " "), "words lost or reordered")
}

func TestSplitWordLongerThanLimitKept(t *testing.T) {
	s := &ResponseSegmenter{MaxBubbleLength: 5, PacingDelayMS: 1200}

	got := s.Split("supercalifragilistic")
	require.Len(t, got, 1)
	assert.Equal(t, "supercalifragilistic", got[0].Text, "oversized word must stay intact")
}

func TestSplitPacing(t *testing.T) {
	s := &ResponseSegmenter{MaxBubbleLength: 10, PacingDelayMS: 700}

	got := s.Split("satu dua tiga empat lima enam")
	require.Len(t, got, 3)
	for i, b := range got {
		want := 0
		if i > 0 {
			want = s.PacingDelayMS
		}
		assert.Equal(t, want, b.DelayMS, "bubble %d delay", i)
	}
}
