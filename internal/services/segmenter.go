package services

import (
	"strings"
	"unicode"

	"github.com/niagahub/niagabot/internal/models"
)

const (
	defaultMaxBubbleLength = 280
	defaultBubbleDelayMS   = 1200
)

// ResponseSegmenter splits raw generated text into bounded-length bubbles
// for staged display. Words are never broken and inner whitespace is kept,
// so a reply shorter than the limit is always a single bubble no matter how
// many paragraphs it has.
type ResponseSegmenter struct {
	MaxBubbleLength int
	PacingDelayMS   int
}

func NewResponseSegmenter() *ResponseSegmenter {
	return &ResponseSegmenter{
		MaxBubbleLength: defaultMaxBubbleLength,
		PacingDelayMS:   defaultBubbleDelayMS,
	}
}

func (s *ResponseSegmenter) Split(text string) []models.Bubble {
	maxLen := s.MaxBubbleLength
	if maxLen <= 0 {
		maxLen = defaultMaxBubbleLength
	}
	delay := s.PacingDelayMS
	if delay <= 0 {
		delay = defaultBubbleDelayMS
	}

	chunks := wrapText(text, maxLen)

	bubbles := make([]models.Bubble, 0, len(chunks))
	for i, chunk := range chunks {
		d := 0
		if i > 0 {
			d = delay
		}
		bubbles = append(bubbles, models.Bubble{Text: strings.TrimSpace(chunk), DelayMS: d})
	}
	return bubbles
}

// wrapText greedily fills chunks up to maxLen, splitting only at whitespace.
// Whitespace runs between words on the same chunk are preserved as written
// (newlines included); whitespace at a chunk boundary is dropped. A single
// word longer than maxLen gets a chunk of its own, intact.
func wrapText(text string, maxLen int) []string {
	var chunks []string
	var cur, sep, word strings.Builder

	flush := func() {
		if word.Len() == 0 {
			return
		}
		switch {
		case cur.Len() == 0:
			cur.WriteString(word.String())
		case cur.Len()+sep.Len()+word.Len() > maxLen:
			chunks = append(chunks, cur.String())
			cur.Reset()
			cur.WriteString(word.String())
		default:
			cur.WriteString(sep.String())
			cur.WriteString(word.String())
		}
		sep.Reset()
		word.Reset()
	}

	for _, r := range text {
		if unicode.IsSpace(r) {
			flush()
			sep.WriteRune(r)
		} else {
			word.WriteRune(r)
		}
	}
	flush()
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
