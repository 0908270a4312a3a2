package services

import (
	"fmt"
	"strings"

	"github.com/niagahub/niagabot/internal/models"
)

const (
	defaultChunkSize    = 800 // words
	defaultChunkOverlap = 100
)

// IngestService turns uploaded plain-text sources into knowledge items
// ready for embedding. Only text/markdown payloads are accepted; binary
// document parsing is handled upstream of this backend.
type IngestService struct {
	ChunkSize    int
	ChunkOverlap int
}

func NewIngestService() *IngestService {
	return &IngestService{ChunkSize: defaultChunkSize, ChunkOverlap: defaultChunkOverlap}
}

// ChunkText splits on word boundaries with a sliding overlap so adjacent
// chunks share context.
func (s *IngestService) ChunkText(text string) []string {
	size := s.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	overlap := s.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(words); {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// BuildItems produces one knowledge item per chunk, titled by position.
func (s *IngestService) BuildItems(title, text string, tags []string) []models.KnowledgeItem {
	chunks := s.ChunkText(text)
	items := make([]models.KnowledgeItem, 0, len(chunks))
	for i, chunk := range chunks {
		itemTitle := title
		if len(chunks) > 1 {
			itemTitle = fmt.Sprintf("%s (%d/%d)", title, i+1, len(chunks))
		}
		items = append(items, models.KnowledgeItem{
			Title:   itemTitle,
			Content: chunk,
			Tags:    tags,
		})
	}
	return items
}
