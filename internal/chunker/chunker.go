// Package chunker splits extracted document text into overlapping segments
// sized for retrieval. The policy is recursive character splitting: prefer
// the largest separator (paragraph, line, space) that yields pieces within
// the target size, with a fixed overlap between consecutive segments so
// information spanning a split point survives whole in at least one of them.
package chunker

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/extractor"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/models"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = defaultChunkOverlap
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// Split turns extracted blocks into retrieval segments carrying the source
// document's name and page. Atomic blocks pass through unsplit. The output
// is deterministic for a given input.
func (c *Chunker) Split(blocks []extractor.Block, source string) ([]models.Segment, error) {
	var segments []models.Segment
	for _, block := range blocks {
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}
		if block.Atomic {
			segments = append(segments, models.Segment{Content: text, Source: source, Page: block.Page})
			continue
		}
		parts, err := c.splitter.SplitText(text)
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			segments = append(segments, models.Segment{Content: part, Source: source, Page: block.Page})
		}
	}
	return segments, nil
}
