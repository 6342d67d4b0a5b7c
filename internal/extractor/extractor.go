// Package extractor turns uploaded document files into plain text blocks
// with page metadata. Splitting blocks into retrieval segments is the
// chunker's job, not this package's.
package extractor

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
)

// Block is one unit of extracted text. Page is 1-based for paginated
// formats and 0 otherwise. Atomic blocks are indivisible units (one CSV
// row) that must not be split further even when they exceed the chunk size.
type Block struct {
	Text   string
	Page   int
	Atomic bool
}

// SupportedExtensions lists the formats the ingestion path accepts.
var SupportedExtensions = []string{"pdf", "txt", "docx", "csv"}

func extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// Supported reports whether the file's extension is in the supported set.
func Supported(filename string) bool {
	ext := extension(filename)
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Extract reads the file and returns its text blocks.
func Extract(filePath string) ([]Block, error) {
	switch ext := extension(filePath); ext {
	case "pdf":
		return extractPDF(filePath)
	case "txt":
		return extractText(filePath)
	case "docx":
		return extractDOCX(filePath)
	case "csv":
		return extractCSV(filePath)
	default:
		return nil, fmt.Errorf("%w: .%s", apperr.ErrUnsupportedFormat, ext)
	}
}

func extractPDF(filePath string) ([]Block, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}

	var blocks []Block
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", apperr.ErrExtraction, i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		blocks = append(blocks, Block{Text: pageText, Page: i})
	}
	return blocks, nil
}

func extractText(filePath string) ([]Block, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []Block{{Text: string(data)}}, nil
}

func extractDOCX(filePath string) ([]Block, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var paragraphs []string
	for _, p := range strings.Split(content, "\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil, nil
	}
	return []Block{{Text: strings.Join(paragraphs, "\n\n")}}, nil
}

// extractCSV renders each data row as "header: value" lines. A row is one
// indivisible unit of meaning, so rows are marked atomic.
func extractCSV(filePath string) ([]Block, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	var blocks []Block
	for _, record := range records[1:] {
		var row strings.Builder
		for i, value := range record {
			name := fmt.Sprintf("column_%d", i+1)
			if i < len(header) {
				name = header[i]
			}
			fmt.Fprintf(&row, "%s: %s\n", name, value)
		}
		text := strings.TrimSpace(row.String())
		if text == "" {
			continue
		}
		blocks = append(blocks, Block{Text: text, Atomic: true})
	}
	return blocks, nil
}
