package services

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/gsenseless/tg-job-RAG/internal/models"
)

// ResumeExtractor pulls plain text out of an uploaded resume PDF.
type ResumeExtractor interface {
	ExtractText(path string) (string, error)
}

type resumeExtractor struct{}

func NewResumeExtractor() ResumeExtractor {
	return &resumeExtractor{}
}

// ExtractText walks every page, skips pages that fail to decode, and rejects
// documents with no extractable text.
func (resumeExtractor) ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, content)
	}

	text := normalizeLines(strings.Join(pages, "\n"))
	if text == "" {
		return "", fmt.Errorf("no text content found in PDF: %w", models.ErrEmptyText)
	}
	return text, nil
}

// normalizeLines trims each line and drops empty ones, so page breaks and
// layout padding do not leak into the embedded text.
func normalizeLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
