package processor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"asistente-rag/internal/models"

	"github.com/ledongthuc/pdf"
)

// DetectFormat maps a file extension to a document format.
// Anything other than .pdf or .txt is rejected.
func DetectFormat(path string) (models.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return models.FormatPDF, nil
	case ".txt":
		return models.FormatText, nil
	default:
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a file and produces a transient Document whose SourceID is the
// file's base name. The document only lives until its chunks are indexed.
func Load(path string) (*models.Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var text string
	switch format {
	case models.FormatPDF:
		text, err = extractPDFText(path)
	case models.FormatText:
		text, err = readTextFile(path)
	}
	if err != nil {
		return nil, err
	}

	return &models.Document{
		SourceID: filepath.Base(path),
		RawText:  normalizeWhitespace(text),
		Format:   format,
	}, nil
}

// extractPDFText extracts the plain text of a PDF file.
func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract plain text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return buf.String(), nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

var (
	spaceRe   = regexp.MustCompile(`[ \t]+`)
	paraSepRe = regexp.MustCompile(`\n\s*\n+`)
)

// normalizeWhitespace collapses runs of spaces and blank lines so chunk
// boundaries land on real paragraph breaks.
func normalizeWhitespace(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")
	text = paraSepRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
