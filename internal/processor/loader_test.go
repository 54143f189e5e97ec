package processor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asistente-rag/internal/models"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want models.Format
	}{
		{"manual.pdf", models.FormatPDF},
		{"notas.txt", models.FormatText},
		{"REPORTE.PDF", models.FormatPDF},
		{"/tmp/dir/archivo.TXT", models.FormatText},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestDetectFormatUnsupported(t *testing.T) {
	for _, path := range []string{"datos.csv", "imagen.png", "sin_extension", "doc.docx"} {
		_, err := DetectFormat(path)
		assert.ErrorIs(t, err, models.ErrUnsupportedFormat, path)
	}
}

func TestLoadTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notas.txt")
	require.NoError(t, os.WriteFile(path, []byte("Primera   línea.\n\n\n\nSegunda línea."), 0o644))

	doc, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "notas.txt", doc.SourceID)
	assert.Equal(t, models.FormatText, doc.Format)
	assert.Equal(t, "Primera línea.\n\nSegunda línea.", doc.RawText)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datos.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no-existe.txt"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestNormalizeWhitespace(t *testing.T) {
	got := normalizeWhitespace("  a \t b\n \n\nc  ")
	assert.Equal(t, "a b\n\nc", got)
}
