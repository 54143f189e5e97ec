package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "Asistente IA", cfg.AssistantName)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, "gemini", cfg.Provider.Type)
	assert.Equal(t, "text-embedding-004", cfg.Provider.Gemini.EmbeddingModel)
	assert.Equal(t, 1000, cfg.Chunker.Size)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, 4, cfg.ContextLimit)
	assert.Equal(t, ":8800", cfg.Server.Addr)
}

func TestLoadOverridesAndFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assistant_name: Mi Asistente
model: gemini-2.0-pro
chunker:
  size: 500
store:
  type: memory
`), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "Mi Asistente", cfg.AssistantName)
	assert.Equal(t, "gemini-2.0-pro", cfg.Model)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, 500, cfg.Chunker.Size)
	// Unset fields fall back to defaults.
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, "gemini", cfg.Provider.Type)
	// The source path is recorded so config updates persist back to it.
	assert.Equal(t, path, cfg.Path)
}

func TestLoadResolvesSecretsFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "clave-gemini")
	t.Setenv("GOOGLE_API_KEY", "clave-busqueda")
	t.Setenv("GOOGLE_CSE_ID", "cse-123")

	cfg, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "clave-gemini", cfg.APIKey)
	assert.Equal(t, "clave-busqueda", cfg.SearchAPIKey)
	assert.Equal(t, "cse-123", cfg.SearchCSEID)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assistant_name: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml"))
	require.NoError(t, err)
	cfg.AssistantName = "Guardado"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Guardado", loaded.AssistantName)
}
