package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asistente-rag/internal/config"
	"asistente-rag/internal/core"
	"asistente-rag/internal/llm"
	"asistente-rag/internal/models"
	"asistente-rag/internal/processor"
)

type stubClient struct {
	responses []string
}

func (s *stubClient) Generate(context.Context, string) (string, error) {
	if len(s.responses) == 0 {
		return "respuesta", nil
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next, nil
}

func (s *stubClient) Model() string { return "stub-model" }

type stubStore struct {
	count int
}

func (s *stubStore) Upsert(_ context.Context, chunks []models.Chunk) error {
	s.count += len(chunks)
	return nil
}

func (s *stubStore) Query(context.Context, string, int) ([]models.SearchResult, error) {
	return nil, nil
}

func (s *stubStore) Count() int { return s.count }

func (s *stubStore) Clear(context.Context) error {
	s.count = 0
	return nil
}

func newTestRouter(client *stubClient, store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		AssistantName: "Asistente IA",
		Theme:         "dark",
		Model:         "stub-model",
		APIKey:        "key",
		ContextLimit:  4,
	}
	factory := func(apiKey, model string) llm.Client { return client }
	c := core.New(cfg, client, factory, store, processor.NewChunker(1000, 200))
	return New(c, nil).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStatusEndpoint(t *testing.T) {
	router := newTestRouter(&stubClient{}, &stubStore{count: 2})

	w := doJSON(t, router, http.MethodGet, "/api/status", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Asistente IA", body["assistant_name"])
	assert.Equal(t, float64(2), body["documents"])
}

func TestChatRequiresMessage(t *testing.T) {
	router := newTestRouter(&stubClient{}, &stubStore{})

	w := doJSON(t, router, http.MethodPost, "/api/assistant/chat", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatGeneratesSessionID(t *testing.T) {
	router := newTestRouter(&stubClient{responses: []string{"hola"}}, &stubStore{})

	w := doJSON(t, router, http.MethodPost, "/api/assistant/chat", map[string]string{"message": "hola"})

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "hola", body["response"])
	assert.NotEmpty(t, body["session_id"])
}

func TestChatPreservesSessionID(t *testing.T) {
	router := newTestRouter(&stubClient{}, &stubStore{})

	w := doJSON(t, router, http.MethodPost, "/api/assistant/chat",
		map[string]string{"message": "hola", "session_id": "sesion-1"})

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "sesion-1", body["session_id"])
}

func TestHistoryUnavailableWithoutRelationalStore(t *testing.T) {
	router := newTestRouter(&stubClient{}, &stubStore{})

	w := doJSON(t, router, http.MethodGet, "/api/assistant/history/sesion-1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetConfig(t *testing.T) {
	router := newTestRouter(&stubClient{}, &stubStore{count: 1})

	w := doJSON(t, router, http.MethodGet, "/api/assistant/config", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "stub-model", body["model"])
	assert.Equal(t, true, body["has_api_key"])
	assert.Equal(t, float64(1), body["document_count"])
}

func TestUpdateConfigEndpoint(t *testing.T) {
	router := newTestRouter(&stubClient{}, &stubStore{})

	w := doJSON(t, router, http.MethodPost, "/api/assistant/config",
		map[string]string{"assistant_name": "Nuevo"})

	require.Equal(t, http.StatusOK, w.Code)
	var result models.OpResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
}

func TestUpdateConfigEmptyBodyRejected(t *testing.T) {
	router := newTestRouter(&stubClient{}, &stubStore{})

	w := doJSON(t, router, http.MethodPost, "/api/assistant/config", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAndClear(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(&stubClient{}, store)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "manual.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Contenido del manual de usuario."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/assistant/document/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Body.String(), "manual.txt"))
	assert.Positive(t, store.count)

	w = doJSON(t, router, http.MethodDelete, "/api/assistant/document/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, store.count)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	router := newTestRouter(&stubClient{}, &stubStore{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "datos.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("a,b,c"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/assistant/document/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Formato de archivo no soportado")
}

func TestUploadRequiresFile(t *testing.T) {
	router := newTestRouter(&stubClient{}, &stubStore{})

	w := doJSON(t, router, http.MethodPost, "/api/assistant/document/upload", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
