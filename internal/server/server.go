// Package server exposes the assistant core over HTTP. The handlers only
// adapt JSON and multipart payloads to core calls; no assistant logic
// lives here.
package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"asistente-rag/internal/core"
	"asistente-rag/internal/database"
	"asistente-rag/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Server is the HTTP interface of the assistant.
type Server struct {
	core    *core.Core
	history *database.HistoryStore // optional
	logger  *slog.Logger
}

// New creates the server. history may be nil when no relational store is
// configured; chat then simply goes unrecorded.
func New(c *core.Core, history *database.HistoryStore) *Server {
	return &Server{
		core:    c,
		history: history,
		logger:  slog.Default().With("component", "server"),
	}
}

// Router builds the gin engine with all assistant routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/status", s.handleStatus)

	assistant := api.Group("/assistant")
	assistant.GET("/config", s.handleGetConfig)
	assistant.POST("/config", s.handleUpdateConfig)
	assistant.POST("/chat", s.handleChat)
	assistant.GET("/history/:session", s.handleHistory)
	assistant.POST("/document/upload", s.handleUpload)
	assistant.DELETE("/document/clear", s.handleClear)

	return r
}

// Run starts serving on addr and blocks.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	answer := s.core.Chat(c.Request.Context(), req.Message)
	s.recordTurns(c, req.SessionID, req.Message, answer)

	c.JSON(http.StatusOK, chatResponse{Response: answer, SessionID: req.SessionID})
}

// recordTurns persists the user and assistant turns. History is a
// collaborator of the chat flow, not of the core; failures only log.
func (s *Server) recordTurns(c *gin.Context, sessionID, message, answer string) {
	if s.history == nil {
		return
	}
	ctx := c.Request.Context()
	now := time.Now()
	for _, turn := range []models.ConversationTurn{
		{SessionID: sessionID, Role: "user", Content: message, Timestamp: now},
		{SessionID: sessionID, Role: "assistant", Content: answer, Timestamp: now},
	} {
		if err := s.history.SaveTurn(ctx, turn); err != nil {
			s.logger.Warn("failed to persist turn", "session", sessionID, "error", err)
		}
	}
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "historial no disponible"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit inválido"})
			return
		}
		limit = n
	}

	turns, err := s.history.RecentTurns(c.Request.Context(), c.Param("session"), limit)
	if err != nil {
		s.logger.Error("failed to load history", "session", c.Param("session"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo cargar el historial"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": c.Param("session"), "turns": turns})
}

type configUpdateRequest struct {
	AssistantName string `json:"assistant_name"`
	APIKey        string `json:"api_key"`
	Model         string `json:"model"`
}

func (s *Server) handleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"assistant_name": s.core.AssistantName(),
		"model":          s.core.Model(),
		"theme":          s.core.Theme(),
		"has_api_key":    s.core.HasAPIKey(),
		"document_count": s.core.DocumentCount(),
	})
}

func (s *Server) handleUpdateConfig(c *gin.Context) {
	var req configUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.core.UpdateConfig(c.Request.Context(), req.AssistantName, req.APIKey, req.Model)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "archivo requerido"})
		return
	}

	// Stage the upload in a temp dir; ingestion reads from disk.
	dir, err := os.MkdirTemp("", "asistente-upload-")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := s.core.Ingest(c.Request.Context(), path)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleClear(c *gin.Context) {
	result := s.core.ClearDocuments(c.Request.Context())
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"assistant_name": s.core.AssistantName(),
		"documents":      s.core.DocumentCount(),
	})
}
