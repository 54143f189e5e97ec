package models

import (
	"errors"
	"fmt"
	"time"
)

// Format identifies the source format of an ingested document.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
)

// Intent is the routing decision for a single user query.
type Intent string

const (
	IntentDocument Intent = "DOCUMENT"
	IntentGeneral  Intent = "GENERAL"
)

// Chunk is a bounded segment of a source document, the unit of indexing
// and retrieval. Immutable once produced by the chunker.
type Chunk struct {
	Text          string `json:"text"`
	SourceID      string `json:"source_id"`
	SequenceIndex int    `json:"sequence_index"`
	CharStart     int    `json:"char_start"`
	CharEnd       int    `json:"char_end"`
}

// Document exists only during ingestion; after its chunks are indexed
// it is discarded.
type Document struct {
	SourceID string
	RawText  string
	Format   Format
}

// SearchResult is a retrieved chunk with its similarity to the query.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// OpResult reports the outcome of an ingest or config-update operation.
// Callers are expected to check Success explicitly.
type OpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ConversationTurn is one persisted chat message. The core consumes the
// latest user message and produces one assistant turn; turn lifecycle is
// owned by the history store, not the core.
type ConversationTurn struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrUnsupportedFormat is returned when a file extension is neither
// .pdf nor .txt. User-correctable.
var ErrUnsupportedFormat = errors.New("formato de archivo no soportado")

// ProviderError wraps a failure of a remote model call (embedding or
// generation). Auth marks credential rejections so callers can surface
// the invalid-API-key message instead of a generic one.
type ProviderError struct {
	Op   string
	Auth bool
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is a provider credential rejection.
func IsAuthError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Auth
}
