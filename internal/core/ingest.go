package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"asistente-rag/internal/models"
	"asistente-rag/internal/processor"
)

// Ingest loads, chunks, embeds and indexes a single file. It is the only
// path that adds entries to the vector index. Any step failure returns a
// failure result with a human-readable cause and leaves the index exactly
// as it was: chunks are committed per document in one transaction, so a
// mid-batch embedding error never leaves a partial document behind.
func (c *Core) Ingest(ctx context.Context, filePath string) models.OpResult {
	doc, err := processor.Load(filePath)
	if err != nil {
		if errors.Is(err, models.ErrUnsupportedFormat) {
			return models.OpResult{
				Success: false,
				Message: "Formato de archivo no soportado. Por favor, usa .pdf o .txt.",
			}
		}
		return models.OpResult{
			Success: false,
			Message: fmt.Sprintf("Error al cargar el documento: %v", err),
		}
	}

	chunks := c.chunker.Split(doc.RawText, doc.SourceID)
	if len(chunks) == 0 {
		return models.OpResult{
			Success: false,
			Message: fmt.Sprintf("El documento '%s' está vacío.", doc.SourceID),
		}
	}

	if err := c.store.Upsert(ctx, chunks); err != nil {
		c.logger.Error("ingest failed", "source", doc.SourceID, "error", err)
		return models.OpResult{
			Success: false,
			Message: fmt.Sprintf("Error al cargar el documento: %v", err),
		}
	}

	c.logger.Info("document ingested", "source", doc.SourceID, "chunks", len(chunks))
	return models.OpResult{
		Success: true,
		Message: fmt.Sprintf("Documento '%s' cargado y listo para consultas.", filepath.Base(filePath)),
	}
}

// ClearDocuments empties the vector index. The only removal path.
func (c *Core) ClearDocuments(ctx context.Context) models.OpResult {
	if err := c.store.Clear(ctx); err != nil {
		return models.OpResult{
			Success: false,
			Message: fmt.Sprintf("Error al eliminar los documentos: %v", err),
		}
	}
	return models.OpResult{
		Success: true,
		Message: "Todos los documentos han sido eliminados.",
	}
}
