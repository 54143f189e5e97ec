package core

import (
	"context"
	"fmt"

	"asistente-rag/internal/config"
	"asistente-rag/internal/models"
)

// UpdateConfig validates and applies a runtime configuration change. A new
// API key (or model) is only committed after one successful test generation
// call with the candidate client; on validation failure the previous client
// and configuration stay active. The swap is atomic with respect to
// concurrent Chat calls; a committed key also re-binds the embedding
// provider in the same critical section, so ingestion and retrieval never
// keep embedding with a rotated-out credential. Committed changes are
// written back to the config file.
func (c *Core) UpdateConfig(ctx context.Context, name, apiKey, model string) models.OpResult {
	if name == "" && apiKey == "" && model == "" {
		return models.OpResult{Success: false, Message: "Nada que actualizar."}
	}

	if apiKey != "" || model != "" {
		c.mu.RLock()
		candidateKey := c.cfg.APIKey
		candidateModel := c.cfg.Model
		c.mu.RUnlock()
		if apiKey != "" {
			candidateKey = apiKey
		}
		if model != "" {
			candidateModel = model
		}

		// Validate outside the lock; the test call may take a while.
		candidate := c.factory(candidateKey, candidateModel)
		if _, err := candidate.Generate(ctx, "Hola"); err != nil {
			c.logger.Warn("config validation failed", "error", err)
			return models.OpResult{
				Success: false,
				Message: fmt.Sprintf("Error al actualizar configuración: %v", err),
			}
		}

		c.mu.Lock()
		c.client = candidate
		c.cfg.APIKey = candidateKey
		c.cfg.Model = candidateModel
		if c.rotator != nil && apiKey != "" {
			c.rotator.RotateKey(candidateKey)
		}
		c.mu.Unlock()
		c.logger.Info("generation client rebuilt", "model", candidateModel)
	}

	if name != "" {
		c.mu.Lock()
		c.cfg.AssistantName = name
		c.mu.Unlock()
	}

	c.persistConfig()
	return models.OpResult{Success: true, Message: "Configuración actualizada correctamente."}
}

// persistConfig writes the committed configuration back to the file it was
// loaded from. Secrets are tagged out of the yaml, so only the non-secret
// fields land on disk; a write failure only logs.
func (c *Core) persistConfig() {
	c.mu.RLock()
	snapshot := *c.cfg
	c.mu.RUnlock()

	if snapshot.Path == "" {
		return
	}
	if err := config.Save(snapshot.Path, &snapshot); err != nil {
		c.logger.Warn("failed to persist configuration", "path", snapshot.Path, "error", err)
	}
}
