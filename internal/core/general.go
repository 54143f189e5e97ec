package core

import (
	"context"
	"fmt"

	"asistente-rag/internal/llm"
	"asistente-rag/internal/models"
)

// msgInvalidKey surfaces a rejected generation credential to the user.
const msgInvalidKey = "Error: La clave GEMINI_API_KEY no es válida. Revisa tu configuración."

// answerGeneral tries each answering strategy in a fixed priority order —
// the tool-augmented agent first when configured, then a direct single-turn
// call with the raw query — and stops at the first success. The fallback
// order is an explicit list, not nested error handlers, so the policy is
// testable without failure injection.
func (c *Core) answerGeneral(ctx context.Context, client llm.Client, query string) string {
	type strategy struct {
		name string
		run  func() (string, error)
	}

	var strategies []strategy
	if c.agent != nil {
		strategies = append(strategies, strategy{"agent", func() (string, error) {
			return c.agent.Run(ctx, client, query)
		}})
	}
	strategies = append(strategies, strategy{"direct", func() (string, error) {
		return client.Generate(ctx, query)
	}})

	var lastErr error
	for _, s := range strategies {
		text, err := s.run()
		if err == nil {
			return text
		}
		c.logger.Warn("answer strategy failed", "strategy", s.name, "error", err)
		lastErr = err
	}

	if models.IsAuthError(lastErr) {
		return msgInvalidKey
	}
	return fmt.Sprintf("Error inesperado de la IA: %v", lastErr)
}
