package core

import (
	"context"
	"fmt"
	"strings"

	"asistente-rag/internal/llm"
	"asistente-rag/internal/models"
)

const classificationPrompt = `INSTRUCCIONES CLASIFICACIÓN: Eres un clasificador de intención. Tu objetivo es decidir si la pregunta del usuario debe ser respondida usando el **DOCUMENTO CARGADO** o usando el **CONOCIMIENTO GENERAL/BÚSQUEDA WEB**.

Si la pregunta es sobre el contenido del documento, responde DOCUMENT.
Si la pregunta es sobre el clima, noticias, o un tema que requiere buscar en la web o conocimiento general, responde GENERAL.

Pregunta del usuario: "%s"

RESPUESTA (DOCUMENT o GENERAL):`

// classify decides whether the query should consult the document index.
//
// An empty index short-circuits to GENERAL without a model call. Anything
// the model answers that is not exactly one of the two labels also becomes
// GENERAL: answering from an irrelevant document context is worse than
// falling through to general knowledge, so ambiguity never routes to
// DOCUMENT. Model-call errors are caught here for the same reason; the
// user always gets some answer.
func (c *Core) classify(ctx context.Context, client llm.Client, query string) models.Intent {
	if c.store.Count() == 0 {
		return models.IntentGeneral
	}

	response, err := client.Generate(ctx, fmt.Sprintf(classificationPrompt, query))
	if err != nil {
		c.logger.Warn("intent classification failed, defaulting to GENERAL", "error", err)
		return models.IntentGeneral
	}

	switch models.Intent(strings.ToUpper(strings.TrimSpace(response))) {
	case models.IntentDocument:
		return models.IntentDocument
	case models.IntentGeneral:
		return models.IntentGeneral
	default:
		return models.IntentGeneral
	}
}
