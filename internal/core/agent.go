package core

import (
	"context"
	"fmt"
	"strings"

	"asistente-rag/internal/llm"
	"asistente-rag/internal/search"
)

// searchDirective is the line prefix the model uses to request a search.
const searchDirective = "SEARCH:"

const agentInstruction = `Eres un asistente con acceso a una herramienta de búsqueda web.
Si necesitas información actual o externa para responder, contesta EXACTAMENTE con una sola línea:
SEARCH: <consulta de búsqueda>
Cuando tengas suficiente información, responde directamente al usuario en español.`

// Agent answers general queries with a bounded tool loop: the model may
// request up to maxRounds web searches before it must produce a final
// answer. The loop is explicit so the round budget is enforced here, not
// buried in the model's behavior.
type Agent struct {
	tool      search.Tool
	maxRounds int
}

// NewAgent creates the tool-augmented answerer. Returns nil when no search
// tool is configured, which disables the agent path entirely.
func NewAgent(tool search.Tool) *Agent {
	if tool == nil {
		return nil
	}
	return &Agent{tool: tool, maxRounds: 3}
}

// Run drives the loop until the model answers or the round budget runs out.
func (a *Agent) Run(ctx context.Context, client llm.Client, query string) (string, error) {
	var transcript strings.Builder
	transcript.WriteString(agentInstruction)
	transcript.WriteString("\n\nPREGUNTA DEL USUARIO: ")
	transcript.WriteString(query)

	for round := 0; round <= a.maxRounds; round++ {
		response, err := client.Generate(ctx, transcript.String())
		if err != nil {
			return "", fmt.Errorf("agent generation failed: %w", err)
		}

		trimmed := strings.TrimSpace(response)
		if !strings.HasPrefix(trimmed, searchDirective) {
			return response, nil
		}
		if round == a.maxRounds {
			break
		}

		searchQuery := strings.TrimSpace(strings.TrimPrefix(trimmed, searchDirective))
		results, err := a.tool.Search(ctx, searchQuery)
		if err != nil {
			return "", fmt.Errorf("search tool failed: %w", err)
		}

		fmt.Fprintf(&transcript, "\n\nRESULTADOS DE BÚSQUEDA PARA \"%s\":\n%s\n\nResponde al usuario con esta información, o pide otra búsqueda si es imprescindible.", searchQuery, results)
	}

	return "", fmt.Errorf("agent exceeded %d search rounds without answering", a.maxRounds)
}
