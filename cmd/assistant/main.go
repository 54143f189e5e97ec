package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"asistente-rag/internal/config"
	"asistente-rag/internal/core"
	"asistente-rag/internal/database"
	"asistente-rag/internal/embedding"
	"asistente-rag/internal/llm"
	"asistente-rag/internal/processor"
	"asistente-rag/internal/search"
	"asistente-rag/internal/server"
	"asistente-rag/internal/watcher"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	interactive := flag.Bool("i", false, "Run in interactive mode instead of serving HTTP")
	queryFlag := flag.String("q", "", "Answer a single query and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	embedder, client, factory, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize model provider: %v", err)
	}

	var store database.VectorStore
	var history *database.HistoryStore
	switch cfg.Store.Type {
	case "postgres":
		pg, err := database.NewPostgresStore(ctx, cfg.Store.Postgres, embedder)
		if err != nil {
			log.Fatalf("Failed to open vector store: %v", err)
		}
		defer pg.Close()
		store = pg

		history, err = database.NewHistoryStore(ctx, pg.Pool())
		if err != nil {
			log.Fatalf("Failed to open history store: %v", err)
		}
	case "memory":
		store = database.NewMemoryStore(embedder)
	default:
		log.Fatalf("Unknown store type: %s", cfg.Store.Type)
	}

	chunker := processor.NewChunker(cfg.Chunker.Size, cfg.Chunker.Overlap)

	var opts []core.Option
	if tool := search.NewGoogleClient(cfg.SearchAPIKey, cfg.SearchCSEID); tool != nil {
		opts = append(opts, core.WithAgent(core.NewAgent(tool)))
		log.Println("Web search tool enabled")
	}
	if rot, ok := embedder.(embedding.KeyRotator); ok {
		opts = append(opts, core.WithKeyRotation(rot))
	}

	assistant := core.New(cfg, client, factory, store, chunker, opts...)

	if cfg.WatchDir != "" {
		go func() {
			if err := watcher.New(assistant, cfg.WatchDir).Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Document watcher stopped: %v", err)
			}
		}()
	}

	switch {
	case *queryFlag != "":
		fmt.Println(assistant.Chat(ctx, *queryFlag))
	case *interactive:
		runInteractive(ctx, assistant, cfg.AssistantName)
	default:
		log.Printf("%s listening on %s", cfg.AssistantName, cfg.Server.Addr)
		if err := server.New(assistant, history).Run(cfg.Server.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}
}

// buildProvider wires the embedding and generation clients for the
// configured provider.
func buildProvider(cfg *config.Config) (embedding.Embedder, llm.Client, llm.Factory, error) {
	switch cfg.Provider.Type {
	case "gemini":
		g := cfg.Provider.Gemini
		embedder := embedding.NewGeminiEmbedder(g.BaseURL, cfg.APIKey, g.EmbeddingModel)
		factory := llm.GeminiFactory(g.BaseURL)
		return embedder, factory(cfg.APIKey, cfg.Model), factory, nil
	case "ollama":
		o := cfg.Provider.Ollama
		embedder, err := embedding.NewOllamaEmbedder(o.Host, o.EmbeddingModel)
		if err != nil {
			return nil, nil, nil, err
		}
		factory := llm.OllamaFactory(o.Host)
		return embedder, factory("", cfg.Model), factory, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown provider type: %s", cfg.Provider.Type)
	}
}

func runInteractive(ctx context.Context, assistant *core.Core, name string) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Printf("%s - escribe tu pregunta ('salir' para terminar)\n", name)

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		lower := strings.ToLower(input)
		if lower == "salir" || lower == "exit" || lower == "quit" {
			break
		}

		// Local commands mirror the HTTP surface.
		if path, ok := strings.CutPrefix(input, "/cargar "); ok {
			result := assistant.Ingest(ctx, strings.TrimSpace(path))
			fmt.Println(result.Message)
			continue
		}
		if lower == "/limpiar" {
			fmt.Println(assistant.ClearDocuments(ctx).Message)
			continue
		}

		fmt.Println(assistant.Chat(ctx, input))
	}
}
