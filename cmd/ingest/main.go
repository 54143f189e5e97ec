package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"asistente-rag/internal/config"
	"asistente-rag/internal/core"
	"asistente-rag/internal/database"
	"asistente-rag/internal/embedding"
	"asistente-rag/internal/llm"
	"asistente-rag/internal/processor"
)

// Standalone indexer: loads one or more documents into the vector store
// without starting the assistant server.
func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	clearAll := flag.Bool("clear", false, "Remove all indexed documents before ingesting")
	flag.Parse()

	if !*clearAll && flag.NArg() == 0 {
		log.Fatal("Usage: ingest [-config path] [-clear] file.pdf [file.txt ...]")
	}

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
	switch cfg.Store.Type {
	case "postgres":
		pg, err := database.NewPostgresStore(ctx, cfg.Store.Postgres, embedder)
		if err != nil {
			log.Fatalf("Failed to open vector store: %v", err)
		}
		defer pg.Close()
		store = pg
	case "memory":
		log.Fatal("The memory store does not persist; ingest requires store.type postgres")
	default:
		log.Fatalf("Unknown store type: %s", cfg.Store.Type)
	}

	chunker := processor.NewChunker(cfg.Chunker.Size, cfg.Chunker.Overlap)
	assistant := core.New(cfg, client, factory, store, chunker)

	if *clearAll {
		fmt.Println(assistant.ClearDocuments(ctx).Message)
	}

	failed := 0
	for _, path := range flag.Args() {
		result := assistant.Ingest(ctx, path)
		fmt.Printf("%s: %s\n", path, result.Message)
		if !result.Success {
			failed++
		}
	}

	if failed > 0 {
		log.Fatalf("%d of %d documents failed", failed, flag.NArg())
	}
	log.Printf("Indexed %d documents (%d chunks total)", flag.NArg(), store.Count())
}

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
