package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pdfqa/internal/chat"
	"pdfqa/internal/config"
	"pdfqa/internal/domain"
	embopenai "pdfqa/internal/embedding/openai"
	llmopenai "pdfqa/internal/llm/openai"
	"pdfqa/internal/service"
	"pdfqa/internal/tui"
	"pdfqa/internal/vectorstore/memory"
	"pdfqa/internal/vectorstore/pgvector"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/pdfqa/config.yaml)")
	flag.Parse()

	log := logrus.New()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config %s: %v", cfgPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	emb, err := embopenai.NewClient(embopenai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	model, err := llmopenai.NewClient(llmopenai.Config{
		BaseURL:   cfg.Completion.BaseURL,
		APIKeyEnv: cfg.Completion.APIKeyEnv,
		Model:     cfg.Completion.Model,
		MaxTokens: cfg.Completion.MaxTokens,
		Timeout:   time.Duration(cfg.Completion.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("completion model init failed: %v", err)
	}

	var store domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory":
		store = memory.NewStore()
	case "pgvector":
		store, err = pgvector.New(ctx, pgvector.Config{
			URL:        cfg.VectorStore.Pgvector.URL,
			Collection: cfg.Collection,
		})
		if err != nil {
			log.Fatalf("vector store init failed: %v", err)
		}
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}
	defer store.Close()

	qa := service.NewQA(
		service.NewRetriever(emb, store, cfg.Retrieval.TopK),
		service.NewSynthesizer(model),
	)

	switch cfg.Chat.Interface {
	case "tui":
		if err := tui.Run(ctx, qa, filepath.Base(cfg.PDFPath)); err != nil {
			log.Fatal(err)
		}
	default:
		sess := chat.NewSession(qa, os.Stdin, os.Stdout)
		if err := sess.Run(ctx); err != nil {
			log.Fatal(err)
		}
	}
}
