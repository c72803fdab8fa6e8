package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pdfqa/internal/chunker"
	"pdfqa/internal/config"
	"pdfqa/internal/domain"
	"pdfqa/internal/embedding/openai"
	"pdfqa/internal/pdfdoc"
	"pdfqa/internal/service"
	"pdfqa/internal/vectorstore/memory"
	"pdfqa/internal/vectorstore/pgvector"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var reset bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/pdfqa/config.yaml)")
	flag.BoolVar(&reset, "reset", false, "Clear the collection before ingesting")
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

	emb, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	ch, err := chunker.New(cfg.Chunker.MaxSize, cfg.Chunker.Overlap)
	if err != nil {
		log.Fatalf("chunker init failed: %v", err)
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

	if reset {
		if err := store.Clear(ctx); err != nil {
			log.Fatalf("failed to clear collection: %v", err)
		}
		log.WithField("collection", cfg.Collection).Info("collection cleared")
	}

	ing := service.NewIngestor(pdfdoc.Load, ch, emb, store, cfg.Embedder.BatchSize, log)
	summary, err := ing.Ingest(ctx, cfg.PDFPath)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"path":       cfg.PDFPath,
		"collection": cfg.Collection,
		"chunks":     summary.ChunksWritten,
	}).Info("ingest complete")
}
