package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/chatstore"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/chunker"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/config"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/embedding"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/helper"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/ingest"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/llmservice"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/models"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/rag"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/server"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/vectorindex"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	var configPath string
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "docqa",
		Short: "retrieval-augmented document question answering",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	var filePath string
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "ingest one document into the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" {
				return fmt.Errorf("--file is required")
			}
			return runIngest(cmd.Context(), configPath, filePath)
		},
	}
	ingestCmd.Flags().StringVar(&filePath, "file", "", "path to the document file")

	var question, chatID string
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "ask a question against the indexed documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if question == "" {
				return fmt.Errorf("--q is required")
			}
			return runQuery(cmd.Context(), configPath, question, chatID)
		},
	}
	queryCmd.Flags().StringVar(&question, "q", "", "question to be answered")
	queryCmd.Flags().StringVar(&chatID, "chat", "", "conversation id to continue (generated when empty)")

	rootCmd.AddCommand(serveCmd, ingestCmd, queryCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

type app struct {
	cfg      *config.Config
	index    *vectorindex.Store
	chats    *chatstore.Store
	ingestor *ingest.Ingestor
	answerer *rag.RAG
}

func buildApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", configPath).Msg("config file not found, using defaults")
		cfg = config.Default()
	} else if err != nil {
		return nil, fmt.Errorf("error loading config: %v", err)
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("error initializing embedder: %v", err)
	}

	index, err := vectorindex.Open(ctx, cfg.Storage.IndexPath, embedding.Func(embedder))
	if err != nil {
		return nil, fmt.Errorf("error opening vector index: %v", err)
	}

	chats, err := chatstore.New(cfg.Storage.HistoryDir)
	if err != nil {
		return nil, fmt.Errorf("error opening chat store: %v", err)
	}

	ch := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	ingestor, err := ingest.New(index, ch, cfg.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("error initializing ingestor: %v", err)
	}

	answerer := rag.NewRAG(index, chats, llmservice.NewClient(&cfg.ChatLLM), &cfg.RAG)

	return &app{cfg: cfg, index: index, chats: chats, ingestor: ingestor, answerer: answerer}, nil
}

func runServe(ctx context.Context, configPath string) error {
	a, err := buildApp(ctx, configPath)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: server.New(a.ingestor, a.answerer, a.chats).Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Int("port", a.cfg.Server.Port).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runIngest(ctx context.Context, configPath, filePath string) error {
	a, err := buildApp(ctx, configPath)
	if err != nil {
		return err
	}
	count, err := a.ingestor.IngestFile(ctx, filePath)
	if err != nil {
		return err
	}
	log.Info().Str("file", filePath).Int("segments", count).Msg("ingested")
	return nil
}

func runQuery(ctx context.Context, configPath, question, chatID string) error {
	a, err := buildApp(ctx, configPath)
	if err != nil {
		return err
	}
	if chatID == "" {
		chatID, err = helper.GenerateUUID()
		if err != nil {
			return err
		}
	}

	answer, sources, err := a.answerer.Answer(ctx, question, chatID)
	if err != nil {
		return err
	}
	if err := a.chats.Append(chatID, models.RoleUser, question); err != nil {
		return err
	}
	if err := a.chats.Append(chatID, models.RoleAssistant, answer); err != nil {
		return err
	}

	fmt.Printf("Chat: %s\n\n", chatID)
	fmt.Printf("Query:\n%s\n\n", question)
	fmt.Printf("Assistant:\n%s\n\n", answer)
	for i, source := range sources {
		if source.Page > 0 {
			fmt.Printf("Source %d: %s (page %d)\n%s\n\n", i+1, source.Source, source.Page, source.Content)
		} else {
			fmt.Printf("Source %d: %s\n%s\n\n", i+1, source.Source, source.Content)
		}
	}
	return nil
}
