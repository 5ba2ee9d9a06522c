package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/callback"
	"github.com/wondercloudgenai/talentflow/internal/chunker"
	"github.com/wondercloudgenai/talentflow/internal/config"
	"github.com/wondercloudgenai/talentflow/internal/domain"
	logpkg "github.com/wondercloudgenai/talentflow/internal/logger"
	"github.com/wondercloudgenai/talentflow/internal/metrics"
	"github.com/wondercloudgenai/talentflow/internal/parser"
	"github.com/wondercloudgenai/talentflow/internal/queue"
	"github.com/wondercloudgenai/talentflow/internal/transport/gemini"
	openaiEmb "github.com/wondercloudgenai/talentflow/internal/transport/openai"
	"github.com/wondercloudgenai/talentflow/internal/transport/ws"
	"github.com/wondercloudgenai/talentflow/internal/usecase/analysis"
	"github.com/wondercloudgenai/talentflow/internal/usecase/embedding"
	"github.com/wondercloudgenai/talentflow/internal/usecase/filter"
	"github.com/wondercloudgenai/talentflow/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting talentflow worker",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("queue", cfg.Queue.Name),
		zap.Strings("queue_addrs", cfg.Queue.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()
	metrics.RegisterEmbeddingMetrics()

	source, err := queue.NewRedisSource(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to create task source", zap.Error(err))
	}
	defer source.Close()

	// Wait for the broker to be ready
	ctx := context.Background()
	if err := source.WaitForReady(ctx, time.Duration(cfg.Queue.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Task queue not ready", zap.Error(err))
	}
	logger.Info("Connected to task queue")

	store := callback.New(cfg.Callback, logger)

	generator, err := gemini.NewGenerator(ctx, cfg.Generative, logger)
	if err != nil {
		logger.Fatal("Failed to create generative client", zap.Error(err))
	}
	logger.Info("Generative client created", zap.String("model", generator.Model()))

	embedder := openaiEmb.NewEmbedder(cfg.Embedding, logger)
	batcher := embedding.NewBatcher(embedder, cfg.Embedding.GroupSize, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	resultParser := parser.New(cfg.Filter.SuitabilityThreshold)

	splitter, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap, cfg.Chunking.MinChars)
	if err != nil {
		logger.Fatal("Failed to create chunker", zap.Error(err))
	}

	svc := analysis.New(store, generator, resultParser, embedder, batcher, splitter, logger)

	consumer := queue.NewConsumer(source, cfg.Queue.Concurrency, logger)
	registerTasks(consumer, svc)

	// Interactive filter channel
	sessions := filter.NewRegistry()
	server := ws.NewServer(
		store, embedder, filterProvider{generator}, resultParser,
		sessions, cfg.Filter.CandidateLimit, logger,
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		logger.Info("Starting task consumer", zap.Int("concurrency", cfg.Queue.Concurrency))
		if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Task consumer stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	<-consumerDone

	logger.Info("Worker stopped gracefully")
}

// registerTasks binds queue task names to pipeline operations.
func registerTasks(c *queue.Consumer, svc *analysis.Service) {
	c.Handle(queue.TaskAnalyzeCV, func(ctx context.Context, payload json.RawMessage) error {
		var scope domain.Scope
		if err := json.Unmarshal(payload, &scope); err != nil {
			return fmt.Errorf("decode analyze payload: %w", err)
		}
		return svc.AnalyzeDocuments(ctx, scope)
	})

	c.Handle(queue.TaskAnalyzeJD, func(ctx context.Context, payload json.RawMessage) error {
		var req struct {
			JobID string `json:"jd_id"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("decode job payload: %w", err)
		}
		return svc.SummarizeJob(ctx, req.JobID)
	})

	c.Handle(queue.TaskEmbedCV, func(ctx context.Context, payload json.RawMessage) error {
		var req struct {
			DocID   string   `json:"cv_id"`
			Texts   []string `json:"texts"`
			Content string   `json:"content"`
			PDF     []byte   `json:"pdf"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("decode embedding payload: %w", err)
		}
		if len(req.Texts) > 0 {
			return svc.EmbedDocumentTexts(ctx, req.DocID, req.Texts)
		}
		return svc.EmbedDocumentContent(ctx, req.DocID, req.PDF, req.Content)
	})

	c.Handle(queue.TaskAbstractCV, func(ctx context.Context, payload json.RawMessage) error {
		var req struct {
			Docs []domain.Document `json:"cvs"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("decode abstract payload: %w", err)
		}
		return svc.AbstractDocuments(ctx, req.Docs)
	})

	c.Handle(queue.TaskVectorSearch, func(ctx context.Context, payload json.RawMessage) error {
		var req struct {
			TaskID string `json:"search_task_id"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("decode search payload: %w", err)
		}
		return svc.RunVectorSearch(ctx, req.TaskID)
	})
}

// filterProvider adapts the generative client to the filter contract:
// the concrete chat type is returned behind the Chat interface.
type filterProvider struct {
	generator *gemini.Generator
}

func (p filterProvider) FilterOnce(ctx context.Context, jobInfo, condition string, docs []domain.Document) (string, error) {
	return p.generator.FilterOnce(ctx, jobInfo, condition, docs)
}

func (p filterProvider) NewFilterChat(ctx context.Context, jobInfo string) (filter.Chat, error) {
	chat, err := p.generator.NewFilterChat(ctx, jobInfo)
	if err != nil {
		return nil, err
	}
	return chat, nil
}
