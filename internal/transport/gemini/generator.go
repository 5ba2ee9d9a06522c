// Package gemini is the generative provider transport built on the
// Google GenAI SDK. Analysis, summarization and abstraction are one-shot
// calls; interactive filtering additionally supports a long-lived chat
// that keeps evaluation context across rounds.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/wondercloudgenai/talentflow/internal/config"
	"github.com/wondercloudgenai/talentflow/internal/domain"
	"github.com/wondercloudgenai/talentflow/internal/metrics"
)

// Request kinds for metrics labels.
const (
	kindAnalysis = "analysis"
	kindSummary  = "summary"
	kindAbstract = "abstract"
	kindFilter   = "filter"
)

// chatSession is the part of genai.Chat the generator uses.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

// chatCreator abstracts genai's chat service for testing.
type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	client *genai.Client
}

func (g genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return g.client.Chats.Create(ctx, model, config, history)
}

// Generator runs the pipeline's generative operations against Gemini.
type Generator struct {
	chats  chatCreator
	model  string
	cfg    config.GenerativeConfig
	logger *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg config.GenerativeConfig, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("generative api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{
		chats:  genaiChats{client: client},
		model:  cfg.Model,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// generateConfig builds the per-call model configuration with the given
// system instruction.
func (g *Generator) generateConfig(system string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(g.cfg.Temperature),
		TopP:              genai.Ptr(g.cfg.TopP),
		MaxOutputTokens:   g.cfg.MaxOutputTokens,
	}
}

// documentParts renders documents as model input. Spidered résumés carry
// inline JSON text; uploaded ones are referenced as PDF blobs the model
// fetches itself.
func documentParts(docs []domain.Document) []genai.Part {
	parts := make([]genai.Part, 0, 2*len(docs))
	for _, d := range docs {
		parts = append(parts, *genai.NewPartFromText(fmt.Sprintf("\nID: %s, resume:", d.ID)))
		if d.Origin.Inline() {
			parts = append(parts, *genai.NewPartFromText(d.MetaJSON))
		} else {
			parts = append(parts, *genai.NewPartFromURI(d.BlobPath, "application/pdf"))
		}
	}
	return parts
}

// generate runs one one-shot request through a fresh chat and returns
// the concatenated candidate text.
func (g *Generator) generate(ctx context.Context, kind, system string, parts []genai.Part) (string, error) {
	start := time.Now()

	chat, err := g.chats.Create(ctx, g.model, g.generateConfig(system), nil)
	if err != nil {
		metrics.GenerateRequestsTotal.WithLabelValues(kind, "error").Inc()
		return "", fmt.Errorf("create %s chat: %v: %w", kind, err, domain.ErrProviderError)
	}

	resp, err := chat.SendMessage(ctx, parts...)
	if err != nil {
		metrics.GenerateRequestsTotal.WithLabelValues(kind, "error").Inc()
		return "", fmt.Errorf("%s request: %v: %w", kind, err, domain.ErrProviderError)
	}

	text := responseText(resp)
	if text == "" {
		metrics.GenerateRequestsTotal.WithLabelValues(kind, "error").Inc()
		return "", fmt.Errorf("%s request: empty response: %w", kind, domain.ErrProviderError)
	}

	metrics.GenerateRequestsTotal.WithLabelValues(kind, "success").Inc()
	metrics.GenerateRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	g.logger.Debug("generate request done",
		zap.String("kind", kind),
		zap.Duration("duration", time.Since(start)))

	return text, nil
}

// GenerateAnalysis evaluates a batch of documents against a job and
// returns the raw model output.
func (g *Generator) GenerateAnalysis(ctx context.Context, jobInfo string, docs []domain.Document) (string, error) {
	parts := []genai.Part{*genai.NewPartFromText("Job information:\n" + jobInfo)}
	parts = append(parts, documentParts(docs)...)
	parts = append(parts, *genai.NewPartFromText("\nPlease output the evaluation result"))
	return g.generate(ctx, kindAnalysis, analysisPrompt, parts)
}

// GenerateSummary summarizes a raw job description. The caller parses
// the two-section output.
func (g *Generator) GenerateSummary(ctx context.Context, jobText string) (string, error) {
	parts := []genai.Part{*genai.NewPartFromText(jobText)}
	return g.generate(ctx, kindSummary, summaryPrompt, parts)
}

// GenerateAbstract extracts key facts and keywords from a batch of
// documents.
func (g *Generator) GenerateAbstract(ctx context.Context, docs []domain.Document) (string, error) {
	parts := documentParts(docs)
	parts = append(parts, *genai.NewPartFromText("Please output the result"))
	return g.generate(ctx, kindAbstract, abstractPrompt, parts)
}

// filterSystem combines the filter instruction with the job context.
func filterSystem(jobInfo string) string {
	return filterPrompt + "\n## Job information:\n" + jobInfo
}

// FilterOnce runs one stateless filter round: the condition and the full
// candidate batch travel together and no context is kept. The response
// is streamed and concatenated.
func (g *Generator) FilterOnce(ctx context.Context, jobInfo, condition string, docs []domain.Document) (string, error) {
	start := time.Now()

	chat, err := g.chats.Create(ctx, g.model, g.generateConfig(filterSystem(jobInfo)), nil)
	if err != nil {
		metrics.GenerateRequestsTotal.WithLabelValues(kindFilter, "error").Inc()
		return "", fmt.Errorf("create filter chat: %v: %w", err, domain.ErrProviderError)
	}

	parts := []genai.Part{*genai.NewPartFromText("\nSpecial job requirement:\n" + condition)}
	parts = append(parts, documentParts(docs)...)
	parts = append(parts, *genai.NewPartFromText("\nPlease output the evaluation result"))

	text, err := collectStream(chat.SendMessageStream(ctx, parts...))
	if err != nil {
		metrics.GenerateRequestsTotal.WithLabelValues(kindFilter, "error").Inc()
		return "", err
	}

	metrics.GenerateRequestsTotal.WithLabelValues(kindFilter, "success").Inc()
	metrics.GenerateRequestDuration.WithLabelValues(kindFilter).Observe(time.Since(start).Seconds())

	return text, nil
}

// FilterChat is a stateful filter conversation. Successive rounds see
// the model's earlier evaluations through the chat history.
type FilterChat struct {
	chat chatSession
}

// NewFilterChat opens a filter conversation bound to a job.
func (g *Generator) NewFilterChat(ctx context.Context, jobInfo string) (*FilterChat, error) {
	chat, err := g.chats.Create(ctx, g.model, g.generateConfig(filterSystem(jobInfo)), nil)
	if err != nil {
		return nil, fmt.Errorf("create filter chat: %v: %w", err, domain.ErrProviderError)
	}
	return &FilterChat{chat: chat}, nil
}

// Send runs one contextual filter round and returns the raw model
// output. The candidate batch precedes the condition so later rounds
// can refer back to it.
func (c *FilterChat) Send(ctx context.Context, condition string, docs []domain.Document) (string, error) {
	start := time.Now()

	parts := documentParts(docs)
	parts = append(parts,
		*genai.NewPartFromText("\nSpecial job requirement:\n" + condition),
		*genai.NewPartFromText("\nPlease output the evaluation result"),
	)

	text, err := collectStream(c.chat.SendMessageStream(ctx, parts...))
	if err != nil {
		metrics.GenerateRequestsTotal.WithLabelValues(kindFilter, "error").Inc()
		return "", err
	}

	metrics.GenerateRequestsTotal.WithLabelValues(kindFilter, "success").Inc()
	metrics.GenerateRequestDuration.WithLabelValues(kindFilter).Observe(time.Since(start).Seconds())

	return text, nil
}

// collectStream concatenates a streamed response.
func collectStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) (string, error) {
	var b strings.Builder
	for resp, err := range seq {
		if err != nil {
			return "", fmt.Errorf("filter stream: %v: %w", err, domain.ErrProviderError)
		}
		b.WriteString(resp.Text())
	}
	return b.String(), nil
}

// responseText concatenates candidate part texts from a non-streamed
// response.
func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}
