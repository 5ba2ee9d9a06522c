// Package analysis coordinates the résumé analysis pipeline: fetching
// work through the store callback, driving the generative provider, and
// persisting parsed results.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/callback"
	"github.com/wondercloudgenai/talentflow/internal/domain"
	"github.com/wondercloudgenai/talentflow/internal/metrics"
	"github.com/wondercloudgenai/talentflow/internal/parser"
	"github.com/wondercloudgenai/talentflow/internal/pdftext"
)

// Service runs the analysis pipeline tasks.
type Service struct {
	store     DocumentStore
	generator Generator
	parser    ResultParser
	embedder  Embedder
	batcher   Batcher
	splitter  Splitter
	logger    *zap.Logger
}

// New creates an analysis service.
func New(
	store DocumentStore, generator Generator, resultParser ResultParser,
	embedder Embedder, batcher Batcher, splitter Splitter, logger *zap.Logger,
) *Service {
	return &Service{
		store:     store,
		generator: generator,
		parser:    resultParser,
		embedder:  embedder,
		batcher:   batcher,
		splitter:  splitter,
		logger:    logger,
	}
}

// AnalyzeDocuments fetches the unanalyzed documents in scope, marks them
// in progress, runs one analysis request over the whole batch and
// persists whatever the response yields. Documents the response does not
// mention stay in progress; they are surfaced through a metric and a
// warning instead of being reverted.
func (s *Service) AnalyzeDocuments(ctx context.Context, scope domain.Scope) error {
	docs, jobInfo, err := s.store.FetchUnanalyzed(ctx, scope)
	if err != nil {
		return fmt.Errorf("fetch unanalyzed: %w", err)
	}
	if len(docs) == 0 {
		s.logger.Info("no unanalyzed documents in scope",
			zap.String("task_id", scope.TaskID),
			zap.String("jd_id", scope.JobID))
		return nil
	}

	s.logger.Info("analyzing documents",
		zap.String("task_id", scope.TaskID),
		zap.String("jd_id", scope.JobID),
		zap.Int("documents", len(docs)))

	inProgress := make([]domain.StatusUpdate, len(docs))
	for i, d := range docs {
		inProgress[i] = domain.StatusUpdate{DocumentID: d.ID, Status: domain.StatusInProgress}
	}
	if err := s.store.UpdateStatuses(ctx, inProgress); err != nil {
		return fmt.Errorf("mark in progress: %w", err)
	}

	raw, err := s.generator.GenerateAnalysis(ctx, jobInfo, docs)
	if err != nil {
		return fmt.Errorf("generate analysis: %w", err)
	}

	records, err := s.parser.Analyses(raw)
	if err != nil {
		if errors.Is(err, domain.ErrParseFailure) {
			metrics.ParseFailuresTotal.WithLabelValues("analysis").Inc()
		}
		return fmt.Errorf("parse analysis: %w", err)
	}

	if len(records) > 0 {
		if err := s.store.CreateAnalysisRecords(ctx, scope.TaskID, records); err != nil {
			return fmt.Errorf("persist analysis records: %w", err)
		}

		done := make([]domain.StatusUpdate, len(records))
		for i, r := range records {
			done[i] = domain.StatusUpdate{DocumentID: r.DocumentID, Status: domain.StatusDone}
		}
		if err := s.store.UpdateStatuses(ctx, done); err != nil {
			return fmt.Errorf("mark done: %w", err)
		}
	}

	if stuck := missingIDs(docs, records); len(stuck) > 0 {
		metrics.DocumentsStuckTotal.Add(float64(len(stuck)))
		s.logger.Warn("documents left in progress after analysis",
			zap.String("task_id", scope.TaskID),
			zap.Strings("document_ids", stuck))
	}

	return nil
}

// missingIDs returns the ids of documents absent from the parsed records.
func missingIDs(docs []domain.Document, records []domain.AnalysisRecord) []string {
	parsed := make(map[string]struct{}, len(records))
	for _, r := range records {
		parsed[r.DocumentID] = struct{}{}
	}
	var missing []string
	for _, d := range docs {
		if _, ok := parsed[d.ID]; !ok {
			missing = append(missing, d.ID)
		}
	}
	return missing
}

// SummarizeJob generates the structured and one-line summaries for a job
// and persists them. Generation and parsing retry together because a
// malformed response is as retryable as a provider error.
func (s *Service) SummarizeJob(ctx context.Context, jobID string) error {
	detail, err := s.store.JobDetail(ctx, jobID)
	if err != nil {
		return fmt.Errorf("fetch job detail: %w", err)
	}

	jobText := formatJobDetail(detail)

	var summary, keywordSummary string
	err = withRetry(s.logger, "summarize job", summaryAttempts, retryBackoff, func() error {
		raw, genErr := s.generator.GenerateSummary(ctx, jobText)
		if genErr != nil {
			return genErr
		}
		summary, keywordSummary, genErr = parser.ParseSummary(raw)
		if errors.Is(genErr, domain.ErrParseFailure) {
			metrics.ParseFailuresTotal.WithLabelValues("summary").Inc()
		}
		return genErr
	})
	if err != nil {
		return err
	}

	if err := s.store.CreateJobSummary(ctx, domain.JobSummary{
		JobID:          jobID,
		Summary:        summary,
		KeywordSummary: keywordSummary,
	}); err != nil {
		return fmt.Errorf("persist job summary: %w", err)
	}

	s.logger.Info("job summarized", zap.String("jd_id", jobID))
	return nil
}

// formatJobDetail renders the raw job description for the summary prompt.
func formatJobDetail(d domain.JobDetail) string {
	var b strings.Builder
	b.WriteString("Job name:\n" + d.Name)
	b.WriteString("\nJob requirements:\n" + d.WorkRequest)
	b.WriteString("\nWork content:\n" + d.WorkInfo)
	b.WriteString("\nResponsibilities:\n" + d.Responsibilities)
	return b.String()
}

// EmbedDocumentTexts embeds pre-extracted texts for one document and
// persists the records. A group failure drops the whole batch; nothing
// partial is written.
func (s *Service) EmbedDocumentTexts(ctx context.Context, docID string, texts []string) error {
	if len(texts) == 0 {
		s.logger.Info("no texts to embed", zap.String("cv_id", docID))
		return nil
	}

	records, err := s.batcher.EmbedRecords(ctx, docID, texts)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", docID, err)
	}

	if err := s.store.CreateEmbeddingRecords(ctx, records); err != nil {
		return fmt.Errorf("persist embeddings for %s: %w", docID, err)
	}

	s.logger.Info("document embedded",
		zap.String("cv_id", docID),
		zap.Int("records", len(records)))
	return nil
}

// EmbedDocumentContent extracts plain text from raw content, chunks it
// and embeds the chunks. PDF payloads are extracted first; everything
// else is treated as already-plain text.
func (s *Service) EmbedDocumentContent(ctx context.Context, docID string, pdfData []byte, content string) error {
	if len(pdfData) > 0 {
		extracted, err := pdftext.Extract(pdfData)
		if err != nil {
			return fmt.Errorf("extract pdf text for %s: %w", docID, err)
		}
		content = extracted
	}
	content = pdftext.Normalize(content)

	chunks := s.splitter.Split(content)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	return s.EmbedDocumentTexts(ctx, docID, texts)
}

// AbstractDocuments extracts key facts and keywords from a batch of
// documents, embeds the keywords and persists the combined records. A
// keyword-embedding failure degrades that document to an empty keyword
// set instead of failing the batch.
func (s *Service) AbstractDocuments(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	raw, err := s.generator.GenerateAbstract(ctx, docs)
	if err != nil {
		return fmt.Errorf("generate abstract: %w", err)
	}

	items, err := s.parser.Abstracts(raw)
	if err != nil {
		if errors.Is(err, domain.ErrParseFailure) {
			metrics.ParseFailuresTotal.WithLabelValues("abstract").Inc()
		}
		return fmt.Errorf("parse abstract: %w", err)
	}

	records := make([]domain.AbstractRecord, 0, len(items))
	for _, item := range items {
		records = append(records, domain.AbstractRecord{
			DocumentID: item.Key,
			Info:       item.Info,
			Keywords:   s.embedKeywords(ctx, item.Key, item.Keywords),
		})
	}

	if err := s.store.CreateAbstractRecords(ctx, records); err != nil {
		return fmt.Errorf("persist abstract records: %w", err)
	}

	s.logger.Info("documents abstracted",
		zap.Int("documents", len(docs)),
		zap.Int("records", len(records)))
	return nil
}

// embedKeywords vectorizes a document's keywords. Keywords are embedded
// with a "tag: " prefix, matching how keyword queries are embedded at
// search time.
func (s *Service) embedKeywords(ctx context.Context, docID string, keywords []string) []domain.KeywordEmbedding {
	if len(keywords) == 0 {
		return nil
	}

	tagged := make([]string, len(keywords))
	for i, kw := range keywords {
		tagged[i] = "tag: " + kw
	}

	vectors, err := s.batcher.EmbedAll(ctx, tagged)
	if err != nil {
		s.logger.Warn("keyword embedding failed",
			zap.String("cv_id", docID),
			zap.Error(err))
		return nil
	}

	out := make([]domain.KeywordEmbedding, len(keywords))
	for i, kw := range keywords {
		out[i] = domain.KeywordEmbedding{Keyword: kw, Vector: vectors[i]}
	}
	return out
}

// RunVectorSearch executes one vector search task: embed the task's
// keyword summary and ask the store to materialize the nearest
// candidates. Every failure path reports a terminal Failed status.
func (s *Service) RunVectorSearch(ctx context.Context, taskID string) error {
	if err := s.store.UpdateSearchTaskStatus(ctx, taskID, callback.SearchStatusStarting, "Starting"); err != nil {
		return fmt.Errorf("report starting: %w", err)
	}

	task, err := s.store.SearchTaskDetail(ctx, taskID)
	if err != nil {
		s.failSearchTask(ctx, taskID, "Server error")
		return fmt.Errorf("fetch search task: %w", err)
	}

	vector, err := s.embedder.EmbedText(ctx, task.KeywordSummary)
	if err != nil {
		s.failSearchTask(ctx, taskID, "Server error")
		return fmt.Errorf("embed keyword summary: %w", err)
	}

	if err := s.store.TriggerVectorRetrieval(ctx, taskID, task, vector); err != nil {
		s.failSearchTask(ctx, taskID, "Server error")
		return fmt.Errorf("vector retrieval: %w", err)
	}

	if err := s.store.UpdateSearchTaskStatus(ctx, taskID, callback.SearchStatusCompleted, "search task completed"); err != nil {
		return fmt.Errorf("report completed: %w", err)
	}

	s.logger.Info("vector search completed", zap.String("task_id", taskID))
	return nil
}

// failSearchTask reports a terminal failure, logging but not returning
// the reporting error so the task's own error wins.
func (s *Service) failSearchTask(ctx context.Context, taskID, reason string) {
	if err := s.store.UpdateSearchTaskStatus(ctx, taskID, callback.SearchStatusFailed, reason); err != nil {
		s.logger.Error("failed to report search task failure",
			zap.String("task_id", taskID),
			zap.Error(err))
	}
}
