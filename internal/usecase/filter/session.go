// Package filter implements the interactive candidate filter behind the
// websocket channel. A session evaluates free-form conditions against a
// candidate pool, either statelessly per round or with conversation
// context carried across rounds.
package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/domain"
	"github.com/wondercloudgenai/talentflow/internal/metrics"
)

// Mode selects how filter rounds relate to each other.
type Mode string

// Filter modes. Overlay mode is reserved in the wire protocol but has
// no implementation; sessions reject it.
const (
	ModePan     Mode = "Pan-Mode"
	ModeContext Mode = "Context-Mode"
	ModeOverlay Mode = "Overlay-Mode"
)

// minConditionLen is the strict lower bound on a trimmed condition's
// rune count. Conditions are routinely CJK, so bytes would overcount.
const minConditionLen = 3

// Session is one user's filter conversation for a job. A session is
// driven by a single connection goroutine and is not safe for
// concurrent rounds.
type Session struct {
	mode     Mode
	jobInfo  string
	provider Provider
	matcher  Matcher
	logger   *zap.Logger

	chat Chat // lazy, context mode only
}

// NewSession creates a filter session. The mode is validated up front so
// a bad mode fails at session creation, not mid-conversation.
func NewSession(mode Mode, jobInfo string, provider Provider, matcher Matcher, logger *zap.Logger) (*Session, error) {
	switch mode {
	case ModePan, ModeContext:
	default:
		return nil, fmt.Errorf("mode %q: %w", mode, domain.ErrUnsupportedMode)
	}
	return &Session{
		mode:     mode,
		jobInfo:  jobInfo,
		provider: provider,
		matcher:  matcher,
		logger:   logger,
	}, nil
}

// Mode returns the session's filter mode.
func (s *Session) Mode() Mode { return s.mode }

// Analyze runs one filter round. The condition is validated before any
// provider call; in context mode the underlying chat is created on the
// first round and reused afterwards.
func (s *Session) Analyze(ctx context.Context, condition string, docs []domain.Document) ([]domain.FilterMatch, error) {
	condition = strings.TrimSpace(condition)
	if utf8.RuneCountInString(condition) <= minConditionLen {
		return nil, domain.ErrConditionTooShort
	}

	var raw string
	var err error
	switch s.mode {
	case ModePan:
		raw, err = s.provider.FilterOnce(ctx, s.jobInfo, condition, docs)
	case ModeContext:
		if s.chat == nil {
			s.chat, err = s.provider.NewFilterChat(ctx, s.jobInfo)
			if err != nil {
				metrics.FilterRoundsTotal.WithLabelValues(string(s.mode), "error").Inc()
				return nil, fmt.Errorf("open filter chat: %w", err)
			}
		}
		raw, err = s.chat.Send(ctx, condition, docs)
	}
	if err != nil {
		metrics.FilterRoundsTotal.WithLabelValues(string(s.mode), "error").Inc()
		return nil, err
	}

	matches, err := s.matcher.Matches(raw)
	if err != nil {
		metrics.FilterRoundsTotal.WithLabelValues(string(s.mode), "error").Inc()
		if errors.Is(err, domain.ErrParseFailure) {
			metrics.ParseFailuresTotal.WithLabelValues("filter").Inc()
		}
		return nil, err
	}

	metrics.FilterRoundsTotal.WithLabelValues(string(s.mode), "success").Inc()
	s.logger.Info("filter round done",
		zap.String("mode", string(s.mode)),
		zap.Int("candidates", len(docs)),
		zap.Int("matches", len(matches)))

	return matches, nil
}
