package filter

import (
	"context"

	"github.com/wondercloudgenai/talentflow/internal/domain"
)

// Chat is one stateful filter conversation with the generative provider.
type Chat interface {
	Send(ctx context.Context, condition string, docs []domain.Document) (string, error)
}

// Provider runs filter rounds against the generative model.
type Provider interface {
	FilterOnce(ctx context.Context, jobInfo, condition string, docs []domain.Document) (string, error)
	NewFilterChat(ctx context.Context, jobInfo string) (Chat, error)
}

// Matcher parses raw filter output into thresholded matches.
type Matcher interface {
	Matches(raw string) ([]domain.FilterMatch, error)
}
