package filter

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/domain"
	"github.com/wondercloudgenai/talentflow/internal/metrics"
	"github.com/wondercloudgenai/talentflow/internal/parser"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

const hexID = "aabbccddeeff00112233445566778899"

type fakeChat struct {
	out   string
	err   error
	calls int
}

func (f *fakeChat) Send(ctx context.Context, condition string, docs []domain.Document) (string, error) {
	f.calls++
	return f.out, f.err
}

type fakeProvider struct {
	onceOut   string
	onceErr   error
	onceCalls int

	chat      *fakeChat
	chatErr   error
	chatsMade int
	lastJob   string
	lastCond  string
}

func (f *fakeProvider) FilterOnce(ctx context.Context, jobInfo, condition string, docs []domain.Document) (string, error) {
	f.onceCalls++
	f.lastJob = jobInfo
	f.lastCond = condition
	return f.onceOut, f.onceErr
}

func (f *fakeProvider) NewFilterChat(ctx context.Context, jobInfo string) (Chat, error) {
	f.chatsMade++
	f.lastJob = jobInfo
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.chat, nil
}

func newSession(t *testing.T, mode Mode, provider *fakeProvider) *Session {
	t.Helper()
	s, err := NewSession(mode, "backend job", provider, parser.New(30), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestNewSession_RejectsUnknownMode(t *testing.T) {
	for _, mode := range []Mode{ModeOverlay, Mode("Random-Mode"), Mode("")} {
		if _, err := NewSession(mode, "job", &fakeProvider{}, parser.New(30), zap.NewNop()); !errors.Is(err, domain.ErrUnsupportedMode) {
			t.Errorf("mode %q: expected ErrUnsupportedMode, got %v", mode, err)
		}
	}
}

func TestAnalyze_ShortConditionRejectedBeforeProviderCall(t *testing.T) {
	provider := &fakeProvider{}
	s := newSession(t, ModePan, provider)

	// "会英语" is 9 bytes but only 3 runes; the guard counts runes.
	for _, condition := range []string{"", "   ", "ab", " abc ", "会英语", " 你好 "} {
		_, err := s.Analyze(context.Background(), condition, nil)
		if !errors.Is(err, domain.ErrConditionTooShort) {
			t.Errorf("condition %q: expected ErrConditionTooShort, got %v", condition, err)
		}
	}
	if provider.onceCalls != 0 || provider.chatsMade != 0 {
		t.Errorf("provider must not be called for invalid conditions: %+v", provider)
	}
}

func TestAnalyze_PanMode(t *testing.T) {
	provider := &fakeProvider{
		onceOut: `[{"key": "` + hexID + `", "suitability": 64, "reason": "good"}]`,
	}
	s := newSession(t, ModePan, provider)

	docs := []domain.Document{{ID: hexID, Origin: domain.OriginSpiderBoss}}
	matches, err := s.Analyze(context.Background(), "knows Go well", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].DocumentID != hexID {
		t.Errorf("matches = %+v", matches)
	}
	if provider.lastCond != "knows Go well" || provider.lastJob != "backend job" {
		t.Errorf("provider got cond=%q job=%q", provider.lastCond, provider.lastJob)
	}

	// Pan mode never opens a chat.
	if _, err := s.Analyze(context.Background(), "second round", docs); err != nil {
		t.Fatalf("second round: %v", err)
	}
	if provider.chatsMade != 0 || provider.onceCalls != 2 {
		t.Errorf("expected 2 stateless rounds, got %+v", provider)
	}
}

func TestAnalyze_ContextModeLazyChat(t *testing.T) {
	chat := &fakeChat{out: "[]"}
	provider := &fakeProvider{chat: chat}
	s := newSession(t, ModeContext, provider)

	if provider.chatsMade != 0 {
		t.Fatal("chat must not open before the first round")
	}

	if _, err := s.Analyze(context.Background(), "round one", nil); err != nil {
		t.Fatalf("round one: %v", err)
	}
	if _, err := s.Analyze(context.Background(), "round two", nil); err != nil {
		t.Fatalf("round two: %v", err)
	}

	if provider.chatsMade != 1 {
		t.Errorf("expected a single chat for both rounds, got %d", provider.chatsMade)
	}
	if chat.calls != 2 {
		t.Errorf("expected 2 chat rounds, got %d", chat.calls)
	}
}

func TestAnalyze_ContextModeChatCreateFailure(t *testing.T) {
	provider := &fakeProvider{chatErr: errors.New("backend down")}
	s := newSession(t, ModeContext, provider)

	if _, err := s.Analyze(context.Background(), "some condition", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestAnalyze_BelowThresholdDropped(t *testing.T) {
	provider := &fakeProvider{
		onceOut: `[{"key": "` + hexID + `", "suitability": 10, "reason": "weak"}]`,
	}
	s := newSession(t, ModePan, provider)

	matches, err := s.Analyze(context.Background(), "valid condition", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches below threshold, got %+v", matches)
	}
}

func TestAnalyze_ParseFailureSurfaces(t *testing.T) {
	provider := &fakeProvider{onceOut: "I cannot do that"}
	s := newSession(t, ModePan, provider)

	_, err := s.Analyze(context.Background(), "valid condition", nil)
	if !errors.Is(err, domain.ErrParseFailure) {
		t.Fatalf("expected ErrParseFailure, got %v", err)
	}
}
