package filter

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/domain"
	"github.com/wondercloudgenai/talentflow/internal/parser"
)

func mustSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(ModePan, "job", &fakeProvider{}, parser.New(30), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestRegistry_RegisterGetDelete(t *testing.T) {
	r := NewRegistry()
	s := mustSession(t)

	r.Register("sess-1", "user-a", s)
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	got, err := r.Get("sess-1", "user-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}

	if err := r.Delete("sess-1", "user-a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d after delete, want 0", r.Len())
	}
}

func TestRegistry_OwnerChecked(t *testing.T) {
	r := NewRegistry()
	r.Register("sess-1", "user-a", mustSession(t))

	if _, err := r.Get("sess-1", "user-b"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("foreign Get: expected ErrSessionNotFound, got %v", err)
	}
	if err := r.Delete("sess-1", "user-b"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("foreign Delete: expected ErrSessionNotFound, got %v", err)
	}

	// The rightful owner still reaches it.
	if _, err := r.Get("sess-1", "user-a"); err != nil {
		t.Errorf("owner Get: %v", err)
	}
}

func TestRegistry_MissingSession(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("nope", "user-a"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := r.Delete("nope", "user-a"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistry_ReplaceSameID(t *testing.T) {
	r := NewRegistry()
	first := mustSession(t)
	second := mustSession(t)

	r.Register("sess-1", "user-a", first)
	r.Register("sess-1", "user-a", second)

	got, err := r.Get("sess-1", "user-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != second {
		t.Error("expected the replacing session")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}
