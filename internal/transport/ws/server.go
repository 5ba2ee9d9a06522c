// Package ws exposes the interactive candidate-filter channel over a
// websocket. One connection is one filter session against one job; the
// client sends free-form conditions and receives either a JSON array of
// matches or an "ERR:"-prefixed text frame.
package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/domain"
	"github.com/wondercloudgenai/talentflow/internal/metrics"
	"github.com/wondercloudgenai/talentflow/internal/usecase/filter"
)

// defaultCandidateLimit is the pool size fetched per query when the
// config leaves it unset.
const defaultCandidateLimit = 200

// errPrefix marks plain-text error frames on the wire.
const errPrefix = "ERR:"

// Server serves the websocket filter channel plus health and metrics.
type Server struct {
	store    Store
	embedder Embedder
	provider filter.Provider
	matcher  filter.Matcher
	sessions *filter.Registry
	limit    int
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer creates the interactive-channel server.
func NewServer(
	store Store,
	embedder Embedder,
	provider filter.Provider,
	matcher filter.Matcher,
	sessions *filter.Registry,
	candidateLimit int,
	logger *zap.Logger,
) *Server {
	if candidateLimit <= 0 {
		candidateLimit = defaultCandidateLimit
	}
	return &Server{
		store:    store,
		embedder: embedder,
		provider: provider,
		matcher:  matcher,
		sessions: sessions,
		limit:    candidateLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The channel is token-authenticated; origin is not part of
			// the trust model.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Router assembles the channel routes with shared middleware.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws/jd-chat", s.JobChat)

	return r
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// JobChat handles GET /ws/jd-chat. The job is resolved and the session
// created before the upgrade so bad requests fail as plain HTTP.
func (s *Server) JobChat(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jd_id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "jd_id is required")
		return
	}

	mode := filter.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = filter.ModePan
	}

	detail, err := s.store.JobDetail(r.Context(), jobID)
	if err != nil {
		s.logger.Warn("job lookup failed", zap.String("jd_id", jobID), zap.Error(err))
		writeError(w, http.StatusForbidden, "could not open session for job "+jobID)
		return
	}

	clientID := newClientID()
	logger := s.logger.With(
		zap.String("client_id", clientID),
		zap.String("jd_id", jobID),
		zap.String("mode", string(mode)),
	)

	session, err := filter.NewSession(mode, detail.Info(), s.provider, s.matcher, logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported mode "+string(mode))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.sessions.Register(clientID, clientID, session)
	defer func() { _ = s.sessions.Delete(clientID, clientID) }()

	logger.Info("client connected", zap.Int("live_sessions", s.sessions.Len()))
	s.serve(r.Context(), conn, session, jobID, logger)
	logger.Info("client disconnected")
}

// serve runs the per-connection read loop until the peer goes away.
func (s *Server) serve(ctx context.Context, conn *websocket.Conn, session *filter.Session, jobID string, logger *zap.Logger) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read ended", zap.Error(err))
			}
			return
		}

		condition := string(data)
		if strings.TrimSpace(condition) == "" {
			s.sendError(conn, "Empty message", logger)
			continue
		}

		matches, errMsg := s.round(ctx, session, jobID, condition, logger)
		if errMsg != "" {
			s.sendError(conn, errMsg, logger)
			continue
		}
		if matches == nil {
			matches = []domain.FilterMatch{}
		}
		if err := conn.WriteJSON(matches); err != nil {
			logger.Warn("write failed", zap.Error(err))
			return
		}
	}
}

// round executes one condition against the candidate pool. A non-empty
// errMsg is sent to the client verbatim behind the error prefix.
func (s *Server) round(ctx context.Context, session *filter.Session, jobID, condition string, logger *zap.Logger) (matches []domain.FilterMatch, errMsg string) {
	vector, err := s.embedder.EmbedText(ctx, condition)
	if err != nil {
		logger.Error("query embedding failed", zap.Error(err))
		return nil, "Server error"
	}

	docs, err := s.store.FetchCandidatesByVector(ctx, jobID, vector, s.limit)
	if err != nil {
		logger.Error("candidate fetch failed", zap.Error(err))
		return nil, "Server error"
	}
	logger.Info("candidates fetched", zap.Int("count", len(docs)))
	if len(docs) == 0 {
		return []domain.FilterMatch{}, ""
	}

	matches, err = session.Analyze(ctx, condition, docs)
	if err != nil {
		logger.Warn("filter round failed", zap.Error(err))
		return nil, roundErrMessage(err)
	}
	return matches, ""
}

func (s *Server) sendError(conn *websocket.Conn, msg string, logger *zap.Logger) {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(errPrefix+msg)); err != nil {
		logger.Warn("write failed", zap.Error(err))
	}
}

func roundErrMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrConditionTooShort):
		return "Filter condition is too short"
	case errors.Is(err, domain.ErrParseFailure):
		return "Could not interpret the filter result, please retry"
	default:
		return "Server error"
	}
}

func newClientID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"code":    http.StatusText(status),
		"message": message,
	})
}
