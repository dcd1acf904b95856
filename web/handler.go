package web

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ripplechat/ripple/auth"
	"github.com/ripplechat/ripple/service"
)

type Handler struct {
	Service     *service.Service
	Logger      *slog.Logger
	AuthCodec   *auth.Codec
	Prometheus  prometheus.Gatherer
	HealthCheck func() error

	handler http.Handler
	once    sync.Once
}

func (h *Handler) init() {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("GET /api/me", h.me)
	mux.HandleFunc("GET /api/users", h.users)
	mux.HandleFunc("GET /api/users/{userID}", h.showUser)
	mux.HandleFunc("POST /api/users/{userID}/block", h.blockUser)
	mux.HandleFunc("POST /api/users/{userID}/unblock", h.unblockUser)

	mux.HandleFunc("POST /api/matching/start", h.startMatching)
	mux.HandleFunc("POST /api/matching/cancel", h.cancelMatching)
	mux.HandleFunc("POST /api/matching/skip", h.skipMatch)
	mux.HandleFunc("GET /api/matching/state", h.matchState)

	mux.HandleFunc("POST /api/conversations", h.createConversation)
	mux.HandleFunc("GET /api/conversations", h.conversations)
	mux.HandleFunc("GET /api/conversations/{conversationID}", h.showConversation)
	mux.HandleFunc("POST /api/conversations/{conversationID}/accept", h.acceptConversation)
	mux.HandleFunc("POST /api/conversations/{conversationID}/reject", h.rejectConversation)
	mux.HandleFunc("POST /api/conversations/{conversationID}/archive", h.archiveConversation)

	mux.HandleFunc("POST /api/conversations/{conversationID}/messages", h.createMessage)
	mux.HandleFunc("GET /api/conversations/{conversationID}/messages", h.messages)

	mux.HandleFunc("POST /api/statuses", h.createStatus)
	mux.HandleFunc("GET /api/statuses", h.statuses)
	mux.HandleFunc("POST /api/statuses/{statusID}/views", h.viewStatus)
	mux.HandleFunc("GET /api/statuses/{statusID}/viewers", h.statusViewers)

	mux.HandleFunc("POST /api/contacts", h.addContact)

	gatherer := h.Prometheus
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", h.healthz)

	h.handler = h.withUser(mux)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.init)
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// withUser resolves the bearer token into a user and stores it on the
// request context. Requests without a token pass through anonymously; each
// handler decides whether authentication is required.
func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := h.AuthCodec.VerifyToken(token)
		if err != nil {
			h.respondErr(w, err)
			return
		}

		user, err := h.Service.User(r.Context(), userID)
		if err != nil {
			h.respondErr(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, prefix) {
		return authHeader[len(prefix):], true
	}

	// EventSource cannot set headers, so SSE endpoints take the token as a
	// query param.
	if token := r.URL.Query().Get("auth_token"); token != "" {
		return token, true
	}

	return "", false
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.HealthCheck != nil {
		if err := h.HealthCheck(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
