package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gottabeautomated/WILMA-Mk1/internal/auth"
	"github.com/gottabeautomated/WILMA-Mk1/internal/cache"
	applog "github.com/gottabeautomated/WILMA-Mk1/internal/log"
	"github.com/gottabeautomated/WILMA-Mk1/internal/middleware/ratelimit"
	"github.com/gottabeautomated/WILMA-Mk1/internal/middleware/security"
	"github.com/gottabeautomated/WILMA-Mk1/internal/middleware/trace"
	"github.com/gottabeautomated/WILMA-Mk1/internal/services"
	"github.com/gottabeautomated/WILMA-Mk1/internal/store"
	"github.com/gottabeautomated/WILMA-Mk1/internal/stream"
	appweb "github.com/gottabeautomated/WILMA-Mk1/web"
)

const sessionCookieName = "wilma_session"

type Server struct {
	http.Server
	templates *template.Template

	budget  *services.BudgetService
	authSvc *auth.Service
	hub     *stream.Hub

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	slogger  *applog.StructuredLogger

	// snapshotCache holds the latest rendered collection per user so page
	// loads between live updates don't hit the store.
	snapshotCache *cache.LRU[stream.Snapshot]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, budget *services.BudgetService, authSvc *auth.Service, hub *stream.Hub, snapshotTTL time.Duration) *Server {
	mux := http.NewServeMux()

	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Minute
	}

	s := &Server{
		budget:           budget,
		authSvc:          authSvc,
		hub:              hub,
		limiter:          ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:         security.NewDetector(),
		snapshotCache:    cache.NewLRU[stream.Snapshot](500, snapshotTTL),
		stopCacheCleanup: make(chan struct{}),
	}
	httpLogger := applog.New(applog.Config{
		Component: applog.ComponentHTTP,
		Handler:   slog.Default().Handler(),
	})
	s.slogger = applog.NewStructuredLogger(httpLogger)
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.slogger)

	go s.startCacheCleanup()

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.requireUser(s.handleIndex))
	mux.HandleFunc("GET /ui/budget-list", s.requireUser(s.handleBudgetList))
	mux.HandleFunc("GET /events/budget", s.requireUser(s.handleBudgetEvents))
	mux.HandleFunc("POST /budget/items", s.requireUser(s.handleCreateItem))
	mux.HandleFunc("POST /budget/items/{id}", s.requireUser(s.handleUpdateItem))
	mux.HandleFunc("POST /budget/items/{id}/delete", s.requireUser(s.handleDeleteItem))

	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = s.withRateLimit(mux)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = applog.Middleware(httpLogger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}

	return s
}

// withRateLimit applies the per-client limiter to mutating requests only.
// Read traffic, including the event stream, goes through unthrottled.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			clientIP := s.detector.ExtractClientIP(r)
			if !s.limiter.Allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}

		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request detected",
				"client_ip", s.detector.ExtractClientIP(r),
				"method", r.Method, "path", r.URL.Path)
		}

		next.ServeHTTP(w, r)
	})
}

// requireUser resolves the session cookie and passes the authenticated user
// to the handler. Browser navigation is redirected to the login page,
// fragment and stream requests get a plain 401.
func (s *Server) requireUser(next func(http.ResponseWriter, *http.Request, store.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.userFromRequest(r)
		if err != nil {
			if r.Header.Get("HX-Request") != "" || r.Header.Get("Accept") == "text/event-stream" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) userFromRequest(r *http.Request) (store.User, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return store.User{}, err
	}
	return s.authSvc.UserBySession(r.Context(), cookie.Value)
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// getSnapshot returns the user's current item collection, cache-first.
func (s *Server) getSnapshot(ctx context.Context, userID string) (stream.Snapshot, error) {
	if snap, found := s.snapshotCache.Get(userID); found {
		slog.DebugContext(ctx, "Snapshot cache hit", "user_id", userID)
		return snap, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	snap, err := s.budget.Snapshot(cctx, userID)
	if err != nil {
		return stream.Snapshot{}, err
	}

	s.snapshotCache.Set(userID, snap)
	return snap, nil
}

func (s *Server) invalidateSnapshot(userID string) {
	s.snapshotCache.Delete(userID)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.snapshotCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
