package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"yatube/internal/handler"
	"yatube/internal/httputil"
	authmw "yatube/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	FeedHandler    *handler.FeedHandler
	GroupHandler   *handler.GroupHandler
	PostHandler    *handler.PostHandler
	CommentHandler *handler.CommentHandler
	FollowHandler  *handler.FollowHandler

	IdentityStore authmw.IdentityStore
	JWTSecret     string
	// LoginURL receives anonymous visitors of protected routes. Empty means 401.
	LoginURL string
	Logger   *zap.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.Authenticate(cfg.JWTSecret, cfg.IdentityStore, cfg.Logger))

		// Public reads; the identity, when present, only personalizes counters.
		r.Get("/posts", cfg.FeedHandler.Global)
		r.Get("/groups", cfg.GroupHandler.List)
		r.Get("/groups/{slug}", cfg.GroupHandler.Get)
		r.Get("/groups/{slug}/posts", cfg.FeedHandler.Group)
		r.Get("/users/{username}/posts", cfg.FeedHandler.Profile)
		r.Get("/users/{username}/posts/{postID}", cfg.PostHandler.Get)
		r.Get("/users/{username}/subscriptions", cfg.FollowHandler.Summary)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireIdentity(cfg.LoginURL))

			r.Get("/follow/posts", cfg.FeedHandler.Following)
			r.Post("/posts", cfg.PostHandler.Create)
			r.Post("/users/{username}/posts/{postID}/edit", cfg.PostHandler.Update)
			r.Post("/users/{username}/posts/{postID}/comments", cfg.CommentHandler.Create)
			r.Post("/users/{username}/follow", cfg.FollowHandler.Follow)
			r.Delete("/users/{username}/follow", cfg.FollowHandler.Unfollow)
		})
	})

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
