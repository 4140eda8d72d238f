package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"yatube/internal/cache"
	"yatube/internal/httputil"
	"yatube/internal/metrics"
	"yatube/internal/service"
	"yatube/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
	pageCache   cache.PageCache
	logger      *zap.Logger
}

// NewFeedHandler builds the feed endpoints. pageCache may be nil, which
// disables caching of the index page.
func NewFeedHandler(feedService *service.FeedService, pageCache cache.PageCache, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		pageCache:   pageCache,
		logger:      logger.Named("feed_handler"),
	}
}

// Global serves GET /posts. The first page is served from the page cache
// while its entry lives; posts created meanwhile show up once it expires.
func (h *FeedHandler) Global(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawPage := pageParam(r)

	policy := h.feedService.IndexCachePolicy(rawPage)
	if policy != nil && h.pageCache != nil {
		body, ok, err := h.pageCache.Get(ctx, policy.Key)
		if err != nil {
			h.logger.Warn("page cache read failed", zap.String("key", policy.Key), zap.Error(err))
		}
		if ok {
			metrics.CacheHit()
			httputil.WriteRawJSON(w, http.StatusOK, body)
			return
		}
		metrics.CacheMiss()
	}

	page, err := h.feedService.Global(ctx, rawPage)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load posts")
		return
	}

	body, err := json.Marshal(page)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load posts")
		return
	}

	if policy != nil && h.pageCache != nil {
		if err := h.pageCache.Set(ctx, policy.Key, body, policy.TTL); err != nil {
			h.logger.Warn("page cache write failed", zap.String("key", policy.Key), zap.Error(err))
		}
	}

	httputil.WriteRawJSON(w, http.StatusOK, body)
}

// Group serves GET /groups/{slug}/posts.
func (h *FeedHandler) Group(w http.ResponseWriter, r *http.Request) {
	feed, err := h.feedService.Group(r.Context(), chi.URLParam(r, "slug"), pageParam(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load group posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, feed)
}

// Profile serves GET /users/{username}/posts.
func (h *FeedHandler) Profile(w http.ResponseWriter, r *http.Request) {
	requester := middleware.IdentityFromContext(r.Context())

	feed, err := h.feedService.Profile(r.Context(), chi.URLParam(r, "username"), pageParam(r), requester)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, feed)
}

// Following serves GET /follow/posts.
func (h *FeedHandler) Following(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	page, err := h.feedService.Following(r.Context(), identity, pageParam(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load feed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}
