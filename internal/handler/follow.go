package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"yatube/internal/httputil"
	"yatube/internal/model"
	"yatube/internal/service"
	"yatube/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
	logger        *zap.Logger
}

func NewFollowHandler(followService *service.FollowService, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		logger:        logger.Named("follow_handler"),
	}
}

// FollowResponse is returned by follow and unfollow. Follow is null after an
// unfollow and after an attempt to follow oneself.
type FollowResponse struct {
	Follow        *model.Follow              `json:"follow"`
	Subscriptions *model.SubscriptionSummary `json:"subscriptions"`
}

// Follow serves POST /users/{username}/follow.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	user := middleware.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")

	follow, err := h.followService.Follow(r.Context(), user, username)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to follow user")
		return
	}

	h.respond(w, r, username, follow)
}

// Unfollow serves DELETE /users/{username}/follow.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	user := middleware.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")

	if err := h.followService.Unfollow(r.Context(), user, username); err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to unfollow user")
		return
	}

	h.respond(w, r, username, nil)
}

// Summary serves GET /users/{username}/subscriptions.
func (h *FollowHandler) Summary(w http.ResponseWriter, r *http.Request) {
	requester := middleware.IdentityFromContext(r.Context())

	summary, err := h.followService.Summary(r.Context(), chi.URLParam(r, "username"), requester)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load subscriptions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *FollowHandler) respond(w http.ResponseWriter, r *http.Request, username string, follow *model.Follow) {
	summary, err := h.followService.Summary(r.Context(), username, middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load subscriptions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FollowResponse{Follow: follow, Subscriptions: summary})
}
