package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"yatube/internal/httputil"
	"yatube/internal/service"
)

type GroupHandler struct {
	groupService *service.GroupService
	logger       *zap.Logger
}

func NewGroupHandler(groupService *service.GroupService, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{groupService: groupService, logger: logger.Named("group_handler")}
}

// List serves GET /groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load groups")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// Get serves GET /groups/{slug}.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.groupService.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load group")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}
