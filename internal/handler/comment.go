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

type CommentHandler struct {
	commentService *service.CommentService
	logger         *zap.Logger
}

func NewCommentHandler(commentService *service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger.Named("comment_handler"),
	}
}

// Create serves POST /users/{username}/posts/{postID}/comments with form field text.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	author := middleware.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")
	postID, ok := postIDParam(r)
	if !ok {
		httputil.WriteNotFound(w, model.ErrPostNotFound.Error())
		return
	}

	if err := r.ParseForm(); err != nil {
		httputil.WriteBadRequest(w, "Malformed form data")
		return
	}

	comment, err := h.commentService.Create(r.Context(), author, username, postID, r.PostFormValue("text"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to add comment")
		return
	}

	w.Header().Set("Location", PostPath(username, postID))
	httputil.WriteJSON(w, http.StatusCreated, comment)
}
