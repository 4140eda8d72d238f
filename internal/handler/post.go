package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"yatube/internal/httputil"
	"yatube/internal/model"
	"yatube/internal/service"
	"yatube/internal/transport/http/middleware"
)

// formOverhead is room for the non-file fields of a multipart post form.
const formOverhead = 1 << 20

type PostHandler struct {
	postService  *service.PostService
	maxImageSize int64
	logger       *zap.Logger
}

func NewPostHandler(postService *service.PostService, maxImageSize int64, logger *zap.Logger) *PostHandler {
	if maxImageSize <= 0 {
		maxImageSize = model.DefaultMaxImageSizeBytes
	}
	return &PostHandler{
		postService:  postService,
		maxImageSize: maxImageSize,
		logger:       logger.Named("post_handler"),
	}
}

// Create serves POST /posts with form fields text, group and image.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	author := middleware.IdentityFromContext(r.Context())

	in, err := h.parsePostForm(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to read post form")
		return
	}

	post, err := h.postService.Create(r.Context(), author, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to create post")
		return
	}

	w.Header().Set("Location", PostPath(post.Author.Username, post.ID))
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Update serves POST /users/{username}/posts/{postID}/edit. Anyone but the
// author is sent back to the post.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	requester := middleware.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")
	postID, ok := postIDParam(r)
	if !ok {
		httputil.WriteNotFound(w, model.ErrPostNotFound.Error())
		return
	}

	// Authorship is settled before the body is read, so a non-author is
	// redirected whatever the form holds.
	_, err := h.postService.Authorize(r.Context(), requester, username, postID)
	if errors.Is(err, model.ErrNotPostAuthor) {
		httputil.Redirect(w, r, PostPath(username, postID))
		return
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to update post")
		return
	}

	in, err := h.parsePostForm(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to read post form")
		return
	}

	post, err := h.postService.Update(r.Context(), requester, username, postID, in)
	if errors.Is(err, model.ErrNotPostAuthor) {
		httputil.Redirect(w, r, PostPath(username, postID))
		return
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to update post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Get serves GET /users/{username}/posts/{postID}.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDParam(r)
	if !ok {
		httputil.WriteNotFound(w, model.ErrPostNotFound.Error())
		return
	}

	detail, err := h.postService.Get(r.Context(), chi.URLParam(r, "username"), postID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// parsePostForm reads a multipart or urlencoded post form. The image is read
// into memory up to one byte past the limit so oversize uploads are detectable.
func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (model.PostInput, error) {
	var in model.PostInput

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return in, model.FieldError("image", model.MsgImageTooLarge)
		}
		return in, model.FieldError("__all__", "malformed form data")
	}

	in.Text = r.FormValue("text")
	in.ClearImage = isChecked(r.FormValue("image-clear"))

	if raw := strings.TrimSpace(r.FormValue("group")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// No group has id 0, so the service reports it as an invalid choice.
			id = 0
		}
		in.GroupID = &id
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return in, nil
	}
	if err != nil {
		return in, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageSize+1))
	if err != nil {
		return in, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 && header.Filename == "" {
		// An empty file input submitted by a browser.
		return in, nil
	}

	in.Image = &model.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return in, nil
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
