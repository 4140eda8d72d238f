package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"yatube/internal/httputil"
	"yatube/internal/model"
)

// writeServiceError maps domain errors to responses. Anything unrecognized is
// logged and reported as a 500 with the generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, message string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteValidationError(w, verr.Fields)
	case errors.Is(err, model.ErrIdentityRequired):
		httputil.WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, model.ErrPostNotFound),
		errors.Is(err, model.ErrGroupNotFound),
		errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, err.Error())
	default:
		logger.Error(message,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		httputil.WriteInternalError(w, message)
	}
}

// postIDParam reads {postID}. ok is false when it is not a positive integer.
func postIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func pageParam(r *http.Request) string {
	return r.URL.Query().Get("page")
}

// PostPath is the canonical location of a post.
func PostPath(username string, postID int64) string {
	return "/users/" + username + "/posts/" + strconv.FormatInt(postID, 10)
}
