package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"postservice/internal/httputil"
	"postservice/internal/model"
	"postservice/internal/transport/http/middleware"
)

// writeServiceError maps a service error onto the API's error responses.
// Unexpected errors are logged with op and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	msg := model.Message(err)

	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, msg)
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, msg)
	case errors.Is(err, model.ErrValidation):
		httputil.WriteBadRequest(w, msg)
	case errors.Is(err, model.ErrNotFound):
		httputil.WriteNotFound(w, msg)
	case errors.Is(err, model.ErrPermissionDenied):
		httputil.WriteForbidden(w, msg)
	case errors.Is(err, model.ErrConflict):
		httputil.WriteConflict(w, msg)
	case errors.Is(err, model.ErrStorageUnavailable):
		httputil.WriteServiceUnavailable(w, err.Error())
	default:
		log.Printf("[ERROR] %s: %v", op, err)
		httputil.WriteInternalError(w, "Internal server error")
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// pageParams reads page and page_size from the query string. A page that
// is not a positive integer is rejected.
func pageParams(r *http.Request) (model.PageParams, bool) {
	var params model.PageParams
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, false
		}
		params.Page = page
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return params, false
		}
		params.PageSize = size
	}
	return params, true
}

// actingIDs returns the authenticated user and profile. Both are set by the
// auth and identity middlewares on every protected route.
func actingIDs(w http.ResponseWriter, r *http.Request) (userID, profileID int64, ok bool) {
	userID, ok = middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return 0, 0, false
	}
	profileID, ok = middleware.GetProfileIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return 0, 0, false
	}
	return userID, profileID, true
}
