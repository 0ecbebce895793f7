package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"postservice/internal/httputil"
	"postservice/internal/model"
)

type MediaService interface {
	PresignUpload(ctx context.Context, req model.PresignUploadRequest) (*model.PresignUploadResponse, error)
}

type MediaHandler struct {
	mediaService MediaService
}

// NewMediaHandler takes a nil service when object storage is not configured;
// the endpoint then answers 503.
func NewMediaHandler(mediaService MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// Presign handles POST /media/presign
// Returns a presigned URL for uploading a post or comment image directly to
// R2. The returned key goes into the post or comment as image_key.
func (h *MediaHandler) Presign(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := actingIDs(w, r); !ok {
		return
	}
	if h.mediaService == nil {
		writeServiceError(w, "Presign handler", model.ErrStorageUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB is plenty for JSON
	var req model.PresignUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.ContentType == "" {
		httputil.WriteBadRequest(w, "content_type is required")
		return
	}

	res, err := h.mediaService.PresignUpload(r.Context(), req)
	if err != nil {
		writeServiceError(w, "Presign handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
