package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"postservice/internal/httputil"
	"postservice/internal/model"
)

type EngagementService interface {
	ToggleUpvote(ctx context.Context, userID, postID int64) (*model.UpvoteResult, error)
	AddComment(ctx context.Context, userID, postID int64, req model.CreateCommentRequest) (*model.CommentView, error)
	ListComments(ctx context.Context, postID int64) ([]model.CommentView, error)
}

type EngagementHandler struct {
	engagementService EngagementService
}

func NewEngagementHandler(engagementService EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

// ToggleUpvote handles POST /posts/{id}/upvote
func (h *EngagementHandler) ToggleUpvote(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	result, err := h.engagementService.ToggleUpvote(r.Context(), userID, postID)
	if err != nil {
		writeServiceError(w, "Toggle upvote handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// ListComments handles GET /posts/{id}/comments
func (h *EngagementHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	comments, err := h.engagementService.ListComments(r.Context(), postID)
	if err != nil {
		writeServiceError(w, "List comments handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"comments": comments,
	})
}

// AddComment handles POST /posts/{id}/comments
func (h *EngagementHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.engagementService.AddComment(r.Context(), userID, postID, req)
	if err != nil {
		writeServiceError(w, "Add comment handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}
