package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"postservice/internal/httputil"
	"postservice/internal/model"
)

// PostService is the post surface the handler needs. *service.PostService
// implements it.
type PostService interface {
	Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.PostDetailView, error)
	Update(ctx context.Context, userID, postID int64, req model.UpdatePostRequest) (*model.PostDetailView, error)
	Delete(ctx context.Context, userID, postID int64) error
	List(ctx context.Context, ownerID *int64, params model.PageParams) (*model.PostPage, error)
	GetDetail(ctx context.Context, postID int64) (*model.PostDetailView, error)
}

type PostHandler struct {
	postService PostService
}

func NewPostHandler(postService PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// List handles GET /posts?owner=me|<user_id>&page=&page_size=
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	var ownerID *int64
	switch owner := r.URL.Query().Get("owner"); owner {
	case "":
	case "me":
		ownerID = &userID
	default:
		id, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			httputil.WriteBadRequest(w, model.ErrInvalidPostOwner.Error())
			return
		}
		ownerID = &id
	}

	params, ok := pageParams(r)
	if !ok {
		httputil.WriteBadRequest(w, model.ErrInvalidPage.Error())
		return
	}

	page, err := h.postService.List(r.Context(), ownerID, params)
	if err != nil {
		writeServiceError(w, "List posts handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// Create handles POST /posts
// Creates a new post owned by the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, "Create post handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Get handles GET /posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.postService.GetDetail(r.Context(), postID)
	if err != nil {
		writeServiceError(w, "Get post handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Update handles PUT and PATCH /posts/{id}. Both are partial updates; only
// the owner may update.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Update(r.Context(), userID, postID, req)
	if err != nil {
		writeServiceError(w, "Update post handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}
// Hard-deletes a post (only owner can delete).
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		writeServiceError(w, "Delete post handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"res": "Object deleted!",
	})
}
