package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"postservice/internal/httputil"
	"postservice/internal/model"
)

type UserService interface {
	GetUserDetail(ctx context.Context, profileID int64) (*model.UserDetailView, error)
	GetMe(ctx context.Context, userID int64) (*model.UserDetailView, error)
	ListUsers(ctx context.Context, params model.PageParams) (*model.UserPage, error)
	UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.UserListView, error)
	UploadPicture(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (*model.UserListView, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

type FollowService interface {
	ToggleFollow(ctx context.Context, actingProfileID, targetProfileID int64) (*model.FollowResult, error)
}

type UserHandler struct {
	userService   UserService
	followService FollowService
}

func NewUserHandler(userService UserService, followService FollowService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		followService: followService,
	}
}

// List handles GET /users?page=&page_size=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params, ok := pageParams(r)
	if !ok {
		httputil.WriteBadRequest(w, model.ErrInvalidPage.Error())
		return
	}

	page, err := h.userService.ListUsers(r.Context(), params)
	if err != nil {
		writeServiceError(w, "List users handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// Get handles GET /users/{id}. The id is a profile id.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.userService.GetUserDetail(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, "Get user handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// ToggleFollow handles POST /users/{id}/follow_toggle
func (h *UserHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	_, profileID, ok := actingIDs(w, r)
	if !ok {
		return
	}

	targetID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	result, err := h.followService.ToggleFollow(r.Context(), profileID, targetID)
	if err != nil {
		writeServiceError(w, "Toggle follow handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Me handles GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	me, err := h.userService.GetMe(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "Me handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, me)
}

// UpdateProfile handles PATCH /me/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, "Update profile handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// UploadPicture handles PUT /me/picture with a multipart "file" field.
func (h *UserHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	maxFormSize := int64(model.MaxPictureSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		case errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large"):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Picture exceeds 5MB limit")
		default:
			httputil.WriteBadRequest(w, "Invalid form data")
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "file is required")
		return
	}
	defer file.Close()

	profile, err := h.userService.UploadPicture(r.Context(), userID, file, header)
	if err != nil {
		writeServiceError(w, "Upload picture handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// DeleteMe handles DELETE /me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	if err := h.userService.DeleteAccount(r.Context(), userID); err != nil {
		writeServiceError(w, "Delete account handler", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
