package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"postservice/internal/httputil"
	"postservice/internal/model"
	"postservice/internal/transport/http/middleware"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type mockPostService struct {
	createFn    func(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.PostDetailView, error)
	updateFn    func(ctx context.Context, userID, postID int64, req model.UpdatePostRequest) (*model.PostDetailView, error)
	deleteFn    func(ctx context.Context, userID, postID int64) error
	listFn      func(ctx context.Context, ownerID *int64, params model.PageParams) (*model.PostPage, error)
	getDetailFn func(ctx context.Context, postID int64) (*model.PostDetailView, error)
}

func (m *mockPostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.PostDetailView, error) {
	return m.createFn(ctx, userID, req)
}

func (m *mockPostService) Update(ctx context.Context, userID, postID int64, req model.UpdatePostRequest) (*model.PostDetailView, error) {
	return m.updateFn(ctx, userID, postID, req)
}

func (m *mockPostService) Delete(ctx context.Context, userID, postID int64) error {
	return m.deleteFn(ctx, userID, postID)
}

func (m *mockPostService) List(ctx context.Context, ownerID *int64, params model.PageParams) (*model.PostPage, error) {
	return m.listFn(ctx, ownerID, params)
}

func (m *mockPostService) GetDetail(ctx context.Context, postID int64) (*model.PostDetailView, error) {
	return m.getDetailFn(ctx, postID)
}

type mockEngagementService struct {
	toggleUpvoteFn func(ctx context.Context, userID, postID int64) (*model.UpvoteResult, error)
	addCommentFn   func(ctx context.Context, userID, postID int64, req model.CreateCommentRequest) (*model.CommentView, error)
	listCommentsFn func(ctx context.Context, postID int64) ([]model.CommentView, error)
}

func (m *mockEngagementService) ToggleUpvote(ctx context.Context, userID, postID int64) (*model.UpvoteResult, error) {
	return m.toggleUpvoteFn(ctx, userID, postID)
}

func (m *mockEngagementService) AddComment(ctx context.Context, userID, postID int64, req model.CreateCommentRequest) (*model.CommentView, error) {
	return m.addCommentFn(ctx, userID, postID, req)
}

func (m *mockEngagementService) ListComments(ctx context.Context, postID int64) ([]model.CommentView, error) {
	return m.listCommentsFn(ctx, postID)
}

type mockUserService struct {
	getUserDetailFn func(ctx context.Context, profileID int64) (*model.UserDetailView, error)
	getMeFn         func(ctx context.Context, userID int64) (*model.UserDetailView, error)
	listUsersFn     func(ctx context.Context, params model.PageParams) (*model.UserPage, error)
	updateProfileFn func(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.UserListView, error)
	uploadPictureFn func(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (*model.UserListView, error)
	deleteAccountFn func(ctx context.Context, userID int64) error
}

func (m *mockUserService) GetUserDetail(ctx context.Context, profileID int64) (*model.UserDetailView, error) {
	return m.getUserDetailFn(ctx, profileID)
}

func (m *mockUserService) GetMe(ctx context.Context, userID int64) (*model.UserDetailView, error) {
	return m.getMeFn(ctx, userID)
}

func (m *mockUserService) ListUsers(ctx context.Context, params model.PageParams) (*model.UserPage, error) {
	return m.listUsersFn(ctx, params)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.UserListView, error) {
	return m.updateProfileFn(ctx, userID, req)
}

func (m *mockUserService) UploadPicture(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (*model.UserListView, error) {
	return m.uploadPictureFn(ctx, userID, file, header)
}

func (m *mockUserService) DeleteAccount(ctx context.Context, userID int64) error {
	return m.deleteAccountFn(ctx, userID)
}

type mockFollowService struct {
	toggleFollowFn func(ctx context.Context, actingProfileID, targetProfileID int64) (*model.FollowResult, error)
}

func (m *mockFollowService) ToggleFollow(ctx context.Context, actingProfileID, targetProfileID int64) (*model.FollowResult, error) {
	return m.toggleFollowFn(ctx, actingProfileID, targetProfileID)
}

type mockFeedService struct {
	getFeedFn func(ctx context.Context, userID int64, cursor *string, limit int) (*model.FeedResponse, error)
}

func (m *mockFeedService) GetFeed(ctx context.Context, userID int64, cursor *string, limit int) (*model.FeedResponse, error) {
	return m.getFeedFn(ctx, userID, cursor, limit)
}

type mockMediaService struct {
	presignUploadFn func(ctx context.Context, req model.PresignUploadRequest) (*model.PresignUploadResponse, error)
}

func (m *mockMediaService) PresignUpload(ctx context.Context, req model.PresignUploadRequest) (*model.PresignUploadResponse, error) {
	return m.presignUploadFn(ctx, req)
}

// =============================================================================
// Test Helpers
// =============================================================================

const (
	testUserID    int64 = 42
	testProfileID int64 = 7
)

// newRequest builds a request as the auth and identity middlewares leave it,
// with chi URL params set.
func newRequest(method, target string, body io.Reader, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	ctx := context.WithValue(req.Context(), middleware.UserIDKey, testUserID)
	ctx = context.WithValue(ctx, middleware.ProfileIDKey, testProfileID)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return req.WithContext(ctx)
}

// newAnonymousRequest has no identity in its context.
func newAnonymousRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v (body=%q)", err, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	decodeBody(t, rec, &body)
	return body.Error.Code
}
