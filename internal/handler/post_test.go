package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"postservice/internal/httputil"
	"postservice/internal/model"
)

// =============================================================================
// List Tests
// =============================================================================

func TestPostHandler_List(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantOwner  *int64
		wantParams model.PageParams
	}{
		{name: "all posts", query: "", wantStatus: http.StatusOK},
		{name: "owner me", query: "owner=me", wantStatus: http.StatusOK, wantOwner: int64Ptr(testUserID)},
		{name: "owner id", query: "owner=9&page=2&page_size=5", wantStatus: http.StatusOK,
			wantOwner: int64Ptr(9), wantParams: model.PageParams{Page: 2, PageSize: 5}},
		{name: "bad owner", query: "owner=bob", wantStatus: http.StatusBadRequest},
		{name: "page zero", query: "page=0", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOwner *int64
			var gotParams model.PageParams
			svc := &mockPostService{
				listFn: func(ctx context.Context, ownerID *int64, params model.PageParams) (*model.PostPage, error) {
					gotOwner, gotParams = ownerID, params
					return &model.PostPage{PageInfo: model.PageInfo{Page: 1, PageSize: 2}}, nil
				},
			}
			h := NewPostHandler(svc)

			rec := httptest.NewRecorder()
			h.List(rec, newRequest(http.MethodGet, "/posts?"+tt.query, nil, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body=%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if !equalInt64Ptr(gotOwner, tt.wantOwner) {
				t.Errorf("owner = %v, want %v", gotOwner, tt.wantOwner)
			}
			if gotParams != tt.wantParams {
				t.Errorf("params = %+v, want %+v", gotParams, tt.wantParams)
			}
		})
	}
}

func TestPostHandler_ListPageNotFound(t *testing.T) {
	svc := &mockPostService{
		listFn: func(ctx context.Context, ownerID *int64, params model.PageParams) (*model.PostPage, error) {
			return nil, model.ErrPageNotFound
		},
	}
	rec := httptest.NewRecorder()
	NewPostHandler(svc).List(rec, newRequest(http.MethodGet, "/posts?page=9", nil, nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// =============================================================================
// Create / Update / Delete Tests
// =============================================================================

func TestPostHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"created", `{"title":"hello","content":"world"}`, nil, http.StatusCreated},
		{"unknown fields ignored", `{"title":"hello","user_id":99}`, nil, http.StatusCreated},
		{"malformed body", `{"title":`, nil, http.StatusBadRequest},
		{"validation", `{"title":""}`, model.ErrTitleRequired, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID int64
			svc := &mockPostService{
				createFn: func(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.PostDetailView, error) {
					gotUserID = userID
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &model.PostDetailView{PostListView: model.PostListView{ID: 1, UserID: userID, Title: req.Title}}, nil
				},
			}

			rec := httptest.NewRecorder()
			NewPostHandler(svc).Create(rec, newRequest(http.MethodPost, "/posts", jsonBody(tt.body), nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Code == http.StatusCreated && gotUserID != testUserID {
				t.Errorf("owner = %d, want acting user %d", gotUserID, testUserID)
			}
		})
	}
}

func TestPostHandler_CreateRequiresIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	NewPostHandler(&mockPostService{}).Create(rec, newAnonymousRequest(http.MethodPost, "/posts", jsonBody(`{}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != httputil.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", code, httputil.ErrCodeUnauthorized)
	}
}

func TestPostHandler_Update(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		serviceErr error
		wantStatus int
	}{
		{"updated", "3", nil, http.StatusOK},
		{"not owner", "3", model.ErrNotPostOwner, http.StatusForbidden},
		{"missing post", "3", model.ErrPostNotFound, http.StatusNotFound},
		{"nothing to update", "3", model.ErrNoFieldsToUpdate, http.StatusBadRequest},
		{"bad id", "x", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPostService{
				updateFn: func(ctx context.Context, userID, postID int64, req model.UpdatePostRequest) (*model.PostDetailView, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &model.PostDetailView{PostListView: model.PostListView{ID: postID}}, nil
				},
			}

			rec := httptest.NewRecorder()
			req := newRequest(http.MethodPatch, "/posts/"+tt.id, jsonBody(`{"title":"new"}`), map[string]string{"id": tt.id})
			NewPostHandler(svc).Update(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestPostHandler_Delete(t *testing.T) {
	var gotUser, gotPost int64
	svc := &mockPostService{
		deleteFn: func(ctx context.Context, userID, postID int64) error {
			gotUser, gotPost = userID, postID
			return nil
		},
	}

	rec := httptest.NewRecorder()
	NewPostHandler(svc).Delete(rec, newRequest(http.MethodDelete, "/posts/5", nil, map[string]string{"id": "5"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser != testUserID || gotPost != 5 {
		t.Errorf("Delete(user=%d, post=%d), want (%d, 5)", gotUser, gotPost, testUserID)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["res"] != "Object deleted!" {
		t.Errorf("body = %v, want res=Object deleted!", body)
	}
}

func TestPostHandler_Get(t *testing.T) {
	svc := &mockPostService{
		getDetailFn: func(ctx context.Context, postID int64) (*model.PostDetailView, error) {
			if postID != 8 {
				return nil, model.ErrPostNotFound
			}
			return &model.PostDetailView{
				PostListView: model.PostListView{ID: 8, Title: "t"},
				Comments:     []model.CommentView{{ID: 1, PostID: 8}},
			}, nil
		},
	}
	h := NewPostHandler(svc)

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/posts/8", nil, map[string]string{"id": "8"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got model.PostDetailView
	decodeBody(t, rec, &got)
	if got.ID != 8 || len(got.Comments) != 1 {
		t.Errorf("got %+v, want post 8 with one comment", got)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/posts/9", nil, map[string]string{"id": "9"}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func int64Ptr(v int64) *int64 { return &v }

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
