package handler

import (
	"context"
	"net/http"
	"strconv"

	"postservice/internal/httputil"
	"postservice/internal/model"
)

type FeedService interface {
	GetFeed(ctx context.Context, userID int64, cursor *string, limit int) (*model.FeedResponse, error)
}

type FeedHandler struct {
	feedService FeedService
}

func NewFeedHandler(feedService FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// GetFeed handles GET /feed
// Returns the authenticated user's home feed, newest first.
//
// Query params:
//   - cursor: optional, opaque cursor from the previous page ("id:timestamp")
//   - limit: optional, number of posts per page (default 10, max 50)
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := actingIDs(w, r)
	if !ok {
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	limit := 0 // service default
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	feed, err := h.feedService.GetFeed(r.Context(), userID, cursor, limit)
	if err != nil {
		writeServiceError(w, "GetFeed handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}
