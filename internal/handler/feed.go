package handler

// FEED HANDLER:
// GET /api/feed — every post, newest first, each with its like count and
// whether the current viewer has liked it.
//
// The feed is public. If a session cookie is present the middleware puts
// the viewer's ID in the context and we pass it down so the service can
// annotate viewer_has_liked; otherwise the viewer is nil and every entry
// comes back unliked.

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/service"
)

// FeedHandler handles feed HTTP requests.
type FeedHandler struct {
	feedService *service.FeedService
	logger      *slog.Logger
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(feedService *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		logger:      logger,
	}
}

type feedEntryResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	AuthorID       *int64    `json:"author_id"`
	AuthorUsername string    `json:"author_username"` // "" for authorless posts
	LikeCount      int64     `json:"like_count"`
	ViewerHasLiked bool      `json:"viewer_has_liked"`
	CreatedAt      time.Time `json:"created_at"`
}

// HandleFeed handles GET /api/feed.
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	var viewerID *int64
	if id, ok := auth.UserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	entries, err := h.feedService.ListAll(r.Context(), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFeedResponse(entries))
}

// toFeedResponse never returns nil, so an empty feed serialises as [] and
// not null — frontends iterate the result without a null check.
func toFeedResponse(entries []model.FeedEntry) []feedEntryResponse {
	resp := make([]feedEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, feedEntryResponse{
			ID:             e.ID,
			Title:          e.Title,
			Content:        e.Content,
			AuthorID:       e.AuthorID,
			AuthorUsername: e.AuthorUsername,
			LikeCount:      e.LikeCount,
			ViewerHasLiked: e.ViewerHasLiked,
			CreatedAt:      e.CreatedAt,
		})
	}
	return resp
}
