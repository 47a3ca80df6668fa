package handler

// POST HANDLER:
// HTTP endpoints for creating, reading, and deleting posts.
//
// ID PARSING:
// Route params arrive as strings; chi.URLParam gives us the raw segment and
// strconv.ParseInt validates it. "abc" or "-1" never reach the service layer.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/service"
)

// PostHandler handles post HTTP requests.
type PostHandler struct {
	postService *service.PostService
	likeService *service.LikeService
	logger      *slog.Logger
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService *service.PostService, likeService *service.LikeService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		likeService: likeService,
		logger:      logger,
	}
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type postResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	AuthorID       *int64    `json:"author_id"` // null for posts whose author account is gone
	LikeCount      int64     `json:"like_count"`
	ViewerHasLiked bool      `json:"viewer_has_liked"`
	CreatedAt      time.Time `json:"created_at"`
}

// HandleCreate handles POST /api/posts. Requires authentication.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidCredentials())
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON in request body"))
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, postResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt,
	})
}

// HandleGetByID handles GET /api/posts/{id}.
//
// Works for anonymous viewers too: viewer_has_liked is simply false when
// nobody is logged in.
func (h *PostHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.postService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	count, err := h.likeService.CountFor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := postResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		AuthorID:  post.AuthorID,
		LikeCount: count,
		CreatedAt: post.CreatedAt,
	}

	if viewerID, ok := auth.UserIDFromContext(r.Context()); ok {
		liked, err := h.likeService.IsLikedBy(r.Context(), viewerID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.ViewerHasLiked = liked
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /api/posts/{id}. Requires authentication.
//
// Only the author may delete — anyone else gets a 403, even if they guess a
// valid ID.
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidCredentials())
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.postService.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleLike handles POST /api/posts/{id}/like. Requires authentication.
//
// One endpoint for both directions: the response tells the client which way
// the toggle landed, so it can update the heart icon without a refetch.
func (h *PostHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidCredentials())
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	state, err := h.likeService.Toggle(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	count, err := h.likeService.CountFor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":      state,
		"like_count": count,
	})
}

// parseIDParam extracts and validates the {id} route parameter.
func parseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "id must be a positive integer")
	}
	return id, nil
}
