package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	commententity "github.com/vadim/social-pulse/internal/domain/comment/entity"
	demographicsentity "github.com/vadim/social-pulse/internal/domain/demographics/entity"
	postentity "github.com/vadim/social-pulse/internal/domain/post/entity"
	postservice "github.com/vadim/social-pulse/internal/domain/post/service"
	storyentity "github.com/vadim/social-pulse/internal/domain/story/entity"
	"github.com/vadim/social-pulse/internal/httpx/response"
)

// PostReader defines read access to stored posts and their statistics
type PostReader interface {
	ListPosts(ctx context.Context, accountID string) ([]postentity.Post, error)
	TimeBlockStatistics(ctx context.Context, accountID string, kind postentity.MetricKind) (*postservice.StatisticsOutput, error)
	WeekdayStatistics(ctx context.Context, accountID string, kind postentity.MetricKind) (*postservice.StatisticsOutput, error)
}

// CommentReader defines read access to stored comments and authors
type CommentReader interface {
	ListByPost(ctx context.Context, accountID, postID string) ([]commententity.Comment, error)
	TopCommenters(ctx context.Context, accountID string) ([]commententity.User, error)
}

// StoryReader defines read access to the stored story snapshot
type StoryReader interface {
	List(ctx context.Context, accountID string) ([]storyentity.Story, error)
}

// DemographicsReader defines read access to stored demographic buckets
type DemographicsReader interface {
	List(ctx context.Context, accountID string, dimension demographicsentity.Dimension) ([]demographicsentity.Bucket, error)
}

// AnalyticsHandler handles HTTP requests for stored analytics data
type AnalyticsHandler struct {
	posts        PostReader
	comments     CommentReader
	stories      StoryReader
	demographics DemographicsReader
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(posts PostReader, comments CommentReader, stories StoryReader, demographics DemographicsReader) *AnalyticsHandler {
	return &AnalyticsHandler{
		posts:        posts,
		comments:     comments,
		stories:      stories,
		demographics: demographics,
	}
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/accounts/{id}/posts", h.ListPosts())
	r.Get("/accounts/{id}/posts/{postID}/comments", h.ListComments())
	r.Get("/accounts/{id}/commenters", h.TopCommenters())
	r.Get("/accounts/{id}/stories", h.ListStories())
	r.Get("/accounts/{id}/demographics/{dimension}", h.Demographics())
	r.Get("/accounts/{id}/stats/time-blocks", h.TimeBlockStats())
	r.Get("/accounts/{id}/stats/weekdays", h.WeekdayStats())
}

// ListPosts handles GET /accounts/{id}/posts
func (h *AnalyticsHandler) ListPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := h.posts.ListPosts(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			response.InternalError(w, "failed to list posts")
			return
		}

		response.OK(w, map[string]interface{}{
			"posts": posts,
			"total": len(posts),
		})
	}
}

// ListComments handles GET /accounts/{id}/posts/{postID}/comments
func (h *AnalyticsHandler) ListComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comments, err := h.comments.ListByPost(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "postID"))
		if err != nil {
			response.InternalError(w, "failed to list comments")
			return
		}

		response.OK(w, map[string]interface{}{
			"comments": comments,
			"total":    len(comments),
		})
	}
}

// TopCommenters handles GET /accounts/{id}/commenters
func (h *AnalyticsHandler) TopCommenters() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.comments.TopCommenters(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			response.InternalError(w, "failed to list commenters")
			return
		}

		response.OK(w, map[string]interface{}{
			"commenters": users,
			"total":      len(users),
		})
	}
}

// ListStories handles GET /accounts/{id}/stories
func (h *AnalyticsHandler) ListStories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stories, err := h.stories.List(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			response.InternalError(w, "failed to list stories")
			return
		}

		response.OK(w, map[string]interface{}{
			"stories": stories,
			"total":   len(stories),
		})
	}
}

// Demographics handles GET /accounts/{id}/demographics/{dimension}
func (h *AnalyticsHandler) Demographics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dimension := demographicsentity.Dimension(chi.URLParam(r, "dimension"))

		buckets, err := h.demographics.List(r.Context(), chi.URLParam(r, "id"), dimension)
		if err != nil {
			if errors.Is(err, demographicsentity.ErrUnknownDimension) {
				response.BadRequest(w, err.Error())
				return
			}
			response.InternalError(w, "failed to list demographics")
			return
		}

		response.OK(w, map[string]interface{}{
			"dimension": dimension,
			"buckets":   buckets,
		})
	}
}

// TimeBlockStats handles GET /accounts/{id}/stats/time-blocks?metric=likes
func (h *AnalyticsHandler) TimeBlockStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := metricKind(r)
		if !ok {
			response.BadRequest(w, "unknown metric, expected likes, comments, saves or shares")
			return
		}

		stats, err := h.posts.TimeBlockStatistics(r.Context(), chi.URLParam(r, "id"), kind)
		if err != nil {
			response.InternalError(w, "failed to compute statistics")
			return
		}

		response.OK(w, stats)
	}
}

// WeekdayStats handles GET /accounts/{id}/stats/weekdays?metric=likes
func (h *AnalyticsHandler) WeekdayStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := metricKind(r)
		if !ok {
			response.BadRequest(w, "unknown metric, expected likes, comments, saves or shares")
			return
		}

		stats, err := h.posts.WeekdayStatistics(r.Context(), chi.URLParam(r, "id"), kind)
		if err != nil {
			response.InternalError(w, "failed to compute statistics")
			return
		}

		response.OK(w, stats)
	}
}

// metricKind reads the metric query parameter, defaulting to likes.
func metricKind(r *http.Request) (postentity.MetricKind, bool) {
	raw := r.URL.Query().Get("metric")
	if raw == "" {
		return postentity.MetricLikes, true
	}

	kind := postentity.MetricKind(raw)
	return kind, postentity.ValidMetricKind(kind)
}
