package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	accountentity "github.com/vadim/social-pulse/internal/domain/account/entity"
	commentservice "github.com/vadim/social-pulse/internal/domain/comment/service"
	"github.com/vadim/social-pulse/internal/domain/post/dao"
	"github.com/vadim/social-pulse/internal/domain/post/entity"
	"github.com/vadim/social-pulse/internal/httpx/upstream/instagram"
)

// InstagramAPI defines the upstream operations the post sync needs
type InstagramAPI interface {
	GetRecentMedia(ctx context.Context, accessToken string, limit int) ([]instagram.MediaItem, error)
	GetMediaInsights(ctx context.Context, mediaID, accessToken string) ([]instagram.InsightEntry, error)
	GetMediaCaption(ctx context.Context, mediaID, accessToken string) (string, error)
}

// CommentSyncer synchronizes the comment tree of one post
type CommentSyncer interface {
	SyncPostComments(ctx context.Context, accessToken, accountID, postID string) (*commentservice.SyncResult, error)
}

// AccountFinder resolves a registered account
type AccountFinder interface {
	GetByExternalID(ctx context.Context, externalID string) (*accountentity.Account, error)
}

const defaultMaxPosts = 100

// Service synchronizes recent posts with their engagement metrics and,
// for posts that have comments, their comment trees.
type Service struct {
	ig       InstagramAPI
	posts    dao.PostRepository
	accounts AccountFinder
	comments CommentSyncer
	logger   *slog.Logger
}

// New creates a new post sync service
func New(ig InstagramAPI, posts dao.PostRepository, accounts AccountFinder, comments CommentSyncer, logger *slog.Logger) *Service {
	return &Service{
		ig:       ig,
		posts:    posts,
		accounts: accounts,
		comments: comments,
		logger:   logger,
	}
}

// SyncPostsInput represents input for a post sync run
type SyncPostsInput struct {
	AccessToken string
	AccountID   string
	MaxPosts    int
}

// SyncPostsOutput reports the outcome of a post sync run. Message carries
// the human-readable result the calling layer displays as-is; API-level
// failures are reported here, not as errors.
type SyncPostsOutput struct {
	Message        string `json:"message"`
	PostsSynced    int    `json:"posts_synced"`
	PostsSkipped   int    `json:"posts_skipped"`
	CommentsSynced int    `json:"comments_synced"`
}

// SyncPosts fetches up to MaxPosts recent posts, upserts each with its
// insight metrics and caption, and synchronously syncs comments for posts
// that have any. Posts whose insight collection comes back empty are
// skipped without error. Comment sync makes run time proportional to the
// total comment volume; callers concerned with latency must bound
// MaxPosts.
//
// The returned error is reserved for setup problems (unknown account);
// upstream API failures end the run early and are reported in Message.
func (s *Service) SyncPosts(ctx context.Context, in SyncPostsInput) (*SyncPostsOutput, error) {
	account, err := s.accounts.GetByExternalID(ctx, in.AccountID)
	if err != nil {
		return nil, fmt.Errorf("resolving account: %w", err)
	}
	if account == nil {
		return nil, accountentity.ErrAccountNotFound
	}

	if in.MaxPosts <= 0 {
		in.MaxPosts = defaultMaxPosts
	}

	out := &SyncPostsOutput{}

	items, err := s.ig.GetRecentMedia(ctx, in.AccessToken, in.MaxPosts)
	if err != nil {
		out.Message = fmt.Sprintf("Error getting posts: %v", err)
		return out, nil
	}
	if len(items) == 0 {
		out.Message = "No posts found."
		return out, nil
	}

	for _, item := range items {
		if item.ID == "" {
			out.PostsSkipped++
			continue
		}

		synced, err := s.syncOne(ctx, in.AccessToken, in.AccountID, item, out)
		if err != nil {
			// a transport failure mid-run ends the sync; earlier posts
			// stay upserted
			out.Message = fmt.Sprintf("Error getting posts: %v", err)
			return out, nil
		}
		if synced {
			out.PostsSynced++
		} else {
			out.PostsSkipped++
		}
	}

	out.Message = "Posts processed successfully."
	return out, nil
}

// syncOne upserts a single post. It reports false when the post is
// skipped (no insight metrics) and an error only for transport failures.
func (s *Service) syncOne(ctx context.Context, accessToken, accountID string, item instagram.MediaItem, out *SyncPostsOutput) (bool, error) {
	entries, err := s.ig.GetMediaInsights(ctx, item.ID, accessToken)
	if err != nil {
		return false, err
	}

	metrics, err := decodeMetrics(entries)
	if err == entity.ErrNoInsights {
		// observed for posts predating the business-account conversion
		return false, nil
	}
	if err != nil {
		s.logger.Warn("skipping post with malformed insights", "post_id", item.ID, "error", err)
		return false, nil
	}

	// caption failure never blocks the post
	caption, err := s.ig.GetMediaCaption(ctx, item.ID, accessToken)
	if err != nil {
		s.logger.Warn("caption fetch failed", "post_id", item.ID, "error", err)
		caption = ""
	}

	var postedAt *time.Time
	if item.Timestamp != "" {
		if t, err := instagram.ParseTimestamp(item.Timestamp); err == nil {
			postedAt = &t
		} else {
			s.logger.Warn("unparseable post timestamp", "post_id", item.ID, "timestamp", item.Timestamp)
		}
	}

	post := &entity.Post{
		ExternalID:   item.ID,
		AccountID:    accountID,
		PostedAt:     postedAt,
		Permalink:    item.Permalink,
		Caption:      caption,
		LikeCount:    metrics.Likes,
		CommentCount: metrics.Comments,
		ShareCount:   metrics.Shares,
		SaveCount:    metrics.Saves,
	}
	if err := s.posts.Upsert(ctx, post); err != nil {
		return false, fmt.Errorf("upserting post %s: %w", item.ID, err)
	}

	if metrics.Comments > 0 {
		result, err := s.comments.SyncPostComments(ctx, accessToken, accountID, item.ID)
		if err != nil {
			// a listing-level failure aborts that post's comments only
			s.logger.Warn("comment sync failed", "post_id", item.ID, "error", err)
		} else {
			out.CommentsSynced += result.Synced
		}
	}

	return true, nil
}

// decodeMetrics decodes the positional insight payload: entries 0..3 are
// likes, comments, saved and shares in that fixed upstream order.
func decodeMetrics(entries []instagram.InsightEntry) (*entity.Metrics, error) {
	if len(entries) == 0 {
		return nil, entity.ErrNoInsights
	}
	if len(entries) < 4 {
		return nil, fmt.Errorf("%w: got %d entries, want 4", entity.ErrMalformedInsights, len(entries))
	}

	return &entity.Metrics{
		Likes:    entries[0].First(),
		Comments: entries[1].First(),
		Saves:    entries[2].First(),
		Shares:   entries[3].First(),
	}, nil
}

// ListPosts retrieves an account's stored posts, newest first.
func (s *Service) ListPosts(ctx context.Context, accountID string) ([]entity.Post, error) {
	return s.posts.ListByAccount(ctx, accountID)
}

// StatisticsOutput is an aggregated engagement report for one metric.
type StatisticsOutput struct {
	Metric  entity.MetricKind      `json:"metric"`
	Posts   int                    `json:"posts"`
	Buckets []entity.BucketAverage `json:"buckets"`
}

// TimeBlockStatistics averages one engagement metric across the account's
// posts grouped by 2-hour posting block.
func (s *Service) TimeBlockStatistics(ctx context.Context, accountID string, kind entity.MetricKind) (*StatisticsOutput, error) {
	posts, err := s.posts.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	buckets, counted := entity.AverageByTimeBlock(posts, kind)
	return &StatisticsOutput{Metric: kind, Posts: counted, Buckets: buckets}, nil
}

// WeekdayStatistics averages one engagement metric across the account's
// posts grouped by weekday.
func (s *Service) WeekdayStatistics(ctx context.Context, accountID string, kind entity.MetricKind) (*StatisticsOutput, error) {
	posts, err := s.posts.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	buckets, counted := entity.AverageByWeekday(posts, kind)
	return &StatisticsOutput{Metric: kind, Posts: counted, Buckets: buckets}, nil
}
