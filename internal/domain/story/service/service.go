package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	accountentity "github.com/vadim/social-pulse/internal/domain/account/entity"
	"github.com/vadim/social-pulse/internal/domain/story/dao"
	"github.com/vadim/social-pulse/internal/domain/story/entity"
	"github.com/vadim/social-pulse/internal/httpx/upstream/instagram"
)

// InstagramAPI defines the upstream operations the story sync needs
type InstagramAPI interface {
	GetActiveStories(ctx context.Context, accessToken string) ([]instagram.MediaItem, error)
	GetStoryInsights(ctx context.Context, storyID, accessToken string) (*instagram.StoryMetrics, error)
}

// CredentialSource provides the current access token
type CredentialSource interface {
	Get(ctx context.Context) (*accountentity.Credential, error)
}

// Service synchronizes the snapshot of an account's active stories.
//
// Stories expire after 24 hours, so the stored set mirrors whatever is
// live right now: each sync replaces it wholesale, and an empty listing
// is a valid snapshot that clears it.
type Service struct {
	ig          InstagramAPI
	stories     dao.StoryRepository
	credentials CredentialSource
	logger      *slog.Logger
}

// New creates a new story sync service
func New(ig InstagramAPI, stories dao.StoryRepository, credentials CredentialSource, logger *slog.Logger) *Service {
	return &Service{
		ig:          ig,
		stories:     stories,
		credentials: credentials,
		logger:      logger,
	}
}

// SyncOutput reports the outcome of a story sync run
type SyncOutput struct {
	Message string `json:"message"`
	Stories int    `json:"stories"`
}

// Sync fetches the currently active stories with their insight metrics
// and replaces the stored snapshot. A story whose insight fetch fails is
// kept with zero metrics rather than dropped from the snapshot.
//
// Sync fails fast with ErrCredentialNotFound when no access token is
// stored; upstream listing failures are reported in Message with nothing
// written.
func (s *Service) Sync(ctx context.Context, accountID string) (*SyncOutput, error) {
	cred, err := s.credentials.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	if cred == nil {
		return nil, accountentity.ErrCredentialNotFound
	}

	items, err := s.ig.GetActiveStories(ctx, cred.Token)
	if err != nil {
		return &SyncOutput{Message: fmt.Sprintf("Error getting stories: %v", err)}, nil
	}

	if len(items) == 0 {
		if err := s.stories.ReplaceAll(ctx, accountID, nil); err != nil {
			return nil, fmt.Errorf("clearing stories: %w", err)
		}
		return &SyncOutput{Message: "No active stories."}, nil
	}

	stories := make([]entity.Story, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			continue
		}

		var postedAt *time.Time
		if item.Timestamp != "" {
			if t, err := instagram.ParseTimestamp(item.Timestamp); err == nil {
				postedAt = &t
			}
		}

		story := entity.Story{
			ExternalID: item.ID,
			AccountID:  accountID,
			PostedAt:   postedAt,
			Permalink:  item.Permalink,
		}

		metrics, err := s.ig.GetStoryInsights(ctx, item.ID, cred.Token)
		if err != nil {
			// the story stays in the snapshot with zero metrics
			s.logger.Warn("story insights unavailable", "story_id", item.ID, "error", err)
		} else {
			story.ViewCount = metrics.Views
			story.ProfileClickCount = metrics.ProfileClicks
			story.SwipeUpCount = metrics.SwipesUp
			story.ReplyCount = metrics.Replies
		}

		stories = append(stories, story)
	}

	if err := s.stories.ReplaceAll(ctx, accountID, stories); err != nil {
		return nil, fmt.Errorf("replacing stories: %w", err)
	}

	return &SyncOutput{
		Message: "Stories processed successfully.",
		Stories: len(stories),
	}, nil
}

// List retrieves the stored story snapshot, newest first.
func (s *Service) List(ctx context.Context, accountID string) ([]entity.Story, error) {
	return s.stories.ListByAccount(ctx, accountID)
}
