package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	accountentity "github.com/vadim/social-pulse/internal/domain/account/entity"
	"github.com/vadim/social-pulse/internal/domain/story/entity"
	"github.com/vadim/social-pulse/internal/httpx/upstream/instagram"
)

type fakeStoryRepo struct {
	stories  []entity.Story
	replaces int
}

func (r *fakeStoryRepo) ReplaceAll(_ context.Context, _ string, stories []entity.Story) error {
	r.stories = stories
	r.replaces++
	return nil
}

func (r *fakeStoryRepo) ListByAccount(_ context.Context, _ string) ([]entity.Story, error) {
	return r.stories, nil
}

func (r *fakeStoryRepo) DeleteByAccount(_ context.Context, _ string) error {
	r.stories = nil
	return nil
}

type fakeCredentials struct {
	cred *accountentity.Credential
}

func (f *fakeCredentials) Get(_ context.Context) (*accountentity.Credential, error) {
	return f.cred, nil
}

type fakeStoryAPI struct {
	stories    []instagram.MediaItem
	storiesErr error
	metrics    map[string]*instagram.StoryMetrics
	metricsErr map[string]error
}

func (f *fakeStoryAPI) GetActiveStories(_ context.Context, _ string) ([]instagram.MediaItem, error) {
	if f.storiesErr != nil {
		return nil, f.storiesErr
	}
	return f.stories, nil
}

func (f *fakeStoryAPI) GetStoryInsights(_ context.Context, storyID, _ string) (*instagram.StoryMetrics, error) {
	if err := f.metricsErr[storyID]; err != nil {
		return nil, err
	}
	if m, ok := f.metrics[storyID]; ok {
		return m, nil
	}
	return &instagram.StoryMetrics{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storyHarness(ig *fakeStoryAPI) (*Service, *fakeStoryRepo) {
	repo := &fakeStoryRepo{}
	creds := &fakeCredentials{cred: &accountentity.Credential{Token: "tok", AccountID: "acct-1"}}
	return New(ig, repo, creds, discardLogger()), repo
}

func TestSyncSnapshotsActiveStories(t *testing.T) {
	ig := &fakeStoryAPI{
		stories: []instagram.MediaItem{
			{ID: "s1", Timestamp: "2025-06-10T08:00:00+0000", Permalink: "https://ig/s1"},
			{ID: "s2", Timestamp: "2025-06-10T09:00:00+0000"},
		},
		metrics: map[string]*instagram.StoryMetrics{
			"s1": {Views: 200, ProfileClicks: 12, SwipesUp: 4, Replies: 2},
		},
	}
	svc, repo := storyHarness(ig)

	out, err := svc.Sync(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Stories != 2 {
		t.Errorf("stories = %d, want 2", out.Stories)
	}
	if len(repo.stories) != 2 {
		t.Fatalf("stored = %d, want 2", len(repo.stories))
	}
	if repo.stories[0].ViewCount != 200 || repo.stories[0].ReplyCount != 2 {
		t.Errorf("story metrics = %+v", repo.stories[0])
	}
}

func TestSyncFailsFastWithoutCredential(t *testing.T) {
	repo := &fakeStoryRepo{}
	svc := New(&fakeStoryAPI{}, repo, &fakeCredentials{}, discardLogger())

	_, err := svc.Sync(context.Background(), "acct-1")
	if !errors.Is(err, accountentity.ErrCredentialNotFound) {
		t.Errorf("err = %v, want ErrCredentialNotFound", err)
	}
	if repo.replaces != 0 {
		t.Error("nothing must be written without a credential")
	}
}

func TestSyncListingErrorKeepsSnapshot(t *testing.T) {
	ig := &fakeStoryAPI{storiesErr: errors.New("rate limited")}
	svc, repo := storyHarness(ig)
	repo.stories = []entity.Story{{ExternalID: "old"}}

	out, err := svc.Sync(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("API failures must not surface as errors, got: %v", err)
	}
	if !strings.HasPrefix(out.Message, "Error getting stories:") {
		t.Errorf("message = %q", out.Message)
	}
	if repo.replaces != 0 {
		t.Error("a failed listing must not touch the stored snapshot")
	}
}

func TestSyncEmptyListingClearsSnapshot(t *testing.T) {
	svc, repo := storyHarness(&fakeStoryAPI{})
	repo.stories = []entity.Story{{ExternalID: "expired"}}

	out, err := svc.Sync(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Message != "No active stories." {
		t.Errorf("message = %q", out.Message)
	}
	if repo.replaces != 1 || len(repo.stories) != 0 {
		t.Error("an empty listing is a valid snapshot and must clear stored stories")
	}
}

func TestSyncInsightFailureDegradesToZeroMetrics(t *testing.T) {
	ig := &fakeStoryAPI{
		stories: []instagram.MediaItem{
			{ID: "s1", Timestamp: "2025-06-10T08:00:00+0000"},
			{ID: "s2", Timestamp: "2025-06-10T09:00:00+0000"},
		},
		metrics: map[string]*instagram.StoryMetrics{
			"s2": {Views: 50},
		},
		metricsErr: map[string]error{"s1": errors.New("insights unavailable")},
	}
	svc, repo := storyHarness(ig)

	out, err := svc.Sync(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the failed story stays in the snapshot, just without metrics
	if out.Stories != 2 || len(repo.stories) != 2 {
		t.Fatalf("stories = %d stored = %d, want 2 and 2", out.Stories, len(repo.stories))
	}
	if repo.stories[0].ExternalID != "s1" || repo.stories[0].ViewCount != 0 {
		t.Errorf("degraded story = %+v, want zero metrics", repo.stories[0])
	}
	if repo.stories[1].ViewCount != 50 {
		t.Errorf("healthy story = %+v", repo.stories[1])
	}
}
