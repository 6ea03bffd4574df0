package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	accountentity "github.com/vadim/social-pulse/internal/domain/account/entity"
	accountservice "github.com/vadim/social-pulse/internal/domain/account/service"
	demographicsservice "github.com/vadim/social-pulse/internal/domain/demographics/service"
	postservice "github.com/vadim/social-pulse/internal/domain/post/service"
	storyservice "github.com/vadim/social-pulse/internal/domain/story/service"
)

// PostSyncer runs the post and comment sync for an account
type PostSyncer interface {
	SyncPosts(ctx context.Context, in postservice.SyncPostsInput) (*postservice.SyncPostsOutput, error)
}

// DemographicsSyncer runs the audience breakdown sync for an account
type DemographicsSyncer interface {
	SyncAll(ctx context.Context, accessToken, accountID string) ([]demographicsservice.SyncOutput, error)
}

// StorySyncer runs the active-story snapshot sync for an account
type StorySyncer interface {
	Sync(ctx context.Context, accountID string) (*storyservice.SyncOutput, error)
}

// CredentialProvider resolves the current access credential
type CredentialProvider interface {
	GetCredential(ctx context.Context) (*accountentity.Credential, error)
}

// Archiver stores a finished run report
// This interface is defined here (consumer) not in the storage package (provider)
type Archiver interface {
	ArchiveReport(ctx context.Context, accountID, runID string, report interface{}) (string, error)
}

// Observer records sync run metrics
type Observer interface {
	ObserveSyncRun(outcome string, duration time.Duration)
	AddItems(kind string, n int)
}

// Policy orchestrates a full sync run: posts with their comment trees,
// the three demographic breakdowns and the story snapshot, in that
// order. Runs for different accounts never overlap because the single
// stored credential admits one syncable account at a time.
type Policy struct {
	credentials  CredentialProvider
	posts        PostSyncer
	demographics DemographicsSyncer
	stories      StorySyncer
	archive      Archiver // optional
	observer     Observer // optional
	logger       *slog.Logger
	maxPosts     int
}

// Options configures optional policy collaborators
type Options struct {
	Archive  Archiver
	Observer Observer
	MaxPosts int
}

// New creates a new sync policy
func New(credentials CredentialProvider, posts PostSyncer, demographics DemographicsSyncer, stories StorySyncer, logger *slog.Logger, opts Options) *Policy {
	return &Policy{
		credentials:  credentials,
		posts:        posts,
		demographics: demographics,
		stories:      stories,
		archive:      opts.Archive,
		observer:     opts.Observer,
		logger:       logger,
		maxPosts:     opts.MaxPosts,
	}
}

// RunReport captures everything one sync run did, in a shape fit for
// the API response and the S3 archive alike.
type RunReport struct {
	RunID        string                           `json:"run_id"`
	AccountID    string                           `json:"account_id"`
	StartedAt    time.Time                        `json:"started_at"`
	Duration     string                           `json:"duration"`
	Outcome      string                           `json:"outcome"`
	Posts        *postservice.SyncPostsOutput     `json:"posts,omitempty"`
	Demographics []demographicsservice.SyncOutput `json:"demographics,omitempty"`
	Stories      *storyservice.SyncOutput         `json:"stories,omitempty"`
	ArchiveKey   string                           `json:"archive_key,omitempty"`
}

const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
)

// SyncAccount runs a full sync for the account. It fails fast with
// ErrCredentialNotFound when no access token is stored and with
// ErrCredentialMismatch when the stored token belongs to a different
// account. Upstream API failures inside the stages do not fail the run;
// they degrade the outcome and are carried in the stage messages.
func (p *Policy) SyncAccount(ctx context.Context, accountID string) (*RunReport, error) {
	cred, err := p.credentials.GetCredential(ctx)
	if err != nil {
		return nil, err
	}
	if cred.AccountID != accountID {
		return nil, fmt.Errorf("%w: token belongs to account %s", accountentity.ErrCredentialMismatch, cred.AccountID)
	}

	report := &RunReport{
		RunID:     uuid.New().String(),
		AccountID: accountID,
		StartedAt: time.Now().UTC(),
	}
	start := time.Now()

	p.logger.Info("sync run started", "run_id", report.RunID, "account_id", accountID)

	report.Posts, err = p.posts.SyncPosts(ctx, postservice.SyncPostsInput{
		AccessToken: cred.Token,
		AccountID:   accountID,
		MaxPosts:    p.maxPosts,
	})
	if err != nil {
		return nil, fmt.Errorf("post sync: %w", err)
	}

	report.Demographics, err = p.demographics.SyncAll(ctx, cred.Token, accountID)
	if err != nil {
		return nil, fmt.Errorf("demographics sync: %w", err)
	}

	report.Stories, err = p.stories.Sync(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("story sync: %w", err)
	}

	report.Duration = time.Since(start).Round(time.Millisecond).String()
	report.Outcome = outcomeOf(report)

	p.record(report, time.Since(start))
	p.archiveReport(ctx, report)

	p.logger.Info("sync run finished",
		"run_id", report.RunID,
		"account_id", accountID,
		"outcome", report.Outcome,
		"posts", report.Posts.PostsSynced,
		"comments", report.Posts.CommentsSynced,
		"duration", report.Duration,
	)

	return report, nil
}

// RunScheduled is the scheduler entry point: it syncs the account the
// stored credential belongs to, or does nothing when no credential is
// stored yet.
func (p *Policy) RunScheduled(ctx context.Context) error {
	cred, err := p.credentials.GetCredential(ctx)
	if err != nil {
		if errors.Is(err, accountentity.ErrCredentialNotFound) {
			p.logger.Debug("scheduled sync skipped, no credential stored")
			return nil
		}
		return err
	}

	_, err = p.SyncAccount(ctx, cred.AccountID)
	return err
}

// outcomeOf degrades the run when any stage reported an upstream error
// in its message.
func outcomeOf(r *RunReport) string {
	if strings.HasPrefix(r.Posts.Message, "Error") {
		return OutcomeDegraded
	}
	for _, d := range r.Demographics {
		if strings.HasPrefix(d.Message, "Error") {
			return OutcomeDegraded
		}
	}
	if strings.HasPrefix(r.Stories.Message, "Error") {
		return OutcomeDegraded
	}
	return OutcomeOK
}

func (p *Policy) record(report *RunReport, elapsed time.Duration) {
	if p.observer == nil {
		return
	}
	p.observer.ObserveSyncRun(report.Outcome, elapsed)
	p.observer.AddItems("posts", report.Posts.PostsSynced)
	p.observer.AddItems("comments", report.Posts.CommentsSynced)
	p.observer.AddItems("stories", report.Stories.Stories)
	for _, d := range report.Demographics {
		p.observer.AddItems("demographics", d.Buckets)
	}
}

// archiveReport uploads the report when an archive is configured. An
// upload failure never fails the run.
func (p *Policy) archiveReport(ctx context.Context, report *RunReport) {
	if p.archive == nil {
		return
	}

	key, err := p.archive.ArchiveReport(ctx, report.AccountID, report.RunID, report)
	if err != nil {
		p.logger.Error("archiving sync report failed", "run_id", report.RunID, "error", err)
		return
	}
	report.ArchiveKey = key
}

var _ CredentialProvider = (*accountservice.Service)(nil)
