package policy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	accountentity "github.com/vadim/social-pulse/internal/domain/account/entity"
	demographicsservice "github.com/vadim/social-pulse/internal/domain/demographics/service"
	postservice "github.com/vadim/social-pulse/internal/domain/post/service"
	storyservice "github.com/vadim/social-pulse/internal/domain/story/service"
)

type fakeCredentials struct {
	cred *accountentity.Credential
}

func (f *fakeCredentials) GetCredential(_ context.Context) (*accountentity.Credential, error) {
	if f.cred == nil {
		return nil, accountentity.ErrCredentialNotFound
	}
	return f.cred, nil
}

type fakePostSyncer struct {
	out   *postservice.SyncPostsOutput
	err   error
	calls int
	token string
}

func (f *fakePostSyncer) SyncPosts(_ context.Context, in postservice.SyncPostsInput) (*postservice.SyncPostsOutput, error) {
	f.calls++
	f.token = in.AccessToken
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeDemographicsSyncer struct {
	out []demographicsservice.SyncOutput
}

func (f *fakeDemographicsSyncer) SyncAll(_ context.Context, _, _ string) ([]demographicsservice.SyncOutput, error) {
	return f.out, nil
}

type fakeStorySyncer struct {
	out *storyservice.SyncOutput
}

func (f *fakeStorySyncer) Sync(_ context.Context, _ string) (*storyservice.SyncOutput, error) {
	return f.out, nil
}

type fakeArchive struct {
	key   string
	err   error
	calls int
}

func (f *fakeArchive) ArchiveReport(_ context.Context, _, _ string, _ interface{}) (string, error) {
	f.calls++
	return f.key, f.err
}

type fakeObserver struct {
	outcomes []string
	items    map[string]int
}

func (f *fakeObserver) ObserveSyncRun(outcome string, _ time.Duration) {
	f.outcomes = append(f.outcomes, outcome)
}

func (f *fakeObserver) AddItems(kind string, n int) {
	if f.items == nil {
		f.items = map[string]int{}
	}
	f.items[kind] += n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func healthyStages() (*fakePostSyncer, *fakeDemographicsSyncer, *fakeStorySyncer) {
	posts := &fakePostSyncer{out: &postservice.SyncPostsOutput{
		Message: "Posts processed successfully.", PostsSynced: 3, CommentsSynced: 7,
	}}
	demographics := &fakeDemographicsSyncer{out: []demographicsservice.SyncOutput{
		{Message: "country demographics processed successfully.", Buckets: 5, Replaced: true},
		{Message: "No city demographic data available."},
		{Message: "age demographics processed successfully.", Buckets: 6, Replaced: true},
	}}
	stories := &fakeStorySyncer{out: &storyservice.SyncOutput{
		Message: "Stories processed successfully.", Stories: 2,
	}}
	return posts, demographics, stories
}

func TestSyncAccountRunsAllStages(t *testing.T) {
	creds := &fakeCredentials{cred: &accountentity.Credential{Token: "tok", AccountID: "acct-1"}}
	posts, demographics, stories := healthyStages()
	observer := &fakeObserver{}

	p := New(creds, posts, demographics, stories, discardLogger(), Options{Observer: observer, MaxPosts: 10})

	report, err := p.SyncAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Outcome != OutcomeOK {
		t.Errorf("outcome = %q, want ok", report.Outcome)
	}
	if report.RunID == "" {
		t.Error("run ID must be set")
	}
	if posts.token != "tok" {
		t.Errorf("post sync token = %q", posts.token)
	}
	if len(report.Demographics) != 3 || report.Stories.Stories != 2 {
		t.Errorf("report = %+v", report)
	}
	if observer.items["posts"] != 3 || observer.items["comments"] != 7 || observer.items["demographics"] != 11 {
		t.Errorf("observed items = %v", observer.items)
	}
}

func TestSyncAccountFailsFastWithoutCredential(t *testing.T) {
	posts, demographics, stories := healthyStages()
	p := New(&fakeCredentials{}, posts, demographics, stories, discardLogger(), Options{})

	_, err := p.SyncAccount(context.Background(), "acct-1")
	if !errors.Is(err, accountentity.ErrCredentialNotFound) {
		t.Errorf("err = %v, want ErrCredentialNotFound", err)
	}
	if posts.calls != 0 {
		t.Error("no stage must run without a credential")
	}
}

func TestSyncAccountRejectsForeignCredential(t *testing.T) {
	creds := &fakeCredentials{cred: &accountentity.Credential{Token: "tok", AccountID: "acct-2"}}
	posts, demographics, stories := healthyStages()
	p := New(creds, posts, demographics, stories, discardLogger(), Options{})

	_, err := p.SyncAccount(context.Background(), "acct-1")
	if !errors.Is(err, accountentity.ErrCredentialMismatch) {
		t.Errorf("err = %v, want ErrCredentialMismatch", err)
	}
}

func TestSyncAccountDegradedOutcome(t *testing.T) {
	creds := &fakeCredentials{cred: &accountentity.Credential{Token: "tok", AccountID: "acct-1"}}
	posts, demographics, stories := healthyStages()
	posts.out = &postservice.SyncPostsOutput{Message: "Error getting posts: rate limited"}

	p := New(creds, posts, demographics, stories, discardLogger(), Options{})

	report, err := p.SyncAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("upstream failures must degrade, not fail: %v", err)
	}
	if report.Outcome != OutcomeDegraded {
		t.Errorf("outcome = %q, want degraded", report.Outcome)
	}
}

func TestSyncAccountArchivesReport(t *testing.T) {
	creds := &fakeCredentials{cred: &accountentity.Credential{Token: "tok", AccountID: "acct-1"}}
	posts, demographics, stories := healthyStages()
	archive := &fakeArchive{key: "syncs/2025/06/10/acct-1-run.json"}

	p := New(creds, posts, demographics, stories, discardLogger(), Options{Archive: archive})

	report, err := p.SyncAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ArchiveKey != archive.key {
		t.Errorf("archive key = %q", report.ArchiveKey)
	}
}

func TestSyncAccountArchiveFailureTolerated(t *testing.T) {
	creds := &fakeCredentials{cred: &accountentity.Credential{Token: "tok", AccountID: "acct-1"}}
	posts, demographics, stories := healthyStages()
	archive := &fakeArchive{err: errors.New("bucket unavailable")}

	p := New(creds, posts, demographics, stories, discardLogger(), Options{Archive: archive})

	report, err := p.SyncAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("archive failures must not fail the run: %v", err)
	}
	if report.ArchiveKey != "" {
		t.Errorf("archive key = %q, want empty", report.ArchiveKey)
	}
}

func TestRunScheduledWithoutCredentialIsNoop(t *testing.T) {
	posts, demographics, stories := healthyStages()
	p := New(&fakeCredentials{}, posts, demographics, stories, discardLogger(), Options{})

	if err := p.RunScheduled(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posts.calls != 0 {
		t.Error("no sync must run without a credential")
	}
}

func TestRunScheduledSyncsCredentialAccount(t *testing.T) {
	creds := &fakeCredentials{cred: &accountentity.Credential{Token: "tok", AccountID: "acct-9"}}
	posts, demographics, stories := healthyStages()
	p := New(creds, posts, demographics, stories, discardLogger(), Options{})

	if err := p.RunScheduled(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posts.calls != 1 {
		t.Errorf("post sync calls = %d, want 1", posts.calls)
	}
}
