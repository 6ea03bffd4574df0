package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadim/social-pulse/internal/domain/comment/dao"
	"github.com/vadim/social-pulse/internal/domain/comment/entity"
	postentity "github.com/vadim/social-pulse/internal/domain/post/entity"
	"github.com/vadim/social-pulse/internal/httpx/upstream/instagram"
)

// InstagramAPI defines the upstream operations the comment sync needs
type InstagramAPI interface {
	GetCommentPage(ctx context.Context, in instagram.CommentPageInput) (*instagram.CommentPage, error)
	GetCommentDetail(ctx context.Context, commentID, accessToken string) (*instagram.CommentDetail, error)
}

// PostFinder resolves the stored post a comment belongs to
type PostFinder interface {
	GetByExternalID(ctx context.Context, accountID, externalID string) (*postentity.Post, error)
}

const (
	defaultPageSize = 50

	// maxCommentPages bounds the ID-collection loop. Termination normally
	// comes from the API omitting paging.next; the cap guards against a
	// misbehaving upstream feeding cursors forever.
	maxCommentPages = 500
)

// Service synchronizes the full comment tree of a post.
//
// A sync runs in three phases: collect every comment ID through the
// paginated listing, fetch and upsert each comment with its author, then
// link replies to parents discovered in the same batch. Phase 1 failures
// abort the whole post with nothing written; phase 2 failures skip the
// single comment and continue.
type Service struct {
	ig       InstagramAPI
	comments dao.CommentRepository
	users    dao.UserRepository
	posts    PostFinder
	logger   *slog.Logger
	pageSize int
}

// New creates a new comment sync service
func New(ig InstagramAPI, comments dao.CommentRepository, users dao.UserRepository, posts PostFinder, logger *slog.Logger) *Service {
	return &Service{
		ig:       ig,
		comments: comments,
		users:    users,
		posts:    posts,
		logger:   logger,
		pageSize: defaultPageSize,
	}
}

// SyncResult reports what one post's comment sync did.
type SyncResult struct {
	Collected int `json:"collected"` // comment IDs found in the listing
	Synced    int `json:"synced"`    // comments created or refreshed
	Created   int `json:"created"`   // subset of Synced that were new rows
	Skipped   int `json:"skipped"`   // rejected or failed individually
	Linked    int `json:"linked"`    // replies linked to parents this pass
}

// batchEntry pairs a processed comment with the reply IDs the API reported
// for it, for the deferred linking phase.
type batchEntry struct {
	comment  *entity.Comment
	replyIDs []string
}

// SyncPostComments fetches and stores the complete comment tree of one
// post. The owning post must already be stored; a listing-level API error
// returns before anything is written.
func (s *Service) SyncPostComments(ctx context.Context, accessToken, accountID, postID string) (*SyncResult, error) {
	ids, err := s.collectCommentIDs(ctx, accessToken, postID)
	if err != nil {
		return nil, fmt.Errorf("collecting comment ids for post %s: %w", postID, err)
	}

	result := &SyncResult{Collected: len(ids)}

	// Phase 2: fetch each comment independently. Order is preserved so a
	// deterministic parent wins when two comments claim the same reply.
	batch := make(map[string]*batchEntry, len(ids))
	order := make([]string, 0, len(ids))

	for _, id := range ids {
		comment, created, replyIDs, err := s.processComment(ctx, accessToken, accountID, postID, id)
		if err != nil {
			s.logger.Warn("skipping comment", "comment_id", id, "post_id", postID, "error", err)
			result.Skipped++
			continue
		}
		result.Synced++
		if created {
			result.Created++
		}
		batch[comment.ExternalID] = &batchEntry{comment: comment, replyIDs: replyIDs}
		order = append(order, comment.ExternalID)
	}

	// Phase 3: resolve forward references within the batch. Replies not in
	// this batch either carry a parent from a prior sync or stay unlinked
	// until a future sync re-discovers them.
	for _, cid := range order {
		for _, rid := range batch[cid].replyIDs {
			reply, ok := batch[rid]
			if !ok || reply.comment.ParentID != "" {
				continue
			}
			if err := s.comments.SetParentIfEmpty(ctx, rid, cid); err != nil {
				s.logger.Warn("linking reply", "reply_id", rid, "parent_id", cid, "error", err)
				continue
			}
			reply.comment.ParentID = cid
			result.Linked++
		}
	}

	return result, nil
}

// collectCommentIDs walks the paginated comment listing of a post. The
// first request is post-scoped; each following request uses the opaque
// next-page URL as-is.
func (s *Service) collectCommentIDs(ctx context.Context, accessToken, postID string) ([]string, error) {
	var ids []string

	in := instagram.CommentPageInput{
		MediaID:     postID,
		AccessToken: accessToken,
		Limit:       s.pageSize,
	}

	for page := 0; ; page++ {
		if page == maxCommentPages {
			return nil, fmt.Errorf("comment listing for post %s exceeded %d pages", postID, maxCommentPages)
		}

		resp, err := s.ig.GetCommentPage(ctx, in)
		if err != nil {
			return nil, err
		}

		ids = append(ids, resp.IDs...)

		if resp.Next == "" {
			return ids, nil
		}
		in = instagram.CommentPageInput{NextURL: resp.Next}
	}
}

// processComment fetches one comment's detail and upserts the comment and
// its author. It reports whether a new comment row was created and which
// reply IDs the API listed for the comment.
func (s *Service) processComment(ctx context.Context, accessToken, accountID, postID, commentID string) (*entity.Comment, bool, []string, error) {
	detail, err := s.ig.GetCommentDetail(ctx, commentID, accessToken)
	if err != nil {
		return nil, false, nil, err
	}

	if detail.From == nil || detail.From.ID == "" || detail.From.Username == "" {
		return nil, false, nil, entity.ErrMissingAuthor
	}
	authorID := detail.From.ID
	username := detail.From.Username

	post, err := s.posts.GetByExternalID(ctx, accountID, postID)
	if err != nil {
		return nil, false, nil, fmt.Errorf("resolving post: %w", err)
	}
	if post == nil {
		return nil, false, nil, entity.ErrPostMissing
	}

	var postedAt *time.Time
	if detail.Timestamp != "" {
		if t, err := instagram.ParseTimestamp(detail.Timestamp); err == nil {
			postedAt = &t
		}
	}
	replyIDs := detail.ReplyIDs()

	if err := s.upsertUser(ctx, accountID, authorID, username); err != nil {
		return nil, false, nil, err
	}

	existing, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, false, nil, fmt.Errorf("loading comment: %w", err)
	}

	var comment *entity.Comment
	created := existing == nil

	if created {
		comment = &entity.Comment{
			ExternalID:     commentID,
			AccountID:      accountID,
			PostExternalID: postID,
			AuthorID:       authorID,
			Username:       username,
			Text:           detail.Text,
			LikeCount:      detail.LikeCount,
			PostedAt:       postedAt,
			ParentID:       detail.ParentID,
			ReplyIDs:       replyIDs,
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return nil, false, nil, fmt.Errorf("creating comment: %w", err)
		}
		// the author's count moves only after the comment is stored, and
		// only for a genuinely new comment
		if err := s.users.IncrementCommentCount(ctx, authorID); err != nil {
			return nil, false, nil, fmt.Errorf("incrementing author count: %w", err)
		}
	} else {
		comment = existing
		comment.Username = username
		comment.Text = detail.Text
		comment.LikeCount = detail.LikeCount
		comment.PostedAt = postedAt
		comment.ReplyIDs = replyIDs
		// existing.ParentID stays as stored: first writer wins
		if err := s.comments.Update(ctx, comment); err != nil {
			return nil, false, nil, fmt.Errorf("updating comment: %w", err)
		}
	}

	return comment, created, replyIDs, nil
}

// ListByPost retrieves the stored comments of a post, newest first.
func (s *Service) ListByPost(ctx context.Context, accountID, postID string) ([]entity.Comment, error) {
	return s.comments.ListByPost(ctx, accountID, postID)
}

// TopCommenters retrieves the account's known comment authors ordered by
// how many of their comments are stored.
func (s *Service) TopCommenters(ctx context.Context, accountID string) ([]entity.User, error) {
	return s.users.ListByAccount(ctx, accountID)
}

// upsertUser creates the author on first sight and refreshes the username
// on every pass. The comment count is untouched here; it moves only when a
// new comment is stored.
func (s *Service) upsertUser(ctx context.Context, accountID, authorID, username string) error {
	user, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}

	if user == nil {
		err = s.users.Create(ctx, &entity.User{
			ExternalID: authorID,
			AccountID:  accountID,
			Username:   username,
		})
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		return nil
	}

	if user.Username != username {
		if err := s.users.UpdateUsername(ctx, authorID, username); err != nil {
			return fmt.Errorf("refreshing username: %w", err)
		}
	}

	return nil
}
