package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vadim/social-pulse/internal/domain/demographics/dao"
	"github.com/vadim/social-pulse/internal/domain/demographics/entity"
	"github.com/vadim/social-pulse/internal/httpx/upstream/instagram"
)

// InstagramAPI defines the upstream operations the demographics sync needs
type InstagramAPI interface {
	GetAudienceBreakdown(ctx context.Context, accountID, accessToken, dimension string) ([]instagram.BreakdownRow, error)
}

// Service synchronizes engaged-audience demographic breakdowns.
type Service struct {
	ig     InstagramAPI
	repo   dao.DemographicsRepository
	logger *slog.Logger
}

// New creates a new demographics sync service
func New(ig InstagramAPI, repo dao.DemographicsRepository, logger *slog.Logger) *Service {
	return &Service{ig: ig, repo: repo, logger: logger}
}

// SyncInput represents input for one dimension's sync
type SyncInput struct {
	AccessToken string
	AccountID   string
	Dimension   entity.Dimension
}

// SyncOutput reports the outcome of one dimension's sync. Replaced is
// false when the platform returned no data and the stored buckets were
// kept.
type SyncOutput struct {
	Message  string `json:"message"`
	Buckets  int    `json:"buckets"`
	Replaced bool   `json:"replaced"`
}

// Sync fetches one demographic breakdown and replaces the stored buckets
// with it. The platform reports nothing when no updated data exists for
// the timeframe; in that case the previously stored buckets are kept
// rather than cleared.
func (s *Service) Sync(ctx context.Context, in SyncInput) (*SyncOutput, error) {
	if !in.Dimension.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownDimension, in.Dimension)
	}

	rows, err := s.ig.GetAudienceBreakdown(ctx, in.AccountID, in.AccessToken, string(in.Dimension))
	if err != nil {
		return &SyncOutput{
			Message: fmt.Sprintf("Error getting %s demographics: %v", in.Dimension, err),
		}, nil
	}

	if len(rows) == 0 {
		return &SyncOutput{
			Message: fmt.Sprintf("No %s demographic data available.", in.Dimension),
		}, nil
	}

	buckets := make([]entity.Bucket, 0, len(rows))
	for _, r := range rows {
		buckets = append(buckets, entity.Bucket{
			AccountID:        in.AccountID,
			Dimension:        in.Dimension,
			Label:            r.Label,
			InteractionCount: r.Value,
		})
	}

	if err := s.repo.ReplaceDimension(ctx, in.AccountID, in.Dimension, buckets); err != nil {
		return nil, fmt.Errorf("replacing %s buckets: %w", in.Dimension, err)
	}

	return &SyncOutput{
		Message:  fmt.Sprintf("%s demographics processed successfully.", in.Dimension),
		Buckets:  len(buckets),
		Replaced: true,
	}, nil
}

// SyncAll runs the country, city and age breakdowns in sequence. Each
// dimension's outcome is independent; one failed dimension does not stop
// the others.
func (s *Service) SyncAll(ctx context.Context, accessToken, accountID string) ([]SyncOutput, error) {
	dimensions := []entity.Dimension{
		entity.DimensionCountry,
		entity.DimensionCity,
		entity.DimensionAge,
	}

	outputs := make([]SyncOutput, 0, len(dimensions))
	for _, dim := range dimensions {
		out, err := s.Sync(ctx, SyncInput{
			AccessToken: accessToken,
			AccountID:   accountID,
			Dimension:   dim,
		})
		if err != nil {
			return outputs, err
		}
		s.logger.Info("demographics dimension synced",
			"account_id", accountID, "dimension", dim, "replaced", out.Replaced)
		outputs = append(outputs, *out)
	}

	return outputs, nil
}

// List retrieves the stored buckets of one dimension, largest audience
// first.
func (s *Service) List(ctx context.Context, accountID string, dimension entity.Dimension) ([]entity.Bucket, error) {
	if !dimension.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownDimension, dimension)
	}
	return s.repo.ListByDimension(ctx, accountID, dimension)
}
