package service

import (
	"context"

	"github.com/deppfellow/turismo-api/internal/errs"
	"github.com/deppfellow/turismo-api/internal/model/rating"
	"github.com/deppfellow/turismo-api/internal/repository"
	"github.com/deppfellow/turismo-api/internal/server"
)

type RatingService struct {
	server *server.Server
	repo   *repository.RatingRepository
}

func NewRatingService(s *server.Server, repo *repository.RatingRepository) *RatingService {
	return &RatingService{
		server: s,
		repo:   repo,
	}
}

func (s *RatingService) Create(ctx context.Context, payload *rating.CreateRatingPayload) (*rating.Rating, error) {
	created, err := s.repo.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, errs.NewBadRequestError("Failed to create rating", false, nil, nil)
	}
	return created, nil
}

func (s *RatingService) List(ctx context.Context, payload *rating.ListRatingsPayload) ([]rating.Rating, error) {
	return s.repo.List(ctx, payload.EffectiveLimit())
}

func (s *RatingService) ListByEvent(ctx context.Context, eventName string) ([]rating.Rating, error) {
	return s.repo.ListByEvent(ctx, eventName)
}

// Stats never reports nulls: an event without ratings gets all-zero stats.
func (s *RatingService) Stats(ctx context.Context, eventName string) (rating.Stats, error) {
	stats, err := s.repo.Stats(ctx, eventName)
	if err != nil {
		return rating.Stats{}, err
	}
	if stats == nil || stats.TotalRatings == 0 {
		return rating.EmptyStats(eventName), nil
	}
	return *stats, nil
}
