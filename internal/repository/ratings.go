package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/deppfellow/turismo-api/internal/model/rating"
)

const ratingsTable = "ratings"

type RatingRepository struct {
	db Executor
}

func NewRatingRepository(db Executor) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create inserts the rating and returns the stored row, or nil if the
// statement returned none.
func (r *RatingRepository) Create(ctx context.Context, payload *rating.CreateRatingPayload) (*rating.Rating, error) {
	stmt := statementBuilder.
		Insert(ratingsTable).
		Columns("event_name", "reviewer_name", "score", "comment").
		Values(payload.EventName, payload.ReviewerName, deref(payload.Score), nullable(payload.Comment)).
		Suffix("RETURNING *")

	row, err := queryOne(ctx, r.db, stmt)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	created, err := rating.FromFields(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read rating row: %w", err)
	}
	return &created, nil
}

// List returns the newest ratings first.
func (r *RatingRepository) List(ctx context.Context, limit int) ([]rating.Rating, error) {
	stmt := statementBuilder.
		Select("*").
		From(ratingsTable).
		OrderBy("created_at DESC").
		Suffix("LIMIT ?", limit)

	return r.list(ctx, stmt)
}

// ListByEvent returns every rating of the named event, newest first.
// There is no limit.
func (r *RatingRepository) ListByEvent(ctx context.Context, eventName string) ([]rating.Rating, error) {
	stmt := statementBuilder.
		Select("*").
		From(ratingsTable).
		Where("event_name = ?", eventName).
		OrderBy("created_at DESC")

	return r.list(ctx, stmt)
}

// Stats aggregates the ratings of the named event. It returns nil when the
// aggregate row is absent.
func (r *RatingRepository) Stats(ctx context.Context, eventName string) (*rating.Stats, error) {
	stmt := statementBuilder.
		Select(
			"COUNT(*) AS total_ratings",
			"AVG(score)::float8 AS avg_rating",
			"MAX(score) AS max_rating",
			"MIN(score) AS min_rating",
		).
		From(ratingsTable).
		Where("event_name = ?", eventName)

	row, err := queryOne(ctx, r.db, stmt)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	stats, err := rating.StatsFromFields(eventName, row)
	if err != nil {
		return nil, fmt.Errorf("failed to read rating stats: %w", err)
	}
	return &stats, nil
}

func (r *RatingRepository) list(ctx context.Context, stmt sq.Sqlizer) ([]rating.Rating, error) {
	rows, err := queryAll(ctx, r.db, stmt)
	if err != nil {
		return nil, err
	}

	ratings := make([]rating.Rating, 0, len(rows))
	for _, row := range rows {
		item, err := rating.FromFields(row)
		if err != nil {
			return nil, fmt.Errorf("failed to read rating row: %w", err)
		}
		ratings = append(ratings, item)
	}
	return ratings, nil
}
