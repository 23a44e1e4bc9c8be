// Package rating defines reviews tied to an event by its name.
package rating

import (
	"time"

	"github.com/deppfellow/turismo-api/internal/model"
)

// Rating is one review of an event.
type Rating struct {
	ID           int64     `json:"id" mapstructure:"id"`
	EventName    string    `json:"event_name" mapstructure:"event_name"`
	ReviewerName string    `json:"reviewer_name" mapstructure:"reviewer_name"`
	Score        int       `json:"score" mapstructure:"score"`
	Comment      *string   `json:"comment" mapstructure:"comment"`
	CreatedAt    time.Time `json:"created_at" mapstructure:"created_at"`
}

var ratingSchema = model.Schema{
	Aliases: map[string]string{
		"eventName":    "event_name",
		"reviewerName": "reviewer_name",
	},
	Required: model.Require(Rating{}, "comment"),
}

func FromFields(fields model.Fields) (Rating, error) {
	var rating Rating
	if err := ratingSchema.Decode(fields, &rating); err != nil {
		return Rating{}, err
	}
	return rating, nil
}

// Stats aggregates the ratings of one event.
type Stats struct {
	EventName    string  `json:"event_name" mapstructure:"-"`
	TotalRatings int64   `json:"total_ratings" mapstructure:"total_ratings"`
	AvgRating    float64 `json:"avg_rating" mapstructure:"avg_rating"`
	MaxRating    int     `json:"max_rating" mapstructure:"max_rating"`
	MinRating    int     `json:"min_rating" mapstructure:"min_rating"`
}

// An event without ratings aggregates to a zero count and NULL for the
// rest, so only the count is required up front.
var countSchema = model.Schema{Required: []string{"total_ratings"}}

var statsSchema = model.Schema{Required: model.Require(Stats{})}

// EmptyStats is what an event without any rating reports.
func EmptyStats(eventName string) Stats {
	return Stats{EventName: eventName}
}

// StatsFromFields reads the aggregate row for eventName. A missing row or
// a zero total gives EmptyStats.
func StatsFromFields(eventName string, fields model.Fields) (Stats, error) {
	if fields == nil {
		return EmptyStats(eventName), nil
	}

	var count struct {
		Total int64 `mapstructure:"total_ratings"`
	}
	if err := countSchema.Decode(fields, &count); err != nil {
		return Stats{}, err
	}
	if count.Total == 0 {
		return EmptyStats(eventName), nil
	}

	stats := Stats{EventName: eventName}
	if err := statsSchema.Decode(fields, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
