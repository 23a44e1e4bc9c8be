// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, decides what an empty
// result means (not found, nothing to update, failed insert) and calls
// repository methods to interact with the data
package service

import (
	"github.com/deppfellow/turismo-api/internal/repository"
	"github.com/deppfellow/turismo-api/internal/server"
)

type Services struct {
	Events  *EventService
	Ratings *RatingService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Events:  NewEventService(s, repos.Events),
		Ratings: NewRatingService(s, repos.Ratings),
	}, nil
}
