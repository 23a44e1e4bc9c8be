package repository

import (
	"github.com/deppfellow/turismo-api/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Events  *EventRepository
	Ratings *RatingRepository
}

// NewRepositories constructs the repository container on top of the
// server's data access layer.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Events:  NewEventRepository(s.DB),
		Ratings: NewRatingRepository(s.DB),
	}
}
