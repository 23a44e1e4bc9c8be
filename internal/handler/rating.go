package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/turismo-api/internal/model/rating"
	"github.com/deppfellow/turismo-api/internal/server"
	"github.com/deppfellow/turismo-api/internal/service"
)

type RatingHandler struct {
	Handler
	ratingService *service.RatingService
}

func NewRatingHandler(s *server.Server, ratingService *service.RatingService) *RatingHandler {
	return &RatingHandler{
		Handler:       NewHandler(s),
		ratingService: ratingService,
	}
}

func (h *RatingHandler) CreateRating(c echo.Context, payload *rating.CreateRatingPayload) (*rating.Rating, error) {
	return h.ratingService.Create(c.Request().Context(), payload)
}

func (h *RatingHandler) ListRatings(c echo.Context, payload *rating.ListRatingsPayload) ([]rating.Rating, error) {
	return h.ratingService.List(c.Request().Context(), payload)
}

func (h *RatingHandler) ListEventRatings(c echo.Context, payload *rating.EventNamePayload) ([]rating.Rating, error) {
	return h.ratingService.ListByEvent(c.Request().Context(), payload.EventName)
}

func (h *RatingHandler) GetRatingStats(c echo.Context, payload *rating.EventNamePayload) (rating.Stats, error) {
	return h.ratingService.Stats(c.Request().Context(), payload.EventName)
}
