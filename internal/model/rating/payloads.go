package rating

import (
	"net/url"

	"github.com/deppfellow/turismo-api/internal/validation"
	"github.com/labstack/echo/v4"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// CreateRatingPayload is the body of POST /ratings.
type CreateRatingPayload struct {
	EventName    string  `json:"event_name" validate:"required,min=3"`
	ReviewerName string  `json:"reviewer_name" validate:"required,min=2,max=100"`
	Score        *int    `json:"score" validate:"required,min=0,max=5"`
	Comment      *string `json:"comment" validate:"omitnil,max=1000"`
}

func (p *CreateRatingPayload) Bind(c echo.Context) error {
	return (&echo.DefaultBinder{}).BindBody(c, p)
}

func (p *CreateRatingPayload) Validate() error {
	return validation.Struct(p)
}

// ListRatingsPayload holds the query parameters of GET /ratings.
type ListRatingsPayload struct {
	Limit int `query:"limit" validate:"min=1"`
}

func (p *ListRatingsPayload) Bind(c echo.Context) error {
	p.Limit = DefaultListLimit
	return echo.QueryParamsBinder(c).Int("limit", &p.Limit).BindError()
}

func (p *ListRatingsPayload) Validate() error {
	return validation.Struct(p)
}

// EffectiveLimit is the requested limit clamped to MaxListLimit.
func (p *ListRatingsPayload) EffectiveLimit() int {
	return min(p.Limit, MaxListLimit)
}

// EventNamePayload is the :event_name path parameter.
type EventNamePayload struct {
	EventName string `param:"event_name" validate:"required"`
}

func (p *EventNamePayload) Bind(c echo.Context) error {
	name := c.Param("event_name")

	// echo matches on the raw path when the request carries one, which
	// leaves escapes such as %2F in the value.
	if c.Request().URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	p.EventName = name
	return nil
}

func (p *EventNamePayload) Validate() error {
	return validation.Struct(p)
}
