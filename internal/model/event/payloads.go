package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/deppfellow/turismo-api/internal/validation"
	"github.com/labstack/echo/v4"
)

// Limits for list queries. Larger requested limits are clamped, not rejected.
const (
	DefaultListLimit     = 100
	MaxListLimit         = 500
	DefaultUpcomingLimit = 10
	MaxUpcomingLimit     = 50
)

// ------------------------------------------------------------

// CreateEventPayload is the body of POST /events.
type CreateEventPayload struct {
	Image       string  `json:"image" validate:"required"`
	Alt         string  `json:"alt" validate:"required"`
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Date        *string `json:"date" validate:"required"`
	DateEvent   string  `json:"date_event" validate:"required,datetime=2006-01-02"`
	Year        string  `json:"year" validate:"required,len=4,number"`
	Description string  `json:"description" validate:"required,min=10"`
	EventName   string  `json:"eventName" validate:"required,min=3"`

	ButtonText    *string  `json:"buttonText"`
	Cities        []string `json:"cities"`
	ActiveEvent   *bool    `json:"active_event"`
	EcommerceLink *string  `json:"ecommerce_link"`
}

func (p *CreateEventPayload) Bind(c echo.Context) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, p); err != nil {
		return err
	}

	if p.ButtonText == nil {
		text := DefaultButtonText
		p.ButtonText = &text
	}
	if p.ActiveEvent == nil {
		active := true
		p.ActiveEvent = &active
	}
	p.Cities = CleanCities(p.Cities)

	return nil
}

func (p *CreateEventPayload) Validate() error {
	return validation.Struct(p)
}

// ------------------------------------------------------------

// Assignment is one column change of a partial update.
type Assignment struct {
	Column string
	Value  any
}

type updateField struct {
	name     string // public JSON key
	column   string // storage column
	nullable bool
	target   func(p *UpdateEventPayload) any
	value    func(p *UpdateEventPayload) any
}

// updatableFields lists every key an update may carry, in the order the
// SET clause is built. Keys not listed here are rejected.
var updatableFields = []updateField{
	{name: "image", column: "image",
		target: func(p *UpdateEventPayload) any { return &p.Image },
		value:  func(p *UpdateEventPayload) any { return *p.Image }},
	{name: "alt", column: "alt",
		target: func(p *UpdateEventPayload) any { return &p.Alt },
		value:  func(p *UpdateEventPayload) any { return *p.Alt }},
	{name: "title", column: "title",
		target: func(p *UpdateEventPayload) any { return &p.Title },
		value:  func(p *UpdateEventPayload) any { return *p.Title }},
	{name: "date", column: "date",
		target: func(p *UpdateEventPayload) any { return &p.Date },
		value:  func(p *UpdateEventPayload) any { return *p.Date }},
	{name: "date_event", column: "date_event",
		target: func(p *UpdateEventPayload) any { return &p.DateEvent },
		value:  func(p *UpdateEventPayload) any { return *p.DateEvent }},
	{name: "year", column: "year",
		target: func(p *UpdateEventPayload) any { return &p.Year },
		value:  func(p *UpdateEventPayload) any { return *p.Year }},
	{name: "description", column: "description",
		target: func(p *UpdateEventPayload) any { return &p.Description },
		value:  func(p *UpdateEventPayload) any { return *p.Description }},
	{name: "buttonText", column: "button_text",
		target: func(p *UpdateEventPayload) any { return &p.ButtonText },
		value:  func(p *UpdateEventPayload) any { return *p.ButtonText }},
	{name: "eventName", column: "event_name",
		target: func(p *UpdateEventPayload) any { return &p.EventName },
		value:  func(p *UpdateEventPayload) any { return *p.EventName }},
	{name: "cities", column: "cities",
		target: func(p *UpdateEventPayload) any { return &p.Cities },
		value:  func(p *UpdateEventPayload) any { return CleanCities(p.Cities) }},
	{name: "active_event", column: "active_event",
		target: func(p *UpdateEventPayload) any { return &p.ActiveEvent },
		value:  func(p *UpdateEventPayload) any { return *p.ActiveEvent }},
	{name: "ecommerce_link", column: "ecommerce_link", nullable: true,
		target: func(p *UpdateEventPayload) any { return &p.EcommerceLink },
		value: func(p *UpdateEventPayload) any {
			if p.EcommerceLink == nil {
				return nil
			}
			return *p.EcommerceLink
		}},
}

func lookupField(name string) (updateField, bool) {
	for _, f := range updatableFields {
		if f.name == name {
			return f, true
		}
	}
	return updateField{}, false
}

// UpdateEventPayload is the body of PUT /events/:id.
//
// Only keys present in the body are applied. A key sent with its zero
// value is still applied; a missing key leaves the column untouched.
type UpdateEventPayload struct {
	ID int64 `param:"id" validate:"gt=0"`

	Image         *string  `json:"image" validate:"omitnil,min=1"`
	Alt           *string  `json:"alt" validate:"omitnil,min=1"`
	Title         *string  `json:"title" validate:"omitnil,min=3,max=200"`
	Date          *string  `json:"date"`
	DateEvent     *string  `json:"date_event" validate:"omitnil,datetime=2006-01-02"`
	Year          *string  `json:"year" validate:"omitnil,len=4,number"`
	Description   *string  `json:"description" validate:"omitnil,min=10"`
	ButtonText    *string  `json:"buttonText"`
	EventName     *string  `json:"eventName" validate:"omitnil,min=3"`
	Cities        []string `json:"cities"`
	ActiveEvent   *bool    `json:"active_event"`
	EcommerceLink *string  `json:"ecommerce_link"`

	present map[string]bool
}

func (p *UpdateEventPayload) Bind(c echo.Context) error {
	if err := echo.PathParamsBinder(c).Int64("id", &p.ID).BindError(); err != nil {
		return err
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read request body").SetInternal(err)
	}
	return p.decode(body)
}

// decode reads the JSON object key by key against updatableFields.
func (p *UpdateEventPayload) decode(body []byte) error {
	p.present = map[string]bool{}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Request body must be a JSON object").SetInternal(err)
	}

	var problems validation.CustomValidationErrors
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		value := raw[key]

		field, ok := lookupField(key)
		if !ok {
			problems = append(problems, validation.CustomValidationError{
				Field:   key,
				Message: "is not an updatable field",
			})
			continue
		}

		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) && !field.nullable {
			problems = append(problems, validation.CustomValidationError{
				Field:   key,
				Message: "must not be null",
			})
			continue
		}

		if err := json.Unmarshal(value, field.target(p)); err != nil {
			var typeErr *json.UnmarshalTypeError
			message := "has an invalid value"
			if errors.As(err, &typeErr) {
				message = "must be of type " + jsonType(typeErr.Type.String())
			}
			problems = append(problems, validation.CustomValidationError{
				Field:   key,
				Message: message,
			})
			continue
		}

		p.present[key] = true
	}

	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (p *UpdateEventPayload) Validate() error {
	return validation.Struct(p)
}

// Empty reports whether the body carried no field at all.
func (p *UpdateEventPayload) Empty() bool {
	return len(p.present) == 0
}

// has reports whether the body carried the given public key.
func (p *UpdateEventPayload) has(name string) bool {
	return p.present[name]
}

// Assignments returns the column changes for every present key, in
// SET clause order.
func (p *UpdateEventPayload) Assignments() []Assignment {
	var out []Assignment
	for _, f := range updatableFields {
		if !p.has(f.name) {
			continue
		}
		out = append(out, Assignment{Column: f.column, Value: f.value(p)})
	}
	return out
}

// ------------------------------------------------------------

// ListEventsPayload holds the query parameters of GET /events.
type ListEventsPayload struct {
	ActiveOnly bool   `query:"active_only"`
	Year       string `query:"year"`
	Month      int    `query:"month" validate:"omitempty,min=1,max=12"`
	Limit      int    `query:"limit" validate:"min=1"`
}

func (p *ListEventsPayload) Bind(c echo.Context) error {
	p.ActiveOnly = true
	p.Limit = DefaultListLimit

	return echo.QueryParamsBinder(c).
		CustomFunc("active_only", queryFlag("active_only", &p.ActiveOnly)).
		String("year", &p.Year).
		Int("month", &p.Month).
		Int("limit", &p.Limit).
		BindError()
}

// queryFlag binds a boolean query parameter. Besides true/false and 1/0
// it takes yes/no, on/off, y/n and t/f in any case.
func queryFlag(name string, dest *bool) func(values []string) []error {
	return func(values []string) []error {
		switch strings.ToLower(strings.TrimSpace(values[0])) {
		case "true", "1", "yes", "y", "on", "t":
			*dest = true
		case "false", "0", "no", "n", "off", "f":
			*dest = false
		default:
			return []error{echo.NewBindingError(name, values, "failed to bind field value to bool", nil)}
		}
		return nil
	}
}

func (p *ListEventsPayload) Validate() error {
	return validation.Struct(p)
}

// EffectiveLimit is the requested limit clamped to MaxListLimit.
func (p *ListEventsPayload) EffectiveLimit() int {
	return min(p.Limit, MaxListLimit)
}

// ListUpcomingPayload holds the query parameters of GET /events/upcoming.
type ListUpcomingPayload struct {
	Limit int `query:"limit" validate:"min=1"`
}

func (p *ListUpcomingPayload) Bind(c echo.Context) error {
	p.Limit = DefaultUpcomingLimit
	return echo.QueryParamsBinder(c).Int("limit", &p.Limit).BindError()
}

func (p *ListUpcomingPayload) Validate() error {
	return validation.Struct(p)
}

// EffectiveLimit is the requested limit clamped to MaxUpcomingLimit.
func (p *ListUpcomingPayload) EffectiveLimit() int {
	return min(p.Limit, MaxUpcomingLimit)
}

// EventIDPayload is the :id path parameter of the single-event routes.
type EventIDPayload struct {
	ID int64 `param:"id" validate:"gt=0"`
}

func (p *EventIDPayload) Bind(c echo.Context) error {
	return echo.PathParamsBinder(c).Int64("id", &p.ID).BindError()
}

func (p *EventIDPayload) Validate() error {
	return validation.Struct(p)
}

// ------------------------------------------------------------

// CleanCities trims every city name and drops the blank ones, keeping order.
// The result is never nil.
func CleanCities(cities []string) []string {
	out := make([]string, 0, len(cities))
	for _, city := range cities {
		if city = strings.TrimSpace(city); city != "" {
			out = append(out, city)
		}
	}
	return out
}

func jsonType(goType string) string {
	switch {
	case strings.Contains(goType, "[]"):
		return "array"
	case strings.Contains(goType, "bool"):
		return "boolean"
	case strings.Contains(goType, "string"):
		return "string"
	default:
		return goType
	}
}
