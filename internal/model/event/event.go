// Package event defines the event (excursion) model: the response shape
// and the create, update and query payloads.
package event

import (
	"time"

	"github.com/deppfellow/turismo-api/internal/model"
)

// DefaultButtonText is the call-to-action label used when none is given.
const DefaultButtonText = "Reservar Vaga"

// Event is one bookable excursion as returned to clients.
type Event struct {
	ID            int64      `json:"id" mapstructure:"id"`
	Image         string     `json:"image" mapstructure:"image"`
	Alt           string     `json:"alt" mapstructure:"alt"`
	Title         string     `json:"title" mapstructure:"title"`
	Date          string     `json:"date" mapstructure:"date"`
	DateEvent     string     `json:"date_event" mapstructure:"date_event"`
	Year          string     `json:"year" mapstructure:"year"`
	Description   string     `json:"description" mapstructure:"description"`
	ButtonText    string     `json:"buttonText" mapstructure:"button_text"`
	EventName     string     `json:"eventName" mapstructure:"event_name"`
	Cities        []string   `json:"cities" mapstructure:"cities"`
	ActiveEvent   bool       `json:"active_event" mapstructure:"active_event"`
	EcommerceLink *string    `json:"ecommerce_link" mapstructure:"ecommerce_link"`
	CreatedAt     *time.Time `json:"created_at" mapstructure:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at" mapstructure:"updated_at"`
}

var schema = model.Schema{
	Aliases: map[string]string{
		"buttonText": "button_text",
		"eventName":  "event_name",
	},
	Required: model.Require(Event{}, "cities", "ecommerce_link", "created_at", "updated_at"),
}

// FromFields builds an Event from a stored row. buttonText and eventName
// are accepted under their public name or their column name
// (button_text, event_name). A NULL cities array reads as an empty list.
func FromFields(fields model.Fields) (Event, error) {
	var e Event
	if err := schema.Decode(fields, &e); err != nil {
		return Event{}, err
	}
	if e.Cities == nil {
		e.Cities = []string{}
	}
	return e, nil
}
