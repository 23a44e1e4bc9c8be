// Package model holds what the event and rating models share:
// decoding stored rows into response shapes.
package model

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Fields is anything a response shape can be decoded from: a database
// row, or a plain map keyed by public or storage names.
type Fields interface {
	Map() map[string]any
}

// Map adapts a plain map to Fields.
type Map map[string]any

func (m Map) Map() map[string]any { return m }

// Schema describes how the keys of a row map onto a shape.
type Schema struct {
	// Aliases maps an alternative key (usually the public JSON name) to
	// the storage column it stands for. The column wins when both are set.
	Aliases map[string]string

	// Required columns must be present and non-null.
	Required []string
}

// Decode fills out, a pointer to a struct with mapstructure tags, from
// fields. Integers of any width are widened, numeric text is parsed, text
// timestamps are read as RFC 3339 and a time.Time decoded into a string
// becomes a YYYY-MM-DD date.
func (s Schema) Decode(fields Fields, out any) error {
	values := s.normalize(fields.Map())

	for _, name := range s.Required {
		v, ok := values[name]
		switch {
		case !ok:
			return fmt.Errorf("field %s: missing", name)
		case v == nil:
			return fmt.Errorf("field %s: unexpected null", name)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timeToDateHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(values)
}

func (s Schema) normalize(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		column, aliased := s.Aliases[k]
		if !aliased {
			out[k] = v
			continue
		}
		if _, stored := in[column]; !stored {
			out[column] = v
		}
	}
	return out
}

var timeType = reflect.TypeOf(time.Time{})

func timeToDateHook(from, to reflect.Type, data any) (any, error) {
	if from != timeType || to.Kind() != reflect.String {
		return data, nil
	}
	return data.(time.Time).Format(DateLayout), nil
}

// Require lists the mapstructure keys of shape, a struct value, except
// the optional ones.
func Require(shape any, optional ...string) []string {
	t := reflect.TypeOf(shape)
	required := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" || slices.Contains(optional, name) {
			continue
		}
		required = append(required, name)
	}
	return required
}
