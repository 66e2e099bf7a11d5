package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SpecValue is either a string or a number.
type SpecValue struct {
	Text     string
	Number   float64
	IsNumber bool
}

func TextValue(text string) SpecValue     { return SpecValue{Text: text} }
func NumberValue(number float64) SpecValue { return SpecValue{Number: number, IsNumber: true} }

func (v SpecValue) String() string {
	if v.IsNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

func (v SpecValue) MarshalJSON() ([]byte, error) {
	if v.IsNumber {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts a string or a number. Booleans are kept as text;
// null, arrays and objects are rejected.
func (v *SpecValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch value := raw.(type) {
	case string:
		*v = TextValue(value)
	case json.Number:
		number, err := value.Float64()
		if err != nil {
			return err
		}
		*v = NumberValue(number)
	case bool:
		*v = TextValue(strconv.FormatBool(value))
	default:
		return errors.New("specification value must be a string or number")
	}
	return nil
}

// Specs is the free-form machine specification blob, kept in insertion order.
// The zero value is empty and ready to use.
type Specs struct {
	values *orderedmap.OrderedMap[string, SpecValue]
}

func (s *Specs) Set(key string, value SpecValue) {
	if s.values == nil {
		s.values = orderedmap.New[string, SpecValue]()
	}
	s.values.Set(key, value)
}

func (s Specs) Get(key string) (SpecValue, bool) {
	if s.values == nil {
		return SpecValue{}, false
	}
	return s.values.Get(key)
}

func (s Specs) Keys() []string {
	if s.values == nil {
		return nil
	}
	out := make([]string, 0, s.values.Len())
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func (s Specs) Len() int {
	if s.values == nil {
		return 0
	}
	return s.values.Len()
}

func (s Specs) MarshalJSON() ([]byte, error) {
	if s.values == nil {
		return []byte("{}"), nil
	}
	return s.values.MarshalJSON()
}

// UnmarshalJSON accepts a flat object whose values are strings or numbers.
func (s *Specs) UnmarshalJSON(data []byte) error {
	*s = Specs{}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("specifications must be a JSON object")
	}

	values := orderedmap.New[string, SpecValue]()
	if err := values.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("decode specifications: %w", err)
	}
	s.values = values
	return nil
}

// SpecsFromMap builds Specs from decoded values, sorted by key since map order
// is not stable. Used for TOML catalog files.
func SpecsFromMap(in map[string]any) (Specs, error) {
	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var specs Specs
	for _, key := range keys {
		switch value := in[key].(type) {
		case string:
			specs.Set(key, TextValue(value))
		case int64:
			specs.Set(key, NumberValue(float64(value)))
		case int:
			specs.Set(key, NumberValue(float64(value)))
		case float64:
			specs.Set(key, NumberValue(value))
		case bool:
			specs.Set(key, TextValue(strconv.FormatBool(value)))
		default:
			return Specs{}, fmt.Errorf("specification %q has unsupported type %T", key, value)
		}
	}
	return specs, nil
}
