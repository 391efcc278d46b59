package triangle

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// side encodes finite values as JSON numbers and NaN/±Inf as strings,
// which encoding/json cannot represent otherwise.
type side float64

func (s side) MarshalJSON() ([]byte, error) {
	v := float64(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return json.Marshal(v)
}

func (s *side) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*s = side(f)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("side must be a number: %w", ErrInvalidInput)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("side %q is not a number: %w", raw, ErrInvalidInput)
	}
	*s = side(f)
	return nil
}

type sidesJSON struct {
	A side `json:"a"`
	B side `json:"b"`
	C side `json:"c"`
}

// MarshalJSON implements json.Marshaler
func (s Sides) MarshalJSON() ([]byte, error) {
	return json.Marshal(sidesJSON{A: side(s.A), B: side(s.B), C: side(s.C)})
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Sides) UnmarshalJSON(data []byte) error {
	var v sidesJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Sides{A: float64(v.A), B: float64(v.B), C: float64(v.C)}
	return nil
}
