package triangle

import "fmt"

// Kind is the classification of a valid triangle
type Kind int

// Kind values. The zero value is not a classification.
const (
	Equilateral Kind = iota + 1
	Isosceles
	Scalene
)

// Kinds lists every classification in declaration order
var Kinds = []Kind{Equilateral, Isosceles, Scalene}

func (k Kind) String() string {
	switch k {
	case Equilateral:
		return "equilateral"
	case Isosceles:
		return "isosceles"
	case Scalene:
		return "scalene"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds
func (k Kind) Valid() bool {
	return k >= Equilateral && k <= Scalene
}

// ParseKind parses a lower-case kind name
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown triangle kind %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// kindFor maps the number of distinct side lengths to a kind
func kindFor(distinct int) Kind {
	switch distinct {
	case 1:
		return Equilateral
	case 2:
		return Isosceles
	default:
		return Scalene
	}
}
