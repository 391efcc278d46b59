package classifier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muliwe/go-triangle-classifier/internal/triangle"
)

// Error kinds reported in results
const (
	ErrorKindInvalidTriangle = "invalid_triangle"
	ErrorKindInvalidInput    = "invalid_input"
)

// Result contains the outcome of one classification
type Result struct {
	RequestID      string         `json:"request_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Sides          triangle.Sides `json:"sides"`
	Valid          bool           `json:"valid"`
	Classification string         `json:"classification,omitempty"` // "equilateral", "isosceles" or "scalene"
	ErrorKind      string         `json:"error_kind,omitempty"`
	Error          string         `json:"error,omitempty"`
	Reason         string         `json:"reason"`
}

// Kind returns the classification as a triangle.Kind, zero when invalid
func (r Result) Kind() triangle.Kind {
	k, err := triangle.ParseKind(r.Classification)
	if err != nil {
		return 0
	}
	return k
}

// Classifier classifies side triples into results
type Classifier struct {
	tolerance float64 // Relative tolerance when comparing sides for equality
}

// Config holds classifier configuration
type Config struct {
	// Tolerance is the relative difference under which two sides count as
	// equal when choosing the kind. Validation is always exact.
	Tolerance float64 `yaml:"tolerance" env:"CLASSIFIER_TOLERANCE"`
}

// DefaultConfig returns default classifier configuration
func DefaultConfig() Config {
	return Config{
		Tolerance: 0, // exact comparison
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Tolerance < 0 || c.Tolerance >= 0.5 {
		return fmt.Errorf("classifier tolerance %v out of range [0, 0.5)", c.Tolerance)
	}
	return nil
}

// New creates a new classifier
func New(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{
		tolerance: cfg.Tolerance,
	}, nil
}

// Classify validates and classifies the sides, never panicking on bad input
func (c *Classifier) Classify(s triangle.Sides) Result {
	result := Result{
		RequestID: uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Sides:     s,
	}

	kind, err := triangle.ClassifyWithin(s, c.tolerance)
	if err != nil {
		result.ErrorKind = ErrorKind(err)
		result.Error = err.Error()
		result.Reason = c.invalidReason(s, err)
		return result
	}

	result.Valid = true
	result.Classification = kind.String()
	result.Reason = c.validReason(s, kind)
	return result
}

// ErrorKind maps a classification error to its reported kind
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, triangle.ErrInvalidInput):
		return ErrorKindInvalidInput
	default:
		return ErrorKindInvalidTriangle
	}
}

// validReason explains a successful classification
func (c *Classifier) validReason(s triangle.Sides, k triangle.Kind) string {
	v := s.Sorted()
	switch k {
	case triangle.Equilateral:
		return fmt.Sprintf("all sides equal: %s", formatSide(v[0]))
	case triangle.Isosceles:
		if triangle.ApproxEqual(v[0], v[1], c.tolerance) {
			return fmt.Sprintf("two equal sides: %s = %s", formatSide(v[0]), formatSide(v[1]))
		}
		return fmt.Sprintf("two equal sides: %s = %s", formatSide(v[1]), formatSide(v[2]))
	default:
		return fmt.Sprintf("no equal sides: %s, %s, %s", formatSide(v[0]), formatSide(v[1]), formatSide(v[2]))
	}
}

// invalidReason explains why the sides were rejected
func (c *Classifier) invalidReason(s triangle.Sides, err error) string {
	if errors.Is(err, triangle.ErrInvalidInput) {
		return "side lengths must be finite numbers"
	}

	v := s.Sorted()
	if v[0] <= 0 {
		return fmt.Sprintf("side lengths must be positive, got %s", formatSide(v[0]))
	}
	if v[0]+v[1] == v[2] {
		return fmt.Sprintf("degenerate: %s + %s equals %s", formatSide(v[0]), formatSide(v[1]), formatSide(v[2]))
	}
	return fmt.Sprintf("sum of the two shorter sides %s + %s does not exceed %s",
		formatSide(v[0]), formatSide(v[1]), formatSide(v[2]))
}

func formatSide(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseSides parses three raw side lengths
func ParseSides(raw []string) (triangle.Sides, error) {
	if len(raw) != 3 {
		return triangle.Sides{}, fmt.Errorf("expected 3 side lengths, got %d: %w", len(raw), triangle.ErrInvalidInput)
	}

	var v [3]float64
	for i, r := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return triangle.Sides{}, fmt.Errorf("side %d %q is not a number: %w", i+1, r, triangle.ErrInvalidInput)
		}
		v[i] = f
	}
	return triangle.Sides{A: v[0], B: v[1], C: v[2]}, nil
}
