// Package triangle classifies triangles by their side lengths.
package triangle

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrInvalidTriangle is returned when the sides cannot form a triangle:
	// a non-positive side, or the two shorter sides not strictly exceeding the longest.
	ErrInvalidTriangle = errors.New("invalid triangle")

	// ErrInvalidInput is returned when a value is not usable as a length (NaN, ±Inf, unparsable).
	ErrInvalidInput = errors.New("invalid input")
)

// Sides holds the three side lengths of a candidate triangle
type Sides struct {
	A, B, C float64
}

// Sorted returns the sides in ascending order
func (s Sides) Sorted() [3]float64 {
	v := [3]float64{s.A, s.B, s.C}
	sort.Float64s(v[:])
	return v
}

// Classify returns the kind of triangle s forms, comparing sides exactly
func (s Sides) Classify() (Kind, error) {
	return ClassifyWithin(s, 0)
}

// Validate reports whether the sides form a non-degenerate triangle
func (s Sides) Validate() error {
	for _, v := range [3]float64{s.A, s.B, s.C} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("side %v is not a finite number: %w", v, ErrInvalidInput)
		}
	}
	for _, v := range [3]float64{s.A, s.B, s.C} {
		if v <= 0 {
			return fmt.Errorf("side %v is not positive: %w", v, ErrInvalidTriangle)
		}
	}

	// After sorting only the longest side can violate the inequality.
	v := s.Sorted()
	if v[0]+v[1] <= v[2] {
		return fmt.Errorf("%v + %v does not exceed %v: %w", v[0], v[1], v[2], ErrInvalidTriangle)
	}
	return nil
}

// Classify returns the kind of triangle formed by sides a, b and c.
// The result does not depend on argument order.
func Classify(a, b, c float64) (Kind, error) {
	return Sides{A: a, B: b, C: c}.Classify()
}

// ClassifyWithin is Classify with sides compared for equality within the
// relative tolerance tol. Validation is always exact.
func ClassifyWithin(s Sides, tol float64) (Kind, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return kindFor(DistinctSides(s.Sorted(), tol)), nil
}

// DistinctSides counts distinct values in an ascending triple. Two values
// whose difference is within tol of the larger one count as equal. Closeness
// is not transitive, so the triple is one value only when its extremes match.
func DistinctSides(v [3]float64, tol float64) int {
	switch {
	case ApproxEqual(v[0], v[2], tol):
		return 1
	case ApproxEqual(v[0], v[1], tol) || ApproxEqual(v[1], v[2], tol):
		return 2
	default:
		return 3
	}
}

// ApproxEqual reports whether x and y differ by at most tol relative to the larger.
func ApproxEqual(x, y, tol float64) bool {
	if x == y {
		return true
	}
	return tol > 0 && math.Abs(y-x) <= tol*math.Max(math.Abs(x), math.Abs(y))
}
