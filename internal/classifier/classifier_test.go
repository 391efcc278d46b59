package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muliwe/go-triangle-classifier/internal/triangle"
)

func newClassifier(t *testing.T, cfg Config) *Classifier {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestClassifierDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Zero(t, cfg.Tolerance)
	assert.NoError(t, cfg.Validate())
}

func TestClassifierNew_RejectsTolerance(t *testing.T) {
	for _, tol := range []float64{-0.1, 0.5, 2} {
		_, err := New(Config{Tolerance: tol})
		assert.Error(t, err, "New(Tolerance=%v)", tol)
	}
}

func TestClassify_Kinds(t *testing.T) {
	c := newClassifier(t, DefaultConfig())

	tests := []struct {
		name   string
		sides  triangle.Sides
		want   string
		reason string
	}{
		{"equilateral", triangle.Sides{A: 2, B: 2, C: 2}, "equilateral", "all sides equal: 2"},
		{"isosceles", triangle.Sides{A: 3, B: 2, C: 2}, "isosceles", "two equal sides: 2 = 2"},
		{"isosceles long pair", triangle.Sides{A: 5, B: 2, C: 5}, "isosceles", "two equal sides: 5 = 5"},
		{"scalene", triangle.Sides{A: 3, B: 4, C: 5}, "scalene", "no equal sides: 3, 4, 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.sides)
			assert.True(t, result.Valid)
			assert.Equal(t, tt.want, result.Classification)
			assert.Equal(t, tt.reason, result.Reason)
			assert.Empty(t, result.Error)
			assert.Empty(t, result.ErrorKind)
			assert.NotEmpty(t, result.RequestID)
			assert.False(t, result.Timestamp.IsZero())
			assert.Equal(t, tt.sides, result.Sides)
		})
	}
}

func TestClassify_Rejections(t *testing.T) {
	c := newClassifier(t, DefaultConfig())

	tests := []struct {
		name      string
		sides     triangle.Sides
		errorKind string
		reason    string
	}{
		{"degenerate", triangle.Sides{A: 1, B: 2, C: 3}, ErrorKindInvalidTriangle, "degenerate: 1 + 2 equals 3"},
		{"too short", triangle.Sides{A: 1, B: 1, C: 3}, ErrorKindInvalidTriangle, "sum of the two shorter sides 1 + 1 does not exceed 3"},
		{"zero", triangle.Sides{}, ErrorKindInvalidTriangle, "side lengths must be positive, got 0"},
		{"negative", triangle.Sides{A: -1, B: 2, C: 2}, ErrorKindInvalidTriangle, "side lengths must be positive, got -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.sides)
			assert.False(t, result.Valid)
			assert.Empty(t, result.Classification)
			assert.Equal(t, tt.errorKind, result.ErrorKind)
			assert.Equal(t, tt.reason, result.Reason)
			assert.NotEmpty(t, result.Error)
			assert.Equal(t, triangle.Kind(0), result.Kind())
		})
	}
}

func TestClassify_Tolerance(t *testing.T) {
	sides := triangle.Sides{A: 1, B: 1.0000001, C: 1.5}

	exact := newClassifier(t, DefaultConfig()).Classify(sides)
	assert.Equal(t, "scalene", exact.Classification)

	loose := newClassifier(t, Config{Tolerance: 1e-6}).Classify(sides)
	assert.Equal(t, "isosceles", loose.Classification)
	assert.Equal(t, triangle.Isosceles, loose.Kind())

	chain := newClassifier(t, Config{Tolerance: 0.001}).Classify(triangle.Sides{A: 1, B: 1.0009, C: 1.0018})
	assert.Equal(t, "isosceles", chain.Classification)
	assert.Equal(t, "two equal sides: 1 = 1.0009", chain.Reason)

	// tolerance never relaxes validation
	degenerate := newClassifier(t, Config{Tolerance: 0.1}).Classify(triangle.Sides{A: 1, B: 2, C: 3})
	assert.Equal(t, ErrorKindInvalidTriangle, degenerate.ErrorKind)
}

func TestParseSides(t *testing.T) {
	s, err := ParseSides([]string{"3", " 4 ", "5.5"})
	require.NoError(t, err)
	assert.Equal(t, triangle.Sides{A: 3, B: 4, C: 5.5}, s)

	_, err = ParseSides([]string{"3", "4"})
	assert.ErrorIs(t, err, triangle.ErrInvalidInput)

	_, err = ParseSides([]string{"3", "four", "5"})
	assert.ErrorIs(t, err, triangle.ErrInvalidInput)

	_, err = ParseSides([]string{"1e400", "1", "1"})
	assert.ErrorIs(t, err, triangle.ErrInvalidInput)

	s, err = ParseSides([]string{"NaN", "1", "1"})
	require.NoError(t, err)
	result := newClassifier(t, DefaultConfig()).Classify(s)
	assert.Equal(t, ErrorKindInvalidInput, result.ErrorKind)
}

func TestErrorKind(t *testing.T) {
	assert.Empty(t, ErrorKind(nil))
	_, err := triangle.Classify(1, 2, 3)
	assert.Equal(t, ErrorKindInvalidTriangle, ErrorKind(err))
	_, err = ParseSides(nil)
	assert.Equal(t, ErrorKindInvalidInput, ErrorKind(err))
}
