package fuzzy

import (
	"fmt"
	"math"
)

// Shape names a membership function family.
type Shape string

const (
	ShapeTriangular  Shape = "triangular"
	ShapeTrapezoidal Shape = "trapezoidal"
)

// MembershipFunction is a piecewise-linear unimodal shape over the reals.
// The zero value is not usable; build one with Triangular or Trapezoidal.
type MembershipFunction struct {
	shape      Shape
	a, b, c, d float64
}

// Triangular returns a shape rising from a to the apex b and falling to c.
func Triangular(a, b, c float64) (MembershipFunction, error) {
	if err := checkBreakpoints(ShapeTriangular, a, b, c); err != nil {
		return MembershipFunction{}, err
	}
	return MembershipFunction{shape: ShapeTriangular, a: a, b: b, c: b, d: c}, nil
}

// Trapezoidal returns a shape rising on [a,b], flat on [b,c] and falling on [c,d].
func Trapezoidal(a, b, c, d float64) (MembershipFunction, error) {
	if err := checkBreakpoints(ShapeTrapezoidal, a, b, c, d); err != nil {
		return MembershipFunction{}, err
	}
	return MembershipFunction{shape: ShapeTrapezoidal, a: a, b: b, c: c, d: d}, nil
}

// NewMembershipFunction builds a shape from its name and breakpoints.
func NewMembershipFunction(shape Shape, points []float64) (MembershipFunction, error) {
	switch shape {
	case ShapeTriangular:
		if len(points) != 3 {
			return MembershipFunction{}, configErrorf(string(shape), "expected 3 breakpoints, got %d", len(points))
		}
		return Triangular(points[0], points[1], points[2])
	case ShapeTrapezoidal:
		if len(points) != 4 {
			return MembershipFunction{}, configErrorf(string(shape), "expected 4 breakpoints, got %d", len(points))
		}
		return Trapezoidal(points[0], points[1], points[2], points[3])
	default:
		return MembershipFunction{}, configErrorf(string(shape), "unknown membership shape")
	}
}

func checkBreakpoints(shape Shape, points ...float64) error {
	for i, p := range points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return configErrorf(string(shape), "breakpoint %d is not finite", i)
		}
		if i > 0 && p < points[i-1] {
			return configErrorf(string(shape), "breakpoints must be non-decreasing, got %v", points)
		}
	}
	return nil
}

// Evaluate returns the membership degree of x.
func (m MembershipFunction) Evaluate(x float64) float64 {
	switch {
	case math.IsNaN(x), x < m.a, x > m.d:
		return 0
	case x >= m.b && x <= m.c:
		return 1
	case x < m.b:
		return clamp01((x - m.a) / (m.b - m.a))
	default:
		return clamp01((m.d - x) / (m.d - m.c))
	}
}

// Shape reports the family the function was built from.
func (m MembershipFunction) Shape() Shape { return m.shape }

// Breakpoints returns the points the function was built from.
func (m MembershipFunction) Breakpoints() []float64 {
	if m.shape == ShapeTriangular {
		return []float64{m.a, m.b, m.d}
	}
	return []float64{m.a, m.b, m.c, m.d}
}

func (m MembershipFunction) String() string {
	return fmt.Sprintf("%s%v", m.shape, m.Breakpoints())
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
