// Package vmath provides the small set of 2D vector helpers the solver
// needs on top of gonum's r2 package.
package vmath

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Dot returns the scalar product a·b.
func Dot(a, b r2.Vec) float64 {
	return r2.Dot(a, b)
}

// Magnitude returns the Euclidean length of v.
func Magnitude(v r2.Vec) float64 {
	return r2.Norm(v)
}

// Perp returns v rotated by +90 degrees.
func Perp(v r2.Vec) r2.Vec {
	return r2.Vec{X: -v.Y, Y: v.X}
}

// Reflect mirrors v about the line through the origin along the unit axis:
// v - 2(v·axis)axis.
func Reflect(v, axis r2.Vec) r2.Vec {
	return r2.Sub(v, r2.Scale(2*Dot(v, axis), axis))
}

// Normalize returns v/|v|, or fallback when v has zero length.
func Normalize(v, fallback r2.Vec) (r2.Vec, bool) {
	mag := Magnitude(v)
	if mag == 0 {
		return fallback, false
	}
	return r2.Scale(1/mag, v), true
}

// Finite reports whether both components are neither NaN nor Inf.
func Finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
