// Package geometry provides the target solids and placements sampled by the
// cosmic source generators.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Uniform is a stream of uniform deviates in [0, 1).
type Uniform interface {
	Float64() float64
}

// Solid is a closed shape centred on its local origin.
type Solid interface {
	// SurfacePoint samples a point uniformly on the surface and returns it
	// together with the outward unit normal at that point.
	SurfacePoint(rng Uniform) (pos, normal r3.Vec)
	// HalfExtent returns the half-lengths used for source sizing.
	HalfExtent() r3.Vec
	// Contains reports whether p lies inside or on the solid.
	Contains(p r3.Vec) bool
	// Kind names the solid type ("box", "tubs").
	Kind() string
}

// Box is an axis-aligned box given by its half-lengths.
type Box struct {
	HalfX, HalfY, HalfZ float64
}

// NewBox returns a box with the given half-lengths.
func NewBox(hx, hy, hz float64) *Box {
	return &Box{HalfX: hx, HalfY: hy, HalfZ: hz}
}

func (b *Box) Kind() string { return "box" }

func (b *Box) HalfExtent() r3.Vec {
	return r3.Vec{X: b.HalfX, Y: b.HalfY, Z: b.HalfZ}
}

func (b *Box) Contains(p r3.Vec) bool {
	return math.Abs(p.X) <= b.HalfX && math.Abs(p.Y) <= b.HalfY && math.Abs(p.Z) <= b.HalfZ
}

// SurfacePoint picks a face with probability proportional to its area.
func (b *Box) SurfacePoint(rng Uniform) (r3.Vec, r3.Vec) {
	axy := b.HalfX * b.HalfY
	axz := b.HalfX * b.HalfZ
	ayz := b.HalfY * b.HalfZ
	total := axy + axz + ayz

	u := rng.Float64()*2 - 1
	v := rng.Float64()*2 - 1
	sign := 1.0
	if rng.Float64() < 0.5 {
		sign = -1
	}

	pick := rng.Float64() * total
	switch {
	case pick < axy:
		return r3.Vec{X: u * b.HalfX, Y: v * b.HalfY, Z: sign * b.HalfZ}, r3.Vec{Z: sign}
	case pick < axy+axz:
		return r3.Vec{X: u * b.HalfX, Y: sign * b.HalfY, Z: v * b.HalfZ}, r3.Vec{Y: sign}
	default:
		return r3.Vec{X: sign * b.HalfX, Y: u * b.HalfY, Z: v * b.HalfZ}, r3.Vec{X: sign}
	}
}

// Tubs is a cylindrical shell along local z. InnerR may be zero.
type Tubs struct {
	InnerR, OuterR float64
	HalfZ          float64
}

// NewTubs returns a cylinder (InnerR = 0) or cylindrical shell.
func NewTubs(innerR, outerR, halfZ float64) *Tubs {
	return &Tubs{InnerR: innerR, OuterR: outerR, HalfZ: halfZ}
}

func (t *Tubs) Kind() string { return "tubs" }

// HalfExtent returns (OuterR, OuterR, HalfZ).
func (t *Tubs) HalfExtent() r3.Vec {
	return r3.Vec{X: t.OuterR, Y: t.OuterR, Z: t.HalfZ}
}

func (t *Tubs) Contains(p r3.Vec) bool {
	rho := math.Hypot(p.X, p.Y)
	return rho <= t.OuterR && rho >= t.InnerR && math.Abs(p.Z) <= t.HalfZ
}

func (t *Tubs) SurfacePoint(rng Uniform) (r3.Vec, r3.Vec) {
	outer := 2 * math.Pi * t.OuterR * 2 * t.HalfZ
	inner := 2 * math.Pi * t.InnerR * 2 * t.HalfZ
	caps := 2 * math.Pi * (t.OuterR*t.OuterR - t.InnerR*t.InnerR)

	phi := 2 * math.Pi * rng.Float64()
	cphi, sphi := math.Cos(phi), math.Sin(phi)
	pick := rng.Float64() * (outer + inner + caps)

	switch {
	case pick < outer:
		z := (rng.Float64()*2 - 1) * t.HalfZ
		return r3.Vec{X: t.OuterR * cphi, Y: t.OuterR * sphi, Z: z}, r3.Vec{X: cphi, Y: sphi}
	case pick < outer+inner:
		z := (rng.Float64()*2 - 1) * t.HalfZ
		return r3.Vec{X: t.InnerR * cphi, Y: t.InnerR * sphi, Z: z}, r3.Vec{X: -cphi, Y: -sphi}
	default:
		// uniform in area between the two radii
		r2 := t.InnerR*t.InnerR + rng.Float64()*(t.OuterR*t.OuterR-t.InnerR*t.InnerR)
		rho := math.Sqrt(r2)
		z := t.HalfZ
		if rng.Float64() < 0.5 {
			z = -z
		}
		return r3.Vec{X: rho * cphi, Y: rho * sphi, Z: z}, r3.Vec{Z: math.Copysign(1, z)}
	}
}
