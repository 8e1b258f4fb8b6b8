package generators

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/prospect/geometry"
)

var up = r3.Vec{Y: 1}

// CosineSource places cosmic primaries on a hemisphere above a target
// volume so that, seen from the target, directions follow a cos²θ zenith
// law corrected for the orientation of the crossed surface.
type CosineSource struct {
	logger *slog.Logger
	store  *geometry.Store
	target *geometry.Volume

	radius     float64
	autoRadius bool

	// MaxAttempts caps the rejection loop of Generate.
	MaxAttempts int
}

// NewCosineSource aims the source at the named volume of store. An unknown
// name falls back to the world volume.
func NewCosineSource(store *geometry.Store, target string, logger *slog.Logger) *CosineSource {
	c := &CosineSource{
		logger:      loggerOrDefault(logger),
		store:       store,
		autoRadius:  true,
		MaxAttempts: DefaultMaxAttempts,
	}
	c.SetTarget(target)
	return c
}

// SetTarget re-aims the source. The automatic radius follows the new target.
func (c *CosineSource) SetTarget(name string) {
	v, ok := c.store.Lookup(name)
	if !ok {
		c.logger.Warn("cosine source target not found, using world volume",
			"target", name, "world", v.Name)
	}
	c.target = v
	if c.autoRadius {
		c.radius = c.RecommendedRadius()
	}
}

// Target returns the volume the source is aimed at.
func (c *CosineSource) Target() *geometry.Volume {
	return c.target
}

// RecommendedRadius is twice the half-extent diagonal of the target.
func (c *CosineSource) RecommendedRadius() float64 {
	if c.target == nil {
		return 0
	}
	return 2 * r3.Norm(c.target.Solid.HalfExtent())
}

// SetSourceRadius sets the hemisphere radius. A negative value restores the
// automatic radius; values below the recommended radius are accepted with a
// warning.
func (c *CosineSource) SetSourceRadius(r float64) {
	rec := c.RecommendedRadius()
	switch {
	case r < 0:
		c.autoRadius = true
		c.radius = rec
	case r < rec:
		c.logger.Warn("source radius below recommended value, results may be biased",
			"radius", r, "recommended", rec)
		c.autoRadius = false
		c.radius = r
	default:
		c.autoRadius = false
		c.radius = r
		c.logger.Info("cosine source radius set", "radius_mm", r)
	}
}

// SourceRadius returns the current hemisphere radius.
func (c *CosineSource) SourceRadius() float64 {
	return c.radius
}

// CosineAcceptance blends the flat-surface and vertical-surface cosine laws.
// normAng is the angle between the surface normal and up, nomAng the angle
// between the normal and the proposed direction.
func CosineAcceptance(normAng, nomAng float64) float64 {
	inv := math.Pi/2 - nomAng
	inv5 := math.Pow(inv, 5)
	cn := math.Cos(normAng)
	sn := math.Sin(normAng)
	cm := math.Cos(nomAng)
	return cn*cn*cm + sn*sn*cm*(2.00-math.Exp(0.04*inv5)-0.040*inv+0.043*inv5)
}

// ObservedDirection draws an upward direction with zenith density cos²θ.
// It also returns the acceptance deviate of the final zenith draw, which
// the caller reuses for the surface acceptance test.
func ObservedDirection(rng Uniform) (r3.Vec, float64) {
	var theta, u float64
	for {
		theta = math.Pi / 2 * rng.Float64()
		u = rng.Float64()
		ct := math.Cos(theta)
		if u <= ct*ct {
			break
		}
	}
	phi := 2 * math.Pi * rng.Float64()
	st := math.Sin(theta)
	// polar axis rotated from +z onto +y
	return r3.Vec{
		X: st * math.Cos(phi),
		Y: math.Cos(theta),
		Z: -st * math.Sin(phi),
	}, u
}

// surfacePoint draws a point on the target surface in the rotated frame.
// Faces pointing straight down are never crossed by downward-going tracks,
// so ok is false for them.
func (c *CosineSource) surfacePoint(rng Uniform) (pos, normal r3.Vec, ok bool) {
	p, n := c.target.Solid.SurfacePoint(rng)
	n = c.target.Rotate(n)
	if geometry.AngleBetween(n, up) == math.Pi {
		return r3.Vec{}, r3.Vec{}, false
	}
	return c.target.Rotate(p), n, true
}

// sourceHeight extends the line through x along p to the source sphere and
// returns the height of the crossing.
func (c *CosineSource) sourceHeight(x, p r3.Vec) float64 {
	rx := p.X / p.Y
	rz := p.Z / p.Y
	a := rx*rx + rz*rz + 1
	b := 2*x.X*rx + 2*x.Z*rz - 2*x.Y*(a-1)
	cc := x.X*x.X + x.Z*x.Z + x.Y*x.Y*(a-1) - x.Y*(b+2*x.Y*(a-1)) - c.radius*c.radius

	disc := b*b - 4*a*cc
	if disc < 0 {
		c.logger.Error("negative discriminant extending to source sphere, using sphere top",
			"position", x, "direction", p)
		return c.radius
	}
	return (-b + math.Sqrt(disc)) / (2 * a)
}

// Generate returns a world-frame start position on the source hemisphere and
// the inward (downward-going) unit direction.
func (c *CosineSource) Generate(rng Uniform) (r3.Vec, r3.Vec, error) {
	if c.target == nil {
		return r3.Vec{}, r3.Vec{}, ErrNoTarget
	}
	reposition := r3.Vec{Y: c.target.Bottom().Y}

	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		pos, normal, ok := c.surfacePoint(rng)
		if !ok {
			continue
		}
		dir, u := ObservedDirection(rng)

		nomAng := geometry.AngleBetween(normal, dir)
		normAng := geometry.AngleBetween(normal, up)
		if u > CosineAcceptance(normAng, nomAng) || nomAng > math.Pi/2 || dir.Y <= 0 {
			continue
		}

		w := r3.Sub(pos, reposition)
		y := c.sourceHeight(w, dir)
		if y > c.radius {
			continue
		}

		start := r3.Vec{
			X: w.X + (y-w.Y)*dir.X/dir.Y,
			Y: y,
			Z: w.Z + (y-w.Y)*dir.Z/dir.Y,
		}
		start = r3.Add(r3.Add(start, reposition), c.target.Translation)
		return start, r3.Scale(-1, dir), nil
	}
	return r3.Vec{}, r3.Vec{}, exhausted("cosine source", c.MaxAttempts, nil)
}
