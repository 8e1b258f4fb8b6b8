package geometry

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Volume places a solid in the world frame: rotation about Axis by Angle
// (radians) followed by Translation.
type Volume struct {
	Name        string
	Solid       Solid
	Axis        r3.Vec
	Angle       float64
	Translation r3.Vec
}

// Rotate applies the volume rotation to a local vector.
func (v *Volume) Rotate(p r3.Vec) r3.Vec {
	if v.Angle == 0 || r3.Norm(v.Axis) == 0 {
		return p
	}
	return r3.Rotate(p, v.Angle, r3.Unit(v.Axis))
}

// InverseRotate undoes Rotate.
func (v *Volume) InverseRotate(p r3.Vec) r3.Vec {
	if v.Angle == 0 || r3.Norm(v.Axis) == 0 {
		return p
	}
	return r3.Rotate(p, -v.Angle, r3.Unit(v.Axis))
}

// ToWorld maps a local point to the world frame.
func (v *Volume) ToWorld(p r3.Vec) r3.Vec {
	return r3.Add(v.Rotate(p), v.Translation)
}

// Corners returns the eight extent permutations rotated into the world
// orientation (not translated).
func (v *Volume) Corners() [8]r3.Vec {
	e := v.Solid.HalfExtent()
	corners := [8]r3.Vec{
		{X: e.X, Y: e.Y, Z: e.Z},
		{X: -e.X, Y: -e.Y, Z: -e.Z},
		{X: -e.X, Y: e.Y, Z: e.Z},
		{X: e.X, Y: -e.Y, Z: e.Z},
		{X: e.X, Y: e.Y, Z: -e.Z},
		{X: -e.X, Y: -e.Y, Z: e.Z},
		{X: e.X, Y: -e.Y, Z: -e.Z},
		{X: -e.X, Y: e.Y, Z: -e.Z},
	}
	for i := range corners {
		corners[i] = v.Rotate(corners[i])
	}
	return corners
}

// Bottom returns the lowest rotated corner along +y, relative to the volume
// centre. A degenerate (flat) extent yields zero.
func (v *Volume) Bottom() r3.Vec {
	var bottom r3.Vec
	for _, c := range v.Corners() {
		if c.Y < bottom.Y {
			bottom = c
		}
	}
	return bottom
}

// Top returns the highest rotated corner along +y.
func (v *Volume) Top() r3.Vec {
	var top r3.Vec
	for _, c := range v.Corners() {
		if c.Y > top.Y {
			top = c
		}
	}
	return top
}

// InteriorPoint samples a uniform point inside the solid, in the world frame.
func (v *Volume) InteriorPoint(rng Uniform, maxAttempts int) (r3.Vec, error) {
	e := v.Solid.HalfExtent()
	for i := 0; i < maxAttempts; i++ {
		p := r3.Vec{
			X: (rng.Float64()*2 - 1) * e.X,
			Y: (rng.Float64()*2 - 1) * e.Y,
			Z: (rng.Float64()*2 - 1) * e.Z,
		}
		if v.Solid.Contains(p) {
			return v.ToWorld(p), nil
		}
	}
	return r3.Vec{}, fmt.Errorf("geometry: no interior point in %q after %d attempts", v.Name, maxAttempts)
}

// Store indexes the volumes of a setup by name.
type Store struct {
	world   *Volume
	volumes map[string]*Volume
}

// NewStore creates a store rooted at the given world volume.
func NewStore(world *Volume) *Store {
	s := &Store{
		world:   world,
		volumes: make(map[string]*Volume),
	}
	s.volumes[world.Name] = world
	return s
}

// Add registers a volume, replacing any previous one with the same name.
func (s *Store) Add(v *Volume) {
	s.volumes[v.Name] = v
}

// World returns the world volume.
func (s *Store) World() *Volume {
	return s.world
}

// Lookup returns the named volume. Unknown names resolve to the world
// volume with ok == false.
func (s *Store) Lookup(name string) (*Volume, bool) {
	if v, ok := s.volumes[name]; ok {
		return v, true
	}
	return s.world, false
}

// Names returns all registered volume names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.volumes))
	for n := range s.volumes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AngleBetween returns the angle in [0, π] between two vectors.
func AngleBetween(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	c := r3.Dot(a, b) / (na * nb)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}
