package generators

import (
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/pthm-cable/prospect/geometry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 13))
}

// slabStore holds a 2 m × 1 mm × 2 m horizontal slab named "slab" inside a
// large world box.
func slabStore() *geometry.Store {
	world := &geometry.Volume{Name: "world", Solid: geometry.NewBox(1e5, 1e5, 1e5)}
	store := geometry.NewStore(world)
	store.Add(&geometry.Volume{Name: "slab", Solid: geometry.NewBox(1000, 0.5, 1000)})
	return store
}

func slabSource() *CosineSource {
	return NewCosineSource(slabStore(), "slab", quietLogger())
}
