package generators

// Info describes a generator for CLI listings and run manifests.
type Info struct {
	ID          string // value of the -generator flag
	Name        string // display name
	Description string
	Category    string // "cosmic" or "reactor"
	Particles   []Particle
}

// Registry holds metadata about all generators.
type Registry struct {
	infos []Info
	byID  map[string]Info
}

// NewRegistry creates a registry with all built-in generators.
func NewRegistry() *Registry {
	r := &Registry{
		byID: make(map[string]Info),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.Register(Info{ID: "muon", Name: "Cosmic Muon", Description: "Lipari or BESS sea-level muons on a cos² hemisphere", Category: "cosmic",
		Particles: []Particle{MuonPlus, MuonMinus}})
	r.Register(Info{ID: "neutron", Name: "Cosmic Neutron", Description: "Sato–Niita atmospheric neutrons on a cos² hemisphere", Category: "cosmic",
		Particles: []Particle{Neutron}})

	r.Register(Info{ID: "fission", Name: "Fission Antineutrino", Description: "Reactor antineutrino spectrum from fuel composition", Category: "reactor",
		Particles: []Particle{AntiNuE}})
	r.Register(Info{ID: "ibd", Name: "Inverse Beta Decay", Description: "Positron and neutron pairs from reactor antineutrinos", Category: "reactor",
		Particles: []Particle{Positron, Neutron}})
}

// Register adds a generator, replacing any previous entry with the same ID.
func (r *Registry) Register(info Info) {
	if _, ok := r.byID[info.ID]; ok {
		for i := range r.infos {
			if r.infos[i].ID == info.ID {
				r.infos[i] = info
			}
		}
	} else {
		r.infos = append(r.infos, info)
	}
	r.byID[info.ID] = info
}

// Get returns generator info by ID.
func (r *Registry) Get(id string) (Info, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for an ID, or the ID itself.
func (r *Registry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all generators in registration order.
func (r *Registry) All() []Info {
	return r.infos
}

// ByCategory returns generators filtered by category.
func (r *Registry) ByCategory(category string) []Info {
	var result []Info
	for _, info := range r.infos {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// IDs returns all generator IDs in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.infos))
	for i, info := range r.infos {
		ids[i] = info.ID
	}
	return ids
}
