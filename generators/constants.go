package generators

// Particle masses in MeV/c².
const (
	MuonMass     = 105.6583755
	ElectronMass = 0.51099895
	ProtonMass   = 938.27208816
	NeutronMass  = 939.56542052
)

const (
	GeV = 1000.0 // MeV
)
