package generators

import (
	"errors"
	"fmt"
)

var (
	// ErrSamplingExhausted is returned when a rejection loop hits its
	// attempt cap without accepting a sample.
	ErrSamplingExhausted = errors.New("generators: sampling attempts exhausted")
	// ErrKinematicInfeasible marks a single non-physical kinematics solve.
	ErrKinematicInfeasible = errors.New("generators: kinematically infeasible")
	// ErrNoTarget is returned when a source has no usable target volume.
	ErrNoTarget = errors.New("generators: no target volume")
	// ErrBadSpectrumTable is returned for malformed tabulated spectra.
	ErrBadSpectrumTable = errors.New("generators: invalid spectrum table")
)

// SamplingError records which sampler gave up and why.
type SamplingError struct {
	Sampler  string
	Attempts int
	Last     error // last rejection reason, may be nil
	Err      error
}

func (e *SamplingError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("%s: %v after %d attempts (last: %v)", e.Sampler, e.Err, e.Attempts, e.Last)
	}
	return fmt.Sprintf("%s: %v after %d attempts", e.Sampler, e.Err, e.Attempts)
}

func (e *SamplingError) Unwrap() error {
	return e.Err
}

func exhausted(sampler string, attempts int, last error) error {
	return &SamplingError{
		Sampler:  sampler,
		Attempts: attempts,
		Last:     last,
		Err:      ErrSamplingExhausted,
	}
}
