package scoring

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/spatial/r3"
)

// StepRecord is one row of a step-hit CSV file, as produced by an external
// transport code.
type StepRecord struct {
	Event     int     `csv:"event"`
	Volume    int     `csv:"volume"`
	Particle  string  `csv:"particle"`
	Charge    float64 `csv:"charge"`
	PreTime   float64 `csv:"pre_t_ns"`
	DeltaTime float64 `csv:"dt_ns"`
	PreX      float64 `csv:"pre_x_mm"`
	PreY      float64 `csv:"pre_y_mm"`
	PreZ      float64 `csv:"pre_z_mm"`
	PostX     float64 `csv:"post_x_mm"`
	PostY     float64 `csv:"post_y_mm"`
	PostZ     float64 `csv:"post_z_mm"`
	Edep      float64 `csv:"edep_mev"`
}

// Step converts the row.
func (r StepRecord) Step() Step {
	return Step{
		Volume:    r.Volume,
		Particle:  r.Particle,
		Charge:    r.Charge,
		PreTime:   r.PreTime,
		DeltaTime: r.DeltaTime,
		Pre:       r3.Vec{X: r.PreX, Y: r.PreY, Z: r.PreZ},
		Post:      r3.Vec{X: r.PostX, Y: r.PostY, Z: r.PostZ},
		Edep:      r.Edep,
	}
}

// EventSteps is the run of consecutive rows sharing one event number.
type EventSteps struct {
	Event int
	Steps []Step
}

// ReadSteps reads a step-hit CSV and splits it into events. Rows of one
// event must be contiguous; an event number that reappears later starts a
// new event.
func ReadSteps(r io.Reader) ([]EventSteps, error) {
	var rows []StepRecord
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading step hits: %w", err)
	}

	var events []EventSteps
	for i, row := range rows {
		if i == 0 || row.Event != rows[i-1].Event {
			events = append(events, EventSteps{Event: row.Event})
		}
		cur := &events[len(events)-1]
		cur.Steps = append(cur.Steps, row.Step())
	}
	return events, nil
}
