// Package main scans the Sato–Niita environment parameters and compares the
// early-stopping envelope scan against the full robust search, then hunts
// for the worst case with CMA-ES.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/prospect/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func writeRows(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&rows, f)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	steps := flag.Int("steps", 5, "Grid points per parameter (<2 = config value only)")
	maxEvals := flag.Int("max-evals", 200, "Maximum CMA-ES evaluations (0 = skip the search)")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()
	lo, hi := baseCfg.Neutron.MinMeV, baseCfg.Neutron.MaxMeV

	params := NewParamVector(baseCfg)
	evaluator := NewEvaluator(params, lo, hi)

	// Grid scan
	grid := params.Grid(*steps)
	fmt.Printf("Scanning %d parameter points over [%g, %g] MeV\n", len(grid), lo, hi)

	rows := make([]Row, 0, len(grid))
	worst := Row{Ratio: 2}
	startTime := time.Now()
	for i, point := range grid {
		row := evaluator.Evaluate(point)
		rows = append(rows, row)
		if row.Ratio < worst.Ratio {
			worst = row
		}
		if (i+1)%100 == 0 || i+1 == len(grid) {
			elapsed := time.Since(startTime)
			remaining := time.Duration(len(grid)-i-1) * (elapsed / time.Duration(i+1))
			fmt.Printf("Point %d/%d: worst ratio=%.4f | elapsed: %s, ETA: %s\n",
				i+1, len(grid), worst.Ratio, formatDuration(elapsed), formatDuration(remaining))
		}
	}

	gridPath := filepath.Join(*outputDir, "envelope.csv")
	if err := writeRows(gridPath, rows); err != nil {
		log.Fatalf("failed to write %s: %v", gridPath, err)
	}
	fmt.Printf("Grid results saved to: %s\n", gridPath)

	if *maxEvals > 0 {
		if found, ok := search(params, evaluator, *maxEvals, *population, *outputDir); ok && found.Ratio < worst.Ratio {
			worst = found
		}
	}

	fmt.Printf("\nEvaluated %d parameter points in %s\n", evaluator.Evals(), formatDuration(time.Since(startTime)))
	fmt.Printf("Worst heuristic/robust ratio: %.6f\n", worst.Ratio)
	fmt.Printf("  solar_modulation: %.1f\n", worst.SolarModulation)
	fmt.Printf("  cutoff_rigidity: %.1f\n", worst.CutoffRigidity)
	fmt.Printf("  depth: %.1f\n", worst.Depth)
	fmt.Printf("  water_content: %.3f\n", worst.WaterContent)

	// Save the worst environment with the robust envelope switched on
	worstCfg, _ := config.Load(*configPath)
	params.ApplyToConfig(worstCfg, []float64{worst.SolarModulation, worst.CutoffRigidity, worst.Depth, worst.WaterContent})
	worstCfg.Neutron.RobustEnvelope = worst.Ratio < 1
	configOutPath := filepath.Join(*outputDir, "worst_config.yaml")
	if err := worstCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write worst config: %v", err)
	} else {
		fmt.Printf("Worst config saved to: %s\n", configOutPath)
	}
}

// search minimizes the heuristic/robust ratio with CMA-ES in normalized
// parameter space and logs every evaluation to search.csv.
func search(params *ParamVector, evaluator *Evaluator, maxEvals, population int, outputDir string) (Row, bool) {
	dim := params.Dim()
	popSize := population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	var rows []Row
	best := Row{Ratio: 2}
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			row := evaluator.Evaluate(params.Denormalize(x))
			rows = append(rows, row)
			if row.Ratio < best.Ratio {
				best = row
			}

			n := len(rows)
			if n%20 == 0 || n == maxEvals {
				elapsed := time.Since(startTime)
				remaining := time.Duration(maxEvals-n) * (elapsed / time.Duration(n))
				fmt.Printf("Eval %d/%d: ratio=%.4f (best=%.4f) | elapsed: %s, ETA: %s\n",
					n, maxEvals, row.Ratio, best.Ratio, formatDuration(elapsed), formatDuration(remaining))
			}
			return row.Ratio
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("\nStarting CMA-ES search with %d parameters, population=%d, max_evals=%d\n", dim, popSize, maxEvals)
	if _, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method); err != nil {
		log.Printf("search ended: %v", err)
	}

	searchPath := filepath.Join(outputDir, "search.csv")
	if err := writeRows(searchPath, rows); err != nil {
		log.Printf("failed to write %s: %v", searchPath, err)
	} else {
		fmt.Printf("Search log saved to: %s\n", searchPath)
	}
	return best, len(rows) > 0
}
