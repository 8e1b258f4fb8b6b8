// Neutron spectrum preview tool - interactive Sato–Niita lethargy plot with
// sliders for the four environment parameters.
//
// Usage: go run ./cmd/neutronpreview [-config run.yaml]
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/prospect/config"
	"github.com/pthm-cable/prospect/generators"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	plotWidth    = 600
	plotHeight   = 520
	plotX        = 60
	plotY        = 20
	panelWidth   = windowWidth - plotWidth - plotX - 40

	curvePoints = 400
)

// PreviewParams holds the slider state.
type PreviewParams struct {
	SolarModulation float32
	CutoffRigidity  float32
	Depth           float32 // g/cm²
	WaterContent    float32
	Robust          bool
}

func (p PreviewParams) satoNiita() generators.SatoNiita {
	return generators.SatoNiita{
		SolarModulation:  float64(p.SolarModulation),
		CutoffRigidity:   float64(p.CutoffRigidity),
		AtmosphericDepth: float64(p.Depth),
		WaterContent:     float64(p.WaterContent),
	}
}

func paramsFromConfig(cfg *config.Config) PreviewParams {
	depth := cfg.Neutron.Depth
	if cfg.Derived.DepthInKm {
		depth = generators.KmToDepth(depth)
	}
	return PreviewParams{
		SolarModulation: float32(cfg.Neutron.SolarModulation),
		CutoffRigidity:  float32(cfg.Neutron.CutoffRigidity),
		Depth:           float32(depth),
		WaterContent:    float32(cfg.Neutron.WaterContent),
		Robust:          cfg.Neutron.RobustEnvelope,
	}
}

// curve holds the sampled lethargy spectrum in log10 space.
type curve struct {
	logE, logL   []float64
	minL, maxL   float64
	peakE, peakL float64
	heuristic    float64
	robust       float64
}

func sampleCurve(p generators.SatoNiita, lo, hi float64) curve {
	c := curve{
		logE: make([]float64, 0, curvePoints),
		logL: make([]float64, 0, curvePoints),
		minL: math.Inf(1),
		maxL: math.Inf(-1),
	}
	a, b := math.Log10(lo), math.Log10(hi)
	for i := range curvePoints {
		x := a + (b-a)*float64(i)/float64(curvePoints-1)
		l := p.Lethargy(math.Pow(10, x))
		if !(l > 0) || math.IsInf(l, 0) {
			continue
		}
		y := math.Log10(l)
		c.logE = append(c.logE, x)
		c.logL = append(c.logL, y)
		c.minL = math.Min(c.minL, y)
		if y > c.maxL {
			c.maxL, c.peakE, c.peakL = y, x, y
		}
	}
	c.heuristic = generators.ScanMaximum(p, lo, hi)
	c.robust = generators.RobustMaximum(p, lo, hi)
	return c
}

func main() {
	configPath := flag.String("config", "", "Config YAML file for the initial values (empty = use defaults)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()
	lo, hi := cfg.Neutron.MinMeV, cfg.Neutron.MaxMeV
	defaults := paramsFromConfig(cfg)

	rl.InitWindow(windowWidth, windowHeight, "Neutron Spectrum Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaults
	spectrum := sampleCurve(params.satoNiita(), lo, hi)
	needsRegen := false

	for !rl.WindowShouldClose() {
		if needsRegen {
			spectrum = sampleCurve(params.satoNiita(), lo, hi)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		drawCurve(spectrum, lo, hi)

		statsY := int32(plotY + plotHeight + 40)
		rl.DrawText(fmt.Sprintf("Peak: E=%.3g MeV  E*phi=%.3g", math.Pow(10, spectrum.peakE), math.Pow(10, spectrum.peakL)), plotX, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Envelope: heuristic=%.4g  robust=%.4g", spectrum.heuristic, spectrum.robust), plotX, statsY+20, 16, rl.DarkGray)
		if spectrum.robust > 0 && spectrum.heuristic < spectrum.robust {
			rl.DrawText(fmt.Sprintf("Heuristic undercuts the flux by %.2f%%", 100*(1-spectrum.heuristic/spectrum.robust)), plotX, statsY+40, 16, rl.Maroon)
		}

		// Control panel
		panelX := float32(plotX + plotWidth + 30)
		panelY := float32(10)

		rl.DrawText("Sato-Niita Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, format string, value *float32, min, max float32) {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			next := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				*value, min, max,
			)
			rl.DrawText(fmt.Sprintf(format, *value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if next != *value {
				*value = next
				needsRegen = true
			}
			panelY += 35
		}

		slider("Solar modulation (MV)", "%.0f", &params.SolarModulation, generators.SolarModulationMin, generators.SolarModulationMax)
		slider("Cutoff rigidity (MV)", "%.0f", &params.CutoffRigidity, 0, 20000)
		slider("Atmospheric depth (g/cm2)", "%.0f", &params.Depth, 50, 1050)
		rl.DrawText(fmt.Sprintf("altitude %.2f km", generators.DepthToKm(float64(params.Depth))), int32(panelX), int32(panelY-12), 12, rl.LightGray)
		panelY += 5
		slider("Water content", "%.2f", &params.WaterContent, 0, 1)

		params.Robust = gui.CheckBox(rl.Rectangle{X: panelX, Y: panelY, Width: 20, Height: 20}, "Robust envelope", params.Robust)
		panelY += 35

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}
		panelY += 55

		// Output YAML
		block := neutronYAML(cfg.Neutron, params)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range strings.Split(strings.TrimRight(block, "\n"), "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(block)
		}

		rl.EndDrawing()
	}
}

// neutronYAML renders the neutron section with the slider values applied.
func neutronYAML(base config.NeutronConfig, p PreviewParams) string {
	base.SolarModulation = math.Round(float64(p.SolarModulation))
	base.CutoffRigidity = math.Round(float64(p.CutoffRigidity))
	base.Depth = math.Round(float64(p.Depth))
	base.DepthUnit = "g/cm2"
	base.WaterContent = math.Round(float64(p.WaterContent)*100) / 100
	base.RobustEnvelope = p.Robust

	data, err := yaml.Marshal(map[string]config.NeutronConfig{"neutron": base})
	if err != nil {
		return fmt.Sprintf("# %v", err)
	}
	return string(data)
}

// drawCurve plots log10(E*phi) against log10(E) with decade grid lines.
func drawCurve(c curve, lo, hi float64) {
	rl.DrawRectangleLines(plotX, plotY, plotWidth, plotHeight, rl.DarkGray)
	if len(c.logE) < 2 {
		rl.DrawText("no finite flux in range", plotX+20, plotY+20, 16, rl.Maroon)
		return
	}

	a, b := math.Log10(lo), math.Log10(hi)
	yLo, yHi := math.Floor(c.minL), math.Ceil(c.maxL)
	if yHi <= yLo {
		yHi = yLo + 1
	}
	toScreen := func(x, y float64) rl.Vector2 {
		return rl.Vector2{
			X: float32(plotX + (x-a)/(b-a)*plotWidth),
			Y: float32(plotY + plotHeight - (y-yLo)/(yHi-yLo)*plotHeight),
		}
	}

	for d := math.Ceil(a); d <= b; d++ {
		p := toScreen(d, yLo)
		rl.DrawLine(int32(p.X), plotY, int32(p.X), plotY+plotHeight, rl.LightGray)
		if int(d)%2 == 0 {
			rl.DrawText(fmt.Sprintf("1e%d", int(d)), int32(p.X)-12, plotY+plotHeight+6, 12, rl.Gray)
		}
	}
	for d := yLo; d <= yHi; d++ {
		p := toScreen(a, d)
		rl.DrawLine(plotX, int32(p.Y), plotX+plotWidth, int32(p.Y), rl.LightGray)
		rl.DrawText(fmt.Sprintf("1e%d", int(d)), 10, int32(p.Y)-6, 12, rl.Gray)
	}

	prev := toScreen(c.logE[0], c.logL[0])
	for i := 1; i < len(c.logE); i++ {
		next := toScreen(c.logE[i], c.logL[i])
		rl.DrawLineEx(prev, next, 2, rl.DarkBlue)
		prev = next
	}
	rl.DrawCircleV(toScreen(c.peakE, c.peakL), 4, rl.Maroon)
	rl.DrawText("E [MeV]", plotX+plotWidth-60, plotY+plotHeight+22, 14, rl.DarkGray)
	rl.DrawText("E*phi", plotX+6, plotY+6, 14, rl.DarkGray)
}
