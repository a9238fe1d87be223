package model

import (
	_ "embed"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// Defaults for fields no preset covers.
const (
	DefaultNumLEDs              = 30
	DefaultFlashSpeed           = 2.0
	DefaultIntensityMin         = 80
	DefaultIntensityMax         = 255
	DefaultUpdateInterval       = time.Second
	DefaultEffectUpdateInterval = 500 * time.Millisecond
)

var (
	DefaultColorLow   = RGB{0, 255, 0}
	DefaultColorHigh  = RGB{255, 0, 0}
	DefaultFlashColor = RGB{255, 0, 0}
)

// ModePreset holds per-mode defaults for records the backend provisioned
// without explicit values.
type ModePreset struct {
	Renderer RendererType `yaml:"renderer"`
	Floor    float64      `yaml:"floor"`
	Ceiling  float64      `yaml:"ceiling"`
	Unit     string       `yaml:"unit"`
	EffectID int          `yaml:"wled_fx"`
	SpeedMin int          `yaml:"speed_min"`
	SpeedMax int          `yaml:"speed_max"`
}

var presets = loadPresets()

func loadPresets() map[string]ModePreset {
	var doc struct {
		Modes map[string]ModePreset `yaml:"modes"`
	}
	if err := yaml.Unmarshal(presetsYAML, &doc); err != nil {
		// embedded file, broken only by a bad commit
		panic("model: invalid presets.yaml: " + err.Error())
	}
	return doc.Modes
}

// PresetFor returns the preset for mode, or a generic effect preset for
// modes this build does not know.
func PresetFor(mode string) ModePreset {
	if p, ok := presets[mode]; ok {
		return applyPresetFallbacks(p)
	}
	return applyPresetFallbacks(ModePreset{})
}

// Modes lists the known visualization modes.
func Modes() []string {
	out := make([]string, 0, len(presets))
	for m := range presets {
		out = append(out, m)
	}
	return out
}

func applyPresetFallbacks(p ModePreset) ModePreset {
	if p.Renderer == "" {
		p.Renderer = RendererEffect
	}
	if p.Ceiling == 0 && p.Floor == 0 {
		p.Ceiling = 100
	}
	if p.SpeedMin == 0 && p.SpeedMax == 0 {
		p.SpeedMin, p.SpeedMax = 60, 240
	}
	if p.EffectID == 0 && p.Renderer == RendererEffect {
		p.EffectID = 2 // Breathe
	}
	return p
}
