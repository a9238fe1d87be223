package render

import (
	"math"

	"github.com/infraglow/glowctl/internal/pkg/model"
)

// EffectState is the per-segment parameter set pushed to the device sink
// for effect-driven records.
type EffectState struct {
	EffectID  int          `json:"fx"`
	Speed     uint8        `json:"sx"`
	Intensity uint8        `json:"ix"`
	Colors    [3]model.RGB `json:"colors"`
	Mirror    bool         `json:"mirror"`
}

// Push hysteresis: parameter deltas below these do not justify another
// frame on the wire.
const (
	speedDelta   = 3
	channelDelta = 5
)

// Changed reports whether the state differs enough from prev to push.
func (s EffectState) Changed(prev *EffectState) bool {
	if prev == nil {
		return true
	}
	if s.EffectID != prev.EffectID || s.Mirror != prev.Mirror {
		return true
	}
	if absDiff(s.Speed, prev.Speed) >= speedDelta || absDiff(s.Intensity, prev.Intensity) >= speedDelta {
		return true
	}
	for i := range s.Colors {
		for c := range 3 {
			if absDiff(s.Colors[i][c], prev.Colors[i][c]) >= channelDelta {
				return true
			}
		}
	}
	return false
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

// ProjectSpeed linearly maps t in [0,1] into the record's speed range.
func ProjectSpeed(t float64, speedMin, speedMax uint8) uint8 {
	return projectChannel(t, speedMin, speedMax)
}

// ProjectIntensity follows the same linear law over the intensity range.
func ProjectIntensity(t float64, intensityMin, intensityMax uint8) uint8 {
	return projectChannel(t, intensityMin, intensityMax)
}

func projectChannel(t float64, min, max uint8) uint8 {
	t = math.Max(0, math.Min(1, t))
	v := float64(min) + t*(float64(max)-float64(min))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Effect assembles the full parameter set for an effect record at the
// given percentage.
func Effect(v model.Visualization, pct *float64) EffectState {
	t := 0.0
	if pct != nil {
		t = *pct / 100
	}
	stops := Tuples(v, pct)
	var colors [3]model.RGB
	for i := range colors {
		if i < len(stops) {
			colors[i] = stops[i].Color
		}
	}
	return EffectState{
		EffectID:  v.EffectID,
		Speed:     ProjectSpeed(t, v.SpeedMin, v.SpeedMax),
		Intensity: ProjectIntensity(t, v.IntensityMin, v.IntensityMax),
		Colors:    colors,
		Mirror:    v.Mirror,
	}
}
