package render

import (
	"math"

	"github.com/infraglow/glowctl/internal/pkg/model"
)

// spread is the fraction of the gradient domain the secondary and
// tertiary stops sit away from the primary. Near the domain edges the
// clamp compresses the spread asymmetrically instead of wrapping.
const spread = 0.30

// StopLabel names a generated color stop for the downstream effect engine.
type StopLabel string

const (
	StopFlash     StopLabel = "Flash"
	StopColor     StopLabel = "Color"
	StopPrimary   StopLabel = "Primary"
	StopSecondary StopLabel = "Secondary"
	StopTertiary  StopLabel = "Tertiary"
)

type ColorStop struct {
	Label StopLabel `json:"label"`
	Color model.RGB `json:"color"`
}

// Lerp interpolates per channel between low and high. t is clamped to
// [0,1] here so callers never pre-clamp; endpoints are exact.
func Lerp(low, high model.RGB, t float64) model.RGB {
	t = math.Max(0, math.Min(1, t))
	var out model.RGB
	for c := range 3 {
		out[c] = uint8(math.Round(float64(low[c]) + (float64(high[c])-float64(low[c]))*t))
	}
	return out
}

// Tuples generates the color stops handed to the animation engine:
// one stop for alert and plain gauge records, three for effect records.
// Generating visibly distinct stops from one scalar reading is what makes
// the consuming effect produce perceptible motion.
func Tuples(v model.Visualization, pct *float64) []ColorStop {
	if v.IsAlert() {
		return []ColorStop{{Label: StopFlash, Color: v.FlashColor}}
	}

	t := 0.0
	if pct != nil {
		t = *pct / 100
	}
	primary := Lerp(v.ColorLow, v.ColorHigh, t)

	if v.Renderer != model.RendererEffect {
		return []ColorStop{{Label: StopColor, Color: primary}}
	}

	if v.IncludeBlack {
		// Black stays in the middle to maximize perceived contrast
		// between the two generated hues.
		secondary := Lerp(v.ColorLow, v.ColorHigh, math.Min(1, t+spread))
		return []ColorStop{
			{Label: StopPrimary, Color: primary},
			{Label: StopSecondary, Color: model.RGB{}},
			{Label: StopTertiary, Color: secondary},
		}
	}

	tLow := math.Max(0, t-spread)
	tHigh := math.Min(1, t+spread)
	return []ColorStop{
		{Label: StopPrimary, Color: primary},
		{Label: StopSecondary, Color: Lerp(v.ColorLow, v.ColorHigh, tLow)},
		{Label: StopTertiary, Color: Lerp(v.ColorLow, v.ColorHigh, tHigh)},
	}
}
