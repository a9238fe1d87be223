package model

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Visualization is one configured binding between a source entity and an
// animated LED segment. The backend owns the record; we hold a read-mostly
// copy keyed by the backend-assigned id.
type Visualization struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Mode     string       `json:"mode"`
	Renderer RendererType `json:"renderer_type"`

	EntityID  string `json:"entity_id"`
	SegmentID int    `json:"segment_id"`
	NumLEDs   int    `json:"num_leds"`
	Enabled   bool   `json:"enabled"`

	Floor   float64 `json:"floor"`
	Ceiling float64 `json:"ceiling"`

	ColorLow  RGB `json:"color_low"`
	ColorHigh RGB `json:"color_high"`

	// alert only
	FlashColor RGB        `json:"flash_color"`
	FlashSpeed float64    `json:"flash_speed"` // Hz
	FlashStyle FlashStyle `json:"flash_style"`

	// effect only
	EffectID     int   `json:"wled_fx"`
	SpeedMin     uint8 `json:"speed_min"`
	SpeedMax     uint8 `json:"speed_max"`
	IntensityMin uint8 `json:"intensity_min"`
	IntensityMax uint8 `json:"intensity_max"`
	Mirror       bool  `json:"mirror"`
	IncludeBlack bool  `json:"include_black"`

	UpdateInterval time.Duration         `json:"update_interval"`
	EntityMap      map[EntityRole]string `json:"entity_map,omitempty"`
}

// IsAlert reports whether the record overrides the strip instead of
// following the gradient.
func (v Visualization) IsAlert() bool {
	return v.Renderer == RendererAlert
}

// Binding returns the auxiliary entity bound to role, if any.
func (v Visualization) Binding(role EntityRole) (string, bool) {
	ref, ok := v.EntityMap[role]
	return ref, ok
}

// WireVisualization mirrors the backend record shape. Optional fields are
// pointers so defaulting only kicks in when the backend omitted them.
type WireVisualization struct {
	SubentryID     string            `json:"subentry_id"`
	Title          string            `json:"title"`
	Mode           string            `json:"mode"`
	RendererType   string            `json:"renderer_type"`
	EntityID       string            `json:"entity_id"`
	SegmentID      int               `json:"segment_id"`
	NumLEDs        *int              `json:"num_leds,omitempty"`
	Enabled        *bool             `json:"enabled,omitempty"`
	Floor          *float64          `json:"floor,omitempty"`
	Ceiling        *float64          `json:"ceiling,omitempty"`
	ColorLow       *RGB              `json:"color_low,omitempty"`
	ColorHigh      *RGB              `json:"color_high,omitempty"`
	FlashColor     *RGB              `json:"flash_color,omitempty"`
	FlashSpeed     *float64          `json:"flash_speed,omitempty"`
	FlashStyle     string            `json:"flash_style,omitempty"`
	EffectID       *int              `json:"wled_fx,omitempty"`
	SpeedMin       *int              `json:"speed_min,omitempty"`
	SpeedMax       *int              `json:"speed_max,omitempty"`
	IntensityMin   *int              `json:"intensity_min,omitempty"`
	IntensityMax   *int              `json:"intensity_max,omitempty"`
	Mirror         bool              `json:"mirror,omitempty"`
	IncludeBlack   bool              `json:"include_black,omitempty"`
	UpdateInterval *float64          `json:"update_interval,omitempty"` // seconds
	EntityMap      map[string]string `json:"entity_map,omitempty"`
}

// ToVisualization maps a wire record into the internal shape, filling
// omitted fields from the mode preset.
func (w WireVisualization) ToVisualization() Visualization {
	preset := PresetFor(w.Mode)

	renderer := RendererType(w.RendererType)
	if renderer == "" {
		renderer = preset.Renderer
	}

	v := Visualization{
		ID:           w.SubentryID,
		Title:        w.Title,
		Mode:         w.Mode,
		Renderer:     renderer,
		EntityID:     w.EntityID,
		SegmentID:    w.SegmentID,
		NumLEDs:      lo.FromPtrOr(w.NumLEDs, DefaultNumLEDs),
		Enabled:      lo.FromPtrOr(w.Enabled, true),
		Floor:        lo.FromPtrOr(w.Floor, preset.Floor),
		Ceiling:      lo.FromPtrOr(w.Ceiling, preset.Ceiling),
		ColorLow:     lo.FromPtrOr(w.ColorLow, DefaultColorLow),
		ColorHigh:    lo.FromPtrOr(w.ColorHigh, DefaultColorHigh),
		FlashColor:   lo.FromPtrOr(w.FlashColor, DefaultFlashColor),
		FlashSpeed:   lo.FromPtrOr(w.FlashSpeed, DefaultFlashSpeed),
		FlashStyle:   FlashStyle(w.FlashStyle),
		EffectID:     lo.FromPtrOr(w.EffectID, preset.EffectID),
		SpeedMin:     clampChannel(lo.FromPtrOr(w.SpeedMin, preset.SpeedMin)),
		SpeedMax:     clampChannel(lo.FromPtrOr(w.SpeedMax, preset.SpeedMax)),
		IntensityMin: clampChannel(lo.FromPtrOr(w.IntensityMin, DefaultIntensityMin)),
		IntensityMax: clampChannel(lo.FromPtrOr(w.IntensityMax, DefaultIntensityMax)),
		Mirror:       w.Mirror,
		IncludeBlack: w.IncludeBlack,
		EntityMap: lo.MapEntries(w.EntityMap, func(k, ref string) (EntityRole, string) {
			return EntityRole(k), ref
		}),
	}
	if v.FlashStyle == "" {
		v.FlashStyle = FlashPulse
	}

	interval := DefaultUpdateInterval
	if v.Renderer == RendererEffect {
		interval = DefaultEffectUpdateInterval
	}
	if w.UpdateInterval != nil && *w.UpdateInterval > 0 {
		interval = time.Duration(*w.UpdateInterval * float64(time.Second))
	}
	v.UpdateInterval = interval
	return v
}

func clampChannel(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// ApplyParam writes one wire-named parameter into the record, coercing the
// loosely typed value. Unknown params are an error so callers can log them
// instead of silently dropping operator input.
func (v *Visualization) ApplyParam(param string, value any) error {
	switch param {
	case ParamName:
		s, ok := value.(string)
		if !ok {
			return badParam(param, value)
		}
		v.Title = s
	case ParamEnabled:
		b, ok := value.(bool)
		if !ok {
			return badParam(param, value)
		}
		v.Enabled = b
	case ParamFloor:
		f, ok := ToFloat(value)
		if !ok {
			return badParam(param, value)
		}
		v.Floor = f
	case ParamCeiling:
		f, ok := ToFloat(value)
		if !ok {
			return badParam(param, value)
		}
		v.Ceiling = f
	case ParamColorLow:
		c, ok := RGBFromAny(value)
		if !ok {
			return badParam(param, value)
		}
		v.ColorLow = c
	case ParamColorHigh:
		c, ok := RGBFromAny(value)
		if !ok {
			return badParam(param, value)
		}
		v.ColorHigh = c
	case ParamFlashColor:
		c, ok := RGBFromAny(value)
		if !ok {
			return badParam(param, value)
		}
		v.FlashColor = c
	case ParamFlashSpeed:
		f, ok := ToFloat(value)
		if !ok || f <= 0 {
			return badParam(param, value)
		}
		v.FlashSpeed = f
	case ParamFlashStyle:
		s, ok := value.(string)
		if !ok {
			return badParam(param, value)
		}
		v.FlashStyle = FlashStyle(s)
	case ParamEffectID:
		f, ok := ToFloat(value)
		if !ok {
			return badParam(param, value)
		}
		v.EffectID = int(f)
	case ParamSpeedMin:
		f, ok := ToFloat(value)
		if !ok {
			return badParam(param, value)
		}
		v.SpeedMin = clampChannel(int(f))
	case ParamSpeedMax:
		f, ok := ToFloat(value)
		if !ok {
			return badParam(param, value)
		}
		v.SpeedMax = clampChannel(int(f))
	case ParamMirror:
		b, ok := value.(bool)
		if !ok {
			return badParam(param, value)
		}
		v.Mirror = b
	case ParamIncludeBlack:
		b, ok := value.(bool)
		if !ok {
			return badParam(param, value)
		}
		v.IncludeBlack = b
	default:
		return fmt.Errorf("unknown parameter %q", param)
	}
	return nil
}

// ParamValue reads the current value of a wire-named parameter, in the
// same representation ApplyParam stores. Used to decide whether a backend
// snapshot confirms or conflicts with a pending overlay write.
func (v Visualization) ParamValue(param string) (any, bool) {
	switch param {
	case ParamName:
		return v.Title, true
	case ParamEnabled:
		return v.Enabled, true
	case ParamFloor:
		return v.Floor, true
	case ParamCeiling:
		return v.Ceiling, true
	case ParamColorLow:
		return v.ColorLow, true
	case ParamColorHigh:
		return v.ColorHigh, true
	case ParamFlashColor:
		return v.FlashColor, true
	case ParamFlashSpeed:
		return v.FlashSpeed, true
	case ParamFlashStyle:
		return string(v.FlashStyle), true
	case ParamEffectID:
		return v.EffectID, true
	case ParamSpeedMin:
		return int(v.SpeedMin), true
	case ParamSpeedMax:
		return int(v.SpeedMax), true
	case ParamMirror:
		return v.Mirror, true
	case ParamIncludeBlack:
		return v.IncludeBlack, true
	}
	return nil, false
}

func badParam(param string, value any) error {
	return fmt.Errorf("invalid value for %q: %v (%T)", param, value, value)
}
