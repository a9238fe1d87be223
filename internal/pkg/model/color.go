package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// RGB is one color stop, 0-255 per channel. On the wire it is a bare
// 3-element int array.
type RGB [3]uint8

func (c RGB) R() uint8 { return c[0] }
func (c RGB) G() uint8 { return c[1] }
func (c RGB) B() uint8 { return c[2] }

// Hex renders the color the way bandwidth-efficient LED APIs expect it.
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c[0], c[1], c[2])
}

// Scale multiplies each channel by brightness, clamped to [0,1].
func (c RGB) Scale(brightness float64) RGB {
	b := math.Max(0, math.Min(1, brightness))
	return RGB{
		uint8(float64(c[0]) * b),
		uint8(float64(c[1]) * b),
		uint8(float64(c[2]) * b),
	}
}

func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c[0]), int(c[1]), int(c[2])})
}

func (c *RGB) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("color needs 3 channels, got %d", len(raw))
	}
	for i, ch := range raw {
		if ch < 0 || ch > 255 {
			return fmt.Errorf("channel %d out of range: %v", i, ch)
		}
		c[i] = uint8(ch)
	}
	return nil
}

// RGBFromAny coerces the loosely typed values arriving via update_viz
// ([]any of json numbers, or an already decoded RGB) into a color.
func RGBFromAny(v any) (RGB, bool) {
	switch val := v.(type) {
	case RGB:
		return val, true
	case [3]int:
		return RGB{uint8(val[0]), uint8(val[1]), uint8(val[2])}, true
	case []int:
		if len(val) != 3 {
			return RGB{}, false
		}
		return RGB{uint8(val[0]), uint8(val[1]), uint8(val[2])}, true
	case []float64:
		if len(val) != 3 {
			return RGB{}, false
		}
		return RGB{uint8(val[0]), uint8(val[1]), uint8(val[2])}, true
	case []any:
		if len(val) != 3 {
			return RGB{}, false
		}
		var c RGB
		for i, ch := range val {
			f, ok := ToFloat(ch)
			if !ok || f < 0 || f > 255 {
				return RGB{}, false
			}
			c[i] = uint8(f)
		}
		return c, true
	}
	return RGB{}, false
}

func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
