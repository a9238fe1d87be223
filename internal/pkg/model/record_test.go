package model

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToVisualization_PresetDefaults(t *testing.T) {
	tests := map[string]struct {
		wire     WireVisualization
		expected Visualization
	}{
		"bare temperature record picks up the mode preset": {
			wire: WireVisualization{
				SubentryID: "viz_1",
				Title:      "CPU temp",
				Mode:       "temperature",
				EntityID:   "sensor.cpu_temp",
			},
			expected: Visualization{
				ID:             "viz_1",
				Title:          "CPU temp",
				Mode:           "temperature",
				Renderer:       RendererEffect,
				EntityID:       "sensor.cpu_temp",
				NumLEDs:        DefaultNumLEDs,
				Enabled:        true,
				Floor:          20,
				Ceiling:        90,
				ColorLow:       DefaultColorLow,
				ColorHigh:      DefaultColorHigh,
				FlashColor:     DefaultFlashColor,
				FlashSpeed:     DefaultFlashSpeed,
				FlashStyle:     FlashPulse,
				EffectID:       46,
				SpeedMin:       30,
				SpeedMax:       200,
				IntensityMin:   DefaultIntensityMin,
				IntensityMax:   DefaultIntensityMax,
				UpdateInterval: DefaultEffectUpdateInterval,
			},
		},
		"explicit fields win over the preset": {
			wire: WireVisualization{
				SubentryID:     "viz_2",
				Mode:           "system_load",
				RendererType:   "gauge",
				EntityID:       "sensor.load",
				NumLEDs:        lo.ToPtr(60),
				Enabled:        lo.ToPtr(false),
				Floor:          lo.ToPtr(1.0),
				Ceiling:        lo.ToPtr(8.0),
				ColorLow:       &RGB{0, 0, 255},
				ColorHigh:      &RGB{255, 255, 0},
				UpdateInterval: lo.ToPtr(2.5),
			},
			expected: Visualization{
				ID:             "viz_2",
				Mode:           "system_load",
				Renderer:       RendererGauge,
				EntityID:       "sensor.load",
				NumLEDs:        60,
				Enabled:        false,
				Floor:          1,
				Ceiling:        8,
				ColorLow:       RGB{0, 0, 255},
				ColorHigh:      RGB{255, 255, 0},
				FlashColor:     DefaultFlashColor,
				FlashSpeed:     DefaultFlashSpeed,
				FlashStyle:     FlashPulse,
				EffectID:       2,
				SpeedMin:       60,
				SpeedMax:       240,
				IntensityMin:   DefaultIntensityMin,
				IntensityMax:   DefaultIntensityMax,
				UpdateInterval: 2500 * time.Millisecond,
			},
		},
		"alert mode implies the alert renderer": {
			wire: WireVisualization{
				SubentryID: "viz_3",
				Mode:       "alert",
				EntityID:   "binary_sensor.smoke",
				FlashSpeed: lo.ToPtr(4.0),
				FlashStyle: "strobe",
			},
			expected: Visualization{
				ID:             "viz_3",
				Mode:           "alert",
				Renderer:       RendererAlert,
				EntityID:       "binary_sensor.smoke",
				NumLEDs:        DefaultNumLEDs,
				Enabled:        true,
				Ceiling:        1,
				ColorLow:       DefaultColorLow,
				ColorHigh:      DefaultColorHigh,
				FlashColor:     DefaultFlashColor,
				FlashSpeed:     4,
				FlashStyle:     FlashStrobe,
				SpeedMin:       60,
				SpeedMax:       240,
				IntensityMin:   DefaultIntensityMin,
				IntensityMax:   DefaultIntensityMax,
				UpdateInterval: DefaultUpdateInterval,
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.wire.ToVisualization())
		})
	}
}

func TestToVisualization_ClampsChannels(t *testing.T) {
	v := WireVisualization{
		SubentryID: "viz_1",
		Mode:       "system_load",
		SpeedMin:   lo.ToPtr(-10),
		SpeedMax:   lo.ToPtr(900),
	}.ToVisualization()

	assert.Equal(t, uint8(0), v.SpeedMin)
	assert.Equal(t, uint8(255), v.SpeedMax)
}

func TestToVisualization_EntityMapRoles(t *testing.T) {
	v := WireVisualization{
		SubentryID: "viz_1",
		Mode:       "system_load",
		EntityMap: map[string]string{
			string(RoleFloor):   "input_number.floor",
			string(RoleCeiling): "input_number.ceiling",
		},
	}.ToVisualization()

	ref, ok := v.Binding(RoleFloor)
	require.True(t, ok)
	assert.Equal(t, "input_number.floor", ref)

	_, ok = v.Binding(RoleEffect)
	assert.False(t, ok)
}

func TestApplyParam(t *testing.T) {
	tests := map[string]struct {
		param   string
		value   any
		wantErr bool
		check   func(t *testing.T, v Visualization)
	}{
		"name": {
			param: ParamName, value: "office shelf",
			check: func(t *testing.T, v Visualization) { assert.Equal(t, "office shelf", v.Title) },
		},
		"enabled": {
			param: ParamEnabled, value: false,
			check: func(t *testing.T, v Visualization) { assert.False(t, v.Enabled) },
		},
		"floor from json number": {
			// encoding/json hands numbers over as float64
			param: ParamFloor, value: float64(10),
			check: func(t *testing.T, v Visualization) { assert.Equal(t, 10.0, v.Floor) },
		},
		"flash speed": {
			param: ParamFlashSpeed, value: 5.0,
			check: func(t *testing.T, v Visualization) { assert.Equal(t, 5.0, v.FlashSpeed) },
		},
		"flash speed must be positive": {
			param: ParamFlashSpeed, value: 0.0, wantErr: true,
		},
		"color from decoded json array": {
			param: ParamColorHigh, value: []any{float64(12), float64(34), float64(56)},
			check: func(t *testing.T, v Visualization) { assert.Equal(t, RGB{12, 34, 56}, v.ColorHigh) },
		},
		"color channel out of range": {
			param: ParamColorHigh, value: []any{float64(300), float64(0), float64(0)}, wantErr: true,
		},
		"speed clamps to the channel range": {
			param: ParamSpeedMax, value: float64(400),
			check: func(t *testing.T, v Visualization) { assert.Equal(t, uint8(255), v.SpeedMax) },
		},
		"mirror wants a bool": {
			param: ParamMirror, value: "yes", wantErr: true,
		},
		"unknown parameter": {
			param: "brightness_boost", value: 7, wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v := Visualization{Enabled: true}
			err := v.ApplyParam(tc.param, tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, v)
		})
	}
}

func TestParamValue_RoundTripsApplyParam(t *testing.T) {
	v := Visualization{}
	require.NoError(t, v.ApplyParam(ParamColorLow, []any{float64(1), float64(2), float64(3)}))
	require.NoError(t, v.ApplyParam(ParamSpeedMin, float64(40)))

	got, ok := v.ParamValue(ParamColorLow)
	require.True(t, ok)
	assert.Equal(t, RGB{1, 2, 3}, got)

	got, ok = v.ParamValue(ParamSpeedMin)
	require.True(t, ok)
	assert.Equal(t, 40, got)

	_, ok = v.ParamValue("nope")
	assert.False(t, ok)
}

func TestPresetFor_UnknownModeFallsBack(t *testing.T) {
	p := PresetFor("made_up_mode")
	assert.Equal(t, RendererEffect, p.Renderer)
	assert.Equal(t, 100.0, p.Ceiling)
	assert.NotZero(t, p.EffectID)
}
