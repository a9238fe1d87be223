package render

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/infraglow/glowctl/internal/pkg/model"
)

func TestProjectSpeed(t *testing.T) {
	tests := map[string]struct {
		t        float64
		min, max uint8
		want     uint8
	}{
		"floor":        {t: 0, min: 60, max: 240, want: 60},
		"ceiling":      {t: 1, min: 60, max: 240, want: 240},
		"midpoint":     {t: 0.5, min: 60, max: 240, want: 150},
		"clamped low":  {t: -1, min: 60, max: 240, want: 60},
		"clamped high": {t: 2, min: 60, max: 240, want: 240},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectSpeed(tt.t, tt.min, tt.max))
		})
	}
}

func TestProjectIntensity_SameLinearLaw(t *testing.T) {
	assert.Equal(t, uint8(80), ProjectIntensity(0, 80, 255))
	assert.Equal(t, uint8(255), ProjectIntensity(1, 80, 255))
}

func TestEffect_FullParameterSet(t *testing.T) {
	rec := model.Visualization{
		Renderer:     model.RendererEffect,
		ColorLow:     model.RGB{0, 255, 0},
		ColorHigh:    model.RGB{255, 0, 0},
		EffectID:     2,
		SpeedMin:     60,
		SpeedMax:     240,
		IntensityMin: 80,
		IntensityMax: 255,
		Mirror:       true,
	}
	st := Effect(rec, lo.ToPtr(100.0))
	assert.Equal(t, 2, st.EffectID)
	assert.Equal(t, uint8(240), st.Speed)
	assert.Equal(t, uint8(255), st.Intensity)
	assert.True(t, st.Mirror)
	assert.Equal(t, model.RGB{255, 0, 0}, st.Colors[0])
}

func TestEffectState_Changed(t *testing.T) {
	base := EffectState{
		EffectID:  2,
		Speed:     100,
		Intensity: 128,
		Colors:    [3]model.RGB{{10, 10, 10}, {20, 20, 20}, {30, 30, 30}},
	}

	tests := map[string]struct {
		prev *EffectState
		next EffectState
		want bool
	}{
		"no previous state always pushes": {
			prev: nil,
			next: base,
			want: true,
		},
		"identical state suppressed": {
			prev: &base,
			next: base,
			want: false,
		},
		"tiny speed wiggle suppressed": {
			prev: &base,
			next: func() EffectState { s := base; s.Speed = 102; return s }(),
			want: false,
		},
		"speed past threshold pushes": {
			prev: &base,
			next: func() EffectState { s := base; s.Speed = 103; return s }(),
			want: true,
		},
		"effect change always pushes": {
			prev: &base,
			next: func() EffectState { s := base; s.EffectID = 46; return s }(),
			want: true,
		},
		"tiny color wiggle suppressed": {
			prev: &base,
			next: func() EffectState { s := base; s.Colors[1][0] = 24; return s }(),
			want: false,
		},
		"color past threshold pushes": {
			prev: &base,
			next: func() EffectState { s := base; s.Colors[1][0] = 25; return s }(),
			want: true,
		},
		"mirror flip pushes": {
			prev: &base,
			next: func() EffectState { s := base; s.Mirror = true; return s }(),
			want: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.next.Changed(tt.prev))
		})
	}
}
