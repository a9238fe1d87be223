package render

import (
	"math"

	"github.com/infraglow/glowctl/internal/pkg/entities"
	"github.com/infraglow/glowctl/internal/pkg/model"
)

// DisplayState is the consumer-facing projection of one record against
// the live entity snapshot: everything a presentation layer or device
// sink needs for a tick, plain data in, plain data out.
type DisplayState struct {
	RecordID    string       `json:"record_id"`
	Title       string       `json:"title"`
	Renderer    string       `json:"renderer"`
	SegmentID   int          `json:"segment_id"`
	Raw         *float64     `json:"raw"`
	Percent     *float64     `json:"percent"`
	Stops       []ColorStop  `json:"stops"`
	Effect      *EffectState `json:"effect,omitempty"`
	AlertActive bool         `json:"alert_active"`
}

// Project derives the display state for one record from the snapshot.
func Project(v model.Visualization, snap *entities.Snapshot) DisplayState {
	raw := snap.Float(v.EntityID)
	pct := Normalize(raw, v.Floor, v.Ceiling)

	ds := DisplayState{
		RecordID:  v.ID,
		Title:     v.Title,
		Renderer:  v.Renderer.String(),
		SegmentID: v.SegmentID,
		Raw:       raw,
		Percent:   pct,
		Stops:     Tuples(v, pct),
	}

	if v.IsAlert() {
		ds.AlertActive = raw != nil && *raw > 0
		return ds
	}
	if v.Renderer == model.RendererEffect {
		st := Effect(v, pct)
		ds.Effect = &st
	}
	return ds
}

// AlertLevel returns the flash brightness in [0,1] for an active alert at
// the given wall-clock second count. Pulse never drops fully dark so the
// strip reads as "alerting", not "off".
func AlertLevel(style model.FlashStyle, speedHz, ts float64) float64 {
	if speedHz <= 0 {
		speedHz = model.DefaultFlashSpeed
	}
	switch style {
	case model.FlashStrobe:
		if math.Mod(ts*speedHz, 1.0) < 0.5 {
			return 1
		}
		return 0
	case model.FlashSolid:
		return 1
	default:
		phase := math.Sin(ts * speedHz * 2 * math.Pi)
		return 0.15 + 0.85*((phase+1)/2)
	}
}
