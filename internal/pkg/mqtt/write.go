package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/samber/lo"

	"github.com/infraglow/glowctl/internal/pkg/publisher"
	"github.com/infraglow/glowctl/internal/pkg/render"
)

var configuredSegments = make(map[string]struct{})

// segmentPayload is what the animation engine consumes: effect id, speed,
// intensity and the generated color stops as hex strings. Hex keeps the
// frames small on constrained devices.
type segmentPayload struct {
	Renderer  string   `json:"renderer"`
	Percent   *float64 `json:"percent"`
	EffectID  *int     `json:"fx,omitempty"`
	Speed     *int     `json:"sx,omitempty"`
	Intensity *int     `json:"ix,omitempty"`
	Mirror    bool     `json:"mirror,omitempty"`
	Colors    []string `json:"colors"`
	Alert     bool     `json:"alert,omitempty"`
}

type discoveryMessage struct {
	Name       string `json:"name"`
	ID         string `json:"id"`
	SegmentID  int    `json:"segment_id"`
	NumLEDs    int    `json:"num_leds"`
	StateTopic string `json:"state_topic"`
}

func (s *service) Write(ctx context.Context, updates []publisher.SegmentUpdate) error {
	for _, update := range updates {
		if err := s.publishSegment(update); err != nil {
			return err
		}
	}
	return nil
}

// RegisterSegment publishes a retained discovery message so consumers
// joining late still learn the segment layout.
func (s *service) RegisterSegment(update publisher.SegmentUpdate) error {
	if _, exists := configuredSegments[update.RecordID]; exists {
		return nil
	}

	topic := fmt.Sprintf("glowctl/%s/segment/%d/config", entrySlug(update.EntryID), update.SegmentID)
	payload, err := json.Marshal(discoveryMessage{
		Name:       update.Title,
		ID:         update.RecordID,
		SegmentID:  update.SegmentID,
		NumLEDs:    update.NumLEDs,
		StateTopic: stateTopic(update),
	})
	if err != nil {
		return err
	}
	token := s.client.Publish(topic, 1, true, payload)
	if err := token.Error(); err != nil {
		return err
	}
	if res := token.WaitTimeout(s.timeout); res {
		configuredSegments[update.RecordID] = struct{}{}
	}
	return nil
}

func (s *service) publishSegment(update publisher.SegmentUpdate) error {
	display := update.Display
	payload := segmentPayload{
		Renderer: display.Renderer,
		Percent:  display.Percent,
		Alert:    display.AlertActive,
		Colors: lo.Map(display.Stops, func(stop render.ColorStop, _ int) string {
			return stop.Color.Hex()
		}),
	}
	if display.Effect != nil {
		payload.EffectID = lo.ToPtr(display.Effect.EffectID)
		payload.Speed = lo.ToPtr(int(display.Effect.Speed))
		payload.Intensity = lo.ToPtr(int(display.Effect.Intensity))
		payload.Mirror = display.Effect.Mirror
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := s.client.Publish(stateTopic(update), 0, false, data)
	res := token.WaitTimeout(s.timeout)
	if res {
		return nil
	}
	if err := token.Error(); err != nil {
		return err
	}
	return nil
}

func stateTopic(update publisher.SegmentUpdate) string {
	return fmt.Sprintf("glowctl/%s/segment/%d/state", entrySlug(update.EntryID), update.SegmentID)
}

func entrySlug(entryID string) string {
	return strings.Replace(slug.Make(entryID), "-", "_", -1)
}
