package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/infraglow/glowctl/internal/pkg/render"
)

var errAlreadyRegistered = errors.New("publisher already registered")

var (
	registeredPublishers = make(map[string]publisher)
	lastPushed           sync.Map
)

// SegmentUpdate is one computed parameter set for one device sub-region.
type SegmentUpdate struct {
	EntryID   string              `json:"entry_id"`
	RecordID  string              `json:"record_id"`
	Title     string              `json:"title"`
	SegmentID int                 `json:"segment_id"`
	NumLEDs   int                 `json:"num_leds"`
	Display   render.DisplayState `json:"display"`
}

type publisher interface {
	// Write pushes the computed segment updates to the sink.
	Write(ctx context.Context, updates []SegmentUpdate) error
	RegisterSegment(update SegmentUpdate) error
}

func Register(name string, p publisher) error {
	if _, ok := registeredPublishers[name]; ok {
		return errAlreadyRegistered
	}
	registeredPublishers[name] = p
	return nil
}

// Publish fans the updates out to every registered sink, suppressing
// segments whose parameters have not changed since the last push.
func Publish(ctx context.Context, updates []SegmentUpdate) error {
	dirty := make([]SegmentUpdate, 0, len(updates))
	for _, update := range updates {
		if !shouldUpdate(update) {
			continue
		}
		dirty = append(dirty, update)
	}
	if len(dirty) == 0 {
		return nil
	}

	for name, p := range registeredPublishers {
		if err := p.Write(ctx, dirty); err != nil {
			zap.L().Error("failed to publish segment updates", zap.Error(err), zap.String("publisher", name))
			continue
		}
		zap.L().Debug("pushed segments", zap.Int("count", len(dirty)), zap.String("publisher", name))
	}
	return nil
}

// RegisterSegment announces a newly seen record to every sink so they can
// set up whatever per-segment plumbing they need (discovery topics etc).
func RegisterSegment(update SegmentUpdate) error {
	for name, p := range registeredPublishers {
		if err := p.RegisterSegment(update); err != nil {
			zap.L().Error("failed to register segment", zap.Error(err), zap.String("publisher", name))
			continue
		}
		zap.L().Debug("registered segment",
			zap.String("record_id", update.RecordID),
			zap.String("publisher", name))
	}
	return nil
}

func shouldUpdate(update SegmentUpdate) bool {
	key := fmt.Sprintf("%s_%s_%d", update.EntryID, update.RecordID, update.SegmentID)
	payload, err := json.Marshal(update.Display)
	if err != nil {
		return false
	}
	newValue := string(payload)
	oldValue, exists := lastPushed.Load(key)
	if exists && oldValue.(string) == newValue {
		return false
	}
	lastPushed.Store(key, newValue)
	return true
}
