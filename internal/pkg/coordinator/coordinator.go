package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/infraglow/glowctl/internal/pkg/entities"
	"github.com/infraglow/glowctl/internal/pkg/model"
	"github.com/infraglow/glowctl/internal/pkg/publisher"
	"github.com/infraglow/glowctl/internal/pkg/render"
	"github.com/infraglow/glowctl/internal/pkg/vizsync"
)

const frameRate = 15

// Coordinator polls the entity snapshot on a fixed tick, derives display
// parameters for every record and hands the dirty ones to the sinks.
// Active alert records take the strip over: while any alert fires, the
// non-alert segments are not pushed at all.
type Coordinator struct {
	entryID  string
	store    *vizsync.Store
	snapshot *entities.Snapshot
	logger   *zap.Logger

	lastPush    map[string]time.Time
	lastEffect  map[string]*render.EffectState
	registered  map[string]struct{}
	alertActive bool
}

func New(entryID string, store *vizsync.Store, snapshot *entities.Snapshot) *Coordinator {
	return &Coordinator{
		entryID:    entryID,
		store:      store,
		snapshot:   snapshot,
		logger:     zap.L(),
		lastPush:   make(map[string]time.Time),
		lastEffect: make(map[string]*render.EffectState),
		registered: make(map[string]struct{}),
	}
}

// Run drives the tick loop until the context ends.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Debug("render loop started")
	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("render loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			c.Tick(ctx, now)
		}
	}
}

// Tick computes and publishes one frame worth of segment updates.
func (c *Coordinator) Tick(ctx context.Context, now time.Time) {
	records := c.store.List()
	ts := float64(now.UnixMilli()) / 1000

	if updates := c.alertUpdates(records, ts); len(updates) > 0 {
		if !c.alertActive {
			c.logger.Info("alert active, overriding visualizations")
			c.alertActive = true
		}
		c.push(ctx, updates)
		return
	}

	if c.alertActive {
		c.logger.Info("alert cleared, resuming normal visualizations")
		c.alertActive = false
		// Force the next effect frame out even if parameters barely moved.
		clear(c.lastEffect)
	}

	updates := make([]publisher.SegmentUpdate, 0, len(records))
	for _, rec := range records {
		if rec.IsAlert() || !rec.Enabled {
			continue
		}
		if last, ok := c.lastPush[rec.ID]; ok && now.Sub(last) < rec.UpdateInterval {
			continue
		}

		display := render.Project(rec, c.snapshot)
		if rec.Renderer == model.RendererEffect {
			if !display.Effect.Changed(c.lastEffect[rec.ID]) {
				continue
			}
			c.lastEffect[rec.ID] = display.Effect
		}
		c.lastPush[rec.ID] = now
		updates = append(updates, c.update(rec, display))
	}
	c.push(ctx, updates)
}

// alertUpdates returns override frames for the firing alert records, or
// nothing when no alert is active. The flash color is scaled per tick by
// the style's brightness curve.
func (c *Coordinator) alertUpdates(records []model.Visualization, ts float64) []publisher.SegmentUpdate {
	var updates []publisher.SegmentUpdate
	for _, rec := range records {
		if !rec.IsAlert() || !rec.Enabled {
			continue
		}
		display := render.Project(rec, c.snapshot)
		if !display.AlertActive {
			continue
		}
		level := render.AlertLevel(rec.FlashStyle, rec.FlashSpeed, ts)
		for i := range display.Stops {
			display.Stops[i].Color = display.Stops[i].Color.Scale(level)
		}
		updates = append(updates, c.update(rec, display))
		// first firing alert wins the strip
		break
	}
	return updates
}

func (c *Coordinator) update(rec model.Visualization, display render.DisplayState) publisher.SegmentUpdate {
	return publisher.SegmentUpdate{
		EntryID:   c.entryID,
		RecordID:  rec.ID,
		Title:     rec.Title,
		SegmentID: rec.SegmentID,
		NumLEDs:   rec.NumLEDs,
		Display:   display,
	}
}

func (c *Coordinator) push(ctx context.Context, updates []publisher.SegmentUpdate) {
	if len(updates) == 0 {
		return
	}
	for _, update := range updates {
		if _, seen := c.registered[update.RecordID]; seen {
			continue
		}
		if err := publisher.RegisterSegment(update); err != nil {
			c.logger.Warn("segment registration failed", zap.String("record_id", update.RecordID), zap.Error(err))
			continue
		}
		c.registered[update.RecordID] = struct{}{}
	}
	if err := publisher.Publish(ctx, updates); err != nil {
		c.logger.Warn("failed to push segment updates", zap.Error(err))
	}
}
