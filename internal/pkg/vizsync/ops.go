package vizsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/infraglow/glowctl/internal/pkg/model"
)

var (
	ErrMissingEntity = errors.New("visualization needs a source entity")
	ErrInvalidRange  = errors.New("ceiling must be greater than floor")
	ErrInvalidLEDs   = errors.New("led count must be at least 1")
	ErrNotConfirmed  = errors.New("delete not confirmed")
)

// reloadBackoff is waited before each convergence attempt: a mutation has
// just happened and the backend materializes new records asynchronously,
// so an immediate query would mostly see the old world.
var reloadBackoff = []time.Duration{
	1500 * time.Millisecond,
	2000 * time.Millisecond,
	2500 * time.Millisecond,
	3000 * time.Millisecond,
	3500 * time.Millisecond,
}

// Load issues one get_config query and installs the result set. The
// store is left untouched on transport or decode failure.
func (s *Service) Load(ctx context.Context) ([]model.Visualization, error) {
	id := s.requestID()
	result, err := command[model.GetConfigResult](ctx, s, model.GetConfigRequest{
		Request: model.Request{ID: id, Type: model.GetConfig},
		EntryID: s.cfg.EntryID,
	}, id)
	if err != nil {
		s.logger.Warn("get_config failed", zap.Error(err))
		return nil, err
	}

	recs := lo.Map(result.Visualizations, func(w model.WireVisualization, _ int) model.Visualization {
		return w.ToVisualization()
	})
	s.store.Replace(recs)
	s.logger.Debug("config loaded", zap.Int("records", len(recs)))
	return s.store.List(), nil
}

// Reload runs the bounded convergence loop after a mutation: up to five
// attempts with escalating waits, stopping early once the backend
// returns a non-empty set. It never fails; the worst outcome is the last
// attempt's (possibly empty) result. Concurrent reloads for the same
// entry coalesce into one in-flight loop.
func (s *Service) Reload(ctx context.Context) []model.Visualization {
	result, _, _ := s.reloads.Do(s.cfg.EntryID, func() (any, error) {
		var recs []model.Visualization
		for attempt, wait := range s.backoff {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				s.logger.Warn("reload aborted", zap.Error(ctx.Err()))
				return recs, nil
			}

			loaded, err := s.Load(ctx)
			if err == nil {
				recs = loaded
				if len(recs) > 0 {
					return recs, nil
				}
			}
			s.logger.Debug("reload attempt came back empty",
				zap.Int("attempt", attempt+1),
				zap.Int("attempts_total", len(s.backoff)))
		}
		s.logger.Warn("reload exhausted all attempts", zap.Int("records", len(recs)))
		return recs, nil
	})
	recs, _ := result.([]model.Visualization)
	return recs
}

// Create validates locally, submits create_viz and converges. Validation
// failures never reach the wire.
func (s *Service) Create(ctx context.Context, mode string, params map[string]any) error {
	if err := validateCreate(params); err != nil {
		return err
	}

	id := s.requestID()
	result, err := command[model.CreateVizResult](ctx, s, model.CreateVizRequest{
		Request: model.Request{ID: id, Type: model.CreateViz},
		EntryID: s.cfg.EntryID,
		Mode:    mode,
		Params:  params,
	}, id)
	if err != nil {
		// No rollback needed: nothing was applied locally. The absent
		// record is what tells the operator it failed.
		s.logger.Error("create_viz failed", zap.String("mode", mode), zap.Error(err))
		return err
	}
	s.logger.Info("visualization created",
		zap.String("mode", mode),
		zap.String("subentry_id", result.SubentryID))

	s.Reload(ctx)
	return nil
}

func validateCreate(params map[string]any) error {
	entityID, _ := params["entity_id"].(string)
	if entityID == "" {
		return ErrMissingEntity
	}
	if raw, ok := params["num_leds"]; ok {
		if n, ok := model.ToFloat(raw); ok && n < 1 {
			return ErrInvalidLEDs
		}
	}
	floor, hasFloor := model.ToFloat(params["floor"])
	ceiling, hasCeiling := model.ToFloat(params["ceiling"])
	if hasFloor && hasCeiling && ceiling <= floor {
		return ErrInvalidRange
	}
	return nil
}

// Update writes the field into the record and overlay synchronously,
// then fires update_viz at the backend without waiting for it. The
// optimistic value is never rolled back; reconciliation happens on the
// next load (see Store.Replace).
func (s *Service) Update(ctx context.Context, recordID, param string, value any) error {
	if lo.Contains(model.ColorParams, param) {
		c, ok := model.RGBFromAny(value)
		if !ok {
			return fmt.Errorf("param %q: not a color: %v", param, value)
		}
		value = c
	}

	intent, err := s.store.ApplyLocal(recordID, param, value)
	if err != nil {
		if errors.Is(err, ErrUnknownRecord) {
			s.logger.Warn("update for unknown record dropped", zap.String("record_id", recordID))
			return nil
		}
		return err
	}

	id := s.requestID()
	req := model.UpdateVizRequest{
		Request: model.Request{ID: id, Type: model.UpdateViz},
		EntryID: s.cfg.EntryID,
		SlotID:  recordID,
		Param:   param,
		Value:   value,
	}
	go func() {
		ctx, cancel := s.detach()
		defer cancel()
		if _, err := command[model.AckResult](ctx, s, req, id); err != nil {
			// State intentionally keeps the optimistic value.
			s.logger.Warn("update_viz not acknowledged",
				zap.String("record_id", recordID),
				zap.String("param", param),
				zap.String("intent", intent.String()),
				zap.Error(err))
			return
		}
		s.logger.Debug("update_viz acknowledged",
			zap.String("record_id", recordID),
			zap.String("param", param),
			zap.String("intent", intent.String()))
	}()
	return nil
}

// Delete removes a record. The interactive confirmation gate lives with
// the caller; an unconfirmed delete issues no call at all.
func (s *Service) Delete(ctx context.Context, recordID string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	id := s.requestID()
	if _, err := command[model.AckResult](ctx, s, model.DeleteVizRequest{
		Request:    model.Request{ID: id, Type: model.DeleteViz},
		EntryID:    s.cfg.EntryID,
		SubentryID: recordID,
	}, id); err != nil {
		s.logger.Error("delete_viz failed", zap.String("record_id", recordID), zap.Error(err))
		return err
	}
	s.logger.Info("visualization deleted", zap.String("record_id", recordID))
	s.Reload(ctx)
	return nil
}
