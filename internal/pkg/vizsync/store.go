package vizsync

import (
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/infraglow/glowctl/internal/pkg/model"
)

// FieldState tracks what we know about a locally written field relative
// to the backend.
type FieldState int

const (
	// FieldPending: written locally, no backend snapshot seen since.
	FieldPending FieldState = iota + 1
	// FieldConfirmed: a fresher backend snapshot matched the local write.
	FieldConfirmed
	// FieldConflicted: a fresher backend snapshot disagreed; the local
	// value keeps masking until the backend catches up or the operator
	// writes again.
	FieldConflicted
)

func (f FieldState) String() string {
	switch f {
	case FieldPending:
		return "pending"
	case FieldConfirmed:
		return "confirmed"
	case FieldConflicted:
		return "conflicted"
	}
	return "unknown"
}

var ErrUnknownRecord = errors.New("unknown visualization record")

type overlayEntry struct {
	Value   any
	State   FieldState
	Intent  uuid.UUID
	Applied time.Time
}

// Store holds the cached visualization records for one config entry plus
// the per-field overlay masking backend staleness after a mutation. The
// overlay is cleared only by a fresher backend value for the same field,
// never by a timer.
type Store struct {
	mu      sync.RWMutex
	records map[string]*model.Visualization
	order   []string
	overlay map[string]map[string]overlayEntry
	logger  *zap.Logger
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]*model.Visualization),
		overlay: make(map[string]map[string]overlayEntry),
		logger:  zap.L(),
	}
}

// List returns record copies in backend order.
func (s *Store) List() []model.Visualization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.FilterMap(s.order, func(id string, _ int) (model.Visualization, bool) {
		rec, ok := s.records[id]
		if !ok {
			return model.Visualization{}, false
		}
		return *rec, true
	})
}

func (s *Store) Get(id string) (model.Visualization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return model.Visualization{}, false
	}
	return *rec, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ApplyLocal writes param into the in-memory record immediately and
// registers a pending overlay entry, so consumers see the new value
// before the backend acknowledges anything. A second write to the same
// field simply replaces the outstanding intent (last writer wins).
func (s *Store) ApplyLocal(id, param string, value any) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return uuid.Nil, ErrUnknownRecord
	}
	if err := rec.ApplyParam(param, value); err != nil {
		return uuid.Nil, err
	}
	// Store the coerced representation so later comparisons against
	// backend values are type-stable.
	coerced, _ := rec.ParamValue(param)

	intent := uuid.New()
	if s.overlay[id] == nil {
		s.overlay[id] = make(map[string]overlayEntry)
	}
	s.overlay[id][param] = overlayEntry{
		Value:   coerced,
		State:   FieldPending,
		Intent:  intent,
		Applied: time.Now(),
	}
	return intent, nil
}

// Replace installs a fresh backend result set, reconciling the overlay:
// a backend value equal to the pending write confirms it (entry dropped),
// a different one marks the entry conflicted and keeps masking.
func (s *Store) Replace(recs []model.Visualization) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]*model.Visualization, len(recs))
	order := make([]string, 0, len(recs))
	for i := range recs {
		rec := recs[i]
		s.reconcile(&rec)
		records[rec.ID] = &rec
		order = append(order, rec.ID)
	}

	// Overlay entries for records the backend no longer returns die with
	// the record.
	for id := range s.overlay {
		if _, ok := records[id]; !ok {
			delete(s.overlay, id)
		}
	}

	s.records = records
	s.order = order
}

func (s *Store) reconcile(rec *model.Visualization) {
	fields := s.overlay[rec.ID]
	for param, entry := range fields {
		backendValue, ok := rec.ParamValue(param)
		if !ok {
			continue
		}
		if reflect.DeepEqual(backendValue, entry.Value) {
			s.logger.Debug("overlay confirmed",
				zap.String("record_id", rec.ID),
				zap.String("param", param),
				zap.String("intent", entry.Intent.String()))
			delete(fields, param)
			continue
		}
		if entry.State != FieldConflicted {
			s.logger.Warn("overlay conflicts with backend value",
				zap.String("record_id", rec.ID),
				zap.String("param", param),
				zap.Any("local", entry.Value),
				zap.Any("backend", backendValue))
			entry.State = FieldConflicted
			fields[param] = entry
		}
		// Keep masking: re-apply the local value over the backend one.
		if err := rec.ApplyParam(param, entry.Value); err != nil {
			s.logger.Error("failed to re-apply overlay", zap.String("param", param), zap.Error(err))
			delete(fields, param)
		}
	}
	if len(fields) == 0 {
		delete(s.overlay, rec.ID)
	}
}

// OverlayStates exposes the overlay for the status surface.
func (s *Store) OverlayStates(id string) map[string]FieldState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields := s.overlay[id]
	if len(fields) == 0 {
		return nil
	}
	return lo.MapValues(fields, func(e overlayEntry, _ string) FieldState {
		return e.State
	})
}
