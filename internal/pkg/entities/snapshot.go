package entities

import (
	"encoding/json"
	"math"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Attributes carries the subset of entity attributes the controller reads.
type Attributes struct {
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Step         *float64 `json:"step,omitempty"`
	Unit         string   `json:"unit_of_measurement,omitempty"`
	FriendlyName string   `json:"friendly_name,omitempty"`
}

// State is one entity reading as delivered by the backend.
type State struct {
	State      string     `json:"state"`
	Attributes Attributes `json:"attributes"`
}

// Float extracts a numeric reading. on/off map to 1/0 so binary sensors
// can drive alerts; unavailable, unknown and non-numeric states report
// no reading rather than zero. NaN and infinities count as non-numeric:
// a single such reading would otherwise poison every JSON payload built
// from the derived percentage.
func (s State) Float() (float64, bool) {
	switch s.State {
	case "on":
		return 1, true
	case "off":
		return 0, true
	case "", "unavailable", "unknown":
		return 0, false
	}
	f, err := strconv.ParseFloat(s.State, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

type stateChangedData struct {
	EntityID string `json:"entity_id"`
	NewState *State `json:"new_state"`
}

// Snapshot is the read-only entity view the render tick polls. It is
// written by the socket receive goroutine and read from the tick loop,
// hence the lock.
type Snapshot struct {
	mu     sync.RWMutex
	states map[string]State
	logger *zap.Logger
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		states: make(map[string]State),
		logger: zap.L(),
	}
}

func (s *Snapshot) Get(ref string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[ref]
	return st, ok
}

// Float returns the numeric reading for ref, or nil when the entity is
// missing or has no usable reading.
func (s *Snapshot) Float(ref string) *float64 {
	st, ok := s.Get(ref)
	if !ok {
		return nil
	}
	f, ok := st.Float()
	if !ok {
		return nil
	}
	return &f
}

func (s *Snapshot) Set(ref string, st State) {
	s.mu.Lock()
	s.states[ref] = st
	s.mu.Unlock()
}

// ReplaceAll installs a bulk state dump, e.g. the initial fetch after
// (re)connecting.
func (s *Snapshot) ReplaceAll(states map[string]State) {
	s.mu.Lock()
	s.states = make(map[string]State, len(states))
	for ref, st := range states {
		s.states[ref] = st
	}
	s.mu.Unlock()
}

func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// HandleStateChanged consumes one state_changed event payload from the
// stream. A nil new_state means the entity was removed.
func (s *Snapshot) HandleStateChanged(data []byte) {
	var ev stateChangedData
	if err := json.Unmarshal(data, &ev); err != nil {
		s.logger.Warn("undecodable state_changed event", zap.Error(err))
		return
	}
	if ev.EntityID == "" {
		return
	}
	if ev.NewState == nil {
		s.mu.Lock()
		delete(s.states, ev.EntityID)
		s.mu.Unlock()
		return
	}
	s.Set(ev.EntityID, *ev.NewState)
}
