package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/infraglow/glowctl/internal/pkg/entities"
	"github.com/infraglow/glowctl/internal/pkg/model"
	"github.com/infraglow/glowctl/internal/pkg/render"
	"github.com/infraglow/glowctl/internal/pkg/vizsync"
)

type syncService interface {
	Store() *vizsync.Store
	Create(ctx context.Context, mode string, params map[string]any) error
	Update(ctx context.Context, recordID, param string, value any) error
	Delete(ctx context.Context, recordID string, confirmed bool) error
	Reload(ctx context.Context) []model.Visualization
}

type server struct {
	sync     syncService
	snapshot *entities.Snapshot
	logger   *zap.Logger
}

func New(svc syncService, snapshot *entities.Snapshot) *server {
	return &server{sync: svc, snapshot: snapshot, logger: zap.L()}
}

// Handler wires the operator-facing endpoints. Delete goes through the
// confirm query parameter: the interactive gate lives with whoever calls
// this API, we just refuse unconfirmed requests.
func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/healthz", s.getHealth)
	mux.HandleFunc("GET /api/v1/visualizations", s.getVisualizations)
	mux.HandleFunc("POST /api/v1/visualizations", s.postVisualization)
	mux.HandleFunc("PATCH /api/v1/visualizations/{id}", s.patchVisualization)
	mux.HandleFunc("DELETE /api/v1/visualizations/{id}", s.deleteVisualization)
	mux.HandleFunc("POST /api/v1/reload", s.postReload)
	return LoggingMiddleware(mux)
}

type visualizationView struct {
	Record  model.Visualization           `json:"record"`
	Display render.DisplayState           `json:"display"`
	Overlay map[string]vizsync.FieldState `json:"overlay,omitempty"`
}

func (s *server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"records":  s.sync.Store().Len(),
		"entities": s.snapshot.Len(),
	})
}

func (s *server) getVisualizations(w http.ResponseWriter, r *http.Request) {
	store := s.sync.Store()
	views := []visualizationView{}
	for _, rec := range store.List() {
		views = append(views, visualizationView{
			Record:  rec,
			Display: render.Project(rec, s.snapshot),
			Overlay: store.OverlayStates(rec.ID),
		})
	}
	writeJSON(w, views)
}

type createPayload struct {
	Mode   string         `json:"mode"`
	Params map[string]any `json:"params"`
}

func (s *server) postVisualization(w http.ResponseWriter, r *http.Request) {
	payload, err := unmarshalPayload[createPayload](r)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := s.sync.Create(r.Context(), payload.Mode, payload.Params); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte("success"))
}

type updatePayload struct {
	Param string `json:"param"`
	Value any    `json:"value"`
}

func (s *server) patchVisualization(w http.ResponseWriter, r *http.Request) {
	payload, err := unmarshalPayload[updatePayload](r)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := s.sync.Update(r.Context(), r.PathValue("id"), payload.Param, payload.Value); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("success"))
}

func (s *server) deleteVisualization(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"
	err := s.sync.Delete(r.Context(), r.PathValue("id"), confirmed)
	if errors.Is(err, vizsync.ErrNotConfirmed) {
		http.Error(w, err.Error(), http.StatusPreconditionRequired)
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("success"))
}

func (s *server) postReload(w http.ResponseWriter, r *http.Request) {
	recs := s.sync.Reload(r.Context())
	writeJSON(w, map[string]any{"records": len(recs)})
}

func unmarshalPayload[T any](r *http.Request) (*T, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	payload := new(T)
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func handleError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	switch {
	case errors.Is(err, vizsync.ErrMissingEntity),
		errors.Is(err, vizsync.ErrInvalidRange),
		errors.Is(err, vizsync.ErrInvalidLEDs):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}
