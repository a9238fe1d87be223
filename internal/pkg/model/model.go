package model

import "encoding/json"

// Request is embedded in every command sent over the channel. The backend
// echoes the id on the matching result frame.
type Request struct {
	ID   uint64  `json:"id"`
	Type Command `json:"type"`
}

type GetConfigRequest struct {
	Request
	EntryID string `json:"entry_id"`
}

type CreateVizRequest struct {
	Request
	EntryID string         `json:"entry_id"`
	Mode    string         `json:"mode"`
	Params  map[string]any `json:"params"`
}

type UpdateVizRequest struct {
	Request
	EntryID string `json:"entry_id"`
	SlotID  string `json:"slot_id"`
	Param   string `json:"param"`
	Value   any    `json:"value"`
}

type DeleteVizRequest struct {
	Request
	EntryID    string `json:"entry_id"`
	SubentryID string `json:"subentry_id"`
}

type SubscribeStatesRequest struct {
	Request
	EntryID string `json:"entry_id"`
}

// ResultEnvelope is the first-pass decode of any inbound frame: enough to
// route by type/id without committing to a payload shape.
type ResultEnvelope struct {
	ID      uint64          `json:"id"`
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Error   *ResultError    `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type ResultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ParsedResult[T any] struct {
	ID      uint64       `json:"id"`
	Type    string       `json:"type"`
	Success bool         `json:"success"`
	Error   *ResultError `json:"error,omitempty"`
	Result  T            `json:"result"`
}

type GetConfigResult struct {
	Visualizations []WireVisualization `json:"visualizations"`
}

type CreateVizResult struct {
	Success    bool   `json:"success"`
	SubentryID string `json:"subentry_id"`
}

type AckResult struct {
	Success bool `json:"success"`
}

// EventEnvelope carries the uncorrelated stream frames (entity state
// changes). Data stays raw here; the entities package owns its shape.
type EventEnvelope struct {
	Type  string `json:"type"`
	Event struct {
		EventType string          `json:"event_type"`
		Data      json.RawMessage `json:"data"`
	} `json:"event"`
}
