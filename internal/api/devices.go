package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// deviceSummary is one row of the device inventory.
type deviceSummary struct {
	ID              uuid.UUID `json:"id"`
	Identifier      string    `json:"identifier"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Enabled         bool      `json:"enabled"`
	ConnectionState string    `json:"connection_state"`
	Channels        int       `json:"channels"`
}

// propertyState is one property's runtime state in a state response.
type propertyState struct {
	ID         uuid.UUID  `json:"id"`
	Channel    string     `json:"channel,omitempty"`
	Identifier string     `json:"identifier"`
	Kind       string     `json:"kind"`
	Actual     any        `json:"actual_value,omitempty"`
	Expected   any        `json:"expected_value,omitempty"`
	Pending    *time.Time `json:"pending,omitempty"`
	Valid      bool       `json:"valid"`
}

// handleHealth reports liveness and a device count breakdown.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	devices := s.registry.ListDevices()

	connected := 0
	for i := range devices {
		if s.tracker.GetState(r.Context(), devices[i].ID) == device.Connected {
			connected++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"version":           s.version,
		"devices":           len(devices),
		"devices_connected": connected,
	})
}

// handleListDevices returns the connector's device inventory.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.registry.ListDevices()

	summaries := make([]deviceSummary, 0, len(devices))
	for i := range devices {
		d := &devices[i]
		summaries = append(summaries, deviceSummary{
			ID:              d.ID,
			Identifier:      d.Identifier,
			Name:            d.Name,
			Type:            d.Type,
			Enabled:         d.Enabled,
			ConnectionState: string(s.tracker.GetState(r.Context(), d.ID)),
			Channels:        len(d.Channels),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": summaries})
}

// handleDeviceState returns the runtime state of every property of one
// device, dynamic and mapped properties from the state store, variable
// properties from configuration.
func (s *Server) handleDeviceState(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeBadRequest(w, "malformed device id")
		return
	}

	d, err := s.registry.GetDevice(id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "loading device failed")
		return
	}

	states := make([]propertyState, 0, len(d.Properties))
	for i := range d.Properties {
		states = append(states, s.propertyState("", &d.Properties[i]))
	}
	for ci := range d.Channels {
		ch := &d.Channels[ci]
		for pi := range ch.Properties {
			states = append(states, s.propertyState(ch.Identifier, &ch.Properties[pi]))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":               d.ID,
		"connection_state": s.tracker.GetState(r.Context(), d.ID),
		"properties":       states,
	})
}

// propertyState merges a property's declaration with its runtime state.
func (s *Server) propertyState(channel string, p *property.Property) propertyState {
	ps := propertyState{
		ID:         p.ID,
		Channel:    channel,
		Identifier: p.Identifier,
		Kind:       string(p.Kind),
	}

	if p.Kind == property.KindVariable {
		ps.Actual = p.Value
		ps.Valid = true
		return ps
	}

	if st, ok := s.store.ReadValue(p.ID); ok {
		ps.Actual = st.Actual
		ps.Expected = st.Expected
		ps.Pending = st.Pending
		ps.Valid = st.Valid
	}
	return ps
}
