// Package network defines the distribution-network model (feeders,
// transformers, streets, houses) and loads raw datasets into a canonical
// graph.
package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the lower-cased element type.
type Kind string

// Known element kinds. Grid is the root kind used by legacy datasets.
const (
	KindFeeder      Kind = "feeder"
	KindGrid        Kind = "grid"
	KindTransformer Kind = "transformer"
	KindStreet      Kind = "street"
	KindHouse       Kind = "house"
)

// ParseKind lower-cases a raw type string.
func ParseKind(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}

// IsRoot reports whether nodes of this kind terminate an upstream walk.
func (k Kind) IsRoot() bool {
	return k == KindFeeder || k == KindGrid
}

// Phase is the predicted supply phase of a house.
type Phase string

// Valid phases.
const (
	PhaseA Phase = "A"
	PhaseB Phase = "B"
	PhaseC Phase = "C"
)

// HouseAttrs holds fields that are only meaningful on house elements.
type HouseAttrs struct {
	HouseID        *int  `json:"HouseID,omitempty"`
	PredictedPhase Phase `json:"predicted_phase,omitempty" validate:"omitempty,oneof=A B C"`
	Solar          *bool `json:"solar,omitempty"`
}

// StreetAttrs holds fields that are only meaningful on street elements.
type StreetAttrs struct {
	ConnectedNodes []string `json:"connected_nodes,omitempty"`
	NetNodeID      string   `json:"net_node_id,omitempty"`
	Removed        bool     `json:"removed,omitempty"`
}

// Element is one raw network record as found in a dataset file.
//
// House and Street are set only when Kind matches; type-specific keys on
// other kinds end up in Extra.
type Element struct {
	ID        string   `json:"id" validate:"required"`
	Kind      Kind     `json:"type" validate:"required"`
	Name      string   `json:"name,omitempty"`
	XMeters   *float64 `json:"x_meters,omitempty"`
	YMeters   *float64 `json:"y_meters,omitempty"`
	NextNodes []string `json:"next_nodes,omitempty"`
	PrevNodes []string `json:"prev_nodes,omitempty"`

	House  *HouseAttrs  `json:"-"`
	Street *StreetAttrs `json:"-"`

	// Extra keeps unrecognised keys so they can be passed through to the UI.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownKeys are decoded into typed fields and never land in Extra.
var knownKeys = map[string]bool{
	"id": true, "type": true, "name": true,
	"x_meters": true, "y_meters": true,
	"next_nodes": true, "prev_nodes": true, "prev_node": true,
}

var houseKeys = map[string]bool{"HouseID": true, "predicted_phase": true, "solar": true}

var streetKeys = map[string]bool{"connected_nodes": true, "net_node_id": true, "removed": true}

// rawElement mirrors the union of all fields for decoding.
type rawElement struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Name           string          `json:"name"`
	XMeters        *float64        `json:"x_meters"`
	YMeters        *float64        `json:"y_meters"`
	NextNodes      []string        `json:"next_nodes"`
	PrevNodes      []string        `json:"prev_nodes"`
	PrevNode       *string         `json:"prev_node"`
	HouseID        json.RawMessage `json:"HouseID"`
	PredictedPhase *string         `json:"predicted_phase"`
	Solar          *bool           `json:"solar"`
	ConnectedNodes []string        `json:"connected_nodes"`
	NetNodeID      *string         `json:"net_node_id"`
	Removed        bool            `json:"removed"`
}

// UnmarshalJSON decodes a raw record into the tagged variant.
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw rawElement
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*e = Element{
		ID:        raw.ID,
		Kind:      ParseKind(raw.Type),
		Name:      raw.Name,
		XMeters:   raw.XMeters,
		YMeters:   raw.YMeters,
		NextNodes: raw.NextNodes,
		PrevNodes: raw.PrevNodes,
	}

	// Legacy records carry a single prev_node instead of prev_nodes.
	if len(e.PrevNodes) == 0 && raw.PrevNode != nil && *raw.PrevNode != "" {
		e.PrevNodes = []string{*raw.PrevNode}
	}

	switch e.Kind {
	case KindHouse:
		h := &HouseAttrs{Solar: raw.Solar}
		id, err := decodeHouseID(raw.HouseID)
		if err != nil {
			return fmt.Errorf("element %q: %w", raw.ID, err)
		}
		h.HouseID = id
		if raw.PredictedPhase != nil {
			h.PredictedPhase = Phase(strings.ToUpper(*raw.PredictedPhase))
		}
		e.House = h
	case KindStreet:
		s := &StreetAttrs{ConnectedNodes: raw.ConnectedNodes, Removed: raw.Removed}
		if raw.NetNodeID != nil {
			s.NetNodeID = *raw.NetNodeID
		}
		e.Street = s
	}

	for k, v := range all {
		if knownKeys[k] {
			continue
		}
		if e.Kind == KindHouse && houseKeys[k] {
			continue
		}
		if e.Kind == KindStreet && streetKeys[k] {
			continue
		}
		if e.Extra == nil {
			e.Extra = make(map[string]json.RawMessage)
		}
		e.Extra[k] = v
	}

	return nil
}

// MarshalJSON flattens the variant back into a single record.
func (e Element) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 8+len(e.Extra))
	for k, v := range e.Extra {
		out[k] = v
	}
	out["id"] = e.ID
	out["type"] = string(e.Kind)
	if e.Name != "" {
		out["name"] = e.Name
	}
	if e.XMeters != nil {
		out["x_meters"] = *e.XMeters
	}
	if e.YMeters != nil {
		out["y_meters"] = *e.YMeters
	}
	if len(e.NextNodes) > 0 {
		out["next_nodes"] = e.NextNodes
	}
	if len(e.PrevNodes) > 0 {
		out["prev_nodes"] = e.PrevNodes
	}
	if h := e.House; h != nil {
		if h.HouseID != nil {
			out["HouseID"] = *h.HouseID
		}
		if h.PredictedPhase != "" {
			out["predicted_phase"] = h.PredictedPhase
		}
		if h.Solar != nil {
			out["solar"] = *h.Solar
		}
	}
	if s := e.Street; s != nil {
		if len(s.ConnectedNodes) > 0 {
			out["connected_nodes"] = s.ConnectedNodes
		}
		if s.NetNodeID != "" {
			out["net_node_id"] = s.NetNodeID
		}
		if s.Removed {
			out["removed"] = true
		}
	}
	return json.Marshal(out)
}

// decodeHouseID accepts a JSON number or a numeric string.
func decodeHouseID(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var n json.Number
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decoding HouseID: %w", err)
		}
		if s == "" {
			return nil, nil
		}
		n = json.Number(s)
	} else if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("decoding HouseID: %w", err)
	}

	if i, err := strconv.Atoi(n.String()); err == nil {
		return &i, nil
	}
	f, err := n.Float64()
	if err != nil || f != float64(int(f)) {
		return nil, fmt.Errorf("HouseID %q is not an integer", n.String())
	}
	i := int(f)
	return &i, nil
}

// IsRemovedStreet reports whether the element is a logically deleted street.
func (e *Element) IsRemovedStreet() bool {
	return e.Kind == KindStreet && e.Street != nil && e.Street.Removed
}
