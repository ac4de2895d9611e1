// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// =============================================================================
// QUERY TYPE CLASSIFICATION
// =============================================================================

// QueryType is the backend's classification of a natural-language query.
type QueryType string

const (
	QueryDataCurrent QueryType = "data_current"
	QueryDataTrend   QueryType = "data_trend"
	QueryInfo        QueryType = "info"
	QueryGreeting    QueryType = "greeting"
	QueryUnknown     QueryType = "unknown"
	QueryInvalid     QueryType = "invalid"
)

// =============================================================================
// FLOAT TELEMETRY
// =============================================================================

// FloatRecord is one telemetry row reported by an oceanographic float.
type FloatRecord struct {
	FloatID      string    `json:"float_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	TemperatureC float64   `json:"temperature"`
	SalinityPSU  float64   `json:"salinity"`
	PressureDbar float64   `json:"pressure"`
	MeasuredAt   time.Time `json:"measured_at"`
}

// =============================================================================
// ONE-SHOT QUERY RESULT
// =============================================================================

// QueryResult is the terminal payload of a one-shot query, carried by the
// metadata stream event.
type QueryResult struct {
	QueryType QueryType     `json:"query_type"`
	Message   string        `json:"message"`
	Data      []FloatRecord `json:"data"`
}

// EmptyQueryResult is the tolerant default when a one-shot stream ends
// without a metadata event: an empty collection, not a failure.
func EmptyQueryResult() *QueryResult {
	return &QueryResult{
		QueryType: QueryUnknown,
		Data:      []FloatRecord{},
	}
}

// IsEmpty reports whether the result carries no rows and no message.
func (r *QueryResult) IsEmpty() bool {
	return r == nil || (len(r.Data) == 0 && r.Message == "")
}

// =============================================================================
// VISUALIZATION DESCRIPTOR
// =============================================================================

// Visualization is a chart or table descriptor produced by the backend.
// Spec is kept raw so the renderer decides how much structure it needs.
type Visualization struct {
	Type  string          `json:"type,omitempty"`
	Title string          `json:"title,omitempty"`
	Spec  json.RawMessage `json:"spec,omitempty"`

	// Raw holds the full undecoded payload for renderers that want it.
	Raw json.RawMessage `json:"-"`
}
