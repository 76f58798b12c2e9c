// internal/domain/runstate.go
package domain

import "time"

// SourceStatus records one source's outcome within a run.
type SourceStatus struct {
	OK        bool   `json:"ok" bson:"ok"`
	Error     string `json:"error,omitempty" bson:"error,omitempty"`
	ItemCount int    `json:"item_count" bson:"item_count"`
}

// RunState is the singleton record tracking scrape cycles.
//
// LastAttemptedUTC moves at the start of every run. LastUpdatedUTC moves only
// when a run commits with at least one source succeeding, so it never gets
// ahead of LastAttemptedUTC, and a zero value means no run ever succeeded.
// The dashboard uses the gap between the two to tell "stale" from "no data".
type RunState struct {
	LastAttemptedUTC time.Time               `json:"last_attempted_utc" bson:"last_attempted_utc"`
	LastUpdatedUTC   time.Time               `json:"last_updated_utc" bson:"last_updated_utc"`
	SourceStatus     map[string]SourceStatus `json:"source_status" bson:"source_status"`
}

// Criteria are the global match bounds applied to every source. Acreage
// bounds are a closed interval; MaxPrice is inclusive.
type Criteria struct {
	MinAcres float64 `yaml:"min_acres" json:"min_acres"`
	MaxAcres float64 `yaml:"max_acres" json:"max_acres"`
	MaxPrice int64   `yaml:"max_price" json:"max_price"`
}
