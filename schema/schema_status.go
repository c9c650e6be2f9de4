package schema

import "time"

// StoreStatus represents the health of the observation store.
type StoreStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	ServerVersion string           `json:"server_version"`
	Schema        string           `json:"schema"`
	SchemaExists  bool             `json:"schema_exists"`
	TableSizes    map[string]int64 `json:"table_sizes"`
	LastSession   *time.Time       `json:"last_session,omitempty"`
	Error         string           `json:"error,omitempty"`
}
