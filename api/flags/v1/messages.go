// Package flagsv1 defines the flags.v1 wire contract shared by the server and
// its clients: message types, the FlagService gRPC description and the JSON
// codec the service is spoken with.
package flagsv1

import "time"

// Flag is the wire form of a flag record.
type Flag struct {
	Name        string    `json:"name"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type IsEnabledRequest struct {
	Name string `json:"name"`
}

type IsEnabledResponse struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type EnableFlagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type EnableFlagResponse struct {
	Success bool `json:"success"`
}

type DisableFlagRequest struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

type DisableFlagResponse struct {
	Success bool `json:"success"`
}

// ListFlagsRequest asks for the name to state map. With Details set the
// response also carries the full records, taken from the same snapshot.
type ListFlagsRequest struct {
	Details bool `json:"details,omitempty"`
}

type ListFlagsResponse struct {
	Flags   map[string]bool `json:"flags"`
	Records []*Flag         `json:"records,omitempty"`
}

type GetFlagDetailsRequest struct {
	Name string `json:"name"`
}

// GetFlagDetailsResponse carries a nil Flag when the flag does not exist.
type GetFlagDetailsResponse struct {
	Flag *Flag `json:"flag,omitempty"`
}

type DeleteFlagRequest struct {
	Name string `json:"name"`
}

type DeleteFlagResponse struct {
	Deleted bool `json:"deleted"`
}

type HealthRequest struct{}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health status values.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)
