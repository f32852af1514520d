package model

import "time"

// Flag is a named boolean switch gating optional functionality.
// Name is the primary key and never changes for the lifetime of the record.
type Flag struct {
	Name        string    `json:"name"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a copy of f that shares no state with it.
func (f *Flag) Clone() *Flag {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

// Action names the kind of write applied to a flag.
type Action string

const (
	ActionEnabled  Action = "enabled"
	ActionDisabled Action = "disabled"
	ActionDeleted  Action = "deleted"
)

func (a Action) String() string { return string(a) }

// ActionFor returns the action matching the given gate value.
func ActionFor(enabled bool) Action {
	if enabled {
		return ActionEnabled
	}
	return ActionDisabled
}
