// Package events publishes flag change notifications to a message bus.
// Delivery is best-effort; nothing in the write path waits for consumers.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/flags/internal/idgen"
	"github.com/alfredjeanlab/flags/internal/model"
)

// Event topic constants
const (
	TopicFlagEnabled  = "flags.flag.enabled"
	TopicFlagDisabled = "flags.flag.disabled"
	TopicFlagDeleted  = "flags.flag.deleted"

	// TopicAll matches every flag topic.
	TopicAll = "flags.>"
)

// TopicFor returns the topic a change of the given kind is published on.
func TopicFor(action model.Action) string {
	switch action {
	case model.ActionEnabled:
		return TopicFlagEnabled
	case model.ActionDisabled:
		return TopicFlagDisabled
	default:
		return TopicFlagDeleted
	}
}

// FlagChanged is emitted after a write to a flag has landed.
type FlagChanged struct {
	ID     string       `json:"id"`
	Action model.Action `json:"action"`
	Flag   *model.Flag  `json:"flag"`
	Actor  string       `json:"actor,omitempty"`
	At     time.Time    `json:"at"`
}

// NewFlagChanged builds an event with a fresh ID.
func NewFlagChanged(action model.Action, flag *model.Flag, actor string, at time.Time) (FlagChanged, error) {
	id, err := idgen.EventID()
	if err != nil {
		return FlagChanged{}, fmt.Errorf("event id: %w", err)
	}
	return FlagChanged{
		ID:     id,
		Action: action,
		Flag:   flag.Clone(),
		Actor:  actor,
		At:     at.UTC(),
	}, nil
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
