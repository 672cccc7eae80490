package model

import (
	"encoding/json"
	"time"
)

// Action is the kind of mutation recorded in the action log.
type Action string

// Logged actions.
const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
)

// EntityType names the kind of record an action log entry describes.
type EntityType string

// Audited entity types.
const (
	EntityTransaction EntityType = "transaction"
	EntityCategory    EntityType = "category"
)

// ActionLog is an append-only record of one mutation.
type ActionLog struct {
	Timestamp  time.Time       `json:"timestamp"`
	Action     Action          `json:"action"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Payload    json.RawMessage `json:"payload"`
	ID         int64           `json:"id"`
}

// UpdatePayload is the payload recorded for updates.
type UpdatePayload struct {
	Changes  map[string]any `json:"changes"`
	Previous any            `json:"previous"`
}
