package entity

import (
	"encoding/json"
	"time"
)

// Estados de un evento del outbox.
const (
	OutboxStatusPending    = "PENDING"
	OutboxStatusProcessing = "PROCESSING"
	OutboxStatusSent       = "SENT"
	OutboxStatusFailed     = "FAILED"
	OutboxStatusDead       = "DEAD"
)

// OutboxEvent es un evento de dominio guardado en la misma transacción que el cambio que describe.
type OutboxEvent struct {
	ID            string
	CompanyID     string
	AggregateID   string
	Type          string
	Payload       json.RawMessage
	Status        string
	Attempts      int
	NextAttemptAt *time.Time
	LockedAt      *time.Time
	LockedBy      string
	LastError     string
	CreatedAt     time.Time
	PublishedAt   *time.Time
}
