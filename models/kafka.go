package models

import (
	// Go Internal Packages
	"time"
)

type Record struct {
	Key   []byte
	Value []byte
	Topic string
}

// LedgerEvent is published after every committed gateway operation.
type LedgerEvent struct {
	EventID       string    `json:"event_id"`
	TransactionID string    `json:"transaction_id"`
	Seq           int       `json:"seq"`
	Type          EntryType `json:"type"`
	Amount        int64     `json:"amount"`
	CurrentAmount int64     `json:"current_amount"`
	Currency      string    `json:"currency"`
	Status        Status    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type MongoLedgerEvent struct {
	EventID       string    `json:"event_id" bson:"_id"`
	TransactionID string    `json:"transaction_id" bson:"transaction_id"`
	Seq           int       `json:"seq" bson:"seq"`
	Type          string    `json:"type" bson:"type"`
	Amount        int64     `json:"amount" bson:"amount"`
	CurrentAmount int64     `json:"current_amount" bson:"current_amount"`
	Currency      string    `json:"currency" bson:"currency"`
	Status        string    `json:"status" bson:"status"`
	OccurredAt    time.Time `json:"occurred_at" bson:"occurred_at"`
}

func (e *LedgerEvent) Transform() MongoLedgerEvent {
	return MongoLedgerEvent{
		EventID:       e.EventID,
		TransactionID: e.TransactionID,
		Seq:           e.Seq,
		Type:          string(e.Type),
		Amount:        e.Amount,
		CurrentAmount: e.CurrentAmount,
		Currency:      e.Currency,
		Status:        string(e.Status),
		OccurredAt:    e.OccurredAt,
	}
}
