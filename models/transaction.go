package models

import (
	// Go Internal Packages
	"time"
)

// EntryType is the kind of movement recorded in a ledger entry.
type EntryType string

const (
	EntryAuthorize EntryType = "Authorize"
	EntryCapture   EntryType = "Capture"
	EntryRefund    EntryType = "Refund"
	EntryVoid      EntryType = "Void"
)

// Status gates which operations a transaction still accepts.
type Status string

const (
	StatusCanCapture Status = "CanCapture"
	StatusCanRefund  Status = "CanRefund"
	StatusRefunded   Status = "Refunded"
	StatusVoid       Status = "Void"
)

// LedgerEntry is one recorded movement against a transaction. Entries are
// never modified after they are appended.
type LedgerEntry struct {
	Seq       int       `json:"seq" bson:"seq"`
	Type      EntryType `json:"type" bson:"type"`
	Amount    int64     `json:"amount" bson:"amount"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Transaction is an authorized card transaction together with its ledger.
type Transaction struct {
	ID            string        `bson:"_id"`
	CardNumber    string        `bson:"card_number"`
	ExpiryMonth   string        `bson:"expiry_month"`
	ExpiryYear    string        `bson:"expiry_year"`
	CVV           string        `bson:"cvv"`
	Currency      string        `bson:"currency"`
	CurrentAmount int64         `bson:"current_amount"`
	Status        Status        `bson:"status"`
	Ledger        []LedgerEntry `bson:"ledger,omitempty"`
	Version       int64         `bson:"version"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

// Append adds an entry at the end of the ledger and returns it.
func (t *Transaction) Append(entryType EntryType, amount int64, at time.Time) LedgerEntry {
	entry := LedgerEntry{
		Seq:       len(t.Ledger) + 1,
		Type:      entryType,
		Amount:    amount,
		CreatedAt: at,
	}
	t.Ledger = append(t.Ledger, entry)
	return entry
}

// Clone returns a deep copy; the ledger slice is not shared.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.Ledger != nil {
		c.Ledger = make([]LedgerEntry, len(t.Ledger))
		copy(c.Ledger, t.Ledger)
	}
	return &c
}

// TransactionView is the representation of a transaction exposed to clients.
// The card number is masked and the CVV is left out.
type TransactionView struct {
	ID            string        `json:"transaction_id"`
	CardNumber    string        `json:"card_number"`
	Currency      string        `json:"currency"`
	CurrentAmount int64         `json:"current_amount"`
	Status        Status        `json:"status"`
	Ledger        []LedgerEntry `json:"ledger,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
