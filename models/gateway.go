package models

// AuthorizeRequest carries the card context and the amount to reserve.
type AuthorizeRequest struct {
	CardNumber  string `json:"card_number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// TransactionRequest addresses an existing transaction for capture, refund or void.
type TransactionRequest struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
}

type PaymentResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// AuthorizeResponse is a PaymentResponse plus the id of the new transaction.
type AuthorizeResponse struct {
	TransactionID string `json:"transaction_id"`
	PaymentResponse
}
