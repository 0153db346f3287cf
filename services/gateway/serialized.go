package gateway

import (
	// Go Internal Packages
	"context"

	// Local Packages
	models "tx-gateway/models"
)

// Serialized runs capture, refund and cancel for the same transaction one at
// a time by holding a lock keyed on the transaction id.
type Serialized struct {
	*Service
	Locker Locker
}

func NewSerialized(svc *Service, locker Locker) *Serialized {
	return &Serialized{Service: svc, Locker: locker}
}

func lockKey(transactionID string) string {
	return "tx:" + transactionID
}

func (s *Serialized) Capture(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error) {
	return s.locked(ctx, req.TransactionID, func(ctx context.Context) (*models.PaymentResponse, error) {
		return s.Service.Capture(ctx, req)
	})
}

func (s *Serialized) Refund(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error) {
	return s.locked(ctx, req.TransactionID, func(ctx context.Context) (*models.PaymentResponse, error) {
		return s.Service.Refund(ctx, req)
	})
}

func (s *Serialized) Cancel(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error) {
	return s.locked(ctx, req.TransactionID, func(ctx context.Context) (*models.PaymentResponse, error) {
		return s.Service.Cancel(ctx, req)
	})
}

func (s *Serialized) locked(ctx context.Context, id string, op func(ctx context.Context) (*models.PaymentResponse, error)) (*models.PaymentResponse, error) {
	var resp *models.PaymentResponse
	err := s.Locker.WithLock(ctx, lockKey(id), func(ctx context.Context) error {
		var err error
		resp, err = op(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
