package gateway

import (
	// Go Internal Packages
	"context"
	"fmt"
	"strings"
	"time"

	// Local Packages
	errors "tx-gateway/errors"
	models "tx-gateway/models"
	utils "tx-gateway/utils"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Settings struct {
	// Blacklist replaces DefaultBlacklist when not empty.
	Blacklist []string
	// StrictCapture rejects captures that would exceed the authorized amount.
	StrictCapture bool
}

// Service implements the transaction state machine: authorize, capture,
// refund and cancel. It holds no locks; callers that need mutual exclusion
// per transaction wrap it with Serialized.
type Service struct {
	Logger        *zap.Logger
	Store         TransactionStore
	Publisher     EventPublisher
	Blacklist     Blacklist
	StrictCapture bool

	now func() time.Time
}

func NewService(logger *zap.Logger, store TransactionStore, publisher EventPublisher, settings Settings) *Service {
	cards := settings.Blacklist
	if len(cards) == 0 {
		cards = DefaultBlacklist
	}
	return &Service{
		Logger:        logger,
		Store:         store,
		Publisher:     publisher,
		Blacklist:     NewBlacklist(cards),
		StrictCapture: settings.StrictCapture,
		now:           time.Now,
	}
}

func (s *Service) Authorize(ctx context.Context, req models.AuthorizeRequest) (*models.AuthorizeResponse, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}
	if s.Blacklist.Contains(req.CardNumber) {
		s.Logger.Warn("rejected blacklisted card", zap.String("card", utils.MaskCardNumber(req.CardNumber)))
		return nil, errors.E(errors.Invalid, "authorization failed, card is blacklisted", nil)
	}

	now := s.now()
	tx := &models.Transaction{
		CardNumber:    req.CardNumber,
		ExpiryMonth:   req.ExpiryMonth,
		ExpiryYear:    req.ExpiryYear,
		CVV:           req.CVV,
		Currency:      req.Currency,
		CurrentAmount: req.Amount,
		Status:        models.StatusCanCapture,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	entry := tx.Append(models.EntryAuthorize, req.Amount, now)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	created, err := s.Store.Create(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	s.publish(ctx, created, entry)

	return &models.AuthorizeResponse{
		TransactionID: created.ID,
		PaymentResponse: models.PaymentResponse{
			Amount:   req.Amount,
			Currency: req.Currency,
		},
	}, nil
}

func (s *Service) Capture(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}
	tx, err := s.load(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.StatusRefunded || tx.Status == models.StatusVoid {
		return nil, errors.E(errors.Invalid, "transaction cannot be captured anymore", nil)
	}

	authorized := AmountOf(tx, models.EntryAuthorize)
	captured := AmountOf(tx, models.EntryCapture)
	if s.StrictCapture && captured+req.Amount > authorized {
		return nil, errors.E(errors.Invalid, "capture amount exceeds authorized amount", nil)
	}

	tx.Status = models.StatusCanRefund
	tx.CurrentAmount = authorized - (captured + req.Amount)
	entry := tx.Append(models.EntryCapture, req.Amount, s.now())

	if err := s.commit(ctx, tx, entry); err != nil {
		return nil, err
	}
	return &models.PaymentResponse{Amount: tx.CurrentAmount, Currency: tx.Currency}, nil
}

func (s *Service) Refund(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}
	tx, err := s.load(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.StatusRefunded || tx.Status == models.StatusVoid {
		return nil, errors.E(errors.Invalid, "transaction cannot be refunded anymore", nil)
	}

	authorized := AmountOf(tx, models.EntryAuthorize)
	captured := AmountOf(tx, models.EntryCapture)
	refunded := AmountOf(tx, models.EntryRefund)

	if refunded+req.Amount > captured {
		return nil, errors.E(errors.Invalid, "invalid refund request, refund amount exceeds capture amount", nil)
	}
	if refunded+req.Amount == captured {
		tx.Status = models.StatusRefunded
	}

	tx.CurrentAmount = (authorized - captured) + refunded + req.Amount
	entry := tx.Append(models.EntryRefund, req.Amount, s.now())

	if err := s.commit(ctx, tx, entry); err != nil {
		return nil, err
	}
	return &models.PaymentResponse{Amount: tx.CurrentAmount, Currency: tx.Currency}, nil
}

// Cancel voids the transaction and restores the originally authorized amount,
// whatever was captured or refunded before.
func (s *Service) Cancel(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error) {
	tx, err := s.load(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.StatusVoid {
		return nil, errors.E(errors.InvalidOperation, "cannot cancel a cancelled transaction", nil)
	}

	tx.CurrentAmount = AmountOf(tx, models.EntryAuthorize)
	tx.Status = models.StatusVoid
	entry := tx.Append(models.EntryVoid, tx.CurrentAmount, s.now())

	if err := s.commit(ctx, tx, entry); err != nil {
		return nil, err
	}
	return &models.PaymentResponse{Amount: tx.CurrentAmount, Currency: tx.Currency}, nil
}

// Transaction returns the client view of a transaction.
func (s *Service) Transaction(ctx context.Context, id string, includeLedger bool) (*models.TransactionView, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.EmptyParamErr("transaction_id")
	}
	tx, err := s.Store.Load(ctx, id, includeLedger)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", id, err)
	}
	return &models.TransactionView{
		ID:            tx.ID,
		CardNumber:    utils.MaskCardNumber(tx.CardNumber),
		Currency:      tx.Currency,
		CurrentAmount: tx.CurrentAmount,
		Status:        tx.Status,
		Ledger:        tx.Ledger,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.EmptyParamErr("transaction_id")
	}
	tx, err := s.Store.Load(ctx, id, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", id, err)
	}
	return tx, nil
}

// commit persists tx after entry was appended. Nothing is written when ctx is
// already done.
func (s *Service) commit(ctx context.Context, tx *models.Transaction, entry models.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.UpdatedAt = entry.CreatedAt
	if err := s.Store.Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", tx.ID, err)
	}
	s.publish(ctx, tx, entry)
	return nil
}

// publish never fails the operation; the state change is already committed.
func (s *Service) publish(ctx context.Context, tx *models.Transaction, entry models.LedgerEntry) {
	if s.Publisher == nil {
		return
	}
	event := models.LedgerEvent{
		EventID:       uuid.NewString(),
		TransactionID: tx.ID,
		Seq:           entry.Seq,
		Type:          entry.Type,
		Amount:        entry.Amount,
		CurrentAmount: tx.CurrentAmount,
		Currency:      tx.Currency,
		Status:        tx.Status,
		OccurredAt:    entry.CreatedAt,
	}
	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.Logger.Error("failed to publish ledger event",
			zap.String("transaction_id", tx.ID),
			zap.String("type", string(entry.Type)),
			zap.Error(err),
		)
	}
}

func checkAmount(amount int64) error {
	if amount < 0 {
		return errors.E(errors.Invalid, "amount cannot be negative", nil)
	}
	return nil
}
