package api

import (
	// Go Internal Packages
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	// Local Packages
	errors "tx-gateway/errors"
	models "tx-gateway/models"
	utils "tx-gateway/utils"

	// External Packages
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Gateway is the set of operations the HTTP layer exposes.
type Gateway interface {
	Authorize(ctx context.Context, req models.AuthorizeRequest) (*models.AuthorizeResponse, error)
	Capture(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error)
	Refund(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error)
	Cancel(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error)
	Transaction(ctx context.Context, id string, includeLedger bool) (*models.TransactionView, error)
}

// IdempotencyStore tracks Idempotency-Key headers. Reserve returns the
// existing record when the key was seen before, nil when it was just reserved.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, requestHash string) (*models.IdempotencyRecord, error)
	Complete(ctx context.Context, key string, status int, body []byte) error
	Release(ctx context.Context, key string) error
}

type Handler struct {
	gateway Gateway
	idem    IdempotencyStore
	logger  *zap.Logger
}

// NewHandler wires the handler; idem may be nil to ignore Idempotency-Key.
func NewHandler(gw Gateway, idem IdempotencyStore, logger *zap.Logger) *Handler {
	return &Handler{gateway: gw, idem: idem, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, r.Method, "/health")
}

func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "/authorize", func(ctx context.Context, body []byte) (any, error) {
		var req models.AuthorizeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errors.InvalidBodyErr(err)
		}
		resp, err := h.gateway.Authorize(ctx, req)
		if err != nil {
			return nil, err
		}
		h.logger.Info("authorized the customer successfully",
			zap.String("transaction_id", resp.TransactionID),
			zap.String("card", utils.MaskCardNumber(req.CardNumber)),
		)
		return resp, nil
	})
}

func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "/capture", h.transactionOp("captured the amount", h.gateway.Capture))
}

func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "/refund", h.transactionOp("refunded the amount", h.gateway.Refund))
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "/void", h.transactionOp("cancelled the whole transaction", h.gateway.Cancel))
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transactions/{id}"
	timer := prometheus.NewTimer(httpLatency.WithLabelValues(r.Method, endpoint))
	defer timer.ObserveDuration()

	id := mux.Vars(r)["id"]
	includeLedger := r.URL.Query().Get("include") == "ledger"

	view, err := h.gateway.Transaction(r.Context(), id, includeLedger)
	if err != nil {
		status, payload := h.errorPayload(err, endpoint)
		h.respondJSON(w, status, payload, r.Method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, view, r.Method, endpoint)
}

type paymentOp func(ctx context.Context, req models.TransactionRequest) (*models.PaymentResponse, error)

func (h *Handler) transactionOp(msg string, op paymentOp) func(ctx context.Context, body []byte) (any, error) {
	return func(ctx context.Context, body []byte) (any, error) {
		var req models.TransactionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errors.InvalidBodyErr(err)
		}
		resp, err := op(ctx, req)
		if err != nil {
			return nil, err
		}
		h.logger.Info(msg, zap.String("transaction_id", req.TransactionID), zap.Int64("amount", resp.Amount))
		return resp, nil
	}
}

// mutate runs a state changing operation, honouring the Idempotency-Key header.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, endpoint string, op func(ctx context.Context, body []byte) (any, error)) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues(r.Method, endpoint))
	defer timer.ObserveDuration()
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		status, payload := h.errorPayload(errors.InvalidBodyErr(err), endpoint)
		h.respondJSON(w, status, payload, r.Method, endpoint)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	useKey := key != "" && h.idem != nil
	if useKey {
		reqHash := requestHash(endpoint, body)
		existing, err := h.idem.Reserve(ctx, key, reqHash)
		if err != nil {
			status, payload := h.errorPayload(err, endpoint)
			h.respondJSON(w, status, payload, r.Method, endpoint)
			return
		}
		if existing != nil {
			h.replay(w, r, endpoint, existing, reqHash)
			return
		}
	}

	status, payload := http.StatusOK, any(nil)
	result, err := op(ctx, body)
	if err != nil {
		status, payload = h.errorPayload(err, endpoint)
	} else {
		payload = result
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode response", zap.String("endpoint", endpoint), zap.Error(err))
		status, data = http.StatusInternalServerError, []byte(`{"error":"internal server error"}`)
	}

	if useKey {
		h.settleKey(ctx, key, status, data)
	}
	h.write(w, status, data, r.Method, endpoint)
}

// requestHash binds a key to the endpoint and exact body it was first used with.
func requestHash(endpoint string, body []byte) string {
	sum := sha256.Sum256(append([]byte(endpoint+"\n"), body...))
	return hex.EncodeToString(sum[:])
}

func (h *Handler) replay(w http.ResponseWriter, r *http.Request, endpoint string, rec *models.IdempotencyRecord, reqHash string) {
	switch {
	case rec.RequestHash != reqHash:
		h.respondJSON(w, http.StatusUnprocessableEntity,
			map[string]string{"error": "idempotency key reused with a different request"}, r.Method, endpoint)
	case rec.Status != models.IdempotencyCompleted:
		h.respondJSON(w, http.StatusConflict,
			map[string]string{"error": "request with this idempotency key is in progress"}, r.Method, endpoint)
	default:
		idempotentReplays.WithLabelValues(endpoint).Inc()
		w.Header().Set("Idempotent-Replayed", "true")
		h.write(w, rec.ResponseStatus, rec.ResponseBody, r.Method, endpoint)
	}
}

// settleKey stores the outcome for replay. Server faults and conflicts free the
// key so the client may retry with it.
func (h *Handler) settleKey(ctx context.Context, key string, status int, data []byte) {
	var err error
	if status >= http.StatusInternalServerError || status == http.StatusConflict {
		err = h.idem.Release(context.WithoutCancel(ctx), key)
	} else {
		err = h.idem.Complete(context.WithoutCancel(ctx), key, status, data)
	}
	if err != nil {
		h.logger.Error("failed to settle idempotency key", zap.String("key", key), zap.Error(err))
	}
}

// errorPayload maps an error kind to a status code and body.
func (h *Handler) errorPayload(err error, endpoint string) (int, map[string]string) {
	var status int
	switch errors.KindOf(err) {
	case errors.Invalid:
		status = http.StatusBadRequest
	case errors.InvalidOperation:
		status = http.StatusUnprocessableEntity
	case errors.NotFound:
		status = http.StatusNotFound
	case errors.Conflict:
		status = http.StatusConflict
	default:
		h.logger.Error("request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return http.StatusInternalServerError, map[string]string{"error": "internal server error"}
	}

	h.logger.Info("request rejected", zap.String("endpoint", endpoint), zap.Stringer("kind", errors.KindOf(err)), zap.Error(err))
	return status, map[string]string{"error": errors.MessageOf(err), "kind": errors.KindOf(err).String()}
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload any, method, endpoint string) {
	data, err := json.Marshal(payload)
	if err != nil {
		code, data = http.StatusInternalServerError, []byte(`{"error":"internal server error"}`)
	}
	h.write(w, code, data, method, endpoint)
}

func (h *Handler) write(w http.ResponseWriter, code int, data []byte, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}
