package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/errs"
)

const dateLayout = "2006-01-02"

type transactionPayload struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

func toTransactionPayload(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      t.Amount.InexactFloat64(),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.Format(dateLayout),
	}
}

type createTransactionRequest struct {
	Type        *string      `json:"type"`
	Amount      *json.Number `json:"amount"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Date        *string      `json:"date"`
}

// validate rejects the request before anything touches storage.
func (req *createTransactionRequest) validate() (core.Transaction, error) {
	missing := ""
	switch {
	case req.Type == nil:
		missing = "type"
	case req.Amount == nil:
		missing = "amount"
	case req.Category == nil:
		missing = "category"
	case req.Description == nil:
		missing = "description"
	case req.Date == nil:
		missing = "date"
	}
	if missing != "" {
		return core.Transaction{}, errs.NewValidationError(fmt.Sprintf("missing required field: %s", missing))
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return core.Transaction{}, errs.NewValidationError("amount must be a number")
	}

	date, err := time.Parse(dateLayout, *req.Date)
	if err != nil {
		return core.Transaction{}, errs.NewValidationError("date must be formatted YYYY-MM-DD")
	}

	t := core.Transaction{
		ID:          uuid.NewString(),
		Type:        core.TransactionType(*req.Type),
		Amount:      amount,
		Category:    core.NormalizeCategory(*req.Category),
		Description: *req.Description,
		Date:        date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, errs.NewValidationError(err.Error())
	}
	return t, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errs.NewValidationError("invalid JSON body"))
		return
	}

	tx, err := req.validate()
	if err != nil {
		respondError(w, r, err)
		return
	}
	tx.UserID = userID

	if err := s.deps.TxWriter.AddTransaction(r.Context(), tx); err != nil {
		respondError(w, r, fmt.Errorf("persist transaction: %w", err))
		return
	}

	// Mirror publishing is best effort; the transaction is already durable.
	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishTransactionCreated(r.Context(), tx.ID, tx.UserID); err != nil {
			slog.WarnContext(r.Context(), "Failed to publish transaction created event",
				"transaction_id", tx.ID, "error", err)
		}
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":     "transaction recorded",
		"transaction": toTransactionPayload(tx),
	})
}

func (s *Server) handleLatestTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, errs.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	txs, err := s.deps.TxReader.LatestTransactions(r.Context(), userID, limit)
	if err != nil {
		respondError(w, r, fmt.Errorf("list latest transactions: %w", err))
		return
	}

	payload := make([]transactionPayload, 0, len(txs))
	for _, tx := range txs {
		payload = append(payload, toTransactionPayload(tx))
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": payload})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	balance, err := s.deps.Reports.CurrentBalance(r.Context(), userID)
	if err != nil {
		respondError(w, r, fmt.Errorf("compute balance: %w", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"current_balance": balance.InexactFloat64()})
}
