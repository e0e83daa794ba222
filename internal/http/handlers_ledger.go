package http

import (
	"errors"
	"log/slog"
	"net/http"

	"housetab/internal/core"
	"housetab/internal/services"
)

type createTransactionRequest struct {
	Date string `json:"date"`
	Item string `json:"item"`
	// Either amountCents or amount (decimal string, "12.34" or "12,34")
	// must be set.
	AmountCents int64  `json:"amountCents,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Payer       string `json:"payer"`
	Kind        string `json:"kind"`
}

type settleResponse struct {
	Settled   int    `json:"settled"`
	SettledAt string `json:"settledAt"`
}

type clearRequest struct {
	IDs []string `json:"ids"`
}

type clearResponse struct {
	Cleared int `json:"cleared"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	cents := req.AmountCents
	if cents == 0 && req.Amount != "" {
		cents, err = core.ParseDecimalToCents(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "amount must be a positive decimal")
			return
		}
	}

	draft := core.Draft{
		Date:   date,
		Item:   sanitizeInput(req.Item),
		Amount: core.Money{Cents: cents},
		Payer:  core.Payer(req.Payer),
		Kind:   core.Kind(req.Kind),
	}

	tx, err := s.ledger.Add(r.Context(), draft)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err, "tx_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	state, err := s.ledger.Balance(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Balance computation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	n, stamp, err := s.ledger.SettleAll(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNothingToSettle) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Settle failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to settle transactions")
		return
	}
	writeJSON(w, http.StatusOK, settleResponse{Settled: n, SettledAt: stamp})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := s.ledger.ClearSettled(r.Context(), req.IDs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoSelection):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrNothingSettled):
			writeError(w, http.StatusConflict, err.Error())
		default:
			slog.ErrorContext(r.Context(), "Clear failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to clear transactions")
		}
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Cleared: n})
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyItem) ||
		errors.Is(err, core.ErrItemTooLong) ||
		errors.Is(err, core.ErrInvalidPayer) ||
		errors.Is(err, core.ErrInvalidKind)
}
