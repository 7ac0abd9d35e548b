package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/buildinfo"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/transfer"
)

// maxStatementSize bounds uploaded statements.
const maxStatementSize = 32 << 20

// Handler serves the ledger, transfer and import operations over HTTP.
type Handler struct {
	accounts  *accounts.Service
	ledger    *ledger.Service
	transfers *transfer.Coordinator
	importer  *importer.Reconciler
}

// NewHandler creates a Handler.
func NewHandler(a *accounts.Service, l *ledger.Service, t *transfer.Coordinator, i *importer.Reconciler) *Handler {
	return &Handler{accounts: a, ledger: l, transfers: t, importer: i}
}

type createAccountRequest struct {
	Bank string `json:"bank"`
	Name string `json:"name"`
}

type transactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	AccountID   uint            `json:"account_id"`
	Description string          `json:"description"`
	Recipient   string          `json:"recipient"`
	Date        string          `json:"date"`
}

type transferRequest struct {
	SourceAccountID uint            `json:"source_account_id"`
	TargetAccountID uint            `json:"target_account_id"`
	Value           decimal.Decimal `json:"value"`
	Description     string          `json:"description"`
	Date            string          `json:"date"`
}

type ledgerResponse struct {
	AccountID    uint                `json:"account_id"`
	Balance      decimal.Decimal     `json:"balance"`
	Transactions []model.Transaction `json:"transactions"`
}

// Health reports liveness and the build version.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.String()})
}

// CreateAccount handles POST /accounts.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Bank == "" || req.Name == "" {
		WriteError(w, http.StatusBadRequest, "bank and name are required")
		return
	}
	acct, err := h.accounts.Create(r.Context(), req.Bank, req.Name)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, acct)
}

// DeactivateAccount handles POST /accounts/{id}/deactivate.
func (h *Handler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Deactivate(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AppendTransaction handles POST /accounts/{id}/transactions.
func (h *Handler) AppendTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := h.ledger.Append(r.Context(), ledger.AppendParams{
		AccountID:   id,
		Amount:      req.Amount,
		Description: req.Description,
		Recipient:   req.Recipient,
		Date:        date,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, txn)
}

// ListTransactions handles GET /accounts/{id}/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.ledger.Entries(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	resp := ledgerResponse{AccountID: id, Balance: decimal.Zero, Transactions: entries}
	if len(entries) > 0 {
		resp.Balance = entries[len(entries)-1].Balance
	}
	if resp.Transactions == nil {
		resp.Transactions = []model.Transaction{}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetTransaction handles GET /transactions/{id}.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	txn, err := h.ledger.Transaction(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, txn)
}

// AmendTransaction handles PUT /transactions/{id}.
func (h *Handler) AmendTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := h.ledger.Amend(r.Context(), ledger.AmendParams{
		ID:          id,
		Amount:      req.Amount,
		AccountID:   req.AccountID,
		Description: req.Description,
		Recipient:   req.Recipient,
		Date:        date,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, txn)
}

// RemoveTransaction handles DELETE /transactions/{id}.
func (h *Handler) RemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.Remove(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTransfer handles POST /transfers.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	p, ok := transferParams(w, r)
	if !ok {
		return
	}
	id, err := h.transfers.Create(r.Context(), p)
	transferOps.WithLabelValues("create", result(err)).Inc()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	h.writeTransfer(w, r, http.StatusCreated, id)
}

// ListTransfers handles GET /accounts/{id}/transfers.
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	transfers, err := h.transfers.List(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, transfers)
}

// GetTransfer handles GET /transfers/{id}.
func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	h.writeTransfer(w, r, http.StatusOK, mux.Vars(r)["id"])
}

// UpdateTransfer handles PUT /transfers/{id}.
func (h *Handler) UpdateTransfer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := transferParams(w, r)
	if !ok {
		return
	}
	err := h.transfers.Update(r.Context(), id, p)
	transferOps.WithLabelValues("update", result(err)).Inc()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	h.writeTransfer(w, r, http.StatusOK, id)
}

// ReverseTransfer handles DELETE /transfers/{id}.
func (h *Handler) ReverseTransfer(w http.ResponseWriter, r *http.Request) {
	err := h.transfers.Reverse(r.Context(), mux.Vars(r)["id"])
	transferOps.WithLabelValues("reverse", result(err)).Inc()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportStatement handles POST /accounts/{id}/imports. The statement is the
// raw request body, or the "transactions" field of a multipart form.
func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	raw, err := readStatement(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.importer.Import(r.Context(), id, raw)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	importRows.WithLabelValues("created").Add(float64(res.Created))
	importRows.WithLabelValues("duplicate").Add(float64(res.Duplicates))
	importRows.WithLabelValues("skipped").Add(float64(res.Skipped))
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) writeTransfer(w http.ResponseWriter, r *http.Request, status int, id string) {
	tr, err := h.transfers.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	WriteJSON(w, status, tr)
}

func transferParams(w http.ResponseWriter, r *http.Request) (transfer.Params, bool) {
	var req transferRequest
	if !decode(w, r, &req) {
		return transfer.Params{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return transfer.Params{}, false
	}
	return transfer.Params{
		Source:      req.SourceAccountID,
		Target:      req.TargetAccountID,
		Value:       req.Value,
		Description: req.Description,
		Date:        date,
	}, true
}

func readStatement(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxStatementSize)

	if err := r.ParseMultipartForm(maxStatementSize); err == nil {
		f, _, err := r.FormFile("transactions")
		if err != nil {
			return nil, fmt.Errorf("multipart field %q: %w", "transactions", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	} else if !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("reading form: %w", err)
	}
	return io.ReadAll(r.Body)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid id %q", raw))
		return 0, false
	}
	return uint(id), true
}

// parseDate accepts an empty string, a calendar date or an RFC 3339 time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC(), nil
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidReference), errors.Is(err, model.ErrInvalidTransfer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInactiveAccount), errors.Is(err, model.ErrTransferLeg):
		return http.StatusConflict
	case errors.Is(err, model.ErrDecodeFailure):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		WriteError(w, status, "internal server error")
		return
	}
	WriteError(w, status, err.Error())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
