package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter wires the handler's routes under /api/v1 plus /health and
// /metrics.
func NewRouter(h *Handler, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, Logger(log), Recovery(log), Metrics)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{id}/deactivate", h.DeactivateAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{id}/transactions", h.AppendTransaction).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{id}/transactions", h.ListTransactions).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/transfers", h.ListTransfers).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/imports", h.ImportStatement).Methods(http.MethodPost)
	v1.HandleFunc("/transactions/{id}", h.GetTransaction).Methods(http.MethodGet)
	v1.HandleFunc("/transactions/{id}", h.AmendTransaction).Methods(http.MethodPut)
	v1.HandleFunc("/transactions/{id}", h.RemoveTransaction).Methods(http.MethodDelete)
	v1.HandleFunc("/transfers", h.CreateTransfer).Methods(http.MethodPost)
	v1.HandleFunc("/transfers/{id}", h.GetTransfer).Methods(http.MethodGet)
	v1.HandleFunc("/transfers/{id}", h.UpdateTransfer).Methods(http.MethodPut)
	v1.HandleFunc("/transfers/{id}", h.ReverseTransfer).Methods(http.MethodDelete)

	return r
}
