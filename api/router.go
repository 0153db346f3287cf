package api

import (
	// Go Internal Packages
	"net/http"

	// External Packages
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	gw := r.PathPrefix("/api/gateway").Subrouter()
	gw.HandleFunc("/authorize", h.Authorize).Methods(http.MethodPost)
	gw.HandleFunc("/capture", h.Capture).Methods(http.MethodPost)
	gw.HandleFunc("/refund", h.Refund).Methods(http.MethodPost)
	gw.HandleFunc("/void", h.Void).Methods(http.MethodPost)
	gw.HandleFunc("/transactions/{id}", h.GetTransaction).Methods(http.MethodGet)

	return r
}
