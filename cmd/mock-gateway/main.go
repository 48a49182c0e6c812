package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/conductionnl/balance-service/internal/logging"
)

// mock-gateway is an in-memory stand-in for the payment gateway used in
// local development. Payments are created open and stay open until the
// status hook flips them, mimicking a payer completing checkout.

type payment struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Amount      map[string]any `json:"amount"`
	Description string         `json:"description"`
	RedirectURL string         `json:"redirectUrl"`
	Links       map[string]any `json:"_links"`
}

type paymentStore struct {
	mu       sync.Mutex
	payments map[string]*payment
}

func main() {
	logging.Init("mock-gateway", "info", os.Getenv("APP_ENV"))

	store := &paymentStore{payments: make(map[string]*payment)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /v2/payments", store.create)
	mux.HandleFunc("GET /v2/payments/{id}", store.get)
	mux.HandleFunc("POST /v2/payments/{id}/status", store.setStatus)

	addr := ":8081"
	slog.Info("mock gateway started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func (s *paymentStore) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      map[string]any `json:"amount"`
		Description string         `json:"description"`
		RedirectURL string         `json:"redirectUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	p := &payment{
		ID:          "tr_" + uuid.NewString()[:8],
		Status:      "open",
		Amount:      req.Amount,
		Description: req.Description,
		RedirectURL: req.RedirectURL,
	}
	p.Links = map[string]any{
		"checkout": map[string]any{"href": "http://localhost:8081/checkout/" + p.ID},
	}

	s.mu.Lock()
	s.payments[p.ID] = p
	s.mu.Unlock()

	slog.Info("payment created", "payment_id", p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (s *paymentStore) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.payments[r.PathValue("id")]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// setStatus is the test hook standing in for the payer finishing or
// abandoning checkout.
func (s *paymentStore) setStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	switch req.Status {
	case "paid", "failed", "expired", "canceled":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	s.mu.Lock()
	p, ok := s.payments[r.PathValue("id")]
	if ok {
		p.Status = req.Status
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment not found"})
		return
	}

	slog.Info("payment status changed", "payment_id", p.ID, "status", p.Status)
	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
