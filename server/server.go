// Package server exposes the chat pipeline over HTTP: a server-sent-event
// stream endpoint, a synchronous fallback endpoint and a health probe.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"beruang/contract"
	"beruang/domain"
	apperrors "beruang/errors"
	"beruang/observability"
	"beruang/stream"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	log        *slog.Logger
	orch       *stream.Orchestrator
	classifier contract.Classifier
	txn        contract.TransactionClassifier
	metrics    *observability.Manager
	validate   *validator.Validate
	httpSrv    *http.Server
}

func New(log *slog.Logger, orch *stream.Orchestrator, classifier contract.Classifier, txn contract.TransactionClassifier, metrics *observability.Manager, addr string) *Server {
	s := &Server{
		log:        log,
		orch:       orch,
		classifier: classifier,
		txn:        txn,
		metrics:    metrics,
		validate:   validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/predict-transaction", s.handlePredictTransaction)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	log := s.log.With("request_id", uuid.NewString())
	log.Info("Chat stream request", "history_len", len(req.History))

	sink, err := newSSESink(w)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var eventSink contract.EventSink = sink
	if s.metrics != nil {
		s.metrics.RecordRequest()
		eventSink = s.metrics.WrapSink(sink)
	}

	if err := s.orch.Run(r.Context(), req, eventSink); err != nil {
		// The terminal frame already went out where it could; nothing
		// more can be written on this connection.
		log.Warn("Stream ended with error", "err", err)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	if s.metrics != nil {
		s.metrics.RecordRequest()
	}
	log := s.log.With("request_id", uuid.NewString())

	text, source, err := s.orch.Answer(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if err == apperrors.ErrNoRemoteClient {
			status = http.StatusServiceUnavailable
		}
		log.Error("Chat request failed", "err", err)
		writeJSON(w, status, map[string]string{"error": "could not produce a reply"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": text,
		"source":   source,
	})
}

type transactionRequest struct {
	Description string `json:"description" validate:"required"`
}

type transactionConfidence struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

type transactionPrediction struct {
	Category    string                `json:"category"`
	Subcategory string                `json:"subcategory"`
	Confidence  transactionConfidence `json:"confidence"`
	Note        string                `json:"note,omitempty"`
}

func (s *Server) handlePredictTransaction(w http.ResponseWriter, r *http.Request) {
	if s.txn == nil || !s.txn.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "transaction model not loaded"})
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil || strings.TrimSpace(req.Description) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "description is required"})
		return
	}

	pred, err := s.txn.Predict(r.Context(), req.Description)
	if err != nil {
		s.log.Error("Transaction prediction failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not classify transaction"})
		return
	}

	out := transactionPrediction{
		Category:    pred.Category,
		Subcategory: pred.Subcategory,
		Confidence: transactionConfidence{
			Category:    fmt.Sprintf("%.2f%%", pred.CategoryConfidence*100),
			Subcategory: fmt.Sprintf("%.2f%%", pred.SubcategoryConfidence*100),
		},
	}
	if pred.Fallback {
		out.Note = "Fallback triggered"
	}
	s.log.Info("Transaction classified",
		"description", req.Description,
		"category", out.Category,
		"subcategory", out.Subcategory)
	writeJSON(w, http.StatusOK, map[string]any{
		"input":      req.Description,
		"prediction": out,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                   "ok",
		"model_loaded":             s.classifier != nil && s.classifier.Ready(),
		"transaction_model_loaded": s.txn != nil && s.txn.Ready(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "metrics disabled"})
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (domain.ChatRequest, bool) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return req, false
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return req, false
	}
	// Whitespace-only passes the required validator but can never be
	// routed; reject it here, before any stream headers go out.
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
