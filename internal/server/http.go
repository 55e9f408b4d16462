package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

// ReceiptService is what the transports need from the receipt service.
type ReceiptService interface {
	Process(ctx context.Context, payload []byte) (*entity.ScoredReceipt, error)
	Points(ctx context.Context, id string) (int, error)
	Get(ctx context.Context, id string) (*entity.ScoredReceipt, error)
	Ping(ctx context.Context) error
}

// Exporter renders the stored receipts as a spreadsheet.
type Exporter interface {
	ExportXLSX(ctx context.Context) ([]byte, error)
}

type HTTPHandler struct {
	receipts ReceiptService
	exporter Exporter
	logger   *slog.Logger
}

type processResponse struct {
	ID string `json:"id"`
}

type pointsResponse struct {
	Points int `json:"points"`
}

type healthResponse struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
}

type errorResponse struct {
	Error     string                  `json:"error"`
	Code      string                  `json:"code"`
	Errors    common.ValidationErrors `json:"errors,omitempty"`
	ID        string                  `json:"id,omitempty"`
	RequestID string                  `json:"request_id,omitempty"`
}

// NewHTTPHandler builds the HTTP API with its middleware chain.
func NewHTTPHandler(receipts ReceiptService, exporter Exporter, srv common.ServerConfig, rl common.RateLimitConfig, logger *slog.Logger) http.Handler {
	h := &HTTPHandler{receipts: receipts, exporter: exporter, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /receipts/process", h.processReceipt)
	mux.HandleFunc("GET /receipts/export", h.exportReceipts)
	mux.HandleFunc("GET /receipts/{id}", h.getReceipt)
	mux.HandleFunc("GET /receipts/{id}/points", h.getPoints)
	mux.HandleFunc("GET /healthz", h.healthz)

	var handler http.Handler = mux
	handler = maxBodyMiddleware(srv.MaxBodyBytes)(handler)
	handler = rateLimitMiddleware(rl, logger)(handler)
	handler = accessLogMiddleware(logger)(handler)
	handler = requestIDMiddleware(logger)(handler)
	return handler
}

func (h *HTTPHandler) processReceipt(w http.ResponseWriter, r *http.Request) {
	log := common.LoggerFromContext(r.Context(), h.logger)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("request body too large", "limit", tooLarge.Limit)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large", Code: common.CodePayloadTooLarge})
			return
		}
		log.Warn("failed to read request body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "could not read request body", Code: common.CodeValidationFailed})
		return
	}

	rec, err := h.receipts.Process(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processResponse{ID: rec.ID.String()})
}

func (h *HTTPHandler) getPoints(w http.ResponseWriter, r *http.Request) {
	pts, err := h.receipts.Points(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pointsResponse{Points: pts})
}

func (h *HTTPHandler) getReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.receipts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *HTTPHandler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.receipts.Ping(r.Context()); err != nil {
		common.LoggerFromContext(r.Context(), h.logger).Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Code: common.CodeUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// writeServiceError maps receipt service errors onto status codes and bodies.
func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verrs common.ValidationErrors
		dup   *common.DuplicateError
	)
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "receipt is invalid",
			Code:   common.CodeValidationFailed,
			Errors: verrs,
		})
	case errors.As(err, &dup):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "receipt already submitted",
			Code:  common.CodeDuplicateReceipt,
			ID:    dup.ExistingID,
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "receipt not found", Code: common.CodeReceiptNotFound})
	default:
		common.LoggerFromContext(r.Context(), h.logger).Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "internal error",
			Code:      common.CodeInternal,
			RequestID: common.RequestIDFromContext(r.Context()),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
