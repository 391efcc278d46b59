package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/muliwe/go-triangle-classifier/internal/classifier"
	xlog "github.com/muliwe/go-triangle-classifier/internal/log"
	"github.com/muliwe/go-triangle-classifier/internal/logger"
	"github.com/muliwe/go-triangle-classifier/internal/metrics"
	"github.com/muliwe/go-triangle-classifier/internal/triangle"
)

const version = "1.0.0"

// maxBodyBytes bounds POST /classify bodies
const maxBodyBytes = 4 << 10

// Response represents a successful classification
type Response struct {
	Classification string         `json:"classification"`
	Sides          triangle.Sides `json:"sides"`
	Reason         string         `json:"reason"`
	RequestID      string         `json:"request_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Version        string         `json:"version"`
}

// ErrorResponse represents a rejected request
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HistoryResponse lists stored results
type HistoryResponse struct {
	Enabled bool                `json:"enabled"`
	Results []classifier.Result `json:"results"`
}

// StatsResponse holds stored result counts
type StatsResponse struct {
	Enabled bool           `json:"enabled"`
	Counts  map[string]int `json:"counts"`
}

// classifyRequest is the POST /classify body; pointers detect missing sides
type classifyRequest struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`
	C *float64 `json:"c"`
}

// HistoryStore persists results; *history.Store implements it
type HistoryStore interface {
	Record(ctx context.Context, r classifier.Result) error
	Recent(ctx context.Context, limit int) ([]classifier.Result, error)
	Counts(ctx context.Context) (map[string]int, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	classifier *classifier.Classifier
	logger     *logger.Logger
	history    HistoryStore
	quiet      bool // suppress per-classification console logging (useful for tests)
}

// NewHandler creates a new handler with dependencies. logger and history may be nil.
func NewHandler(cl *classifier.Classifier, l *logger.Logger, h HistoryStore) *Handler {
	return &Handler{
		classifier: cl,
		logger:     l,
		history:    h,
	}
}

// SetQuiet enables or disables console logging
func (h *Handler) SetQuiet(quiet bool) {
	h.quiet = quiet
}

// HandleClassify classifies sides from the query string (GET) or a JSON body (POST)
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := xlog.RequestIDFromContext(r.Context())

	sides, err := parseRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:     classifier.ErrorKindInvalidInput,
			Detail:    err.Error(),
			RequestID: requestID,
		})
		return
	}

	result := h.classify(r, sides)
	responseTime := time.Since(startTime).Milliseconds()
	h.record(r, result, responseTime)

	if !result.Valid {
		status := http.StatusUnprocessableEntity
		if result.ErrorKind == classifier.ErrorKindInvalidInput {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, ErrorResponse{
			Error:     result.ErrorKind,
			Detail:    result.Reason,
			RequestID: result.RequestID,
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Classification: result.Classification,
		Sides:          result.Sides,
		Reason:         result.Reason,
		RequestID:      result.RequestID,
		Timestamp:      result.Timestamp,
		Version:        version,
	})
}

// HandleHealth handles the health check endpoint
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version,
	})
}

// HandleDebug returns the full result for query sides without recording it
func (h *Handler) HandleDebug(w http.ResponseWriter, r *http.Request) {
	sides, err := sidesFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:     classifier.ErrorKindInvalidInput,
			Detail:    err.Error(),
			RequestID: xlog.RequestIDFromContext(r.Context()),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(h.classify(r, sides)); err != nil {
		l := xlog.FromContext(r.Context(), "server")
		l.Error().Err(err).Msg("encode debug response")
	}
}

// HandleHistory lists recent results, newest first
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, HistoryResponse{Results: []classifier.Result{}})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:     "invalid_limit",
				Detail:    fmt.Sprintf("limit must be a non-negative integer, got %q", raw),
				RequestID: xlog.RequestIDFromContext(r.Context()),
			})
			return
		}
		limit = n
	}

	results, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.internalError(w, r, "read history", err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Enabled: true, Results: results})
}

// HandleStats returns stored counts per kind and per rejection reason
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		counts := make(map[string]int, len(triangle.Kinds))
		for _, k := range triangle.Kinds {
			counts[k.String()] = 0
		}
		writeJSON(w, http.StatusOK, StatsResponse{Counts: counts})
		return
	}

	counts, err := h.history.Counts(r.Context())
	if err != nil {
		h.internalError(w, r, "read stats", err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Enabled: true, Counts: counts})
}

func (h *Handler) classify(r *http.Request, sides triangle.Sides) classifier.Result {
	result := h.classifier.Classify(sides)
	if id := xlog.RequestIDFromContext(r.Context()); id != "" {
		result.RequestID = id
	}
	return result
}

// record writes the result to the request log, history and metrics
func (h *Handler) record(r *http.Request, result classifier.Result, responseTime int64) {
	l := xlog.FromContext(r.Context(), "server")
	metrics.RecordResult(result)

	if h.logger != nil {
		if err := h.logger.LogResult(result, r.RemoteAddr, responseTime); err != nil {
			l.Error().Err(err).Msg("write request log")
		}
	}
	if h.history != nil {
		if err := h.history.Record(r.Context(), result); err != nil {
			l.Error().Err(err).Msg("record history")
		}
	}

	if !h.quiet {
		l.Info().
			Floats64("sides", []float64{result.Sides.A, result.Sides.B, result.Sides.C}).
			Str("classification", result.Classification).
			Str("error_kind", result.ErrorKind).
			Int64("response_time_ms", responseTime).
			Msg("classified")
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, what string, err error) {
	l := xlog.FromContext(r.Context(), "server")
	l.Error().Err(err).Msg(what)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:     "internal_error",
		Detail:    what + " failed",
		RequestID: xlog.RequestIDFromContext(r.Context()),
	})
}

func parseRequest(r *http.Request) (triangle.Sides, error) {
	if r.Method == http.MethodPost {
		return sidesFromBody(r)
	}
	return sidesFromQuery(r)
}

func sidesFromQuery(r *http.Request) (triangle.Sides, error) {
	q := r.URL.Query()
	raw := make([]string, 0, 3)
	for _, key := range []string{"a", "b", "c"} {
		v := q.Get(key)
		if v == "" {
			return triangle.Sides{}, fmt.Errorf("missing query parameter %q: %w", key, triangle.ErrInvalidInput)
		}
		raw = append(raw, v)
	}
	return classifier.ParseSides(raw)
}

func sidesFromBody(r *http.Request) (triangle.Sides, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var req classifyRequest
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return triangle.Sides{}, fmt.Errorf("empty request body: %w", triangle.ErrInvalidInput)
		}
		return triangle.Sides{}, fmt.Errorf("decode request body: %v: %w", err, triangle.ErrInvalidInput)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return triangle.Sides{}, fmt.Errorf("request body must hold a single JSON object: %w", triangle.ErrInvalidInput)
	}
	if req.A == nil || req.B == nil || req.C == nil {
		return triangle.Sides{}, fmt.Errorf("request body needs sides a, b and c: %w", triangle.ErrInvalidInput)
	}
	return triangle.Sides{A: *req.A, B: *req.B, C: *req.C}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l := xlog.WithComponent("server")
		l.Error().Err(err).Msg("encode response")
	}
}
