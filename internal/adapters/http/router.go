package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
	"github.com/kirillkom/homestay-faq-assistant/internal/observability/metrics"
)

const (
	maxRequestBodyBytes     = 64 << 10
	messageLogWriteTimeout  = 2 * time.Second
	defaultBackpressureWait = 250 * time.Millisecond
)

type Options struct {
	Service     string
	Logger      *slog.Logger
	Metrics     *metrics.HTTPServerMetrics
	MessageLog  ports.MessageLogStore
	AdminAPIKey string

	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	responder ports.MessageResponder
	searcher  ports.FAQSearcher

	service     string
	logger      *slog.Logger
	metrics     *metrics.HTTPServerMetrics
	messageLog  ports.MessageLogStore
	adminAPIKey string

	limiter          *rate.Limiter
	maxInFlight      int
	backpressureWait time.Duration
}

func NewRouter(responder ports.MessageResponder, searcher ports.FAQSearcher, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	service := opts.Service
	if service == "" {
		service = "api"
	}
	wait := opts.BackpressureWait
	if wait <= 0 {
		wait = defaultBackpressureWait
	}

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		burst := max(opts.RateLimitBurst, 1)
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}

	return &Router{
		responder:        responder,
		searcher:         searcher,
		service:          service,
		logger:           logger,
		metrics:          opts.Metrics,
		messageLog:       opts.MessageLog,
		adminAPIKey:      opts.AdminAPIKey,
		limiter:          limiter,
		maxInFlight:      opts.MaxInFlight,
		backpressureWait: wait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.Handle("/v1/messages", rt.trafficControl(http.HandlerFunc(rt.postMessage)))
	mux.Handle("/v1/faqs/search", rt.trafficControl(
		adminAuthMiddleware(rt.adminAPIKey, http.HandlerFunc(rt.searchFAQs)),
	))

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) trafficControl(next http.Handler) http.Handler {
	return rateLimitMiddleware(backpressureMiddleware(next, rt.maxInFlight, rt.backpressureWait), rt.limiter)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type messageRequest struct {
	Message     string `json:"message"`
	PhoneNumber string `json:"phone_number"`
}

func (rt *Router) postMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := domain.Query{
		Message:     req.Message,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
	}
	result, err := rt.responder.Respond(r.Context(), query)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	requestID := requestIDFromContext(r.Context())
	rt.logMessage(requestID, result)
	if rt.metrics != nil {
		rt.metrics.RecordMessage(rt.service, metrics.MessageObservation{
			State:           string(result.ProcessingDetails.State),
			Decision:        result.ProcessingDetails.FinalDecision,
			SearchMethod:    string(result.ProcessingDetails.SearchMethod),
			ConfidenceLevel: string(result.ConfidenceLevel),
			Confidence:      result.Confidence,
			Candidates:      result.ProcessingDetails.CandidatesFound,
			Answered:        result.Answer != nil,
			Duration:        time.Duration(result.ProcessingTimeMs) * time.Millisecond,
		})
	}
	rt.appendMessageLog(r.Context(), requestID, query, result)

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) logMessage(requestID string, result *domain.MessageResult) {
	details := result.ProcessingDetails
	attrs := []any{
		"request_id", requestID,
		"final_decision", details.FinalDecision,
		"state", string(details.State),
		"search_method", string(details.SearchMethod),
		"language", details.Language,
		"candidates_found", details.CandidatesFound,
		"confidence", result.Confidence,
		"confidence_level", string(result.ConfidenceLevel),
		"answered", result.Answer != nil,
		"processing_time_ms", result.ProcessingTimeMs,
		"processing_steps", details.ProcessingSteps,
	}
	if details.Reason != "" {
		attrs = append(attrs, "reason", details.Reason)
	}
	if len(details.SkippedFAQs) > 0 {
		attrs = append(attrs, "skipped_faqs", details.SkippedFAQs)
	}

	switch details.FinalDecision {
	case domain.DecisionMissingAPIKey, domain.DecisionChatFailed, domain.DecisionStoreUnavailable:
		rt.logger.Warn("message_processed", attrs...)
	default:
		rt.logger.Info("message_processed", attrs...)
	}
}

// appendMessageLog is best effort; a failed write never fails the request.
func (rt *Router) appendMessageLog(ctx context.Context, requestID string, query domain.Query, result *domain.MessageResult) {
	if rt.messageLog == nil {
		return
	}
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), messageLogWriteTimeout)
	defer cancel()

	entry := &domain.MessageLog{
		ID:          uuid.NewString(),
		PhoneNumber: query.PhoneNumber,
		Message:     strings.TrimSpace(query.Message),
		Result:      *result,
		RequestID:   requestID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := rt.messageLog.AppendMessageLog(logCtx, entry); err != nil {
		rt.logger.Warn("message_log_failed", "request_id", requestID, "error", err)
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

func (rt *Router) searchFAQs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rt.searcher.Search(r.Context(), req.Query)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	rt.logger.Info("faq_search",
		"request_id", requestIDFromContext(r.Context()),
		"search_method", string(result.SearchMethod),
		"candidates", len(result.Candidates),
	)
	if rt.metrics != nil {
		rt.metrics.RecordSearch(rt.service, string(result.SearchMethod))
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("invalid json")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
