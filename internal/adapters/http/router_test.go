package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/observability/metrics"
)

type responderFake struct {
	result *domain.MessageResult
	err    error
	got    domain.Query
}

func (f *responderFake) Respond(_ context.Context, query domain.Query) (*domain.MessageResult, error) {
	f.got = query
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type searcherFake struct {
	result *domain.SearchResult
	err    error
}

func (f *searcherFake) Search(_ context.Context, query string) (*domain.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	out.Query = query
	return &out, nil
}

type messageLogFake struct {
	mu      sync.Mutex
	entries []domain.MessageLog
	err     error
}

func (f *messageLogFake) AppendMessageLog(_ context.Context, entry *domain.MessageLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func matchedResult() *domain.MessageResult {
	answer := "Check-in is from 3pm."
	question := "What time is check-in?"
	return &domain.MessageResult{
		Answer:          &answer,
		Confidence:      0.5,
		ConfidenceLevel: domain.ConfidenceMedium,
		MatchedQuestion: &question,
		ProcessingDetails: domain.ProcessingDetails{
			CandidatesFound: 1,
			TopCandidates:   []domain.CandidateTrace{{FAQID: "faq-1", FinalScore: 0.5}},
			SearchMethod:    domain.SearchLexical,
			FinalDecision:   domain.DecisionMatched,
			State:           domain.StateMatched,
		},
	}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPostMessageReturnsResultContract(t *testing.T) {
	responder := &responderFake{result: matchedResult()}
	logs := &messageLogFake{}
	handler := NewRouter(responder, &searcherFake{}, Options{
		Logger:     discardLogger(),
		Metrics:    metrics.NewHTTPServerMetrics("api"),
		MessageLog: logs,
	}).Handler()

	rec := postJSON(t, handler, "/v1/messages", map[string]string{
		"message":      "what time is check-in",
		"phone_number": " +60123456789 ",
	}, map[string]string{requestIDHeader: "req-1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["answer"] != "Check-in is from 3pm." || payload["confidence_level"] != "Medium" {
		t.Fatalf("unexpected payload %v", payload)
	}
	details, ok := payload["processing_details"].(map[string]any)
	if !ok || details["final_decision"] != domain.DecisionMatched {
		t.Fatalf("expected processing details with final decision, got %v", payload["processing_details"])
	}
	if responder.got.PhoneNumber != "+60123456789" {
		t.Fatalf("expected trimmed phone number, got %q", responder.got.PhoneNumber)
	}
	if len(logs.entries) != 1 || logs.entries[0].RequestID != "req-1" || logs.entries[0].ID == "" {
		t.Fatalf("expected one message log with request id, got %+v", logs.entries)
	}
	if rec.Header().Get(requestIDHeader) != "req-1" {
		t.Fatalf("expected request id echoed")
	}
}

func TestPostMessageNullAnswerIsSerialized(t *testing.T) {
	result := &domain.MessageResult{
		ConfidenceLevel: domain.ConfidenceLow,
		ProcessingDetails: domain.ProcessingDetails{
			TopCandidates: []domain.CandidateTrace{},
			SearchMethod:  domain.SearchNone,
			FinalDecision: domain.DecisionMissingAPIKey,
		},
	}
	handler := NewRouter(&responderFake{result: result}, &searcherFake{}, Options{Logger: discardLogger()}).Handler()

	rec := postJSON(t, handler, "/v1/messages", map[string]string{"message": "wifi password?"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"answer":null`) {
		t.Fatalf("expected explicit null answer, got %s", rec.Body.String())
	}
}

func TestPostMessageLogFailureDoesNotFailRequest(t *testing.T) {
	handler := NewRouter(&responderFake{result: matchedResult()}, &searcherFake{}, Options{
		Logger:     discardLogger(),
		MessageLog: &messageLogFake{err: errors.New("db down")},
	}).Handler()

	rec := postJSON(t, handler, "/v1/messages", map[string]string{"message": "check in"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite log failure, got %d", rec.Code)
	}
}

func TestPostMessageMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "invalid input", err: domain.WrapError(domain.ErrInvalidInput, "respond", errors.New("message is required")), status: http.StatusBadRequest},
		{name: "temporary", err: domain.WrapError(domain.ErrTemporary, "respond", errors.New("busy")), status: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewRouter(&responderFake{err: tc.err}, &searcherFake{}, Options{Logger: discardLogger()}).Handler()
			rec := postJSON(t, handler, "/v1/messages", map[string]string{"message": "x"}, nil)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestPostMessageRejectsBadRequests(t *testing.T) {
	handler := NewRouter(&responderFake{result: matchedResult()}, &searcherFake{}, Options{Logger: discardLogger()}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestSearchRequiresAdminToken(t *testing.T) {
	searcher := &searcherFake{result: &domain.SearchResult{
		SearchMethod: domain.SearchLexical,
		Candidates:   []domain.CandidateTrace{{FAQID: "faq-1", FinalScore: 0.49}},
	}}
	handler := NewRouter(&responderFake{}, searcher, Options{
		Logger:      discardLogger(),
		AdminAPIKey: "secret",
	}).Handler()

	rec := postJSON(t, handler, "/v1/faqs/search", map[string]string{"query": "parking"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = postJSON(t, handler, "/v1/faqs/search", map[string]string{"query": "parking"}, map[string]string{
		"Authorization": "Bearer secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	var payload domain.SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if payload.Query != "parking" || len(payload.Candidates) != 1 {
		t.Fatalf("unexpected search payload %+v", payload)
	}
}

func TestSearchStoreOutageIsServiceUnavailable(t *testing.T) {
	searcher := &searcherFake{err: domain.WrapError(domain.ErrTemporary, "search faqs", errors.New("db down"))}
	handler := NewRouter(&responderFake{}, searcher, Options{Logger: discardLogger()}).Handler()

	rec := postJSON(t, handler, "/v1/faqs/search", map[string]string{"query": "parking"}, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	handler := NewRouter(&responderFake{}, &searcherFake{}, Options{
		Logger:  discardLogger(),
		Metrics: metrics.NewHTTPServerMetrics("api"),
	}).Handler()

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", path, rec.Code)
		}
	}
}

func TestIsAuthorizedBearerHeader(t *testing.T) {
	if !isAuthorizedBearerHeader("Bearer  token ", "token") {
		t.Fatalf("expected trimmed token to match")
	}
	if isAuthorizedBearerHeader("Basic token", "token") {
		t.Fatalf("expected non-bearer scheme rejected")
	}
	if isAuthorizedBearerHeader("Bearer token", "") {
		t.Fatalf("expected empty expected token rejected")
	}
}
