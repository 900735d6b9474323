package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("", " ", "gpt", "embed")
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestEmbedOrdersByIndexAndSendsAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	client, err := New(server.URL+"/v1", "secret", "gpt", "embed")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	vectors, err := NewEmbedder(client).Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("expected vectors ordered by index, got %v", vectors)
	}
}

func TestCompleteReadsFirstChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Model    string              `json:"model"`
			Messages []map[string]string `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Model != "gpt" || len(payload.Messages) != 2 {
			t.Fatalf("unexpected payload %+v", payload)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Parking is free."}}]}`))
	}))
	defer server.Close()

	client, _ := New(server.URL, "secret", "gpt", "embed")
	answer, err := NewSynthesizer(client).Complete(context.Background(), "system", []domain.ContextItem{{Question: "Parking?", Answer: "Free"}}, "parking?")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if answer != "Parking is free." {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestCompleteUnauthorizedIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := New(server.URL, "bad", "gpt", "embed")
	_, err := NewSynthesizer(client).Complete(context.Background(), "system", nil, "hi")
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("401 must not be retryable: %v", err)
	}
}
