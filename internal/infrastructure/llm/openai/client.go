package openai

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/llm"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/resilience"
)

const providerName = "openai"

// Client talks to any OpenAI-compatible /v1 API.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

// New fails with ErrConfiguration when no API key is set.
func New(baseURL, apiKey, chatModel, embedModel string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "openai client", errors.New("OPENAI_API_KEY is empty"))
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.openai.com/v1"
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.post(ctx, "/embeddings", request, &response, "embeddings"); err != nil {
		return nil, err
	}

	sort.SliceStable(response.Data, func(i, j int) bool {
		return response.Data[i].Index < response.Data[j].Index
	})
	out := make([][]float32, 0, len(response.Data))
	for _, item := range response.Data {
		out = append(out, item.Embedding)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, domain.WrapError(domain.ErrProvider, "openai embeddings", errors.New("empty embedding result"))
	}
	return vectors[0], nil
}

type Synthesizer struct {
	client *Client
}

func NewSynthesizer(client *Client) *Synthesizer {
	return &Synthesizer{client: client}
}

func (s *Synthesizer) Complete(ctx context.Context, systemPrompt string, items []domain.ContextItem, userMessage string) (string, error) {
	request := map[string]any{
		"model":       s.client.chatModel,
		"temperature": 0.2,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": llm.GroundedUserMessage(items, userMessage)},
		},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := s.client.post(ctx, "/chat/completions", request, &response, "chat"); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", domain.WrapError(domain.ErrProvider, "openai chat", errors.New("no choices returned"))
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any, operation string) error {
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	call := func(callCtx context.Context) error {
		return llm.PostJSON(callCtx, c.httpClient, providerName, c.baseURL+path, headers, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, providerName+"."+operation, call, llm.ClassifyError)
	} else {
		err = call(ctx)
	}
	return llm.WrapProviderError(providerName+" "+operation, err)
}
