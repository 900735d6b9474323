package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/retrieval"
)

const (
	langEN = "en"
	langZH = "zh"

	defaultProviderTimeout = 8 * time.Second
	maxContextItems        = 3
)

// ResponderConfig holds the canned messages and provider limits of the decision engine.
type ResponderConfig struct {
	GreetingMessages map[string]string
	FallbackMessages map[string]string
	SystemPrompt     string
	ProviderTimeout  time.Duration
}

func DefaultResponderConfig() ResponderConfig {
	return ResponderConfig{
		GreetingMessages: map[string]string{
			langEN: "Hello! Thanks for contacting us. How can I help with your stay?",
			langZH: "您好！感谢您的咨询，请问有什么可以帮您？",
		},
		FallbackMessages: map[string]string{
			langEN: "Sorry, I could not find an answer to that. Our host will get back to you shortly.",
			langZH: "抱歉，暂时没有找到相关答案，房东会尽快回复您。",
		},
		SystemPrompt: "You are a friendly homestay assistant answering guests on WhatsApp. " +
			"Answer only from the FAQ entries provided. If they do not cover the question, say the host will follow up. " +
			"Reply in the guest's language and keep it short.",
		ProviderTimeout: defaultProviderTimeout,
	}
}

func (c ResponderConfig) withDefaults() ResponderConfig {
	def := DefaultResponderConfig()
	out := c
	if len(out.GreetingMessages) == 0 {
		out.GreetingMessages = def.GreetingMessages
	}
	if len(out.FallbackMessages) == 0 {
		out.FallbackMessages = def.FallbackMessages
	}
	if strings.TrimSpace(out.SystemPrompt) == "" {
		out.SystemPrompt = def.SystemPrompt
	}
	if out.ProviderTimeout <= 0 {
		out.ProviderTimeout = def.ProviderTimeout
	}
	return out
}

// ResponderUseCase is the decision engine: greeting shortcut, FAQ-grounded
// synthesis or fallback message. A nil synthesizer means chat credentials are
// missing; a nil embedder means lexical retrieval only.
type ResponderUseCase struct {
	scorer      *retrieval.Scorer
	knowledge   ports.KnowledgeSource
	embedder    ports.Embedder
	synthesizer ports.AnswerSynthesizer
	cfg         ResponderConfig
	now         func() time.Time
}

func NewResponderUseCase(
	scorer *retrieval.Scorer,
	knowledge ports.KnowledgeSource,
	embedder ports.Embedder,
	synthesizer ports.AnswerSynthesizer,
	cfg ResponderConfig,
) *ResponderUseCase {
	return &ResponderUseCase{
		scorer:      scorer,
		knowledge:   knowledge,
		embedder:    embedder,
		synthesizer: synthesizer,
		cfg:         cfg.withDefaults(),
		now:         time.Now,
	}
}

func (uc *ResponderUseCase) Respond(ctx context.Context, query domain.Query) (*domain.MessageResult, error) {
	started := uc.now()
	message := strings.TrimSpace(query.Message)
	if message == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "respond", errors.New("message is required"))
	}

	lang := retrieval.DetectLanguage(message)
	result := &domain.MessageResult{
		ProcessingDetails: domain.ProcessingDetails{
			TopCandidates: []domain.CandidateTrace{},
			SearchMethod:  domain.SearchNone,
			Language:      lang,
		},
	}
	steps := &stepLog{}
	defer func() {
		result.ConfidenceLevel = domain.BucketConfidence(result.Confidence)
		result.ProcessingDetails.ProcessingSteps = steps.items
		result.ProcessingTimeMs = uc.now().Sub(started).Milliseconds()
	}()

	if uc.scorer.IsGreeting(message) {
		steps.add("greeting detected (%s)", lang)
		greeting := pickMessage(uc.cfg.GreetingMessages, lang)
		result.Answer = &greeting
		result.Confidence = 1.0
		result.ProcessingDetails.State = domain.StateGreeting
		result.ProcessingDetails.FinalDecision = domain.DecisionGreeting
		return result, nil
	}
	steps.add("greeting check: not a greeting")

	if uc.synthesizer == nil {
		steps.add("chat provider not configured")
		result.ProcessingDetails.FinalDecision = domain.DecisionMissingAPIKey
		result.ProcessingDetails.Reason = domain.WrapError(domain.ErrConfiguration, "respond", errors.New("chat provider credentials are missing")).Error()
		return result, nil
	}

	snapshot, err := uc.knowledge.Snapshot(ctx)
	if err != nil {
		steps.add("faq store read failed")
		result.ProcessingDetails.FinalDecision = domain.DecisionStoreUnavailable
		result.ProcessingDetails.Reason = fmt.Sprintf("load knowledge snapshot: %v", err)
		return result, nil
	}
	steps.add("loaded %d faqs and %d homestays", len(snapshot.FAQs), len(snapshot.Homestays))

	set, reranked := runRetrieval(ctx, uc.scorer, uc.embedder, uc.cfg.ProviderTimeout, message, snapshot, steps)
	result.ProcessingDetails.SearchMethod = set.Method
	result.ProcessingDetails.CandidatesFound = len(set.Candidates)
	result.ProcessingDetails.SkippedFAQs = set.Skipped
	result.ProcessingDetails.TopCandidates = traceCandidates(reranked)

	if len(reranked) == 0 || reranked[0].FinalScore <= 0 {
		steps.add("no candidate above threshold, using fallback message")
		fallback := pickMessage(uc.cfg.FallbackMessages, lang)
		result.Answer = &fallback
		result.ProcessingDetails.State = domain.StateNoMatch
		result.ProcessingDetails.FinalDecision = domain.DecisionNoMatch
		return result, nil
	}

	top := reranked[0]
	items := contextItems(reranked)
	steps.add("synthesizing answer from %d faq entries", len(items))

	answer, err := uc.synthesize(ctx, items, message)
	if err != nil {
		steps.add("chat model failed")
		result.ProcessingDetails.State = domain.StateMatched
		result.ProcessingDetails.FinalDecision = domain.DecisionChatFailed
		result.ProcessingDetails.Reason = err.Error()
		return result, nil
	}

	matched := top.FAQ.Question
	result.Answer = &answer
	result.MatchedQuestion = &matched
	result.Confidence = top.FinalScore
	result.ProcessingDetails.State = domain.StateMatched
	result.ProcessingDetails.FinalDecision = domain.DecisionMatched
	steps.add("matched faq %s with final score %.3f", top.FAQ.ID, top.FinalScore)
	return result, nil
}

func (uc *ResponderUseCase) synthesize(ctx context.Context, items []domain.ContextItem, message string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.cfg.ProviderTimeout)
	defer cancel()

	answer, err := uc.synthesizer.Complete(callCtx, uc.cfg.SystemPrompt, items, message)
	if err != nil {
		return "", domain.WrapError(domain.ErrProvider, "complete answer", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", domain.WrapError(domain.ErrProvider, "complete answer", errors.New("empty completion"))
	}
	return answer, nil
}

// runRetrieval is shared by the responder and the search use case.
func runRetrieval(
	ctx context.Context,
	scorer *retrieval.Scorer,
	embedder ports.Embedder,
	timeout time.Duration,
	query string,
	snapshot domain.KnowledgeSnapshot,
	steps *stepLog,
) (retrieval.CandidateSet, []domain.RerankedCandidate) {
	embedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	set := scorer.GenerateCandidates(embedCtx, query, snapshot.FAQs, embedder)
	if len(set.Skipped) > 0 {
		steps.add("skipped %d malformed faqs", len(set.Skipped))
	}
	if set.EmbedErr != nil {
		steps.add("embedding failed, using lexical fallback: %v", set.EmbedErr)
	}
	steps.add("%d of %d faqs above threshold via %s", len(set.Candidates), set.Considered, set.Method)

	reranked := scorer.Rerank(retrieval.RerankInput{
		Query:      query,
		Homestays:  snapshot.Homestays,
		Candidates: set.Candidates,
	})
	if len(reranked) > 0 {
		steps.add("reranked, top final score %.3f", reranked[0].FinalScore)
	}
	return set, reranked
}

func contextItems(reranked []domain.RerankedCandidate) []domain.ContextItem {
	n := min(len(reranked), maxContextItems)
	items := make([]domain.ContextItem, 0, n)
	for _, c := range reranked[:n] {
		items = append(items, domain.ContextItem{
			Question:   c.FAQ.Question,
			Answer:     c.FAQ.Answer,
			Confidence: c.FinalScore,
		})
	}
	return items
}

func traceCandidates(reranked []domain.RerankedCandidate) []domain.CandidateTrace {
	out := make([]domain.CandidateTrace, 0, len(reranked))
	for _, c := range reranked {
		out = append(out, domain.CandidateTrace{
			FAQID:           c.FAQ.ID,
			Question:        c.FAQ.Question,
			SimilarityScore: c.SimilarityScore,
			FinalScore:      c.FinalScore,
			Method:          c.Method,
			Signals:         c.Signals,
		})
	}
	return out
}

func pickMessage(messages map[string]string, lang string) string {
	if msg, ok := messages[lang]; ok && msg != "" {
		return msg
	}
	return messages[langEN]
}

type stepLog struct {
	items []string
}

func (l *stepLog) add(format string, args ...any) {
	l.items = append(l.items, fmt.Sprintf(format, args...))
}
