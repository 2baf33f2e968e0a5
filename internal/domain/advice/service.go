package advice

import (
	"context"
	"log/slog"
	"strings"

	"github.com/agrosathi/agrosathi/internal/infra/llm/chatgpt"
	apperrors "github.com/agrosathi/agrosathi/pkg/errors"
	"github.com/agrosathi/agrosathi/pkg/logger"
	"github.com/agrosathi/agrosathi/pkg/metrics"
)

// Service turns diagnosis context into farmer facing advice.
type Service interface {
	Synthesize(ctx context.Context, adviceCtx Context, lang Language) (Bundle, error)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// TokenCounter estimates prompt size when the provider reports no usage.
type TokenCounter interface {
	Count(text string) int
}

type service struct {
	cfg     Config
	catalog *Catalog
	client  ChatClient
	counter TokenCounter
	logger  *slog.Logger
}

// NewService wires the advice synthesizer.
func NewService(cfg Config, catalog *Catalog, client ChatClient, counter TokenCounter, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		catalog: catalog,
		client:  client,
		counter: counter,
		logger:  logger.With("component", "advice.service"),
	}
}

func (s *service) Synthesize(ctx context.Context, adviceCtx Context, lang Language) (Bundle, error) {
	log := logger.FromContext(ctx, s.logger)
	lang = NormalizeLanguage(string(lang))

	prompt, err := s.catalog.Prompt(adviceCtx, lang)
	if err != nil {
		return Bundle{}, apperrors.Wrap(apperrors.CodeAdviceGenerationFailed, "failed to build advice prompt", err)
	}
	persona := s.catalog.Persona()

	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: persona},
			{Role: "user", Content: prompt},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return Bundle{}, apperrors.Wrap(apperrors.CodeAdviceGenerationFailed, "AI suggestion failed", err)
	}

	usage := metrics.TokenUsage{
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		TotalTokens:      completion.Usage.TotalTokens,
	}

	var content string
	if len(completion.Choices) > 0 {
		content = Clean(completion.Choices[0].Message.Content)
	}
	degraded := content == ""
	if degraded {
		log.Warn("advice generation degraded", "language", lang, "choices", len(completion.Choices))
		content = s.catalog.Apology(lang)
	} else if len(completion.Choices) > 0 && completion.Choices[0].FinishReason == "length" {
		log.Warn("advice hit the token ceiling", "language", lang, "max_tokens", s.cfg.MaxTokens)
	}

	if adviceCtx.Kind == KindImage {
		pack := s.catalog.pack(lang)
		content = NormalizePlan(content, pack.planHeading, pack.missingDay)
	}

	if usage.IsZero() && s.counter != nil {
		usage = metrics.TokenUsage{
			PromptTokens:     s.counter.Count(persona) + s.counter.Count(prompt),
			CompletionTokens: s.counter.Count(content),
			Estimated:        true,
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	log.Info("advice generated",
		"language", lang,
		"kind", kindName(adviceCtx.Kind),
		"degraded", degraded,
		"chars", len([]rune(content)),
		"total_tokens", usage.TotalTokens,
	)

	return Bundle{Text: strings.TrimSpace(content), Degraded: degraded, Usage: usage}, nil
}

func kindName(k Kind) string {
	if k == KindQuery {
		return "query"
	}
	return "image"
}
