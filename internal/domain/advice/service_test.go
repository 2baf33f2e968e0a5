package advice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agrosathi/agrosathi/internal/infra/llm/chatgpt"
	apperrors "github.com/agrosathi/agrosathi/pkg/errors"
)

const markdownAdvice = `**Disease Name:**
Leaf Blight 🌿

**Symptoms:**
* Brown lesions on leaves

### 7-Day Treatment Plan:
- Day 1 - Remove infected leaves
- Day 2 - Spray mancozeb
- Day 3 - Monitor
- Day 4 - Spray again
- Day 5 - Improve drainage
- Day 6 - Check new growth
- Day 7 - Apply organic manure

__Weather Considerations:__
Spray in the early morning.

Preventive Measures After Recovery:
Rotate crops.`

func TestSynthesizeImageAdviceAllLanguages(t *testing.T) {
	for _, lang := range []Language{English, Hindi, Marathi} {
		t.Run(string(lang), func(t *testing.T) {
			client := &stubChatClient{resp: completion(markdownAdvice)}
			svc := newServiceUnderTest(t, client)

			bundle, err := svc.Synthesize(context.Background(), ImageContext("Mumbai", "31°C", "Leaf Blight"), lang)
			require.NoError(t, err)
			require.False(t, bundle.Degraded)
			require.Contains(t, bundle.Text, "Disease Name:\nLeaf Blight")
			requireSevenDays(t, bundle.Text)
			requireNoMarkup(t, bundle.Text)
			require.NotContains(t, bundle.Text, "🌿")

			require.Equal(t, "gpt-test", client.last.Model)
			require.Equal(t, 900, client.last.MaxTokens)
			require.Len(t, client.last.Messages, 2)
			require.Equal(t, "system", client.last.Messages[0].Role)
			require.Contains(t, client.last.Messages[1].Content, "Leaf Blight")
			require.Equal(t, 42, bundle.Usage.TotalTokens)
		})
	}
}

func TestSynthesizeUnknownLanguageBehavesLikeEnglish(t *testing.T) {
	enClient := &stubChatClient{resp: completion(markdownAdvice)}
	en, err := newServiceUnderTest(t, enClient).Synthesize(context.Background(), ImageContext("Pune", "--°C", "Early blight"), English)
	require.NoError(t, err)

	otherClient := &stubChatClient{resp: completion(markdownAdvice)}
	other, err := newServiceUnderTest(t, otherClient).Synthesize(context.Background(), ImageContext("Pune", "--°C", "Early blight"), Language("fr"))
	require.NoError(t, err)

	require.Equal(t, en, other)
	require.Equal(t, enClient.last, otherClient.last)
}

func TestSynthesizeQueryAdvice(t *testing.T) {
	client := &stubChatClient{resp: completion("**Causes:** fungus\n**Treatment:** neem oil")}
	svc := newServiceUnderTest(t, client)

	bundle, err := svc.Synthesize(context.Background(), QueryContext("my tomato leaves have yellow spots"), Hindi)
	require.NoError(t, err)
	require.Equal(t, "Causes: fungus\nTreatment: neem oil", bundle.Text)
	require.Contains(t, client.last.Messages[1].Content, `"my tomato leaves have yellow spots"`)
	require.Contains(t, client.last.Messages[1].Content, "किसान ने कहा")
	require.Zero(t, CountDayLines(bundle.Text))
}

func TestSynthesizeTransportFailure(t *testing.T) {
	svc := newServiceUnderTest(t, &stubChatClient{err: errors.New("status=401")})

	_, err := svc.Synthesize(context.Background(), ImageContext("Mumbai", "31°C", "Leaf Blight"), English)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeAdviceGenerationFailed))
}

func TestSynthesizeDegradedResponse(t *testing.T) {
	for _, resp := range []chatgpt.ChatCompletionResponse{{}, completion("  **  ")} {
		svc := newServiceUnderTest(t, &stubChatClient{resp: resp})

		bundle, err := svc.Synthesize(context.Background(), ImageContext("Mumbai", "31°C", "Leaf Blight"), Marathi)
		require.NoError(t, err)
		require.True(t, bundle.Degraded)
		require.True(t, strings.HasPrefix(bundle.Text, "सल्ला तयार करता आला नाही"))
		requireSevenDays(t, bundle.Text)
	}
}

func TestSynthesizeEstimatesUsageWhenMissing(t *testing.T) {
	resp := completion("Causes: fungus")
	resp.Usage = chatgpt.Usage{}
	svc := newServiceUnderTest(t, &stubChatClient{resp: resp})

	bundle, err := svc.Synthesize(context.Background(), QueryContext("yellow leaves"), English)
	require.NoError(t, err)
	require.True(t, bundle.Usage.Estimated)
	require.Positive(t, bundle.Usage.PromptTokens)
	require.Equal(t, 2, bundle.Usage.CompletionTokens)
}

func newServiceUnderTest(t *testing.T, client ChatClient) Service {
	t.Helper()
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	cfg := Config{Model: "gpt-test", Temperature: 0.2, MaxTokens: 900}
	return NewService(cfg, catalog, client, wordCounter{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func completion(content string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []chatgpt.Choice{{Message: chatgpt.Message{Role: "assistant", Content: content}, FinishReason: "stop"}},
		Usage:   chatgpt.Usage{PromptTokens: 12, CompletionTokens: 30, TotalTokens: 42},
	}
}

type stubChatClient struct {
	resp  chatgpt.ChatCompletionResponse
	err   error
	last  chatgpt.ChatCompletionRequest
	calls int
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return chatgpt.ChatCompletionResponse{}, s.err
	}
	return s.resp, nil
}

type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}
