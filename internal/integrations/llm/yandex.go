// Package llm answers gardening questions with YandexGPT.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the Foundation Models completion endpoint.
const DefaultBaseURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

const notConfigured = "The agronomist is not configured right now."

// YandexGPT is a completion client. Failures come back as answer text.
type YandexGPT struct {
	apiKey   string
	folderID string
	baseURL  string
	client   *http.Client
	log      *zap.Logger
}

// New creates a client. An empty apiKey or folderID yields a client that
// answers with a "not configured" text.
func New(apiKey, folderID string, log *zap.Logger) *YandexGPT {
	return &YandexGPT{
		apiKey:   apiKey,
		folderID: folderID,
		baseURL:  DefaultBaseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// WithBaseURL points the client at another endpoint.
func (y *YandexGPT) WithBaseURL(u string) *YandexGPT {
	y.baseURL = u
	return y
}

type message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionRequest struct {
	ModelURI          string `json:"modelUri"`
	CompletionOptions struct {
		Stream      bool    `json:"stream"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"maxTokens"`
	} `json:"completionOptions"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Result struct {
		Alternatives []struct {
			Message message `json:"message"`
		} `json:"alternatives"`
	} `json:"result"`
}

// Ask answers question for a gardener in region.
func (y *YandexGPT) Ask(ctx context.Context, region, question string) string {
	if y.apiKey == "" || y.folderID == "" {
		return notConfigured
	}
	system := fmt.Sprintf("You are an agronomist consultant. Region: %s. Answer in Russian, step by step, plainly.", region)
	answer, err := y.complete(ctx, system, question)
	if err != nil {
		y.log.Warn("yandexgpt request failed", zap.Error(err))
		return "The agronomist could not answer: " + err.Error() + ". Try a simpler question or ask later."
	}
	return answer
}

func (y *YandexGPT) complete(ctx context.Context, system, user string) (string, error) {
	var body completionRequest
	body.ModelURI = "gpt://" + y.folderID + "/yandexgpt-lite"
	body.CompletionOptions.Temperature = 0.75
	body.CompletionOptions.MaxTokens = 1200
	body.Messages = []message{{Role: "system", Text: system}, {Role: "user", Text: user}}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Api-Key "+y.apiKey)

	resp, err := y.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Result.Alternatives) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(out.Result.Alternatives[0].Message.Text), nil
}
