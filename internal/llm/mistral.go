package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	connectTimeout = 3 * time.Second
	requestTimeout = 30 * time.Second

	completionTemperature = 0.7
	completionMaxTokens   = 1000
)

// MistralClient talks to Mistral's OpenAI-compatible chat completions API.
type MistralClient struct {
	client *openai.Client
	model  string
}

func NewMistral(apiKey, baseURL, model string) *MistralClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	dialer := &net.Dialer{Timeout: connectTimeout}
	config.HTTPClient = &http.Client{
		Timeout:   requestTimeout,
		Transport: &http.Transport{DialContext: dialer.DialContext},
	}
	return &MistralClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *MistralClient) Complete(ctx context.Context, prompt string, history []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Kind: FailureGeneric, Err: fmt.Errorf("response contains no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return &Error{Kind: FailureAuth, Err: err}
		}
		return &Error{Kind: FailureGeneric, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: FailureTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: FailureTimeout, Err: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return &Error{Kind: FailureConnection, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: FailureConnection, Err: err}
	}
	return &Error{Kind: FailureGeneric, Err: err}
}
