// Package llamacpp talks to a llama.cpp server through its OpenAI-compatible
// chat completions endpoint.
package llamacpp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/menta2k/snapfx/pkg/client"
	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/modeljson"
	"github.com/menta2k/snapfx/pkg/types"
)

const (
	defaultURL      = "http://localhost:8080"
	completionsPath = "/v1/chat/completions"

	// llama.cpp ignores the key unless started with --api-key
	placeholderKey = "sk-no-key-required"
)

type Client struct {
	baseURL string
	api     openai.Client
}

var _ client.VisionClient = (*Client)(nil)

func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = defaultURL
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "llama.cpp URL %q must be http(s)", serverURL)
	}

	baseURL := strings.TrimSuffix(strings.TrimSuffix(serverURL, "/"), completionsPath)
	api := openai.NewClient(
		option.WithBaseURL(baseURL+"/v1/"),
		option.WithAPIKey(placeholderKey),
		option.WithHTTPClient(&http.Client{Timeout: client.DefaultTimeout}),
		option.WithMaxRetries(0),
	)
	return &Client{baseURL: baseURL, api: api}, nil
}

// SimpleQuery sends a prompt and an image and returns the plain reply
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    userMessage(prompt, imgB64),
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(2048),
		TopP:        openai.Float(0.9),
	})
}

// LocateFaces asks the model for face boxes and parses its JSON reply
func (c *Client) LocateFaces(ctx context.Context, model, prompt, imgB64 string) (*types.LocateResult, error) {
	reply, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    userMessage(prompt, imgB64),
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(1024),
	})
	if err != nil {
		return nil, err
	}
	return modeljson.LocateResult(reply), nil
}

// userMessage builds a single user turn with the prompt and an optional JPEG
func userMessage(prompt, imgB64 string) []openai.ChatCompletionMessageParamUnion {
	parts := []openai.ChatCompletionContentPartUnionParam{
		{OfText: &openai.ChatCompletionContentPartTextParam{Text: prompt}},
	}
	if imgB64 != "" {
		parts = append(parts, openai.ChatCompletionContentPartUnionParam{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
					URL: "data:image/jpeg;base64," + imgB64,
				},
			},
		})
	}
	return []openai.ChatCompletionMessageParamUnion{
		{OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: parts,
			},
		}},
	}
}

func (c *Client) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	ctx, cancel := client.WithDefaultTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBackendFailure, fmt.Errorf("llama.cpp chat: %w", err),
			"request to %s after %s", c.baseURL, time.Since(start).Round(time.Millisecond))
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrCodeBackendFailure, "no choices in llama.cpp response")
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New(errors.ErrCodeBackendFailure, "empty response from llama.cpp server")
	}
	return content, nil
}
