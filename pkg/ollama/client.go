package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/snapfx/pkg/client"
	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/modeljson"
	"github.com/menta2k/snapfx/pkg/types"
)

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

var _ client.VisionClient = (*Client)(nil)

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid ollama URL %q", ollamaURL)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "ollama URL %q needs a scheme and host", ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	// Create client with the specified URL, ignoring environment
	return &Client{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

// SimpleQuery sends a prompt and an image and returns the plain reply
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.chat(ctx, model, prompt, imgB64, nil)
}

// LocateFaces asks the model for face boxes and parses its JSON reply
func (c *Client) LocateFaces(ctx context.Context, model, prompt, imgB64 string) (*types.LocateResult, error) {
	// Face boxes should not vary between runs
	options := map[string]any{"temperature": 0}

	// Small MiniCPM-V builds need a larger context for the image tokens
	modelLower := strings.ToLower(model)
	if strings.Contains(modelLower, "minicpm-v") || strings.Contains(modelLower, "minicpmv") {
		options["num_ctx"] = 4096
	}

	reply, err := c.chat(ctx, model, prompt, imgB64, options)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply) == "" {
		return nil, errors.New(errors.ErrCodeBackendFailure, "empty response from ollama")
	}
	return modeljson.LocateResult(reply), nil
}

func (c *Client) chat(ctx context.Context, model, prompt, imgB64 string, options map[string]any) (string, error) {
	ctx, cancel := client.WithDefaultTimeout(ctx)
	defer cancel()

	msg := api.Message{Role: "user", Content: prompt}
	if imgB64 != "" {
		imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeMalformedInput, err, "decode base64 image")
		}
		msg.Images = []api.ImageData{api.ImageData(imgBytes)}
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{msg},
		Stream:   &streamFalse,
		Options:  options,
	}

	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBackendFailure, fmt.Errorf("ollama chat: %w", err), "query model %s", model)
	}
	return content.String(), nil
}
