package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/snapfx/pkg/errors"
)

// request is the subset of a chat completion request the tests inspect
type request struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Messages    []struct {
		Role    string           `json:"role"`
		Content []map[string]any `json:"content"`
	} `json:"messages"`
}

func newServer(t *testing.T, content string, seen *request) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, completionsPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "local",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)

	c, err = NewClient("http://gpu:8080/v1/chat/completions")
	require.NoError(t, err)
	assert.Equal(t, "http://gpu:8080", c.baseURL)

	_, err = NewClient("gpu:8080")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestLocateFaces(t *testing.T) {
	var seen request
	srv := newServer(t, `Here you go: {"faces":[{"label":"face","confidence":0.7,"box":{"x":0.1,"y":0.2,"w":0.3,"h":0.4}},],}`, &seen)
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	res, err := c.LocateFaces(context.Background(), "qwen2-vl", "find faces", "QUJD")
	require.NoError(t, err)
	require.Len(t, res.Faces, 1)
	assert.Equal(t, 0.4, res.Faces[0].Box.H)

	assert.Equal(t, "qwen2-vl", seen.Model)
	require.NotNil(t, seen.Temperature)
	assert.Equal(t, 0.0, *seen.Temperature)
	assert.Equal(t, 1024, seen.MaxTokens)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "user", seen.Messages[0].Role)
	parts := seen.Messages[0].Content
	require.Len(t, parts, 2)
	assert.Equal(t, "find faces", parts[0]["text"])
	image := parts[1]["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,QUJD", image["url"])
}

func TestSimpleQueryWithoutImage(t *testing.T) {
	var seen request
	srv := newServer(t, "a dog", &seen)
	defer srv.Close()

	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)
	reply, err := c.SimpleQuery(context.Background(), "m", "what?", "")
	require.NoError(t, err)
	assert.Equal(t, "a dog", reply)
	require.Len(t, seen.Messages, 1)
	assert.Len(t, seen.Messages[0].Content, 1)
	assert.Equal(t, 2048, seen.MaxTokens)
}

func TestEmptyAndFailingResponses(t *testing.T) {
	srv := newServer(t, "  ", nil)
	defer srv.Close()
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.SimpleQuery(context.Background(), "m", "what?", "")
	assert.True(t, errors.Is(err, errors.ErrCodeBackendFailure))

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "loading model", http.StatusServiceUnavailable)
	}))
	defer failing.Close()
	c, err = NewClient(failing.URL)
	require.NoError(t, err)
	_, err = c.LocateFaces(context.Background(), "m", "find faces", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeBackendFailure))
	assert.Contains(t, err.Error(), "503")
}
