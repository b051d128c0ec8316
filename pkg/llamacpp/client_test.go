package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateFacesStringContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen-vl", req.Model)
		assert.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"index":   0,
				"message": map[string]any{"role": "assistant", "content": `{"faces":[{"x":0.2,"y":0.1,"w":0.25,"h":0.3},]}`},
			}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)

	got, err := c.LocateFaces(context.Background(), "qwen-vl", "find faces", "aGVsbG8=")
	require.NoError(t, err)
	require.Len(t, got.Faces, 1)
	assert.InDelta(t, 0.25, got.Faces[0].W, 1e-9)
}

func TestSimpleQueryPartsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"role":    "assistant",
					"content": []map[string]any{{"type": "text", "text": "a person on a beach"}},
				},
			}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	got, err := c.SimpleQuery(context.Background(), "m", "what is this", "")
	require.NoError(t, err)
	assert.Equal(t, "a person on a beach", got)
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.LocateFaces(context.Background(), "m", "p", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNewClientValidatesScheme(t *testing.T) {
	_, err := NewClient("localhost:8080")
	assert.Error(t, err)
}
