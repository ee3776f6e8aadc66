package apiframe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates a Client pointing at a test HTTP server.
func newTestClient(server *httptest.Server) *Client {
	return New(Options{
		APIKey:     "test-key",
		BaseURL:    server.URL + "/",
		HTTPClient: server.Client(),
	})
}

func TestImagine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/imagine", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ImagineRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "calm desk --style raw", req.Prompt)
		assert.Equal(t, "16:9", req.AspectRatio)

		json.NewEncoder(w).Encode(ImagineResponse{TaskID: "task-001"})
	}))
	defer server.Close()

	resp, err := newTestClient(server).Imagine(context.Background(), ImagineRequest{Prompt: "calm desk --style raw", AspectRatio: "16:9"})
	require.NoError(t, err)
	assert.Equal(t, "task-001", resp.TaskID)
}

func TestImagineStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"msg":"Invalid API key"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Imagine(context.Background(), ImagineRequest{Prompt: "x"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Contains(t, statusErr.Body, "Invalid API key")
}

func TestImagineResponseReason(t *testing.T) {
	var resp ImagineResponse
	body := `{"errors":[{"msg":"Banned prompt"},"quota exhausted",{"code":7}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	assert.Empty(t, resp.TaskID)
	assert.Equal(t, `Banned prompt; quota exhausted; {"code":7}`, resp.Reason())
	assert.Empty(t, ImagineResponse{TaskID: "t"}.Reason())
}

func TestImagineWithoutKey(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Imagine(context.Background(), ImagineRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestFetchPercentForms(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Percent
	}{
		{"number", `{"task_id":"t","status":"processing","percentage":42}`, 42},
		{"string", `{"task_id":"t","status":"processing","percentage":"42"}`, 42},
		{"percent sign", `{"task_id":"t","status":"processing","percentage":"42%"}`, 42},
		{"null", `{"task_id":"t","status":"processing","percentage":null}`, 0},
		{"missing", `{"task_id":"t","status":"pending"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/fetch", r.URL.Path)
				var req FetchRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "t", req.TaskID)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			resp, err := newTestClient(server).Fetch(context.Background(), "t")
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Percentage)
		})
	}
}

func TestResultURLs(t *testing.T) {
	resp := FetchResponse{ImageURLs: []string{"https://cdn/a.png", " ", "https://cdn/b.png"}}
	assert.Equal(t, []string{"https://cdn/a.png", "https://cdn/b.png"}, resp.ResultURLs())

	grid := FetchResponse{OriginalImageURL: "https://cdn/grid.png"}
	assert.Equal(t, []string{"https://cdn/grid.png"}, grid.ResultURLs())

	assert.Empty(t, FetchResponse{}.ResultURLs())
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG\r\n\x1a\nrest"))
	}))
	defer server.Close()

	c := newTestClient(server)

	dl, err := c.Download(context.Background(), server.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", dl.ContentType)
	assert.NotEmpty(t, dl.Data)

	_, err = c.Download(context.Background(), server.URL+"/missing.png")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}
