package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

func geminiServer(t *testing.T, analysisJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Contains(t, r.URL.Path, ":generateContent")

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.NotEmpty(t, req.Contents[0].Parts[0].Text)
		assert.NotNil(t, req.Contents[0].Parts[1].InlineData)

		resp := geminiResponse{}
		resp.Candidates = []struct {
			Content geminiContent `json:"content"`
		}{
			{Content: geminiContent{Parts: []geminiPart{{Text: analysisJSON}}}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeminiSignals(t *testing.T) {
	analysis := `{"issues": [
		{"type": "scratch", "severity": "low", "location": "top-left corner", "description": "light scratch"},
		{"type": "crack", "severity": "high", "location": "screen center", "description": "visible crack"}
	]}`

	srv := geminiServer(t, analysis)
	defer srv.Close()

	c := NewGeminiClient(WithGeminiURL(srv.URL), WithGeminiAPIKey("secret"))

	signals, err := c.Signals(context.Background(), []Image{
		{View: "front", MIME: "image/jpeg", Data: []byte("fake-jpeg")},
	})
	require.NoError(t, err)
	require.Len(t, signals, 2)

	assert.Equal(t, domain.IssueScratch, signals[0].Issue)
	assert.InDelta(t, 0.3, signals[0].Severity, 1e-9)
	assert.Equal(t, "front: top-left corner", signals[0].Location)

	assert.Equal(t, domain.IssueCrack, signals[1].Issue)
	assert.InDelta(t, 0.9, signals[1].Severity, 1e-9)
}

func TestGeminiSignalsFlawlessDevice(t *testing.T) {
	srv := geminiServer(t, `{"issues": []}`)
	defer srv.Close()

	c := NewGeminiClient(WithGeminiURL(srv.URL), WithGeminiAPIKey("secret"))

	signals, err := c.Signals(context.Background(), []Image{
		{View: "back", MIME: "image/png", Data: []byte("fake-png")},
	})
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestGeminiSignalsFencedJSON(t *testing.T) {
	fenced := "```json\n{\"issues\": [{\"type\": \"dents\", \"severity\": \"medium\", \"location\": \"rear panel\"}]}\n```"

	srv := geminiServer(t, fenced)
	defer srv.Close()

	c := NewGeminiClient(WithGeminiURL(srv.URL), WithGeminiAPIKey("secret"))

	signals, err := c.Signals(context.Background(), []Image{
		{View: "back", MIME: "image/jpeg", Data: []byte("x")},
	})
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.IssueDent, signals[0].Issue)
	assert.InDelta(t, 0.6, signals[0].Severity, 1e-9)
}

func TestGeminiSignalsDropsUnknownVocabulary(t *testing.T) {
	analysis := `{"issues": [
		{"type": "water damage", "severity": "high", "location": "ports"},
		{"type": "scratch", "severity": "catastrophic", "location": "lid"},
		{"type": "scratch", "severity": "low", "location": "lid"}
	]}`

	srv := geminiServer(t, analysis)
	defer srv.Close()

	c := NewGeminiClient(WithGeminiURL(srv.URL), WithGeminiAPIKey("secret"))

	signals, err := c.Signals(context.Background(), []Image{
		{View: "top", MIME: "image/jpeg", Data: []byte("x")},
	})
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.IssueScratch, signals[0].Issue)
}

func TestGeminiSignalsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewGeminiClient(WithGeminiURL(srv.URL), WithGeminiAPIKey("bad"))

	_, err := c.Signals(context.Background(), []Image{
		{View: "front", MIME: "image/jpeg", Data: []byte("x")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestGeminiSignalsNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	c := NewGeminiClient(WithGeminiURL(srv.URL), WithGeminiAPIKey("secret"))

	_, err := c.Signals(context.Background(), []Image{
		{View: "front", MIME: "image/jpeg", Data: []byte("x")},
	})
	assert.ErrorIs(t, err, ErrNoCandidates)
}
