package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Api-Key key", r.Header.Get("Authorization"))

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt://folder/yandexgpt-lite", req.ModelURI)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[0].Text, "Томск")
		assert.Equal(t, "когда сажать томаты?", req.Messages[1].Text)

		_, _ = w.Write([]byte(`{"result":{"alternatives":[{"message":{"role":"assistant","text":"  В конце мая.  "}}]}}`))
	}))
	defer srv.Close()

	y := New("key", "folder", zap.NewNop()).WithBaseURL(srv.URL)
	assert.Equal(t, "В конце мая.", y.Ask(context.Background(), "Томск", "когда сажать томаты?"))
}

func TestAsk_FailuresBecomeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	y := New("key", "folder", zap.NewNop()).WithBaseURL(srv.URL)
	assert.Contains(t, y.Ask(context.Background(), "Омск", "q"), "HTTP 429")

	assert.Equal(t, notConfigured, New("", "", zap.NewNop()).Ask(context.Background(), "Омск", "q"))
}
