package plantnet

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type echoAdvisor struct{ prompt string }

func (a *echoAdvisor) Ask(_ context.Context, _, question string) string {
	a.prompt = question
	return "Water less."
}

func TestDiagnose(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/photo.jpg", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("jpeg-bytes"))
	})
	mux.HandleFunc("/identify", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("api-key"))
		f, _, err := r.FormFile("images")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg-bytes", string(b))
		_, _ = w.Write([]byte(`{"results":[{"score":0.873,"species":{
			"scientificNameWithoutAuthor":"Solanum lycopersicum",
			"family":{"scientificNameWithoutAuthor":"Solanaceae"},
			"commonNames":["Tomato","Томат","Помидор","Love apple"]}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adv := &echoAdvisor{}
	c := New("k", adv, zap.NewNop()).WithBaseURL(srv.URL + "/identify")
	got := c.Diagnose(context.Background(), srv.URL+"/photo.jpg", "Краснодар")

	assert.Contains(t, got, "Solanum lycopersicum")
	assert.Contains(t, got, "Family: Solanaceae")
	assert.Contains(t, got, "Common names: Tomato, Томат, Помидор\n")
	assert.Contains(t, got, "Confidence: 87.3%")
	assert.Contains(t, got, "Water less.")
	assert.Contains(t, adv.prompt, "Краснодар")
}

func TestDiagnose_NoMatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/photo.jpg", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("x")) })
	mux.HandleFunc("/identify", func(w http.ResponseWriter, _ *http.Request) { http.NotFound(w, nil) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New("k", nil, zap.NewNop()).WithBaseURL(srv.URL + "/identify")
	assert.Equal(t, "The plant was not recognised.", c.Diagnose(context.Background(), srv.URL+"/photo.jpg", "Омск"))
	assert.Equal(t, notConfigured, New("", nil, zap.NewNop()).Diagnose(context.Background(), "u", "r"))
}
