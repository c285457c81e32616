package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassifierServer(t *testing.T, labelFor func(content string) string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := classifyResponse{}
		for _, input := range req.Inputs {
			resp.Results = append(resp.Results, struct {
				Label string `json:"label"`
			}{Label: labelFor(input)})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestHTTPClassifier_PreservesInputOrder(t *testing.T) {
	srv := newClassifierServer(t, func(content string) string {
		if content == "bad" {
			return "violation"
		}
		return "clean"
	})
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "", time.Second)

	labels, err := c.Classify(context.Background(), []string{"hello", "bad", "world"})
	require.NoError(t, err)
	require.Len(t, labels, 3)

	assert.Equal(t, LabelClean, labels[0])
	assert.Equal(t, LabelViolation, labels[1])
	assert.Equal(t, LabelClean, labels[2])
}

func TestHTTPClassifier_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(classifyResponse{Results: []struct {
			Label string `json:"label"`
		}{{Label: "clean"}}})
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "secret-key", time.Second)

	_, err := c.Classify(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestHTTPClassifier_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "", time.Second)

	_, err := c.Classify(context.Background(), []string{"hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPClassifier_ResultCountMismatchIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifyResponse{}) // boş results
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "", time.Second)

	_, err := c.Classify(context.Background(), []string{"hello"})
	require.Error(t, err)
}

// countingClassifier, inner çağrı sayısını izleyen test classifier'ı.
type countingClassifier struct {
	mu    sync.Mutex
	calls int
	label Label
}

func (c *countingClassifier) Classify(_ context.Context, contents []string) ([]Label, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	labels := make([]Label, len(contents))
	for i := range labels {
		labels[i] = c.label
	}
	return labels, nil
}

func (c *countingClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestCachedClassifier_SecondCallHitsCache(t *testing.T) {
	inner := &countingClassifier{label: LabelViolation}
	cached := NewCachedClassifier(inner, time.Minute)
	defer cached.Close()

	ctx := context.Background()

	labels, err := cached.Classify(ctx, []string{"spam content"})
	require.NoError(t, err)
	assert.Equal(t, LabelViolation, labels[0])

	labels, err = cached.Classify(ctx, []string{"spam content"})
	require.NoError(t, err)
	assert.Equal(t, LabelViolation, labels[0])

	assert.Equal(t, 1, inner.callCount())
}

func TestCachedClassifier_MixedHitMissPreservesOrder(t *testing.T) {
	inner := &countingClassifier{label: LabelClean}
	cached := NewCachedClassifier(inner, time.Minute)
	defer cached.Close()

	ctx := context.Background()

	_, err := cached.Classify(ctx, []string{"a"})
	require.NoError(t, err)

	// "a" cache'te, "b" ve "c" miss — sadece miss'ler inner'a gider.
	labels, err := cached.Classify(ctx, []string{"b", "a", "c"})
	require.NoError(t, err)
	require.Len(t, labels, 3)
	assert.Equal(t, 2, inner.callCount())
}
