package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk_Success(t *testing.T) {
	var gotBody askRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer":  "Take it daily.",
			"sources": []string{"guideline-2024.pdf"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	answer, err := client.Ask(context.Background(), "How often?")
	require.NoError(t, err)
	assert.Equal(t, "How often?", gotBody.Query)
	assert.Equal(t, "Take it daily.", answer.Answer)
	assert.Equal(t, []string{"guideline-2024.pdf"}, answer.Sources)
}

func TestAsk_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	_, err := client.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestAsk_MissingAnswerField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": "unexpected shape"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	_, err := client.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrMissingAnswer)
}

func TestAsk_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := New(srv.URL, time.Second)
	_, err := client.Ask(context.Background(), "q")
	assert.Error(t, err)
}

func TestAsk_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := New(srv.URL, 5*time.Second)
	_, err := client.Ask(ctx, "q")
	assert.Error(t, err)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer": "ok"}`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", 5*time.Second)
	answer, err := client.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer.Answer)
}
