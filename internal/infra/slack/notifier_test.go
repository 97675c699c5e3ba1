package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDelivered(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ok := NewNotifier(srv.Client()).Send(context.Background(), srv.URL, "[ALERT] UGC submission risk: 30 - File: logo.jpg")
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"text": "[ALERT] UGC submission risk: 30 - File: logo.jpg"}, got)
}

func TestSendNonOK(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		assert.False(t, NewNotifier(srv.Client()).Send(context.Background(), srv.URL, "x"), "status %d", status)
		srv.Close()
	}
}

func TestSendUnreachable(t *testing.T) {
	assert.False(t, NewNotifier(nil).Send(context.Background(), "http://127.0.0.1:1/hook", "x"))
	assert.False(t, NewNotifier(nil).Send(context.Background(), "://bad-url", "x"))
}
