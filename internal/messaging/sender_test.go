package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/config"
)

func TestWebhookSender_Delivers(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewWebhookSender(config.MessagingConfig{WebhookURL: srv.URL, APIKey: "key-1", TimeoutSeconds: 2})
	res, err := sender.Send(context.Background(), "+15550001", "hello")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, "+15550001", got.To)
	require.Equal(t, "hello", got.Message)
}

func TestWebhookSender_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid number", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	sender := NewWebhookSender(config.MessagingConfig{WebhookURL: srv.URL})
	res, err := sender.Send(context.Background(), "123", "hello")
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "invalid number", res.Error)
}

func TestWebhookSender_CanceledContext(t *testing.T) {
	sender := NewWebhookSender(config.MessagingConfig{WebhookURL: "http://127.0.0.1:1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sender.Send(ctx, "123", "hello")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewSender_FallsBackToLog(t *testing.T) {
	sender := NewSender(config.MessagingConfig{}, zap.NewNop())
	_, ok := sender.(*LogSender)
	require.True(t, ok)

	res, err := sender.Send(context.Background(), "+15550001", "hello")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, "****", maskPhone("12"))
	require.Equal(t, "****0001", maskPhone("+1550001"))
}
