package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayClient_Send(t *testing.T) {
	var got sendTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sendText", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":{"fromMe":true,"_serialized":"true_256700123456@c.us_ABC"}}`))
	}))
	defer srv.Close()

	g := NewGatewayClient(GatewayConfig{BaseURL: srv.URL + "/", Session: "default", APIKey: "secret"}, nil)
	id, err := g.Send(context.Background(), "256700123456@c.us", "hello")

	require.NoError(t, err)
	assert.Equal(t, "true_256700123456@c.us_ABC", id)
	assert.Equal(t, sendTextRequest{ChatID: "256700123456@c.us", Text: "hello", Session: "default"}, got)
}

func TestGatewayClient_SendPlainID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	g := NewGatewayClient(GatewayConfig{BaseURL: srv.URL, Session: "default"}, nil)
	id, err := g.Send(context.Background(), "1@c.us", "hi")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
}

func TestGatewayClient_SendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not found", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	g := NewGatewayClient(GatewayConfig{BaseURL: srv.URL, Session: "default"}, nil)
	_, err := g.Send(context.Background(), "1@c.us", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestGatewayClient_SendWhileDisconnected(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	pairing := NewPairing()
	pairing.MarkDisconnected()
	g := NewGatewayClient(GatewayConfig{BaseURL: srv.URL}, pairing)

	_, err := g.Send(context.Background(), "1@c.us", "hi")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, calls)
}

func TestGatewayClient_Refresh(t *testing.T) {
	status := "SCAN_QR_CODE"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sessions/default":
			w.Write([]byte(`{"name":"default","status":"` + status + `"}`))
		case "/api/default/auth/qr":
			assert.Equal(t, "raw", r.URL.Query().Get("format"))
			w.Write([]byte(`{"value":"2@qr-value"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g := NewGatewayClient(GatewayConfig{BaseURL: srv.URL, Session: "default"}, nil)

	snap, err := g.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateScanQR, snap.State)
	assert.Equal(t, "2@qr-value", snap.QR)

	status = "WORKING"
	snap, err = g.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	assert.Empty(t, snap.QR)
}
