package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Compile-time interface check.
var _ Transport = (*GatewayClient)(nil)

// GatewayConfig configures the HTTP WhatsApp gateway
type GatewayConfig struct {
	BaseURL string
	Session string
	APIKey  string
	Timeout time.Duration
}

// GatewayClient sends messages through a WAHA-compatible HTTP gateway
// (POST /api/sendText) and tracks the session's pairing state.
type GatewayClient struct {
	baseURL string
	session string
	apiKey  string
	client  *http.Client
	pairing *Pairing
}

// NewGatewayClient creates a gateway client bound to pairing
func NewGatewayClient(cfg GatewayConfig, pairing *Pairing) *GatewayClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if pairing == nil {
		pairing = NewPairing()
	}
	return &GatewayClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		session: cfg.Session,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		pairing: pairing,
	}
}

// Pairing returns the session pairing state
func (g *GatewayClient) Pairing() *Pairing {
	return g.pairing
}

type sendTextRequest struct {
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
	Session string `json:"session"`
}

type sendTextResponse struct {
	ID json.RawMessage `json:"id"`
}

// Send delivers text to chatID. It fails fast while the session is waiting
// for a QR scan or is known to be disconnected.
func (g *GatewayClient) Send(ctx context.Context, chatID, text string) (string, error) {
	switch g.pairing.Snapshot().State {
	case StateScanQR, StateDisconnected:
		return "", ErrNotConnected
	}

	payload, err := json.Marshal(sendTextRequest{ChatID: chatID, Text: text, Session: g.session})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	body, err := g.do(ctx, http.MethodPost, "/api/sendText", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	var result sendTextResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse gateway response: %w", err)
	}
	return messageID(result.ID), nil
}

type sessionResponse struct {
	Status string `json:"status"`
}

type qrResponse struct {
	Value string `json:"value"`
}

// Refresh polls the gateway for the session status and updates the pairing
// state. While the session waits for a scan the raw QR value is fetched too.
func (g *GatewayClient) Refresh(ctx context.Context) (Snapshot, error) {
	body, err := g.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(g.session), nil)
	if err != nil {
		return g.pairing.Snapshot(), err
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return g.pairing.Snapshot(), fmt.Errorf("failed to parse session status: %w", err)
	}

	switch session.Status {
	case "WORKING":
		g.pairing.MarkReady()
	case "STOPPED", "FAILED":
		g.pairing.MarkDisconnected()
	case "SCAN_QR_CODE":
		qrBody, err := g.do(ctx, http.MethodGet, "/api/"+url.PathEscape(g.session)+"/auth/qr?format=raw", nil)
		if err != nil {
			return g.pairing.Snapshot(), err
		}
		var qr qrResponse
		if err := json.Unmarshal(qrBody, &qr); err != nil {
			return g.pairing.Snapshot(), fmt.Errorf("failed to parse qr response: %w", err)
		}
		if qr.Value != "" {
			g.pairing.SetQR(qr.Value)
		}
	}
	return g.pairing.Snapshot(), nil
}

func (g *GatewayClient) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("X-Api-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("whatsapp gateway error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

// messageID accepts both the plain string id and the {"_serialized": ...}
// object form used by different gateway engines
func messageID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Serialized string `json:"_serialized"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Serialized
	}
	return ""
}
