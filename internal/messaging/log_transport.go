package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/sjperalta/sacco-api/pkg/logger"
)

// Compile-time interface check.
var _ Transport = (*LogTransport)(nil)

// LogTransport writes messages to the log instead of delivering them. It is
// used when no gateway is configured.
type LogTransport struct {
	pairing *Pairing
}

// NewLogTransport creates a log-only transport that is always ready
func NewLogTransport() *LogTransport {
	p := NewPairing()
	p.MarkReady()
	return &LogTransport{pairing: p}
}

// Pairing returns the session pairing state
func (t *LogTransport) Pairing() *Pairing {
	return t.pairing
}

// Send logs the message and returns a generated id
func (t *LogTransport) Send(ctx context.Context, chatID, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := "log_" + uuid.NewString()
	logger.FromContext(ctx).Info("WhatsApp message (log transport)", "chat_id", chatID, "message_id", id, "length", len(text))
	return id, nil
}
