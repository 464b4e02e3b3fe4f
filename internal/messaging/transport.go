// Package messaging delivers outbound text messages to members over a
// WhatsApp gateway and paces bulk sends.
package messaging

import (
	"context"
	"errors"
)

var (
	// ErrNotConnected is returned when the WhatsApp session is not paired
	ErrNotConnected = errors.New("whatsapp session is not connected")
	// ErrInvalidPhone is returned for numbers with no digits
	ErrInvalidPhone = errors.New("invalid phone number")
)

// Sender delivers one text message and returns the transport's message id
type Sender interface {
	Send(ctx context.Context, chatID, text string) (string, error)
}

// Transport is a Sender that owns its session pairing state
type Transport interface {
	Sender
	Pairing() *Pairing
}
