package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairing_QRLifecycle(t *testing.T) {
	p := NewPairing()

	_, ok := p.QR()
	assert.False(t, ok, "no QR before the gateway reports one")
	assert.Equal(t, StateStarting, p.Snapshot().State)

	p.SetQR("2@abc")
	qr, ok := p.QR()
	require.True(t, ok)
	assert.Equal(t, "2@abc", qr)
	assert.Equal(t, StateScanQR, p.Snapshot().State)

	p.MarkReady()
	_, ok = p.QR()
	assert.False(t, ok, "pairing drops the QR once ready")
	assert.True(t, p.Ready())

	p.MarkDisconnected()
	assert.False(t, p.Ready())

	p.SetQR("2@def")
	qr, _ = p.QR()
	assert.Equal(t, "2@def", qr, "reconnect presents the new code only")
}

func TestPairing_Apply(t *testing.T) {
	p := NewPairing()

	assert.True(t, p.Apply(EventQR, "2@abc"))
	assert.False(t, p.Apply(EventQR, ""), "qr event without a code is ignored")
	assert.Equal(t, StateScanQR, p.Snapshot().State)

	assert.True(t, p.Apply(EventReady, ""))
	assert.Equal(t, StateReady, p.Snapshot().State)

	assert.False(t, p.Apply("message.ack", ""))
	assert.Equal(t, StateReady, p.Snapshot().State)
}

func TestPairing_Subscribe(t *testing.T) {
	p := NewPairing()
	updates, cancel := p.Subscribe()
	defer cancel()

	p.SetQR("first")
	p.SetQR("second")

	select {
	case s := <-updates:
		assert.Equal(t, "second", s.QR, "slow subscribers see the latest state")
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	cancel()
	_, open := <-updates
	assert.False(t, open)

	// updates after cancel must not panic
	p.MarkReady()
}
