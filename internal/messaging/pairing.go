package messaging

import (
	"sync"
	"time"
)

// State is the connection state of the WhatsApp session
type State string

const (
	StateStarting     State = "starting"
	StateScanQR       State = "scan_qr"
	StateReady        State = "ready"
	StateDisconnected State = "disconnected"
)

// Gateway webhook event types
const (
	EventQR           = "qr"
	EventReady        = "ready"
	EventDisconnected = "disconnected"
)

// Snapshot is a point-in-time view of the pairing state
type Snapshot struct {
	State     State     `json:"state"`
	QR        string    `json:"qr_code,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pairing holds the session's QR code and connection state. It is updated
// from gateway events and read by HTTP handlers; subscribers receive every
// change. A reconnect clears the previous QR code.
type Pairing struct {
	mu      sync.RWMutex
	current Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

// NewPairing creates pairing state in the starting state
func NewPairing() *Pairing {
	return &Pairing{
		current: Snapshot{State: StateStarting, UpdatedAt: time.Now()},
		subs:    make(map[int]chan Snapshot),
	}
}

// QR returns the current pairing code, if one is waiting to be scanned
func (p *Pairing) QR() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current.QR, p.current.QR != ""
}

// Snapshot returns the current state
func (p *Pairing) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Ready reports whether messages can be sent
func (p *Pairing) Ready() bool {
	return p.Snapshot().State == StateReady
}

// SetQR records a fresh pairing code
func (p *Pairing) SetQR(qr string) {
	p.set(Snapshot{State: StateScanQR, QR: qr})
}

// MarkReady records a paired session and drops the QR code
func (p *Pairing) MarkReady() {
	p.set(Snapshot{State: StateReady})
}

// MarkDisconnected records a lost session and drops the QR code
func (p *Pairing) MarkDisconnected() {
	p.set(Snapshot{State: StateDisconnected})
}

// Apply updates the state from a gateway event. Unknown events are ignored
// and reported as false.
func (p *Pairing) Apply(event, qr string) bool {
	switch event {
	case EventQR:
		if qr == "" {
			return false
		}
		p.SetQR(qr)
	case EventReady:
		p.MarkReady()
	case EventDisconnected:
		p.MarkDisconnected()
	default:
		return false
	}
	return true
}

// Subscribe returns a channel of state changes and a cancel function.
// Slow subscribers miss intermediate updates rather than block writers.
func (p *Pairing) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (p *Pairing) set(s Snapshot) {
	s.UpdatedAt = time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = s
	for _, ch := range p.subs {
		select {
		case ch <- s:
		default:
			// replace the stale pending update with the newest one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
