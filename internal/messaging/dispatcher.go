package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/sjperalta/sacco-api/pkg/logger"
	"golang.org/x/time/rate"
)

// Recipient is one addressee of a batch with its own message body
type Recipient struct {
	MemberID uint   `json:"member_id"`
	LoanID   uint   `json:"loan_id,omitempty"`
	Name     string `json:"member_name"`
	Phone    string `json:"-"`
	Body     string `json:"-"`
}

// Delivery records a successful send
type Delivery struct {
	Recipient
	ChatID    string    `json:"chat_id"`
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}

// Failure records a recipient that was not reached
type Failure struct {
	Recipient
	Reason string `json:"error"`
}

// BatchResult is the outcome of a bulk send. Every recipient appears in
// exactly one of Sent or Failed.
type BatchResult struct {
	BatchID    string     `json:"batch_id"`
	Sent       []Delivery `json:"success_details"`
	Failed     []Failure  `json:"failures"`
	Cancelled  bool       `json:"cancelled"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// Batch is a bulk send request. OnSent, when set, runs after each
// successful delivery.
type Batch struct {
	ID         string
	Recipients []Recipient
	OnSent     func(ctx context.Context, d Delivery)
}

// Dispatcher sends messages one at a time with a fixed gap between sends.
// Concurrent batches share the same pacing and never overlap sends.
type Dispatcher struct {
	sender  Sender
	limiter *rate.Limiter
	mu      sync.Mutex
	now     func() time.Time
}

// NewDispatcher creates a dispatcher that waits at least delay between sends
func NewDispatcher(sender Sender, delay time.Duration) *Dispatcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Dispatcher{
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// SendOne delivers a single message under the shared pacing
func (d *Dispatcher) SendOne(ctx context.Context, r Recipient) (Delivery, error) {
	chatID, err := ChatID(r.Phone)
	if err != nil {
		return Delivery{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.limiter.Wait(ctx); err != nil {
		return Delivery{}, err
	}
	id, err := d.sender.Send(ctx, chatID, r.Body)
	if err != nil {
		return Delivery{}, err
	}
	return Delivery{Recipient: r, ChatID: chatID, MessageID: id, SentAt: d.now()}, nil
}

// Dispatch sends to every recipient in order. A failed recipient does not
// stop the batch and is not retried. If ctx is cancelled the remaining
// recipients are reported as failed.
func (d *Dispatcher) Dispatch(ctx context.Context, batch Batch) BatchResult {
	log := logger.FromContext(logger.WithBatch(ctx, batch.ID))
	result := BatchResult{
		BatchID:   batch.ID,
		Sent:      []Delivery{},
		Failed:    []Failure{},
		StartedAt: d.now(),
	}

	for i, r := range batch.Recipients {
		if ctx.Err() != nil {
			result.Cancelled = true
			for _, rest := range batch.Recipients[i:] {
				result.Failed = append(result.Failed, Failure{Recipient: rest, Reason: "batch cancelled: " + ctx.Err().Error()})
			}
			break
		}

		delivery, err := d.SendOne(ctx, r)
		if err != nil {
			log.Warn("Message send failed", "member_id", r.MemberID, "loan_id", r.LoanID, "error", err)
			result.Failed = append(result.Failed, Failure{Recipient: r, Reason: err.Error()})
			continue
		}

		result.Sent = append(result.Sent, delivery)
		if batch.OnSent != nil {
			batch.OnSent(ctx, delivery)
		}
	}

	if ctx.Err() != nil {
		result.Cancelled = true
	}
	result.FinishedAt = d.now()
	log.Info("Batch finished", "sent", len(result.Sent), "failed", len(result.Failed), "cancelled", result.Cancelled)
	return result
}
