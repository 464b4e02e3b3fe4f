package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sjperalta/sacco-api/internal/amortization"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/sjperalta/sacco-api/pkg/logger"
	"gorm.io/gorm"
)

// Batch kinds used in summaries and audit entries
const (
	BatchKindBulk     = "bulk"
	BatchKindReminder = "loan_reminders"
)

// ScheduleSource computes repayment schedules
type ScheduleSource interface {
	ScheduleFor(ctx context.Context, terms amortization.Loan) (amortization.Schedule, error)
}

// BatchReporter delivers a summary of a finished batch to staff
type BatchReporter interface {
	SendBatchSummary(ctx context.Context, kind string, result messaging.BatchResult) error
}

// statusRefresher is implemented by transports that can poll their gateway
type statusRefresher interface {
	Refresh(ctx context.Context) (messaging.Snapshot, error)
}

type MessageService struct {
	repo       repository.MessageRepository
	memberRepo repository.MemberRepository
	loanRepo   repository.LoanRepository
	schedules  ScheduleSource
	transport  messaging.Transport
	dispatcher *messaging.Dispatcher
	auditor    Auditor
	reporter   BatchReporter
	jobs       JobRunner
}

func NewMessageService(
	repo repository.MessageRepository,
	memberRepo repository.MemberRepository,
	loanRepo repository.LoanRepository,
	schedules ScheduleSource,
	transport messaging.Transport,
	dispatcher *messaging.Dispatcher,
	auditor Auditor,
	reporter BatchReporter,
	jobs JobRunner,
) *MessageService {
	return &MessageService{
		repo:       repo,
		memberRepo: memberRepo,
		loanRepo:   loanRepo,
		schedules:  schedules,
		transport:  transport,
		dispatcher: dispatcher,
		auditor:    auditor,
		reporter:   reporter,
		jobs:       jobs,
	}
}

func (s *MessageService) FindByID(ctx context.Context, id uint) (*models.Message, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "message")
	}
	return m, nil
}

func (s *MessageService) List(ctx context.Context, query *repository.ListQuery) ([]models.Message, int64, error) {
	return s.repo.List(ctx, query)
}

// Create logs a message sent outside the gateway. The recipient defaults
// to the member's phone.
func (s *MessageService) Create(ctx context.Context, m *models.Message) error {
	m.Body = strings.TrimSpace(m.Body)
	if m.Body == "" {
		return invalid("message is required")
	}
	if m.MemberID != nil {
		member, err := s.memberRepo.FindByID(ctx, *m.MemberID)
		if err != nil {
			return notFound(err, "member")
		}
		if m.Recipient == "" {
			m.Recipient = member.Phone
		}
	}
	if m.Recipient == "" {
		return invalid("recipient or member_id is required")
	}
	if m.Channel == "" {
		m.Channel = models.ChannelManual
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return s.repo.Create(ctx, m)
}

// Pairing exposes the transport's session pairing state
func (s *MessageService) Pairing() *messaging.Pairing {
	return s.transport.Pairing()
}

// HandleGatewayEvent applies a pairing event pushed by the gateway
func (s *MessageService) HandleGatewayEvent(event, qr string) bool {
	applied := s.transport.Pairing().Apply(event, qr)
	if applied {
		logger.Info("WhatsApp session event", "event", event)
	}
	return applied
}

// Status returns the session state, polling the gateway when it supports it
func (s *MessageService) Status(ctx context.Context) messaging.Snapshot {
	if r, ok := s.transport.(statusRefresher); ok {
		snap, err := r.Refresh(ctx)
		if err != nil {
			logger.Warn("WhatsApp status refresh failed", "error", err)
		}
		return snap
	}
	return s.transport.Pairing().Snapshot()
}

// SendToNumber delivers text to a raw phone number. The message is linked
// to a member when the number belongs to one.
func (s *MessageService) SendToNumber(ctx context.Context, actor models.Actor, number, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if strings.TrimSpace(number) == "" || text == "" {
		return nil, invalid("number and message are required")
	}

	r := messaging.Recipient{Phone: number, Body: text}
	if member, err := s.memberRepo.FindByPhone(ctx, strings.TrimSpace(number)); err == nil {
		r.MemberID = member.ID
		r.Name = member.Name
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.sendOne(ctx, actor, r)
}

// SendToMember delivers text to a member's phone
func (s *MessageService) SendToMember(ctx context.Context, actor models.Actor, memberID uint, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("message is required")
	}
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, notFound(err, "member")
	}
	return s.sendOne(ctx, actor, messaging.Recipient{
		MemberID: member.ID,
		Name:     member.Name,
		Phone:    member.Phone,
		Body:     text,
	})
}

func (s *MessageService) sendOne(ctx context.Context, actor models.Actor, r messaging.Recipient) (*models.Message, error) {
	delivery, err := s.dispatcher.SendOne(ctx, r)
	if err != nil {
		if errors.Is(err, messaging.ErrInvalidPhone) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	msg := s.logDelivery(ctx, "", delivery)
	record(ctx, s.auditor, actor, models.AuditActionCreate, "Message", msg.ID, delivery.ChatID)
	return msg, nil
}

// Bulk sends the same text to every member whose name matches nameFilter
func (s *MessageService) Bulk(ctx context.Context, actor models.Actor, nameFilter, text string) (*messaging.BatchResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("message is required")
	}

	members, err := s.memberRepo.FindAll(ctx, strings.TrimSpace(nameFilter))
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: no members match the filter", ErrNoRecipients)
	}

	recipients := make([]messaging.Recipient, 0, len(members))
	for _, m := range members {
		recipients = append(recipients, messaging.Recipient{MemberID: m.ID, Name: m.Name, Phone: m.Phone, Body: text})
	}
	return s.runBatch(ctx, actor, BatchKindBulk, recipients, nil), nil
}

// SendLoanReminders composes and sends a reminder for each active loan,
// or only the given loans when loanIDs is not empty. A non-blank override
// replaces the composed text for every loan.
func (s *MessageService) SendLoanReminders(ctx context.Context, actor models.Actor, override string, loanIDs []uint) (*messaging.BatchResult, error) {
	recipients, unsendable, err := s.reminderRecipients(ctx, override, loanIDs)
	if err != nil {
		return nil, err
	}
	return s.runBatch(ctx, actor, BatchKindReminder, recipients, unsendable), nil
}

// PreviewLoanReminders composes the reminders SendLoanReminders would send
// for the same arguments without sending them. Loans whose text cannot be
// composed come back as failures.
func (s *MessageService) PreviewLoanReminders(ctx context.Context, override string, loanIDs []uint) ([]messaging.Recipient, []messaging.Failure, error) {
	return s.reminderRecipients(ctx, override, loanIDs)
}

func (s *MessageService) reminderRecipients(ctx context.Context, override string, loanIDs []uint) ([]messaging.Recipient, []messaging.Failure, error) {
	loans, err := s.loanRepo.FindActiveWithMember(ctx, loanIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(loans) == 0 {
		return nil, nil, fmt.Errorf("%w: no active loans", ErrNoRecipients)
	}

	recipients := make([]messaging.Recipient, 0, len(loans))
	var unsendable []messaging.Failure
	for i := range loans {
		loan := &loans[i]
		r := messaging.Recipient{MemberID: loan.MemberID, LoanID: loan.ID, Name: loan.Member.Name, Phone: loan.Member.Phone}

		body, err := s.composeReminder(ctx, loan, override)
		if err != nil {
			unsendable = append(unsendable, messaging.Failure{Recipient: r, Reason: err.Error()})
			continue
		}
		r.Body = body
		recipients = append(recipients, r)
	}
	return recipients, unsendable, nil
}

// PreviewReminder returns the reminder text a loan would receive
func (s *MessageService) PreviewReminder(ctx context.Context, loanID uint, override string) (string, error) {
	loan, err := s.loanRepo.FindByIDWithDetails(ctx, loanID)
	if err != nil {
		return "", notFound(err, "loan")
	}
	return s.composeReminder(ctx, loan, override)
}

func (s *MessageService) composeReminder(ctx context.Context, loan *models.Loan, override string) (string, error) {
	terms := loan.Terms()
	schedule, err := s.schedules.ScheduleFor(ctx, terms)
	if err != nil {
		return "", err
	}
	totals := amortization.Aggregate(terms, models.EnginePayments(loan.Payments))
	return amortization.ComposeReminder(terms, loan.Member.Addressee(), totals, schedule, override), nil
}

func (s *MessageService) runBatch(ctx context.Context, actor models.Actor, kind string, recipients []messaging.Recipient, unsendable []messaging.Failure) *messaging.BatchResult {
	batchID := uuid.NewString()

	result := s.dispatcher.Dispatch(ctx, messaging.Batch{
		ID:         batchID,
		Recipients: recipients,
		OnSent: func(ctx context.Context, d messaging.Delivery) {
			s.logDelivery(ctx, batchID, d)
		},
	})
	if len(unsendable) > 0 {
		result.Failed = append(unsendable, result.Failed...)
	}

	record(ctx, s.auditor, actor, models.AuditActionBroadcast, "Message", 0,
		fmt.Sprintf("%s batch %s: %d sent, %d failed", kind, batchID, len(result.Sent), len(result.Failed)))

	if s.reporter != nil && s.jobs != nil {
		summary := result
		s.jobs.EnqueueAsync("batch-summary-"+batchID, func(ctx context.Context) error {
			return s.reporter.SendBatchSummary(ctx, kind, summary)
		})
	}
	return &result
}

// logDelivery writes a sent message to the log. The message is already
// delivered, so a store failure is logged rather than returned.
func (s *MessageService) logDelivery(ctx context.Context, batchID string, d messaging.Delivery) *models.Message {
	msg := &models.Message{
		Recipient: d.ChatID,
		Body:      d.Body,
		Channel:   models.ChannelWhatsApp,
		Timestamp: d.SentAt,
	}
	if d.MemberID != 0 {
		memberID := d.MemberID
		msg.MemberID = &memberID
	}
	if d.MessageID != "" {
		externalID := d.MessageID
		msg.ExternalID = &externalID
	}
	if batchID != "" {
		msg.BatchID = &batchID
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		logger.Error("Failed to log sent message", "chat_id", d.ChatID, "message_id", d.MessageID, "error", err)
	}
	return msg
}
