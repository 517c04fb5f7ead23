package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ulesfyw/fyw-pay/internal/gateway"
	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/queue"
	"github.com/ulesfyw/fyw-pay/internal/repository"
	"github.com/ulesfyw/fyw-pay/internal/utils"
)

// PaymentStore is the slice of payment persistence the services need.
// *repository.PaymentRepo satisfies it.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByReference(ctx context.Context, reference string) (*model.Payment, error)
	MarkSuccessIfPending(ctx context.Context, reference string, paidAt time.Time, raw []byte) (bool, error)
	MarkFailed(ctx context.Context, reference string, raw []byte) error
	ListByStudent(ctx context.Context, studentID uint64) ([]model.Payment, error)
}

// EventStore is the slice of webhook-event persistence the services
// need. *repository.WebhookEventRepo satisfies it.
type EventStore interface {
	Exists(ctx context.Context, eventID, reference string) (bool, error)
	Insert(ctx context.Context, ev *model.WebhookEvent) error
}

// InviteGenerator renders the invite artifact for a fully paid
// student. *InviteService satisfies it.
type InviteGenerator interface {
	Generate(student *model.Student, pkg *model.Package) (string, error)
}

// SettlementPublisher pushes a settled-payment event to the broker.
// NewSettlementPublisher builds the RabbitMQ-backed one.
type SettlementPublisher func(ctx context.Context, event queue.PaymentSettledEvent) error

// PaymentService owns payment initialization, verification and webhook
// reconciliation. Settlement applies each successful gateway
// notification to the student balance exactly once: the webhook-event
// unique constraint deduplicates redeliveries and the conditional
// status transition on the payment row arbitrates races between the
// webhook path and the verify path.
type PaymentService struct {
	payments PaymentStore
	events   EventStore
	students StudentStore
	packages PackageStore
	gateway  gateway.Client
	invites  InviteGenerator
	publish  SettlementPublisher
}

// NewPaymentService wires a PaymentService. publish may be nil to
// disable broker notifications.
func NewPaymentService(
	payments PaymentStore,
	events EventStore,
	students StudentStore,
	packages PackageStore,
	gw gateway.Client,
	invites InviteGenerator,
	publish SettlementPublisher,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		events:   events,
		students: students,
		packages: packages,
		gateway:  gw,
		invites:  invites,
		publish:  publish,
	}
}

// InitResult is what Initialize hands back to the handler.
type InitResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AmountKobo       int64  `json:"amount_kobo"`
}

// Initialize creates a PENDING payment row for the student and opens a
// hosted-payment session at the gateway. The amount is the student's
// choice (installments are allowed) but must be positive and the
// student must still owe something on their package.
func (s *PaymentService) Initialize(ctx context.Context, matric string, amountKobo int64, callbackURL string) (*InitResult, error) {
	if amountKobo <= 0 {
		return nil, ErrInvalidAmount
	}
	st, err := s.students.GetByMatric(ctx, normalizeMatric(matric))
	if err != nil {
		return nil, err
	}
	if st.PackageID == 0 {
		return nil, ErrNoPackage
	}
	pkg, err := s.packages.GetByID(ctx, st.PackageID)
	if err != nil {
		return nil, err
	}
	if st.TotalPaidKobo >= pkg.PriceKobo {
		return nil, ErrNothingOutstanding
	}
	if st.Email == nil || *st.Email == "" {
		return nil, ErrMissingEmail
	}

	reference, err := utils.NewPaymentReference()
	if err != nil {
		return nil, err
	}
	p := &model.Payment{
		StudentID:       st.ID,
		PackageIDAtTime: pkg.ID,
		AmountKobo:      amountKobo,
		Reference:       reference,
		Status:          model.TxPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	res, err := s.gateway.InitializeTransaction(ctx, gateway.InitRequest{
		Reference:   reference,
		AmountKobo:  amountKobo,
		Email:       *st.Email,
		CallbackURL: callbackURL,
		Metadata: map[string]string{
			"matric_number": st.MatricNumber,
			"package_code":  pkg.Code,
		},
	})
	if err != nil {
		return nil, err
	}

	return &InitResult{
		Reference:        reference,
		AuthorizationURL: res.AuthorizationURL,
		AmountKobo:       amountKobo,
	}, nil
}

// Verify asks the gateway for the authoritative outcome of a reference
// and reconciles the local payment row against it. A successful
// outcome settles through the same path as a webhook, so whichever
// side arrives first wins and the other becomes a no-op. Outcomes
// still in flight at the gateway leave the payment PENDING.
func (s *PaymentService) Verify(ctx context.Context, reference string) (*model.Payment, error) {
	p, err := s.payments.GetByReference(ctx, reference)
	if err == repository.ErrNotFound {
		return nil, ErrUnknownReference
	}
	if err != nil {
		return nil, err
	}
	if p.Status != model.TxPending {
		return p, nil
	}

	res, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case gateway.StatusSuccess:
		if err := s.settle(ctx, reference, res.AmountKobo, res.PaidAt, res.Raw); err != nil {
			return nil, err
		}
	case gateway.StatusFailed:
		if err := s.payments.MarkFailed(ctx, reference, res.Raw); err != nil {
			return nil, err
		}
	}
	return s.payments.GetByReference(ctx, reference)
}

// HandleWebhook reconciles one parsed gateway notification. The event
// is recorded first; a duplicate-event collision means this exact
// notification was already processed and the call returns cleanly
// without touching balances. Terminal failure events mark the payment
// FAILED only while it is still PENDING; every other non-success event
// is recorded and dropped.
func (s *PaymentService) HandleWebhook(ctx context.Context, n *gateway.Notice) error {
	if n.Reference == "" {
		// Nothing to reconcile against; drop the notification.
		return nil
	}

	// Cheap pre-check; the insert below is the authoritative guard.
	if seen, err := s.events.Exists(ctx, n.EventID, n.Reference); err == nil && seen {
		return nil
	}

	err := s.events.Insert(ctx, &model.WebhookEvent{
		EventID:     n.EventID,
		Reference:   n.Reference,
		Event:       n.Event,
		ProcessedAt: time.Now().UTC(),
		RawPayload:  n.Raw,
	})
	if errors.Is(err, repository.ErrDuplicateEvent) {
		return nil
	}
	if err != nil {
		return err
	}

	switch {
	case n.Success:
		err = s.settle(ctx, n.Reference, n.AmountKobo, n.PaidAt, n.Raw)
		if err == repository.ErrNotFound {
			// Reference unknown locally; the event row keeps the payload for audit.
			return nil
		}
		return err
	case n.Failed:
		if err := s.payments.MarkFailed(ctx, n.Reference, n.Raw); err != nil && err != repository.ErrNotFound {
			return err
		}
		return nil
	default:
		// Disputes, transfer updates and other non-terminal events carry
		// no charge outcome. The event row keeps the payload; the payment
		// stays PENDING so a later charge.success can still settle it.
		return nil
	}
}

// settle flips the payment to SUCCESS and credits the student balance.
// The conditional update is the idempotency gate: only the caller that
// wins the PENDING to SUCCESS transition proceeds to credit, so a
// reference settles at most once no matter how many webhooks, verify
// calls or concurrent retries arrive.
func (s *PaymentService) settle(ctx context.Context, reference string, amountKobo int64, paidAt time.Time, raw []byte) error {
	if amountKobo <= 0 {
		// A success report without a positive amount is a gateway
		// anomaly; refusing to settle keeps the payment PENDING.
		return ErrInvalidAmount
	}
	won, err := s.payments.MarkSuccessIfPending(ctx, reference, paidAt.UTC(), raw)
	if err != nil {
		return err
	}
	if !won {
		if _, err := s.payments.GetByReference(ctx, reference); err != nil {
			return err
		}
		return nil
	}

	p, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	st, err := s.students.GetByID(ctx, p.StudentID)
	if err != nil {
		return err
	}
	pkg, err := s.packages.GetByID(ctx, p.PackageIDAtTime)
	if err != nil {
		return err
	}

	credit := amountKobo
	newTotal := st.TotalPaidKobo + credit
	if newTotal > pkg.PriceKobo {
		// Overpayment beyond the package price is absorbed, not refunded.
		newTotal = pkg.PriceKobo
	}
	status := model.DeriveStatus(newTotal, pkg.PriceKobo)
	if err := s.students.UpdateBalance(ctx, st.ID, newTotal, status); err != nil {
		return err
	}
	st.TotalPaidKobo = newTotal
	st.PaymentStatus = status

	var inviteURL string
	if status == model.StatusFullyPaid && st.Invite == nil && s.invites != nil {
		url, genErr := s.invites.Generate(st, pkg)
		if genErr != nil {
			// The settlement already landed; invite generation can be
			// retried through the admin regenerate endpoint.
			log.Printf("payment: invite generation for %s failed: %v", st.MatricNumber, genErr)
		} else {
			inv := &model.Invite{ImageURL: url, GeneratedAt: time.Now().UTC()}
			if err := s.students.SetInvite(ctx, st.ID, inv); err != nil {
				return err
			}
			st.Invite = inv
			inviteURL = url
		}
	}

	if s.publish != nil {
		ev := queue.PaymentSettledEvent{
			PaymentID:       p.ID,
			StudentID:       st.ID,
			MatricNumber:    st.MatricNumber,
			FullName:        st.FullName,
			Reference:       reference,
			AmountKobo:      credit,
			TotalPaidKobo:   newTotal,
			PackageName:     pkg.Name,
			PackagePrice:    pkg.PriceKobo,
			PaymentStatus:   string(status),
			OutstandingKobo: pkg.PriceKobo - newTotal,
			InviteURL:       inviteURL,
			SettledAt:       time.Now().UTC().Format(time.RFC3339),
		}
		if st.Email != nil {
			ev.Email = *st.Email
		}
		if err := s.publish(ctx, ev); err != nil {
			log.Printf("payment: publish settled event for %s failed: %v", reference, err)
		}
	}
	return nil
}

// History returns the student's payment attempts, newest first.
func (s *PaymentService) History(ctx context.Context, matric string) (*model.Student, []model.Payment, error) {
	st, err := s.students.GetByMatric(ctx, normalizeMatric(matric))
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.payments.ListByStudent(ctx, st.ID)
	if err != nil {
		return nil, nil, err
	}
	return st, payments, nil
}
