package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ulesfyw/fyw-pay/internal/gateway"
	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/queue"
)

type paymentFixture struct {
	svc      *PaymentService
	students *fakeStudentStore
	payments *fakePaymentStore
	events   *fakeEventStore
	gw       *fakeGateway
	invites  *fakeInvites
	pub      []queue.PaymentSettledEvent
	student  *model.Student
	pkg      *model.Package
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	pkg := &model.Package{ID: 3, Code: "F", Name: "Full Experience", PackageType: model.PackageFull, PriceKobo: 6000000}
	f := &paymentFixture{
		students: newFakeStudentStore(),
		payments: newFakePaymentStore(),
		events:   newFakeEventStore(),
		gw:       &fakeGateway{},
		invites:  &fakeInvites{},
		pkg:      pkg,
	}
	f.student = f.students.add(&model.Student{
		MatricNumber:  "CSC/2021/001",
		FullName:      "Ada Obi",
		Email:         strPtr("ada@x.com"),
		PackageID:     pkg.ID,
		SelectedDays:  model.EventDays,
		PaymentStatus: model.StatusNotPaid,
	})
	publish := func(_ context.Context, ev queue.PaymentSettledEvent) error {
		f.pub = append(f.pub, ev)
		return nil
	}
	f.svc = NewPaymentService(f.payments, f.events, f.students, newFakePackageStore(pkg), f.gw, f.invites, publish)
	return f
}

// pending seeds a PENDING payment row the way Initialize would.
func (f *paymentFixture) pending(t *testing.T, reference string, amount int64) {
	t.Helper()
	err := f.payments.Create(context.Background(), &model.Payment{
		StudentID:       f.student.ID,
		PackageIDAtTime: f.pkg.ID,
		AmountKobo:      amount,
		Reference:       reference,
		Status:          model.TxPending,
	})
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
}

func successNotice(eventID, reference string, amount int64) *gateway.Notice {
	return &gateway.Notice{
		EventID:    eventID,
		Event:      "charge.success",
		Reference:  reference,
		Success:    true,
		AmountKobo: amount,
		PaidAt:     time.Now().UTC(),
		Raw:        []byte(`{}`),
	}
}

func TestInitializeValidation(t *testing.T) {
	t.Run("rejects non-positive amount", func(t *testing.T) {
		f := newPaymentFixture(t)
		if _, err := f.svc.Initialize(context.Background(), "CSC/2021/001", 0, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("error = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("requires a selected package", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.students.add(&model.Student{MatricNumber: "CSC/2021/002", FullName: "Ben", Email: strPtr("b@x.com")})
		if _, err := f.svc.Initialize(context.Background(), "CSC/2021/002", 100000, ""); !errors.Is(err, ErrNoPackage) {
			t.Errorf("error = %v, want ErrNoPackage", err)
		}
	})

	t.Run("rejects fully paid students", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.student.TotalPaidKobo = f.pkg.PriceKobo
		if _, err := f.svc.Initialize(context.Background(), "CSC/2021/001", 100000, ""); !errors.Is(err, ErrNothingOutstanding) {
			t.Errorf("error = %v, want ErrNothingOutstanding", err)
		}
	})

	t.Run("requires an email for the gateway", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.student.Email = nil
		if _, err := f.svc.Initialize(context.Background(), "CSC/2021/001", 100000, ""); !errors.Is(err, ErrMissingEmail) {
			t.Errorf("error = %v, want ErrMissingEmail", err)
		}
	})
}

func TestInitializeCreatesPendingPayment(t *testing.T) {
	f := newPaymentFixture(t)

	res, err := f.svc.Initialize(context.Background(), "csc/2021/001", 2000000, "https://app.example/callback")
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if res.AuthorizationURL == "" {
		t.Error("empty authorization URL")
	}
	p, err := f.payments.GetByReference(context.Background(), res.Reference)
	if err != nil {
		t.Fatalf("payment row not created: %v", err)
	}
	if p.Status != model.TxPending {
		t.Errorf("Status = %q, want PENDING", p.Status)
	}
	if p.AmountKobo != 2000000 {
		t.Errorf("AmountKobo = %d, want 2000000", p.AmountKobo)
	}
	if f.gw.initCalls != 1 {
		t.Errorf("gateway init calls = %d, want 1", f.gw.initCalls)
	}
}

func TestWebhookSettlesPayment(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)

	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 2000000)); err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}

	p, _ := f.payments.GetByReference(context.Background(), "FYW-1-aa")
	if p.Status != model.TxSuccess {
		t.Errorf("payment Status = %q, want SUCCESS", p.Status)
	}
	if p.PaidAt == nil {
		t.Error("PaidAt not recorded")
	}
	if f.student.TotalPaidKobo != 2000000 {
		t.Errorf("TotalPaidKobo = %d, want 2000000", f.student.TotalPaidKobo)
	}
	if f.student.PaymentStatus != model.StatusPartiallyPaid {
		t.Errorf("PaymentStatus = %q, want PARTIALLY_PAID", f.student.PaymentStatus)
	}
	if f.invites.calls != 0 {
		t.Error("invite generated before full payment")
	}
	if len(f.pub) != 1 {
		t.Fatalf("published %d events, want 1", len(f.pub))
	}
	if f.pub[0].OutstandingKobo != 4000000 {
		t.Errorf("OutstandingKobo = %d, want 4000000", f.pub[0].OutstandingKobo)
	}
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)

	for i := 0; i < 3; i++ {
		if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 2000000)); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	if f.student.TotalPaidKobo != 2000000 {
		t.Errorf("TotalPaidKobo = %d after redelivery, want 2000000", f.student.TotalPaidKobo)
	}
	if len(f.pub) != 1 {
		t.Errorf("published %d events, want 1", len(f.pub))
	}
}

func TestDistinctEventsSameReferenceSettleOnce(t *testing.T) {
	// A gateway may emit distinct events for one charge; the payment
	// status transition still only happens once.
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)

	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 2000000)); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-2", "FYW-1-aa", 2000000)); err != nil {
		t.Fatal(err)
	}

	if f.student.TotalPaidKobo != 2000000 {
		t.Errorf("TotalPaidKobo = %d, want 2000000 (single credit)", f.student.TotalPaidKobo)
	}
}

func TestVerifyAfterWebhookDoesNotDoubleCredit(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)

	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 2000000)); err != nil {
		t.Fatal(err)
	}

	// The verify path never reaches the gateway for a settled payment.
	p, err := f.svc.Verify(context.Background(), "FYW-1-aa")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.Status != model.TxSuccess {
		t.Errorf("Status = %q, want SUCCESS", p.Status)
	}
	if f.gw.verifyCalls != 0 {
		t.Errorf("gateway verify calls = %d, want 0", f.gw.verifyCalls)
	}
	if f.student.TotalPaidKobo != 2000000 {
		t.Errorf("TotalPaidKobo = %d, want 2000000", f.student.TotalPaidKobo)
	}
}

func TestVerifySettlesWhenGatewayConfirms(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 6000000)
	f.gw.verifyResult = &gateway.VerifyResult{
		Status:     gateway.StatusSuccess,
		AmountKobo: 6000000,
		PaidAt:     time.Now().UTC(),
		Raw:        []byte(`{}`),
	}

	p, err := f.svc.Verify(context.Background(), "FYW-1-aa")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.Status != model.TxSuccess {
		t.Errorf("Status = %q, want SUCCESS", p.Status)
	}
	if f.student.PaymentStatus != model.StatusFullyPaid {
		t.Errorf("PaymentStatus = %q, want FULLY_PAID", f.student.PaymentStatus)
	}
	if f.invites.calls != 1 {
		t.Errorf("invite generated %d times, want 1", f.invites.calls)
	}
	if f.student.Invite == nil {
		t.Error("invite not recorded on the student")
	}
}

func TestVerifyPendingLeavesPending(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)
	f.gw.verifyResult = &gateway.VerifyResult{Status: gateway.StatusPending}

	p, err := f.svc.Verify(context.Background(), "FYW-1-aa")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.Status != model.TxPending {
		t.Errorf("Status = %q, want PENDING while the gateway is undecided", p.Status)
	}
}

func TestVerifyFailureMarksFailed(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)
	f.gw.verifyResult = &gateway.VerifyResult{Status: gateway.StatusFailed, Raw: []byte(`{}`)}

	p, err := f.svc.Verify(context.Background(), "FYW-1-aa")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.Status != model.TxFailed {
		t.Errorf("Status = %q, want FAILED", p.Status)
	}
	if f.student.TotalPaidKobo != 0 {
		t.Errorf("balance credited on failure: %d", f.student.TotalPaidKobo)
	}
}

func TestVerifyUnknownReference(t *testing.T) {
	f := newPaymentFixture(t)
	if _, err := f.svc.Verify(context.Background(), "FYW-none"); !errors.Is(err, ErrUnknownReference) {
		t.Errorf("error = %v, want ErrUnknownReference", err)
	}
}

func TestOverpaymentIsCappedAtPackagePrice(t *testing.T) {
	f := newPaymentFixture(t)
	f.student.TotalPaidKobo = 5000000
	f.student.PaymentStatus = model.StatusPartiallyPaid
	f.pending(t, "FYW-1-aa", 2000000)

	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 2000000)); err != nil {
		t.Fatal(err)
	}

	if f.student.TotalPaidKobo != f.pkg.PriceKobo {
		t.Errorf("TotalPaidKobo = %d, want capped at %d", f.student.TotalPaidKobo, f.pkg.PriceKobo)
	}
	if f.student.PaymentStatus != model.StatusFullyPaid {
		t.Errorf("PaymentStatus = %q, want FULLY_PAID", f.student.PaymentStatus)
	}
}

func TestInviteGeneratedExactlyOnce(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 3000000)
	f.pending(t, "FYW-2-bb", 3000000)

	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 3000000)); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-2", "FYW-2-bb", 3000000)); err != nil {
		t.Fatal(err)
	}
	// Redeliver both; the invite must not be rebuilt.
	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 3000000)); err != nil {
		t.Fatal(err)
	}

	if f.invites.calls != 1 {
		t.Errorf("invite generated %d times, want exactly 1", f.invites.calls)
	}
}

func TestInviteFailureDoesNotUndoSettlement(t *testing.T) {
	f := newPaymentFixture(t)
	f.invites.fail = true
	f.pending(t, "FYW-1-aa", 6000000)

	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 6000000)); err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}

	if f.student.PaymentStatus != model.StatusFullyPaid {
		t.Errorf("PaymentStatus = %q, want FULLY_PAID despite invite failure", f.student.PaymentStatus)
	}
	if f.student.Invite != nil {
		t.Error("invite recorded despite generation failure")
	}
}

func TestFailureWebhookMarksFailed(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)

	n := &gateway.Notice{
		EventID:   "evt-1",
		Event:     "charge.failed",
		Reference: "FYW-1-aa",
		Failed:    true,
		Raw:       []byte(`{}`),
	}
	if err := f.svc.HandleWebhook(context.Background(), n); err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}

	p, _ := f.payments.GetByReference(context.Background(), "FYW-1-aa")
	if p.Status != model.TxFailed {
		t.Errorf("Status = %q, want FAILED", p.Status)
	}
}

func TestFailureWebhookNeverOverwritesSuccess(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)

	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 2000000)); err != nil {
		t.Fatal(err)
	}
	n := &gateway.Notice{EventID: "evt-2", Event: "charge.failed", Reference: "FYW-1-aa", Failed: true, Raw: []byte(`{}`)}
	if err := f.svc.HandleWebhook(context.Background(), n); err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}

	p, _ := f.payments.GetByReference(context.Background(), "FYW-1-aa")
	if p.Status != model.TxSuccess {
		t.Errorf("Status = %q, SUCCESS must be terminal", p.Status)
	}
}

func TestWebhookUnknownReferenceIsDropped(t *testing.T) {
	f := newPaymentFixture(t)

	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-ghost", 2000000)); err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}
	if f.student.TotalPaidKobo != 0 {
		t.Errorf("balance changed for unknown reference: %d", f.student.TotalPaidKobo)
	}
}

func TestWebhookEmptyReferenceIsDropped(t *testing.T) {
	f := newPaymentFixture(t)
	n := &gateway.Notice{EventID: "evt-1", Event: "charge.success", Success: true}
	if err := f.svc.HandleWebhook(context.Background(), n); err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}
}

func TestZeroAmountSuccessNoticeRejected(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)

	n := successNotice("evt-1", "FYW-1-aa", 0)
	if err := f.svc.HandleWebhook(context.Background(), n); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("HandleWebhook() error = %v, want ErrInvalidAmount", err)
	}

	p, _ := f.payments.GetByReference(context.Background(), "FYW-1-aa")
	if p.Status != model.TxPending {
		t.Errorf("Status = %q, want PENDING after rejected amount", p.Status)
	}
	if f.student.TotalPaidKobo != 0 {
		t.Errorf("TotalPaidKobo = %d, balance credited without a confirmed amount", f.student.TotalPaidKobo)
	}
}

func TestNonTerminalEventLeavesPaymentPending(t *testing.T) {
	f := newPaymentFixture(t)
	f.pending(t, "FYW-1-aa", 2000000)

	dispute := &gateway.Notice{
		EventID:   "evt-d1",
		Event:     "charge.dispute.create",
		Reference: "FYW-1-aa",
		Raw:       []byte(`{}`),
	}
	if err := f.svc.HandleWebhook(context.Background(), dispute); err != nil {
		t.Fatalf("HandleWebhook(dispute) error = %v", err)
	}

	p, _ := f.payments.GetByReference(context.Background(), "FYW-1-aa")
	if p.Status != model.TxPending {
		t.Fatalf("Status = %q after dispute event, want PENDING", p.Status)
	}

	// The genuine success must still be able to settle afterwards.
	if err := f.svc.HandleWebhook(context.Background(), successNotice("evt-1", "FYW-1-aa", 2000000)); err != nil {
		t.Fatalf("HandleWebhook(success) error = %v", err)
	}
	p, _ = f.payments.GetByReference(context.Background(), "FYW-1-aa")
	if p.Status != model.TxSuccess {
		t.Errorf("Status = %q, want SUCCESS", p.Status)
	}
	if f.student.TotalPaidKobo != 2000000 {
		t.Errorf("TotalPaidKobo = %d, want 2000000", f.student.TotalPaidKobo)
	}
}
