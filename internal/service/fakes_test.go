package service

import (
	"context"
	"strings"
	"time"

	"github.com/ulesfyw/fyw-pay/internal/gateway"
	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/repository"
)

// In-memory store fakes. They mirror the repository contracts closely
// enough to exercise the service rules, including the conditional
// settlement transition and the duplicate-event constraint.

type fakeStudentStore struct {
	nextID   uint64
	students map[uint64]*model.Student
}

func newFakeStudentStore() *fakeStudentStore {
	return &fakeStudentStore{students: make(map[uint64]*model.Student)}
}

func (f *fakeStudentStore) add(s *model.Student) *model.Student {
	f.nextID++
	s.ID = f.nextID
	f.students[s.ID] = s
	return s
}

func (f *fakeStudentStore) Create(_ context.Context, s *model.Student) error {
	for _, existing := range f.students {
		if existing.MatricNumber == s.MatricNumber {
			return repository.ErrDuplicateReference
		}
	}
	f.add(s)
	return nil
}

func (f *fakeStudentStore) GetByMatric(_ context.Context, matric string) (*model.Student, error) {
	for _, s := range f.students {
		if s.MatricNumber == strings.ToUpper(matric) {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStudentStore) GetByID(_ context.Context, id uint64) (*model.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeStudentStore) UpdateContact(_ context.Context, s *model.Student) error {
	f.students[s.ID] = s
	return nil
}

func (f *fakeStudentStore) SetPackage(_ context.Context, s *model.Student) error {
	s.Invite = nil
	f.students[s.ID] = s
	return nil
}

func (f *fakeStudentStore) UpdateBalance(_ context.Context, id uint64, total int64, status model.PaymentStatus) error {
	s, ok := f.students[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.TotalPaidKobo = total
	s.PaymentStatus = status
	return nil
}

func (f *fakeStudentStore) SetInvite(_ context.Context, id uint64, inv *model.Invite) error {
	s, ok := f.students[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Invite = inv
	return nil
}

type fakePackageStore struct {
	packages map[uint64]*model.Package
}

func newFakePackageStore(pkgs ...*model.Package) *fakePackageStore {
	f := &fakePackageStore{packages: make(map[uint64]*model.Package)}
	for _, p := range pkgs {
		f.packages[p.ID] = p
	}
	return f
}

func (f *fakePackageStore) GetByID(_ context.Context, id uint64) (*model.Package, error) {
	p, ok := f.packages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePackageStore) GetByCode(_ context.Context, code string) (*model.Package, error) {
	for _, p := range f.packages {
		if p.Code == strings.ToUpper(code) {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePackageStore) List(_ context.Context) ([]model.Package, error) {
	var out []model.Package
	for _, p := range f.packages {
		out = append(out, *p)
	}
	return out, nil
}

type fakePaymentStore struct {
	nextID   uint64
	payments map[string]*model.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]*model.Payment)}
}

func (f *fakePaymentStore) Create(_ context.Context, p *model.Payment) error {
	if _, ok := f.payments[p.Reference]; ok {
		return repository.ErrDuplicateReference
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now().UTC()
	f.payments[p.Reference] = p
	return nil
}

func (f *fakePaymentStore) GetByReference(_ context.Context, ref string) (*model.Payment, error) {
	p, ok := f.payments[ref]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentStore) MarkSuccessIfPending(_ context.Context, ref string, paidAt time.Time, raw []byte) (bool, error) {
	p, ok := f.payments[ref]
	if !ok || p.Status != model.TxPending {
		return false, nil
	}
	p.Status = model.TxSuccess
	p.PaidAt = &paidAt
	p.RawPayload = raw
	return true, nil
}

func (f *fakePaymentStore) MarkFailed(_ context.Context, ref string, raw []byte) error {
	p, ok := f.payments[ref]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Status != model.TxPending {
		return nil
	}
	p.Status = model.TxFailed
	p.RawPayload = raw
	return nil
}

func (f *fakePaymentStore) ListByStudent(_ context.Context, studentID uint64) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range f.payments {
		if p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentStore) SumSuccessful(_ context.Context) (int64, error) {
	var sum int64
	for _, p := range f.payments {
		if p.Status == model.TxSuccess {
			sum += p.AmountKobo
		}
	}
	return sum, nil
}

type fakeEventStore struct {
	events map[string]*model.WebhookEvent
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[string]*model.WebhookEvent)}
}

func (f *fakeEventStore) key(eventID, ref string) string { return eventID + "|" + ref }

func (f *fakeEventStore) Exists(_ context.Context, eventID, ref string) (bool, error) {
	_, ok := f.events[f.key(eventID, ref)]
	return ok, nil
}

func (f *fakeEventStore) Insert(_ context.Context, ev *model.WebhookEvent) error {
	k := f.key(ev.EventID, ev.Reference)
	if _, ok := f.events[k]; ok {
		return repository.ErrDuplicateEvent
	}
	f.events[k] = ev
	return nil
}

type fakeGateway struct {
	initResult   *gateway.InitResult
	initErr      error
	verifyResult *gateway.VerifyResult
	verifyErr    error
	initCalls    int
	verifyCalls  int
}

func (f *fakeGateway) InitializeTransaction(_ context.Context, req gateway.InitRequest) (*gateway.InitResult, error) {
	f.initCalls++
	if f.initErr != nil {
		return nil, f.initErr
	}
	if f.initResult != nil {
		return f.initResult, nil
	}
	return &gateway.InitResult{AuthorizationURL: "https://pay.example/" + req.Reference, Reference: req.Reference}, nil
}

func (f *fakeGateway) VerifyTransaction(_ context.Context, _ string) (*gateway.VerifyResult, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResult, nil
}

type fakeInvites struct {
	calls int
	fail  bool
}

func (f *fakeInvites) Generate(st *model.Student, _ *model.Package) (string, error) {
	f.calls++
	if f.fail {
		return "", context.DeadlineExceeded
	}
	return "https://cdn.example/invites/invite-" + strings.ToLower(st.MatricNumber) + ".svg", nil
}
