package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/utils"
)

type fakeNotifier struct {
	sent []string
	fail bool
}

func (f *fakeNotifier) SendInvite(to, _, _, _ string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, to)
	return nil
}

func newAdminFixture(t *testing.T) (*AdminService, *fakeStudentStore, *fakeInvites, *fakeNotifier) {
	t.Helper()
	hash, err := utils.HashPassword("s3cret", 4)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	students := newFakeStudentStore()
	pkg := &model.Package{ID: 3, Code: "F", Name: "Full Experience", PackageType: model.PackageFull, PriceKobo: 6000000}
	invites := &fakeInvites{}
	notifier := &fakeNotifier{}
	svc := NewAdminService(
		AdminConfig{Email: "admin@x.com", PasswordHash: hash, JWTSecret: "test-secret", TokenTTLMin: 30},
		students, nil, newFakePackageStore(pkg), nil, invites, notifier,
	)
	return svc, students, invites, notifier
}

func TestAdminLogin(t *testing.T) {
	svc, _, _, _ := newAdminFixture(t)

	tests := []struct {
		name     string
		email    string
		password string
		ok       bool
	}{
		{"valid credentials", "admin@x.com", "s3cret", true},
		{"wrong password", "admin@x.com", "nope", false},
		{"wrong email", "other@x.com", "s3cret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := svc.Login(tt.email, tt.password)
			if tt.ok {
				if err != nil {
					t.Fatalf("Login() error = %v", err)
				}
				if tok.Token == "" {
					t.Error("empty token on success")
				}
				return
			}
			if !errors.Is(err, ErrBadCredentials) {
				t.Errorf("error = %v, want ErrBadCredentials", err)
			}
		})
	}
}

func TestResendInvite(t *testing.T) {
	svc, students, _, notifier := newAdminFixture(t)
	paid := students.add(&model.Student{
		MatricNumber:  "CSC/2021/001",
		FullName:      "Ada",
		Email:         strPtr("ada@x.com"),
		PackageID:     3,
		PaymentStatus: model.StatusFullyPaid,
		Invite:        &model.Invite{ImageURL: "https://cdn.example/i.svg"},
	})
	partial := students.add(&model.Student{
		MatricNumber:  "CSC/2021/002",
		FullName:      "Ben",
		Email:         strPtr("ben@x.com"),
		PackageID:     3,
		PaymentStatus: model.StatusPartiallyPaid,
	})
	noInvite := students.add(&model.Student{
		MatricNumber:  "CSC/2021/003",
		FullName:      "Chi",
		Email:         strPtr("chi@x.com"),
		PackageID:     3,
		PaymentStatus: model.StatusFullyPaid,
	})

	if err := svc.ResendInvite(context.Background(), paid.ID); err != nil {
		t.Errorf("ResendInvite(paid) error = %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "ada@x.com" {
		t.Errorf("sent = %v, want one mail to ada@x.com", notifier.sent)
	}
	if err := svc.ResendInvite(context.Background(), partial.ID); !errors.Is(err, ErrNotFullyPaid) {
		t.Errorf("ResendInvite(partial) error = %v, want ErrNotFullyPaid", err)
	}
	if err := svc.ResendInvite(context.Background(), noInvite.ID); !errors.Is(err, ErrNoInvite) {
		t.Errorf("ResendInvite(no invite) error = %v, want ErrNoInvite", err)
	}
}

func TestRegenerateInvite(t *testing.T) {
	svc, students, invites, _ := newAdminFixture(t)
	paid := students.add(&model.Student{
		MatricNumber:  "CSC/2021/001",
		FullName:      "Ada",
		PackageID:     3,
		PaymentStatus: model.StatusFullyPaid,
		Invite:        &model.Invite{ImageURL: "https://cdn.example/stale.svg"},
	})
	partial := students.add(&model.Student{
		MatricNumber:  "CSC/2021/002",
		FullName:      "Ben",
		PackageID:     3,
		PaymentStatus: model.StatusPartiallyPaid,
	})

	inv, err := svc.RegenerateInvite(context.Background(), paid.ID)
	if err != nil {
		t.Fatalf("RegenerateInvite() error = %v", err)
	}
	if invites.calls != 1 {
		t.Errorf("generator calls = %d, want 1", invites.calls)
	}
	if inv.ImageURL == "https://cdn.example/stale.svg" {
		t.Error("invite URL not refreshed")
	}
	if paid.Invite == nil || paid.Invite.ImageURL != inv.ImageURL {
		t.Error("refreshed invite not recorded on the student")
	}

	if _, err := svc.RegenerateInvite(context.Background(), partial.ID); !errors.Is(err, ErrNotFullyPaid) {
		t.Errorf("error = %v, want ErrNotFullyPaid", err)
	}
}
