package service

import (
	"context"
	"errors"
	"time"

	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/repository"
	"github.com/ulesfyw/fyw-pay/internal/utils"
)

// ErrBadCredentials is returned for any admin login failure. The
// response never distinguishes a wrong email from a wrong password.
var ErrBadCredentials = errors.New("invalid email or password")

// StudentDirectory is the reporting slice of student persistence.
// *repository.StudentRepo satisfies it.
type StudentDirectory interface {
	List(ctx context.Context, f repository.ListFilter) ([]model.Student, int, error)
	ListAll(ctx context.Context) ([]model.Student, error)
	CountByStatus(ctx context.Context) (map[model.PaymentStatus]int, int, error)
	OutstandingTotal(ctx context.Context) (int64, error)
}

// RevenueSummer reports settled revenue. *repository.PaymentRepo
// satisfies it.
type RevenueSummer interface {
	SumSuccessful(ctx context.Context) (int64, error)
}

// InviteNotifier re-delivers an invite by email. *mailer.Mailer
// satisfies it.
type InviteNotifier interface {
	SendInvite(to, fullName, packageName, inviteURL string) error
}

// AdminConfig holds the single operator identity and token settings.
type AdminConfig struct {
	Email        string
	PasswordHash string // bcrypt hash of the admin password
	JWTSecret    string
	TokenTTLMin  int
}

// AdminService implements operator authentication and reporting.
type AdminService struct {
	cfg       AdminConfig
	students  StudentStore
	directory StudentDirectory
	packages  PackageStore
	revenue   RevenueSummer
	invites   InviteGenerator
	notifier  InviteNotifier
}

// NewAdminService wires an AdminService. notifier may be nil when SMTP
// is not configured; resend then fails with a clear error.
func NewAdminService(
	cfg AdminConfig,
	students StudentStore,
	directory StudentDirectory,
	packages PackageStore,
	revenue RevenueSummer,
	invites InviteGenerator,
	notifier InviteNotifier,
) *AdminService {
	return &AdminService{
		cfg:       cfg,
		students:  students,
		directory: directory,
		packages:  packages,
		revenue:   revenue,
		invites:   invites,
		notifier:  notifier,
	}
}

// Login checks the operator credentials against the configured
// identity and returns a signed access token.
func (s *AdminService) Login(email, password string) (utils.AccessToken, error) {
	if email != s.cfg.Email || !utils.VerifyPassword(s.cfg.PasswordHash, password) {
		return utils.AccessToken{}, ErrBadCredentials
	}
	return utils.NewAdminToken(s.cfg.JWTSecret, email, s.cfg.TokenTTLMin)
}

// Metrics is the operator dashboard snapshot.
type Metrics struct {
	TotalStudents      int                         `json:"total_students"`
	ByStatus           map[model.PaymentStatus]int `json:"by_status"`
	RevenueKobo        int64                       `json:"revenue_kobo"`
	OutstandingKobo    int64                       `json:"outstanding_kobo"`
	CollectedAtRFC3339 string                      `json:"collected_at"`
}

// CollectMetrics aggregates registration and revenue counters.
func (s *AdminService) CollectMetrics(ctx context.Context) (*Metrics, error) {
	byStatus, total, err := s.directory.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.revenue.SumSuccessful(ctx)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.directory.OutstandingTotal(ctx)
	if err != nil {
		return nil, err
	}
	return &Metrics{
		TotalStudents:      total,
		ByStatus:           byStatus,
		RevenueKobo:        revenue,
		OutstandingKobo:    outstanding,
		CollectedAtRFC3339: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ListStudents pages the student directory for the admin UI.
func (s *AdminService) ListStudents(ctx context.Context, f repository.ListFilter) ([]model.Student, int, error) {
	return s.directory.List(ctx, f)
}

// ExportStudents returns every student for CSV export.
func (s *AdminService) ExportStudents(ctx context.Context) ([]model.Student, error) {
	return s.directory.ListAll(ctx)
}

// GetStudent returns one student by ID.
func (s *AdminService) GetStudent(ctx context.Context, id uint64) (*model.Student, error) {
	return s.students.GetByID(ctx, id)
}

// ResendInvite re-delivers the existing invite to the student's email.
// The student must be fully paid with a generated invite on record.
func (s *AdminService) ResendInvite(ctx context.Context, studentID uint64) error {
	st, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	if st.PaymentStatus != model.StatusFullyPaid {
		return ErrNotFullyPaid
	}
	if st.Invite == nil {
		return ErrNoInvite
	}
	if st.Email == nil || *st.Email == "" {
		return ErrMissingEmail
	}
	if s.notifier == nil {
		return errors.New("mail delivery is not configured")
	}
	pkg, err := s.packages.GetByID(ctx, st.PackageID)
	if err != nil {
		return err
	}
	return s.notifier.SendInvite(*st.Email, st.FullName, pkg.Name, st.Invite.ImageURL)
}

// RegenerateInvite rebuilds the invite artifact for a fully paid
// student, replacing any previous file, and records the new URL.
func (s *AdminService) RegenerateInvite(ctx context.Context, studentID uint64) (*model.Invite, error) {
	st, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.PaymentStatus != model.StatusFullyPaid {
		return nil, ErrNotFullyPaid
	}
	pkg, err := s.packages.GetByID(ctx, st.PackageID)
	if err != nil {
		return nil, err
	}
	url, err := s.invites.Generate(st, pkg)
	if err != nil {
		return nil, err
	}
	inv := &model.Invite{ImageURL: url, GeneratedAt: time.Now().UTC()}
	if err := s.students.SetInvite(ctx, st.ID, inv); err != nil {
		return nil, err
	}
	return inv, nil
}
