package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/repository"
)

// StudentStore is the slice of student persistence the services need.
// *repository.StudentRepo satisfies it; tests substitute fakes.
type StudentStore interface {
	Create(ctx context.Context, s *model.Student) error
	GetByMatric(ctx context.Context, matric string) (*model.Student, error)
	GetByID(ctx context.Context, id uint64) (*model.Student, error)
	UpdateContact(ctx context.Context, s *model.Student) error
	SetPackage(ctx context.Context, s *model.Student) error
	UpdateBalance(ctx context.Context, id uint64, totalPaidKobo int64, status model.PaymentStatus) error
	SetInvite(ctx context.Context, id uint64, inv *model.Invite) error
}

// PackageStore is the slice of package persistence the services need.
type PackageStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Package, error)
	GetByCode(ctx context.Context, code string) (*model.Package, error)
	List(ctx context.Context) ([]model.Package, error)
}

// StudentService implements registration, package selection and
// upgrade rules on top of the stores.
type StudentService struct {
	students StudentStore
	packages PackageStore
}

// NewStudentService wires a StudentService.
func NewStudentService(students StudentStore, packages PackageStore) *StudentService {
	return &StudentService{students: students, packages: packages}
}

// CreateOrIdentify looks the student up by matric number and creates
// them when absent. For an existing student the name and any provided
// contact details are refreshed; nil email/phone leave stored values
// untouched.
func (s *StudentService) CreateOrIdentify(ctx context.Context, matric, fullName string, email, phone *string) (*model.Student, bool, error) {
	matric = normalizeMatric(matric)
	if matric == "" {
		return nil, false, fmt.Errorf("matric number is required")
	}

	existing, err := s.students.GetByMatric(ctx, matric)
	if err == nil {
		if fullName != "" {
			existing.FullName = fullName
		}
		existing.Email = coalesce(email, existing.Email)
		existing.Phone = coalesce(phone, existing.Phone)
		if err := s.students.UpdateContact(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != repository.ErrNotFound {
		return nil, false, err
	}

	st := &model.Student{
		MatricNumber:  matric,
		FullName:      fullName,
		Email:         email,
		Phone:         phone,
		PaymentStatus: model.StatusNotPaid,
	}
	if err := s.students.Create(ctx, st); err != nil {
		return nil, false, err
	}
	return st, true, nil
}

func normalizeMatric(matric string) string {
	return strings.ToUpper(strings.TrimSpace(matric))
}

func coalesce(v, fallback *string) *string {
	if v != nil && *v != "" {
		return v
	}
	return fallback
}

// GetByMatric returns the student for a matric number.
func (s *StudentService) GetByMatric(ctx context.Context, matric string) (*model.Student, error) {
	return s.students.GetByMatric(ctx, normalizeMatric(matric))
}

// resolveSelectedDays validates and normalizes the day selection for a
// package. FULL packages always cover every event day regardless of
// input; every other package requires exactly the package's day count
// after duplicates collapse, with each day a member of the event week.
func resolveSelectedDays(pkg *model.Package, days []model.EventDay) ([]model.EventDay, error) {
	if pkg.PackageType == model.PackageFull {
		out := make([]model.EventDay, len(model.EventDays))
		copy(out, model.EventDays)
		return out, nil
	}

	seen := make(map[model.EventDay]bool, len(days))
	var out []model.EventDay
	for _, d := range days {
		d = model.EventDay(strings.ToUpper(strings.TrimSpace(string(d))))
		if !model.ValidEventDay(d) {
			return nil, fmt.Errorf("%w: %q is not an event day", ErrInvalidDays, d)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	if want := pkg.PackageType.RequiredDays(); len(out) != want {
		return nil, fmt.Errorf("%w: need exactly %d distinct days, got %d", ErrInvalidDays, want, len(out))
	}
	return out, nil
}

// SelectPackage assigns a package to a student, replacing any previous
// selection. The balance, derived status and any generated invite are
// reset because the selection starts a fresh payment obligation.
func (s *StudentService) SelectPackage(ctx context.Context, matric, packageCode string, days []model.EventDay) (*model.Student, error) {
	st, err := s.GetByMatric(ctx, matric)
	if err != nil {
		return nil, err
	}
	pkg, err := s.packages.GetByCode(ctx, packageCode)
	if err == repository.ErrNotFound {
		return nil, ErrUnknownPackage
	}
	if err != nil {
		return nil, err
	}
	selected, err := resolveSelectedDays(pkg, days)
	if err != nil {
		return nil, err
	}

	st.PackageID = pkg.ID
	st.SelectedDays = selected
	st.TotalPaidKobo = 0
	st.PaymentStatus = model.StatusNotPaid
	if err := s.students.SetPackage(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// UpgradePackage moves a student to a strictly more expensive package.
// The paid total carries over and the status is re-derived against the
// new price; the invite is cleared since it referenced the old package.
func (s *StudentService) UpgradePackage(ctx context.Context, matric, packageCode string, days []model.EventDay) (*model.Student, error) {
	st, err := s.GetByMatric(ctx, matric)
	if err != nil {
		return nil, err
	}
	if st.PackageID == 0 {
		return nil, ErrNoPackage
	}
	current, err := s.packages.GetByID(ctx, st.PackageID)
	if err != nil {
		return nil, err
	}
	target, err := s.packages.GetByCode(ctx, packageCode)
	if err == repository.ErrNotFound {
		return nil, ErrUnknownPackage
	}
	if err != nil {
		return nil, err
	}
	if target.PriceKobo <= current.PriceKobo {
		return nil, ErrNotAnUpgrade
	}
	selected, err := resolveSelectedDays(target, days)
	if err != nil {
		return nil, err
	}

	st.PackageID = target.ID
	st.SelectedDays = selected
	st.PaymentStatus = model.DeriveStatus(st.TotalPaidKobo, target.PriceKobo)
	if err := s.students.SetPackage(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// ListPackages returns all packages ordered by price.
func (s *StudentService) ListPackages(ctx context.Context) ([]model.Package, error) {
	return s.packages.List(ctx)
}
