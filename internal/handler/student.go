// Package handler exposes the HTTP handlers. Request and response
// shapes are defined here as plain structs with JSON tags; storage
// types never leak to clients directly.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/repository"
	"github.com/ulesfyw/fyw-pay/internal/service"
)

// StudentHandler serves registration, package selection and the
// public package catalog.
type StudentHandler struct {
	Students *service.StudentService
	Packages service.PackageStore
}

// PackageView is the public shape of a package.
type PackageView struct {
	ID        uint64   `json:"id"`
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	PriceKobo int64    `json:"price_kobo"`
	Benefits  []string `json:"benefits,omitempty"`
}

// InviteView is the public shape of a generated invite.
type InviteView struct {
	ImageURL    string    `json:"image_url"`
	GeneratedAt time.Time `json:"generated_at"`
}

// StudentView is the public shape of a student record.
type StudentView struct {
	ID            uint64       `json:"id"`
	MatricNumber  string       `json:"matric_number"`
	FullName      string       `json:"full_name"`
	Email         *string      `json:"email,omitempty"`
	Phone         *string      `json:"phone,omitempty"`
	Package       *PackageView `json:"package,omitempty"`
	SelectedDays  []string     `json:"selected_days"`
	TotalPaidKobo int64        `json:"total_paid_kobo"`
	PaymentStatus string       `json:"payment_status"`
	Invite        *InviteView  `json:"invite,omitempty"`
}

func packageView(p *model.Package) *PackageView {
	if p == nil {
		return nil
	}
	return &PackageView{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		Type:      string(p.PackageType),
		PriceKobo: p.PriceKobo,
		Benefits:  p.Benefits,
	}
}

func (h *StudentHandler) studentView(c echo.Context, st *model.Student) StudentView {
	v := StudentView{
		ID:            st.ID,
		MatricNumber:  st.MatricNumber,
		FullName:      st.FullName,
		Email:         st.Email,
		Phone:         st.Phone,
		SelectedDays:  make([]string, 0, len(st.SelectedDays)),
		TotalPaidKobo: st.TotalPaidKobo,
		PaymentStatus: string(st.PaymentStatus),
	}
	for _, d := range st.SelectedDays {
		v.SelectedDays = append(v.SelectedDays, string(d))
	}
	if st.Invite != nil {
		v.Invite = &InviteView{ImageURL: st.Invite.ImageURL, GeneratedAt: st.Invite.GeneratedAt}
	}
	if st.PackageID != 0 && h.Packages != nil {
		if pkg, err := h.Packages.GetByID(c.Request().Context(), st.PackageID); err == nil {
			v.Package = packageView(pkg)
		}
	}
	return v
}

// domainError maps service errors onto HTTP responses. Unknown errors
// surface as 500 without leaking internals.
func domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrUnknownPackage),
		errors.Is(err, service.ErrInvalidDays),
		errors.Is(err, service.ErrNoPackage),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrMissingEmail):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotAnUpgrade),
		errors.Is(err, service.ErrNothingOutstanding),
		errors.Is(err, service.ErrNotFullyPaid),
		errors.Is(err, service.ErrNoInvite):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// ListPackages returns the package catalog ordered by price. The
// route sits behind the Redis response cache.
func (h *StudentHandler) ListPackages(c echo.Context) error {
	pkgs, err := h.Students.ListPackages(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}
	out := make([]PackageView, 0, len(pkgs))
	for i := range pkgs {
		out = append(out, *packageView(&pkgs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type identifyRequest struct {
	MatricNumber string  `json:"matric_number"`
	FullName     string  `json:"full_name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
}

// Identify registers a student on first contact and refreshes contact
// details on subsequent ones. New registrations answer 201.
func (h *StudentHandler) Identify(c echo.Context) error {
	var req identifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MatricNumber == "" || req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "matric_number and full_name are required"})
	}

	st, created, err := h.Students.CreateOrIdentify(c.Request().Context(), req.MatricNumber, req.FullName, req.Email, req.Phone)
	if err != nil {
		return domainError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, h.studentView(c, st))
}

// GetByMatric returns one student by matric number.
func (h *StudentHandler) GetByMatric(c echo.Context) error {
	st, err := h.Students.GetByMatric(c.Request().Context(), c.Param("matricNumber"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, h.studentView(c, st))
}

type selectPackageRequest struct {
	MatricNumber string   `json:"matric_number"`
	PackageCode  string   `json:"package_code"`
	Days         []string `json:"days"`
}

func toEventDays(in []string) []model.EventDay {
	out := make([]model.EventDay, 0, len(in))
	for _, d := range in {
		out = append(out, model.EventDay(d))
	}
	return out
}

// SelectPackage assigns a package and day selection, resetting any
// previous balance.
func (h *StudentHandler) SelectPackage(c echo.Context) error {
	var req selectPackageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MatricNumber == "" || req.PackageCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "matric_number and package_code are required"})
	}

	st, err := h.Students.SelectPackage(c.Request().Context(), req.MatricNumber, req.PackageCode, toEventDays(req.Days))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, h.studentView(c, st))
}

// UpgradePackage moves the student to a strictly more expensive
// package, carrying their paid total over.
func (h *StudentHandler) UpgradePackage(c echo.Context) error {
	var req selectPackageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MatricNumber == "" || req.PackageCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "matric_number and package_code are required"})
	}

	st, err := h.Students.UpgradePackage(c.Request().Context(), req.MatricNumber, req.PackageCode, toEventDays(req.Days))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, h.studentView(c, st))
}
