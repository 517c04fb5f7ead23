package handler

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ulesfyw/fyw-pay/internal/mailer"
	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/repository"
	"github.com/ulesfyw/fyw-pay/internal/service"
)

// AdminHandler serves the operator API: login, dashboard metrics, the
// student directory, invite management and CSV export. All routes
// except login are guarded by JWTAuth plus RequireRole("admin").
type AdminHandler struct {
	Admin    *service.AdminService
	Packages service.PackageStore
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the operator and returns a bearer token.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	tok, err := h.Admin.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
		}
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":      tok.Token,
		"expires_at": tok.Exp,
	})
}

// Metrics returns the dashboard snapshot.
func (h *AdminHandler) Metrics(c echo.Context) error {
	m, err := h.Admin.CollectMetrics(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) adminStudentView(c echo.Context, st *model.Student) StudentView {
	sh := &StudentHandler{Packages: h.Packages}
	return sh.studentView(c, st)
}

// ListStudents pages the directory. Query parameters: status,
// package_id, search, page, limit.
func (h *AdminHandler) ListStudents(c echo.Context) error {
	f := repository.ListFilter{
		Status: model.PaymentStatus(c.QueryParam("status")),
		Search: c.QueryParam("search"),
	}
	if v := c.QueryParam("package_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package_id"})
		}
		f.PackageID = id
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	students, total, err := h.Admin.ListStudents(c.Request().Context(), f)
	if err != nil {
		return domainError(c, err)
	}
	out := make([]StudentView, 0, len(students))
	for i := range students {
		out = append(out, h.adminStudentView(c, &students[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": out,
		"total": total,
	})
}

// GetStudent returns one student by numeric ID.
func (h *AdminHandler) GetStudent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id"})
	}
	st, err := h.Admin.GetStudent(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, h.adminStudentView(c, st))
}

// ResendInvite re-delivers an existing invite by email.
func (h *AdminHandler) ResendInvite(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id"})
	}
	if err := h.Admin.ResendInvite(c.Request().Context(), id); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "invite sent"})
}

// RegenerateInvite rebuilds the invite artifact and records it.
func (h *AdminHandler) RegenerateInvite(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id"})
	}
	inv, err := h.Admin.RegenerateInvite(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, InviteView{ImageURL: inv.ImageURL, GeneratedAt: inv.GeneratedAt})
}

// ExportCSV streams the full student directory as CSV.
func (h *AdminHandler) ExportCSV(c echo.Context) error {
	students, err := h.Admin.ExportStudents(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="students.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	defer w.Flush()

	header := []string{"matric_number", "full_name", "email", "phone", "package", "selected_days", "total_paid", "payment_status", "invite_url"}
	if err := w.Write(header); err != nil {
		return err
	}

	ctx := c.Request().Context()
	names := map[uint64]string{}
	for i := range students {
		st := &students[i]
		pkgName := ""
		if st.PackageID != 0 {
			if cached, ok := names[st.PackageID]; ok {
				pkgName = cached
			} else if pkg, err := h.Packages.GetByID(ctx, st.PackageID); err == nil {
				pkgName = pkg.Name
				names[st.PackageID] = pkgName
			}
		}
		days := ""
		for j, d := range st.SelectedDays {
			if j > 0 {
				days += "|"
			}
			days += string(d)
		}
		email, phone, inviteURL := "", "", ""
		if st.Email != nil {
			email = *st.Email
		}
		if st.Phone != nil {
			phone = *st.Phone
		}
		if st.Invite != nil {
			inviteURL = st.Invite.ImageURL
		}
		record := []string{
			st.MatricNumber,
			st.FullName,
			email,
			phone,
			pkgName,
			days,
			mailer.FormatNaira(st.TotalPaidKobo),
			string(st.PaymentStatus),
			inviteURL,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
