package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ulesfyw/fyw-pay/internal/model"
)

// StudentRepo provides CRUD operations for students. Selected days are
// stored as a comma-separated list of day keys; invite columns are
// nullable and only populated once an invitation artifact has been
// generated.
type StudentRepo struct {
	db *sql.DB
}

// NewStudentRepo returns a new StudentRepo bound to the given database.
func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

const studentColumns = `id, matric_number, full_name, email, phone, package_id, selected_days,
	total_paid_kobo, payment_status, invite_image_url, invite_generated_at, created_at, updated_at`

func encodeDays(days []model.EventDay) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, string(d))
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) []model.EventDay {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	days := make([]model.EventDay, 0, len(parts))
	for _, p := range parts {
		days = append(days, model.EventDay(p))
	}
	return days
}

func scanStudent(row interface{ Scan(...any) error }) (*model.Student, error) {
	var s model.Student
	var email, phone, days, inviteURL sql.NullString
	var status string
	var pkgID sql.NullInt64
	var inviteAt sql.NullTime
	err := row.Scan(&s.ID, &s.MatricNumber, &s.FullName, &email, &phone, &pkgID, &days,
		&s.TotalPaidKobo, &status, &inviteURL, &inviteAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if pkgID.Valid {
		s.PackageID = uint64(pkgID.Int64)
	}
	s.PaymentStatus = model.PaymentStatus(status)
	s.SelectedDays = decodeDays(days.String)
	if email.Valid {
		s.Email = &email.String
	}
	if phone.Valid {
		s.Phone = &phone.String
	}
	if inviteURL.Valid && inviteAt.Valid {
		s.Invite = &model.Invite{ImageURL: inviteURL.String, GeneratedAt: inviteAt.Time}
	}
	return &s, nil
}

// Create inserts a new student and populates the generated ID. The
// matric number must already be normalized to uppercase by the caller.
func (r *StudentRepo) Create(ctx context.Context, s *model.Student) error {
	const q = `INSERT INTO students (matric_number, full_name, email, phone, package_id,
	               selected_days, total_paid_kobo, payment_status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var pkgID any
	if s.PackageID != 0 {
		pkgID = s.PackageID
	}
	res, err := r.db.ExecContext(ctx, q, s.MatricNumber, s.FullName, s.Email, s.Phone,
		pkgID, encodeDays(s.SelectedDays), s.TotalPaidKobo, string(s.PaymentStatus))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByMatric returns the student with the given matric number, or
// ErrNotFound.
func (r *StudentRepo) GetByMatric(ctx context.Context, matric string) (*model.Student, error) {
	const q = `SELECT ` + studentColumns + ` FROM students WHERE matric_number = ?`
	s, err := scanStudent(r.db.QueryRowContext(ctx, q, strings.ToUpper(strings.TrimSpace(matric))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// GetByID returns the student with the given ID, or ErrNotFound.
func (r *StudentRepo) GetByID(ctx context.Context, id uint64) (*model.Student, error) {
	const q = `SELECT ` + studentColumns + ` FROM students WHERE id = ?`
	s, err := scanStudent(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// UpdateContact updates name, email, phone and selected days for an
// existing student. Nil email/phone leave the stored values untouched.
func (r *StudentRepo) UpdateContact(ctx context.Context, s *model.Student) error {
	const q = `UPDATE students SET full_name = ?, email = COALESCE(?, email),
	               phone = COALESCE(?, phone), selected_days = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, s.FullName, s.Email, s.Phone, encodeDays(s.SelectedDays), s.ID)
	return err
}

// SetPackage repoints the student at a package, replaces their day
// selection, writes the (possibly recomputed) balance and status, and
// clears any invite artifact. It serves both select-package (balance
// reset by the caller) and upgrade-package (balance preserved by the
// caller) since the storage mutation is identical.
func (r *StudentRepo) SetPackage(ctx context.Context, s *model.Student) error {
	const q = `UPDATE students SET package_id = ?, selected_days = ?, total_paid_kobo = ?,
	               payment_status = ?, invite_image_url = NULL, invite_generated_at = NULL
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, s.PackageID, encodeDays(s.SelectedDays),
		s.TotalPaidKobo, string(s.PaymentStatus), s.ID)
	if err == nil {
		s.Invite = nil
	}
	return err
}

// UpdateBalance writes a new paid total and derived status.
func (r *StudentRepo) UpdateBalance(ctx context.Context, id uint64, totalPaidKobo int64, status model.PaymentStatus) error {
	const q = `UPDATE students SET total_paid_kobo = ?, payment_status = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, totalPaidKobo, string(status), id)
	return err
}

// SetInvite records the generated invitation artifact.
func (r *StudentRepo) SetInvite(ctx context.Context, id uint64, inv *model.Invite) error {
	const q = `UPDATE students SET invite_image_url = ?, invite_generated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, inv.ImageURL, inv.GeneratedAt, id)
	return err
}

// ListFilter narrows and pages the admin student listing. Zero values
// disable the corresponding filter.
type ListFilter struct {
	Status      model.PaymentStatus
	PackageID   uint64
	Search      string // matched against full name and matric number
	Page        int    // 1-based
	Limit       int
}

// List returns a page of students matching the filter plus the total
// match count. Results are ordered newest first.
func (r *StudentRepo) List(ctx context.Context, f ListFilter) ([]model.Student, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}

	where := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if f.Status != "" {
		where = append(where, "payment_status = ?")
		args = append(args, string(f.Status))
	}
	if f.PackageID != 0 {
		where = append(where, "package_id = ?")
		args = append(args, f.PackageID)
	}
	if f.Search != "" {
		where = append(where, "(full_name LIKE ? OR matric_number LIKE ?)")
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + studentColumns + ` FROM students` + cond +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Student, 0, f.Limit)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

// ListAll returns every student, newest first. Used by the CSV export.
func (r *StudentRepo) ListAll(ctx context.Context) ([]model.Student, error) {
	const q = `SELECT ` + studentColumns + ` FROM students ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CountByStatus returns the number of students per payment status plus
// the overall total.
func (r *StudentRepo) CountByStatus(ctx context.Context) (map[model.PaymentStatus]int, int, error) {
	const q = `SELECT payment_status, COUNT(*) FROM students GROUP BY payment_status`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	counts := make(map[model.PaymentStatus]int)
	total := 0
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, 0, err
		}
		counts[model.PaymentStatus(status)] = n
		total += n
	}
	return counts, total, rows.Err()
}

// OutstandingTotal sums, over all students, the positive gap between
// the current package price and the student's paid total.
func (r *StudentRepo) OutstandingTotal(ctx context.Context) (int64, error) {
	const q = `SELECT COALESCE(SUM(GREATEST(p.price_kobo - s.total_paid_kobo, 0)), 0)
	           FROM students s JOIN packages p ON p.id = s.package_id`
	var total int64
	err := r.db.QueryRowContext(ctx, q).Scan(&total)
	return total, err
}
