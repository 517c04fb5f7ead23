package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ulesfyw/fyw-pay/internal/model"
)

// PackageRepo provides read and seed operations for event packages.
// Benefits are stored as a JSON array in a TEXT column; the repository
// handles the encoding so callers only ever see []string.
type PackageRepo struct {
	db *sql.DB
}

// NewPackageRepo returns a new PackageRepo bound to the given database.
func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{db: db} }

const packageColumns = `id, code, name, package_type, price_kobo, benefits, created_at, updated_at`

func scanPackage(row interface{ Scan(...any) error }) (*model.Package, error) {
	var p model.Package
	var benefits string
	var ptype string
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &ptype, &p.PriceKobo, &benefits, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.PackageType = model.PackageType(ptype)
	if benefits != "" {
		if err := json.Unmarshal([]byte(benefits), &p.Benefits); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// GetByID returns the package with the given ID, or ErrNotFound.
func (r *PackageRepo) GetByID(ctx context.Context, id uint64) (*model.Package, error) {
	const q = `SELECT ` + packageColumns + ` FROM packages WHERE id = ?`
	p, err := scanPackage(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetByCode returns the package with the given code (case-insensitive),
// or ErrNotFound.
func (r *PackageRepo) GetByCode(ctx context.Context, code string) (*model.Package, error) {
	const q = `SELECT ` + packageColumns + ` FROM packages WHERE code = ?`
	p, err := scanPackage(r.db.QueryRowContext(ctx, q, strings.ToUpper(strings.TrimSpace(code))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns all packages ordered by price ascending.
func (r *PackageRepo) List(ctx context.Context) ([]model.Package, error) {
	const q = `SELECT ` + packageColumns + ` FROM packages ORDER BY price_kobo ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Upsert creates the package or updates name, type, price and benefits
// for an existing code. Used by the seeder and by administrative
// corrections.
func (r *PackageRepo) Upsert(ctx context.Context, p *model.Package) error {
	benefits, err := json.Marshal(p.Benefits)
	if err != nil {
		return err
	}
	const q = `INSERT INTO packages (code, name, package_type, price_kobo, benefits)
	           VALUES (?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE name = VALUES(name), package_type = VALUES(package_type),
	               price_kobo = VALUES(price_kobo), benefits = VALUES(benefits)`
	_, err = r.db.ExecContext(ctx, q,
		strings.ToUpper(strings.TrimSpace(p.Code)), p.Name, string(p.PackageType), p.PriceKobo, string(benefits))
	return err
}
