package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/persistence"
)

var (
	// ErrStaffNotFound is returned when no record matches the lookup key.
	ErrStaffNotFound = errors.New("staff member not found")
	// ErrStaffExists is returned by Create for a duplicate employee id.
	ErrStaffExists = errors.New("staff member already exists")
	// ErrDirectoryUnavailable marks a lookup that failed for reasons other than absence.
	ErrDirectoryUnavailable = errors.New("staff directory unavailable")
)

// StaffDirectory is the source of truth for staff records.
type StaffDirectory interface {
	FindByEmail(ctx context.Context, email string) (*domain.StaffRecord, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*domain.StaffRecord, error)
	// UpdateCredential replaces the stored hash and salt. It reports false when
	// no record carries employeeID.
	UpdateCredential(ctx context.Context, employeeID, hash, salt string) (bool, error)
	List(ctx context.Context) ([]domain.StaffRecord, error)
	Create(ctx context.Context, rec *domain.StaffRecord) error
}

// RecordStore re-reads the staff table directly, bypassing any cache.
type RecordStore interface {
	AdminFlag(ctx context.Context, employeeID string) (bool, error)
}

// Repository is a directory that also serves as the record store.
type Repository interface {
	StaffDirectory
	RecordStore
}

const staffColumns = `employee_id, display_name, role, store, email, password_hash, salt, is_admin`

// SQLStaffRepository implements Repository over database/sql.
type SQLStaffRepository struct {
	db      *sql.DB
	dialect string
}

// NewSQLStaffRepository instantiates the repository for the given dialect.
func NewSQLStaffRepository(db *sql.DB, dialect string) *SQLStaffRepository {
	return &SQLStaffRepository{db: db, dialect: dialect}
}

func (r *SQLStaffRepository) q(query string) string {
	return persistence.Rebind(r.dialect, query)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (*domain.StaffRecord, error) {
	var rec domain.StaffRecord
	if err := row.Scan(
		&rec.EmployeeID,
		&rec.DisplayName,
		&rec.Role,
		&rec.Store,
		&rec.Email,
		&rec.PasswordHash,
		&rec.Salt,
		&rec.IsAdmin,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SQLStaffRepository) findOne(ctx context.Context, query string, args ...any) (*domain.StaffRecord, error) {
	rec, err := scanStaff(r.db.QueryRowContext(ctx, r.q(query), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return rec, nil
}

// FindByEmail returns the first record, by employee id, with the given email.
func (r *SQLStaffRepository) FindByEmail(ctx context.Context, email string) (*domain.StaffRecord, error) {
	rec, err := r.findOne(ctx,
		`SELECT `+staffColumns+` FROM staff_members WHERE email = ? ORDER BY employee_id LIMIT 1`, email)
	if err != nil && !errors.Is(err, ErrStaffNotFound) {
		return nil, fmt.Errorf("find staff by email: %w", err)
	}
	return rec, err
}

// FindByEmployeeID returns the record keyed by employeeID.
func (r *SQLStaffRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*domain.StaffRecord, error) {
	rec, err := r.findOne(ctx,
		`SELECT `+staffColumns+` FROM staff_members WHERE employee_id = ?`, employeeID)
	if err != nil && !errors.Is(err, ErrStaffNotFound) {
		return nil, fmt.Errorf("find staff by id: %w", err)
	}
	return rec, err
}

func (r *SQLStaffRepository) UpdateCredential(ctx context.Context, employeeID, hash, salt string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(`
        UPDATE staff_members
        SET password_hash = ?, salt = ?, updated_at = CURRENT_TIMESTAMP
        WHERE employee_id = ?`),
		hash, salt, employeeID,
	)
	if err != nil {
		return false, fmt.Errorf("update credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update credential: %w", err)
	}
	return n > 0, nil
}

// List returns every record ordered by employee id.
func (r *SQLStaffRepository) List(ctx context.Context) ([]domain.StaffRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+staffColumns+` FROM staff_members ORDER BY employee_id`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var out []domain.StaffRecord
	for rows.Next() {
		rec, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return out, nil
}

func (r *SQLStaffRepository) Create(ctx context.Context, rec *domain.StaffRecord) error {
	_, err := r.db.ExecContext(ctx, r.q(`
        INSERT INTO staff_members (`+staffColumns+`)
        VALUES (?,?,?,?,?,?,?,?)`),
		rec.EmployeeID,
		rec.DisplayName,
		rec.Role,
		rec.Store,
		rec.Email,
		rec.PasswordHash,
		rec.Salt,
		rec.IsAdmin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrStaffExists, rec.EmployeeID)
		}
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// AdminFlag reads is_admin straight from the table.
func (r *SQLStaffRepository) AdminFlag(ctx context.Context, employeeID string) (bool, error) {
	var admin bool
	err := r.db.QueryRowContext(ctx,
		r.q(`SELECT is_admin FROM staff_members WHERE employee_id = ?`), employeeID,
	).Scan(&admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrStaffNotFound
		}
		return false, fmt.Errorf("read admin flag: %w", err)
	}
	return admin, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
