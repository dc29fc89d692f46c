package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/spardhafest/spardha/internal/model"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects the backing database. DataDir is only used by the SQLite
// driver when DSN is empty.
type Options struct {
	Driver  string
	DSN     string
	DataDir string
}

// Store persists admin credentials and festival registrations. It is backed
// by an embedded SQLite file by default or a hosted Postgres database.
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore opens a SQLite store in dataDir. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	return Open(Options{Driver: DriverSQLite, DataDir: dataDir})
}

// Open connects to the database described by opts and applies migrations.
func Open(opts Options) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch opts.Driver {
	case "", DriverSQLite:
		db, err = openSQLite(opts)
		opts.Driver = DriverSQLite
	case DriverPostgres:
		db, err = openPostgres(opts)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, driver: opts.Driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func openSQLite(opts Options) (*sqlx.DB, error) {
	dsn := opts.DSN
	if dsn == "" {
		if opts.DataDir == "" {
			dsn = ":memory:"
		} else {
			if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = "file:" + filepath.Join(opts.DataDir, "spardha.db") +
				"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	return db, nil
}

func openPostgres(opts Options) (*sqlx.DB, error) {
	if opts.DSN == "" {
		return nil, errors.New("postgres driver requires a dsn")
	}
	db, err := sqlx.Connect("pgx", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Driver reports which database driver backs the store.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Admin credentials
// ---------------------------------------------------------------------------

const adminColumns = `id, email, password_hash, full_name, role, is_active, last_login, created_at, updated_at`

// CreateAdmin inserts a new admin credential. ID, CreatedAt and UpdatedAt are
// populated on admin before the insert. Returns ErrConflict if the email is
// already registered.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.AdminCredential) error {
	now := time.Now().UTC()
	if admin.ID == "" {
		admin.ID = uuid.Must(uuid.NewV7()).String()
	}
	if admin.Role == "" {
		admin.Role = model.RoleAdmin
	}
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const q = `INSERT INTO admin_credentials
		(id, email, password_hash, full_name, role, is_active, created_at, updated_at)
		VALUES
		(:id, :email, :password_hash, :full_name, :role, :is_active, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, admin); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetAdminByEmail returns the credential for email regardless of its active
// state.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.AdminCredential, error) {
	var admin model.AdminCredential
	q := s.db.Rebind("SELECT " + adminColumns + " FROM admin_credentials WHERE email = ?")
	if err := s.db.GetContext(ctx, &admin, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}

// GetActiveAdminByEmail returns the credential matching email exactly with
// is_active set. Inactive and unknown accounts both yield ErrNotFound.
func (s *Store) GetActiveAdminByEmail(ctx context.Context, email string) (*model.AdminCredential, error) {
	var admin model.AdminCredential
	q := s.db.Rebind("SELECT " + adminColumns + " FROM admin_credentials WHERE email = ? AND is_active = ?")
	if err := s.db.GetContext(ctx, &admin, q, email, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active admin by email: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin credentials ordered by email.
func (s *Store) ListAdmins(ctx context.Context) ([]model.AdminCredential, error) {
	var admins []model.AdminCredential
	if err := s.db.SelectContext(ctx, &admins, "SELECT "+adminColumns+" FROM admin_credentials ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// HasAnyAdmin reports whether at least one admin credential exists. Used for
// first-run detection.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM admin_credentials"); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

// SetAdminActive enables or disables the credential for email.
func (s *Store) SetAdminActive(ctx context.Context, email string, active bool) error {
	q := s.db.Rebind("UPDATE admin_credentials SET is_active = ?, updated_at = ? WHERE email = ?")
	result, err := s.db.ExecContext(ctx, q, active, time.Now().UTC(), email)
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return requireRow(result, "set admin active")
}

// UpdateAdminLastLogin sets the last_login timestamp for the admin with id.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, id string, at time.Time) error {
	at = at.UTC()
	q := s.db.Rebind("UPDATE admin_credentials SET last_login = ?, updated_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, at, at, id)
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return requireRow(result, "update admin last login")
}

// ---------------------------------------------------------------------------
// Registrations
// ---------------------------------------------------------------------------

// registrationRow maps 1:1 to the user_registrations table. Events are stored
// as a JSON array.
type registrationRow struct {
	ID               string    `db:"id"`
	FullName         string    `db:"full_name"`
	Email            string    `db:"email"`
	Phone            string    `db:"phone"`
	College          string    `db:"college"`
	Department       string    `db:"department"`
	YearOfStudy      int       `db:"year_of_study"`
	RegistrationType string    `db:"registration_type"`
	TeamName         string    `db:"team_name"`
	EventsJSON       string    `db:"events_json"`
	CreatedAt        time.Time `db:"created_at"`
}

func registrationRowFromModel(reg *model.Registration) (registrationRow, error) {
	events := reg.Events
	if events == nil {
		events = []string{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return registrationRow{}, fmt.Errorf("marshal events: %w", err)
	}
	return registrationRow{
		ID:               reg.ID,
		FullName:         reg.FullName,
		Email:            reg.Email,
		Phone:            reg.Phone,
		College:          reg.College,
		Department:       reg.Department,
		YearOfStudy:      reg.YearOfStudy,
		RegistrationType: string(reg.RegistrationType),
		TeamName:         reg.TeamName,
		EventsJSON:       string(b),
		CreatedAt:        reg.CreatedAt,
	}, nil
}

func (r registrationRow) toModel() (model.Registration, error) {
	var events []string
	if err := json.Unmarshal([]byte(r.EventsJSON), &events); err != nil {
		return model.Registration{}, fmt.Errorf("unmarshal events for %s: %w", r.ID, err)
	}
	return model.Registration{
		ID:               r.ID,
		FullName:         r.FullName,
		Email:            r.Email,
		Phone:            r.Phone,
		College:          r.College,
		Department:       r.Department,
		YearOfStudy:      r.YearOfStudy,
		RegistrationType: model.RegistrationType(r.RegistrationType),
		TeamName:         r.TeamName,
		Events:           events,
		CreatedAt:        r.CreatedAt,
	}, nil
}

// CreateRegistration inserts a registration. ID and CreatedAt are populated
// when empty.
func (s *Store) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.Must(uuid.NewV7()).String()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}

	row, err := registrationRowFromModel(reg)
	if err != nil {
		return err
	}

	const q = `INSERT INTO user_registrations
		(id, full_name, email, phone, college, department, year_of_study,
		 registration_type, team_name, events_json, created_at)
		VALUES
		(:id, :full_name, :email, :phone, :college, :department, :year_of_study,
		 :registration_type, :team_name, :events_json, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// ListRegistrations returns all registrations, newest first.
func (s *Store) ListRegistrations(ctx context.Context) ([]model.Registration, error) {
	var rows []registrationRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM user_registrations ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	regs := make([]model.Registration, 0, len(rows))
	for _, row := range rows {
		reg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

// ---------------------------------------------------------------------------
// Utility
// ---------------------------------------------------------------------------

func requireRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate key")
}
