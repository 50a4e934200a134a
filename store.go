package codebuddy

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
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/eringen/codebuddy/catalog"
	"github.com/eringen/codebuddy/forms"
	"github.com/eringen/codebuddy/identity"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned by CreateUser for a duplicate email.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrInvalidCredentials is returned by Authenticate for any bad login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Store wraps a SQLite database holding learner accounts, contact messages
// and the catalog records served by the site.
type Store struct {
	db         *sql.DB
	bcryptCost int
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers run alongside the single writer; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, bcryptCost: bcrypt.DefaultCost}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    email TEXT,
    phone TEXT,
    role TEXT NOT NULL DEFAULT '',
    provider TEXT NOT NULL,
    password_hash TEXT NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_phone ON users(phone);

CREATE TABLE IF NOT EXISTS contact_messages (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    subject TEXT NOT NULL,
    message TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog_records (
    kind TEXT NOT NULL,
    slug TEXT NOT NULL,
    position INTEGER NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (kind, slug)
);
`)
	return err
}

// nullable maps "" to NULL so the unique indexes ignore missing values.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const userColumns = `id, name, COALESCE(email, ''), COALESCE(phone, ''), role, provider, avatar_url`

func scanUser(row interface{ Scan(...any) error }) (identity.User, error) {
	var u identity.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Provider, &u.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) insertUser(ctx context.Context, u identity.User, hash string) (identity.User, error) {
	u.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, phone, role, provider, password_hash, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, nullable(u.Email), nullable(u.Phone), u.Role, u.Provider, hash, u.AvatarURL,
		time.Now().UTC().Format(time.RFC3339))
	if isUniqueViolation(err) {
		return identity.User{}, ErrEmailTaken
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// CreateUser registers an email and password account.
func (s *Store) CreateUser(ctx context.Context, f forms.Signup) (identity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), s.bcryptCost)
	if err != nil {
		return identity.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.insertUser(ctx, identity.User{
		Name:     strings.TrimSpace(f.Name),
		Email:    normalizeEmail(f.Email),
		Role:     f.RoleOrDefault(),
		Provider: "password",
	}, string(hash))
}

// Authenticate checks an email and password. Unknown emails, accounts
// without a password and wrong passwords all return ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (identity.User, error) {
	var hash string
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email = ?`, normalizeEmail(email))
	var u identity.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Provider, &u.AvatarURL, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("authenticate: %w", err)
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return identity.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// SignInExternal returns the account for a provider identity, creating it
// on first sign-in. Accounts are matched by email.
func (s *Store) SignInExternal(ctx context.Context, ext identity.User) (identity.User, error) {
	email := normalizeEmail(ext.Email)
	if email == "" {
		return identity.User{}, errors.New("external identity has no email")
	}
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err == nil {
		if u.AvatarURL == "" && ext.AvatarURL != "" {
			if err := s.SetAvatar(ctx, u.ID, ext.AvatarURL); err != nil {
				return identity.User{}, err
			}
			u.AvatarURL = ext.AvatarURL
		}
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return identity.User{}, fmt.Errorf("find user: %w", err)
	}
	ext.Email = email
	ext.Role = forms.Roles[0]
	return s.insertUser(ctx, ext, "")
}

// SignInPhone returns the account for a verified phone number, creating it
// on first sign-in.
func (s *Store) SignInPhone(ctx context.Context, phone string) (identity.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = ?`, phone))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return identity.User{}, fmt.Errorf("find user: %w", err)
	}
	return s.insertUser(ctx, identity.User{Phone: phone, Role: forms.Roles[0], Provider: "phone"}, "")
}

// UserByID returns the account with id, or ErrNotFound.
func (s *Store) UserByID(ctx context.Context, id string) (identity.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// SetAvatar stores the avatar URL for a user.
func (s *Store) SetAvatar(ctx context.Context, id, url string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET avatar_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ContactMessage is a stored contact form submission.
type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt string
}

// SaveContact stores a contact form submission and returns its ID.
func (s *Store) SaveContact(ctx context.Context, f forms.Contact) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, email, subject, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(f.Name), normalizeEmail(f.Email), strings.TrimSpace(f.Subject),
		strings.TrimSpace(f.Message), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("save contact: %w", err)
	}
	return id, nil
}

// ListContacts returns contact messages, newest first.
func (s *Store) ListContacts(ctx context.Context) ([]ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, subject, message, created_at FROM contact_messages ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContactMessage
	for rows.Next() {
		var m ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const (
	kindChallenge = "challenge"
	kindProject   = "project"
	kindTrack     = "track"
	kindLesson    = "lesson"
	kindRoadmap   = "roadmap"
)

// SeedCatalog replaces the stored catalog with c in one transaction.
func (s *Store) SeedCatalog(ctx context.Context, c catalog.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_records`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO catalog_records (kind, slug, position, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	steps := []error{
		insertRecords(ctx, stmt, kindChallenge, c.Challenges, func(v catalog.Challenge) string { return v.Slug }),
		insertRecords(ctx, stmt, kindProject, c.Projects, func(v catalog.Project) string { return v.Slug }),
		insertRecords(ctx, stmt, kindTrack, c.Tracks, func(v catalog.Track) string { return v.Slug }),
		insertRecords(ctx, stmt, kindLesson, c.Lessons, func(v catalog.Lesson) string { return v.Slug }),
		insertRecords(ctx, stmt, kindRoadmap, c.Roadmaps, func(v catalog.Roadmap) string { return v.ID }),
	}
	if err := errors.Join(steps...); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRecords[T any](ctx context.Context, stmt *sql.Stmt, kind string, items []T, slug func(T) string) error {
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode %s %q: %w", kind, slug(item), err)
		}
		if _, err := stmt.ExecContext(ctx, kind, slug(item), i, string(data)); err != nil {
			return fmt.Errorf("insert %s %q: %w", kind, slug(item), err)
		}
	}
	return nil
}

// LoadCatalog reads the stored catalog in its original order. An empty
// table yields ErrNotFound.
func (s *Store) LoadCatalog(ctx context.Context) (catalog.Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, data FROM catalog_records ORDER BY kind, position`)
	if err != nil {
		return catalog.Catalog{}, err
	}
	defer rows.Close()

	var c catalog.Catalog
	n := 0
	for rows.Next() {
		var kind, data string
		if err := rows.Scan(&kind, &data); err != nil {
			return catalog.Catalog{}, err
		}
		switch kind {
		case kindChallenge:
			err = appendRecord(&c.Challenges, data)
		case kindProject:
			err = appendRecord(&c.Projects, data)
		case kindTrack:
			err = appendRecord(&c.Tracks, data)
		case kindLesson:
			err = appendRecord(&c.Lessons, data)
		case kindRoadmap:
			err = appendRecord(&c.Roadmaps, data)
		default:
			err = fmt.Errorf("unknown kind %q", kind)
		}
		if err != nil {
			return catalog.Catalog{}, fmt.Errorf("decode catalog: %w", err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return catalog.Catalog{}, err
	}
	if n == 0 {
		return catalog.Catalog{}, ErrNotFound
	}
	return c, nil
}

func appendRecord[T any](dst *[]T, data string) error {
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return err
	}
	*dst = append(*dst, v)
	return nil
}
