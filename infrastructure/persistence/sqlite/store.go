// Package sqlite stores users and friendships in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"friendship-backend/application/ports"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

// timeLayout is fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// maxBoundIDs keeps IN lists below the host parameter limit
const maxBoundIDs = 500

// Compile-time interface check
var _ ports.Store = (*Store)(nil)

// Store implements ports.Store on SQLite
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewStore opens the database at path. Call EnsureSchema before first use.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every pooled connection to :memory: would see its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite database: %w", err)
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

// dsn sets the pragmas on every pooled connection. Write transactions take
// the lock up front so concurrent writers wait on busy_timeout instead of
// failing on lock upgrade.
func dsn(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	if path != ":memory:" {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + pragmas
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// EnsureSchema creates the tables if they don't exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_created ON users(created_at, id);

	-- friend_id is a friend of friend_of_id
	CREATE TABLE IF NOT EXISTS friends (
		friend_id TEXT NOT NULL REFERENCES users(id),
		friend_of_id TEXT NOT NULL REFERENCES users(id),
		UNIQUE(friend_id, friend_of_id)
	);
	CREATE INDEX IF NOT EXISTS idx_friends_friend_of ON friends(friend_of_id);
	CREATE INDEX IF NOT EXISTS idx_friends_friend ON friends(friend_id);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Create stores a new user
func (s *Store) Create(ctx context.Context, user *entities.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID().String(),
		user.Name(),
		user.Email(),
		formatTime(user.CreatedAt()),
		formatTime(user.UpdatedAt()),
	)
	if err != nil {
		return s.translate("create_user", err)
	}
	return nil
}

// List returns every user ordered by creation time, then id
func (s *Store) List(ctx context.Context) ([]*entities.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, s.translate("list_users", err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, s.translate("list_users", err)
	}
	return users, nil
}

// GetByID retrieves a user by its ID
func (s *Store) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM users WHERE id = ?`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewUserNotFoundError(id.String())
	}
	if err != nil {
		return nil, s.translate("get_user", err)
	}
	return user, nil
}

// Update persists the user's profile
func (s *Store) Update(ctx context.Context, user *entities.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
		user.Name(),
		user.Email(),
		formatTime(user.UpdatedAt()),
		user.ID().String(),
	)
	if err != nil {
		return s.translate("update_user", err)
	}
	return requireRow(res, pkgerrors.NewUserNotFoundError(user.ID().String()))
}

// Delete removes the user and every edge that references it in one transaction
func (s *Store) Delete(ctx context.Context, id valueobjects.UserID) error {
	return s.withTx(ctx, "delete_user", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM friends WHERE friend_id = ?`, id.String()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM friends WHERE friend_of_id = ?`, id.String()); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
		if err != nil {
			return err
		}
		return requireRow(res, pkgerrors.NewUserNotFoundError(id.String()))
	})
}

// SaveEdges stores every edge or none of them
func (s *Store) SaveEdges(ctx context.Context, edges ...entities.Friendship) error {
	return s.withTx(ctx, "save_friendship", func(tx *sql.Tx) error {
		for _, e := range edges {
			for _, endpoint := range []valueobjects.UserID{e.FriendOfID(), e.FriendID()} {
				var one int
				err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, endpoint.String()).Scan(&one)
				if errors.Is(err, sql.ErrNoRows) {
					return pkgerrors.NewUserNotFoundError(endpoint.String())
				}
				if err != nil {
					return err
				}
			}

			_, err := tx.ExecContext(ctx,
				`INSERT INTO friends (friend_id, friend_of_id) VALUES (?, ?)`,
				e.FriendID().String(), e.FriendOfID().String())
			if err != nil {
				if kind := classify(err); kind == constraintFriendship {
					return friendshipExists(e)
				}
				return err
			}
		}
		return nil
	})
}

// DeleteEdges removes every edge or none of them
func (s *Store) DeleteEdges(ctx context.Context, edges ...entities.Friendship) error {
	return s.withTx(ctx, "delete_friendship", func(tx *sql.Tx) error {
		for _, e := range edges {
			res, err := tx.ExecContext(ctx,
				`DELETE FROM friends WHERE friend_id = ? AND friend_of_id = ?`,
				e.FriendID().String(), e.FriendOfID().String())
			if err != nil {
				return err
			}
			missing := pkgerrors.NewFriendshipNotFoundError(e.FriendID().String(), e.FriendOfID().String())
			if err := requireRow(res, missing); err != nil {
				return err
			}
		}
		return nil
	})
}

// FriendIDsOf returns the friendId of every edge owned by ids
func (s *Store) FriendIDsOf(ctx context.Context, ids []valueobjects.UserID) ([]valueobjects.UserID, error) {
	var out []valueobjects.UserID
	for _, chunk := range chunks(ids) {
		query := `SELECT friend_id FROM friends WHERE friend_of_id IN (` + placeholders(len(chunk)) + `)`
		rows, err := s.db.QueryContext(ctx, query, args(chunk)...)
		if err != nil {
			return nil, s.translate("friend_ids_of", err)
		}

		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				rows.Close()
				return nil, s.translate("friend_ids_of", err)
			}
			id, err := valueobjects.NewUserIDFromString(raw)
			if err != nil {
				continue
			}
			out = append(out, id)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, s.translate("friend_ids_of", err)
		}
	}
	return out, nil
}

// UsersByIDs returns the known users among ids, ascending by id
func (s *Store) UsersByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.User, error) {
	users := []*entities.User{}
	for _, chunk := range chunks(ids) {
		query := `SELECT id, name, email, created_at, updated_at FROM users WHERE id IN (` +
			placeholders(len(chunk)) + `) ORDER BY id`
		rows, err := s.db.QueryContext(ctx, query, args(chunk)...)
		if err != nil {
			return nil, s.translate("users_by_ids", err)
		}
		batch, err := scanUsers(rows)
		rows.Close()
		if err != nil {
			return nil, s.translate("users_by_ids", err)
		}
		users = append(users, batch...)
	}
	return users, nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.translate("ping", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.translate(operation, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("Failed to roll back transaction",
				zap.String("operation", operation),
				zap.Error(rbErr),
			)
		}
		return s.translate(operation, err)
	}

	if err := tx.Commit(); err != nil {
		return s.translate(operation, err)
	}
	return nil
}

// translate maps driver errors onto the application error taxonomy
func (s *Store) translate(operation string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}

	switch classify(err) {
	case constraintEmail:
		return pkgerrors.NewUniqueConstraintError("email")
	case constraintUserID:
		return pkgerrors.NewConflictError("user already exists")
	case constraintFriendship:
		return pkgerrors.NewConflictError("friendship already exists").WithCode(pkgerrors.CodeFriendshipExists)
	case constraintForeignKey:
		// the driver does not report which reference failed
		return pkgerrors.NewUserNotFoundError("").WithCause(err)
	}

	s.logger.Error("SQLite operation failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	return pkgerrors.FromStorage(operation, err)
}

type constraint int

const (
	constraintNone constraint = iota
	constraintEmail
	constraintUserID
	constraintFriendship
	constraintForeignKey
)

// classify reads the extended result code and the constraint named in the
// message to tell the unique indexes apart.
func classify(err error) constraint {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return constraintNone
	}

	msg := sqliteErr.Error()
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return constraintForeignKey
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return constraintUserID
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT:
		switch {
		case strings.Contains(msg, "users.email"):
			return constraintEmail
		case strings.Contains(msg, "users.id"):
			return constraintUserID
		case strings.Contains(msg, "friends."):
			return constraintFriendship
		case strings.Contains(msg, "FOREIGN KEY"):
			return constraintForeignKey
		}
	}
	return constraintNone
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*entities.User, error) {
	var id, name, email, createdAt, updatedAt string
	if err := row.Scan(&id, &name, &email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	userID, err := valueobjects.NewUserIDFromString(id)
	if err != nil {
		return nil, fmt.Errorf("stored user id %q: %w", id, err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return entities.ReconstructUser(userID, name, email, created, updated), nil
}

func scanUsers(rows *sql.Rows) ([]*entities.User, error) {
	users := []*entities.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func chunks(ids []valueobjects.UserID) [][]valueobjects.UserID {
	var out [][]valueobjects.UserID
	for start := 0; start < len(ids); start += maxBoundIDs {
		end := start + maxBoundIDs
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func args(ids []valueobjects.UserID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func friendshipExists(e entities.Friendship) error {
	return pkgerrors.NewConflictError("friendship already exists").
		WithCode(pkgerrors.CodeFriendshipExists).
		WithDetails(map[string]interface{}{
			"friendId":   e.FriendID().String(),
			"friendOfId": e.FriendOfID().String(),
		})
}
