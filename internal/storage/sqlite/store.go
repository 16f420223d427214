// Package sqlite implements users and messages storage on an embedded SQLite database.
// Use ":memory:" as path for a throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"direct-messages-api/internal/storage"
	"embed"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"io/fs"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var (
	userColumns    = mustSelectList(storage.UserColumns)
	messageColumns = mustSelectList(storage.MessageColumns)
)

// Store defines fields used in db interaction processes
type Store struct {
	logger *zap.SugaredLogger
	db     *sqlx.DB
}

// New opens database at path, applies pragmas and migrations
func New(ctx context.Context, logger *zap.SugaredLogger, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// one writer at a time, transactions are serialized by the single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	s := &Store{
		logger: logger,
		db:     db,
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Debugf("Applied migration %s in %v", r.Source.Path, r.Duration)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// FindUsers returns users matching q, never nil
func (s *Store) FindUsers(ctx context.Context, q storage.Query) ([]storage.User, error) {
	query, args, err := q.Select("users", storage.UserColumns, sqlx.QUESTION)
	if err != nil {
		return nil, err
	}

	users := []storage.User{}
	if err := s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}

	s.logger.Debugf("Retrieved %d users", len(users))

	return users, nil
}

// FindUser returns user by id with provided columns loaded, all columns if none provided
func (s *Store) FindUser(ctx context.Context, id int64, columns []string) (storage.User, error) {
	list, err := storage.SelectList(columns, storage.UserColumns)
	if err != nil {
		return storage.User{}, err
	}

	var u storage.User
	err = s.db.GetContext(ctx, &u, `select `+list+` from "users" where "id" = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.User{}, storage.ErrUserNotFound
		}
		return storage.User{}, err
	}
	return u, nil
}

func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	var i int8
	err := s.db.QueryRowContext(ctx, `select 1 from "users" where "id" = ?`, id).Scan(&i)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) CreateUser(ctx context.Context, nu storage.NewUser) (storage.User, error) {
	var u storage.User
	query := `insert into "users" ("username", "email", "password", "status", "created_at")
			  values (?, ?, ?, ?, ?)
			  returning ` + userColumns
	err := s.db.GetContext(ctx, &u, query, nu.Username, nu.Email, nu.Password, nu.Status, now())
	if err != nil {
		return storage.User{}, err
	}
	return u, nil
}

// UpdateUser applies c and returns the whole updated user
func (s *Store) UpdateUser(ctx context.Context, id int64, c storage.UserChanges) (storage.User, error) {
	if c.Empty() {
		return s.FindUser(ctx, id, nil)
	}

	columns, values := c.Columns()
	query := `update "users" set ` + storage.SetList(columns) +
		` where "id" = ? returning ` + userColumns

	var u storage.User
	err := s.db.GetContext(ctx, &u, query, append(values, id)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.User{}, storage.ErrUserNotFound
		}
		return storage.User{}, err
	}
	return u, nil
}

// DeleteUser removes the user and purges messages left without both parties
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `delete from "users" where "id" = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrUserNotFound
	}

	res, err = tx.ExecContext(ctx, `delete from "messages" where "sender_id" is null and "receiver_id" is null`)
	if err != nil {
		return err
	}
	if purged, err := res.RowsAffected(); err == nil && purged > 0 {
		s.logger.Debugf("Purged %d orphaned messages", purged)
	}

	return tx.Commit()
}

// FindMessages returns messages matching q, never nil
func (s *Store) FindMessages(ctx context.Context, q storage.Query) ([]storage.Message, error) {
	query, args, err := q.Select("messages", storage.MessageColumns, sqlx.QUESTION)
	if err != nil {
		return nil, err
	}

	messages := []storage.Message{}
	if err := s.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *Store) FindMessage(ctx context.Context, id int64, columns []string) (storage.Message, error) {
	list, err := storage.SelectList(columns, storage.MessageColumns)
	if err != nil {
		return storage.Message{}, err
	}

	var m storage.Message
	err = s.db.GetContext(ctx, &m, `select `+list+` from "messages" where "id" = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Message{}, storage.ErrMessageNotFound
		}
		return storage.Message{}, err
	}
	return m, nil
}

func (s *Store) CreateMessage(ctx context.Context, nm storage.NewMessage) (storage.Message, error) {
	var m storage.Message
	query := `insert into "messages" ("sender_id", "receiver_id", "subject", "body", "read", "created_at")
			  values (?, ?, ?, ?, false, ?)
			  returning ` + messageColumns
	err := s.db.GetContext(ctx, &m, query, nm.SenderID, nm.ReceiverID, nm.Subject, nm.Body, now())
	if err != nil {
		return storage.Message{}, err
	}
	return m, nil
}

// ModifyMessage runs fn over the message inside a transaction and applies the returned action
func (s *Store) ModifyMessage(ctx context.Context, id int64, fn storage.ModifyFunc) (storage.Message, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storage.Message{}, err
	}
	defer tx.Rollback()

	var m storage.Message
	err = tx.GetContext(ctx, &m, `select `+messageColumns+` from "messages" where "id" = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Message{}, storage.ErrMessageNotFound
		}
		return storage.Message{}, err
	}

	action, err := fn(&m)
	if err != nil {
		return storage.Message{}, err
	}

	switch action {
	case storage.Save:
		_, err = tx.ExecContext(ctx,
			`update "messages" set "sender_id" = ?, "receiver_id" = ?, "read" = ? where "id" = ?`,
			m.SenderID, m.ReceiverID, m.Read, id)
		if err != nil {
			return storage.Message{}, err
		}
	case storage.Purge:
		res, err := tx.ExecContext(ctx, `delete from "messages" where "id" = ?`, id)
		if err != nil {
			return storage.Message{}, err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return storage.Message{}, storage.ErrDeleteFailed
		}
		s.logger.Debugf("Purged message (id: %d)", id)
	}

	if err := tx.Commit(); err != nil {
		return storage.Message{}, err
	}
	return m, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func mustSelectList(columns []string) string {
	list, err := storage.SelectList(nil, columns)
	if err != nil {
		panic(err)
	}
	return list
}
