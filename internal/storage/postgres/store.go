// Package postgres implements users and messages storage on PostgreSQL via pgxpool
package postgres

import (
	"context"
	"direct-messages-api/internal/logging"
	"direct-messages-api/internal/storage"
	"embed"
	"errors"
	"fmt"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"io/fs"
	"time"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store defines fields used in db interaction processes
type Store struct {
	logger *zap.SugaredLogger
	db     *pgxpool.Pool
}

// New sets provided zap.Logger to pgxpool.Pool, connects, applies migrations and returns instance of Store struct
func New(ctx context.Context, logger *zap.SugaredLogger, dsn string, opts ...Option) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	config.ConnConfig.Logger = logging.NewPgxLogger(logger.Desugar())
	config.ConnConfig.LogLevel = pgx.LogLevelWarn

	for _, opt := range opts {
		opt.apply(config)
	}

	if err := migrate(ctx, logger, config.ConnConfig); err != nil {
		return nil, err
	}

	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Store{
		logger: logger,
		db:     pool,
	}, nil
}

func migrate(ctx context.Context, logger *zap.SugaredLogger, cc *pgx.ConnConfig) error {
	db := stdlib.OpenDB(*cc)
	defer db.Close()

	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	for _, r := range results {
		logger.Infof("Applied migration %s in %v", r.Source.Path, r.Duration)
	}
	return nil
}

// Close closes all pool connections
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// FindUsers returns users matching q, never nil
func (s *Store) FindUsers(ctx context.Context, q storage.Query) ([]storage.User, error) {
	sql, args, err := q.Select("users", storage.UserColumns, sqlx.DOLLAR)
	if err != nil {
		return nil, err
	}
	columns := selected(q.Columns, storage.UserColumns)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []storage.User{}
	for rows.Next() {
		var u storage.User
		if err := rows.Scan(userTargets(&u, columns)...); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
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
	sql := `select ` + list + ` from "users" where "id" = $1`
	err = s.db.QueryRow(ctx, sql, id).Scan(userTargets(&u, selected(columns, storage.UserColumns))...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.User{}, storage.ErrUserNotFound
		}
		return storage.User{}, err
	}
	return u, nil
}

func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	var i int8
	err := s.db.QueryRow(ctx, `select 1 from "users" where "id" = $1`, id).Scan(&i)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) CreateUser(ctx context.Context, nu storage.NewUser) (storage.User, error) {
	s.logger.Debugf("Creating user (%s)", nu.Username)

	u := storage.User{
		Username:  nu.Username,
		Email:     nu.Email,
		Status:    nu.Status,
		CreatedAt: time.Now(),
	}
	sql := `insert into "users" ("username", "email", "password", "status", "created_at")
			values ($1, $2, $3, $4, $5)
			returning "id", "created_at"`
	err := s.db.QueryRow(ctx, sql, nu.Username, nu.Email, nu.Password, nu.Status, u.CreatedAt).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return storage.User{}, err
	}

	s.logger.Debugf("Created user (%s) with id %d", nu.Username, u.ID)

	return u, nil
}

// UpdateUser applies c and returns the whole updated user
func (s *Store) UpdateUser(ctx context.Context, id int64, c storage.UserChanges) (storage.User, error) {
	if c.Empty() {
		return s.FindUser(ctx, id, nil)
	}

	columns, values := c.Columns()
	list, _ := storage.SelectList(nil, storage.UserColumns)
	sql := sqlx.Rebind(sqlx.DOLLAR, `update "users" set `+storage.SetList(columns)+` where "id" = ? returning `+list)

	var u storage.User
	err := s.db.QueryRow(ctx, sql, append(values, id)...).Scan(userTargets(&u, storage.UserColumns)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.User{}, storage.ErrUserNotFound
		}
		return storage.User{}, err
	}
	return u, nil
}

// DeleteUser removes the user, foreign keys null the user's side of messages and orphaned messages are purged
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	// error handling can be omitted for rollback according docs
	defer tx.Rollback(context.Background())

	tag, err := tx.Exec(ctx, `delete from "users" where "id" = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	tag, err = tx.Exec(ctx, `delete from "messages" where "sender_id" is null and "receiver_id" is null`)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		s.logger.Debugf("Purged %d orphaned messages", tag.RowsAffected())
	}

	return tx.Commit(ctx)
}

// FindMessages returns messages matching q, never nil
func (s *Store) FindMessages(ctx context.Context, q storage.Query) ([]storage.Message, error) {
	sql, args, err := q.Select("messages", storage.MessageColumns, sqlx.DOLLAR)
	if err != nil {
		return nil, err
	}
	columns := selected(q.Columns, storage.MessageColumns)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []storage.Message{}
	for rows.Next() {
		var r messageRow
		if err := rows.Scan(r.targets(columns)...); err != nil {
			return nil, err
		}
		messages = append(messages, r.message())
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d messages", len(messages))

	return messages, nil
}

func (s *Store) FindMessage(ctx context.Context, id int64, columns []string) (storage.Message, error) {
	list, err := storage.SelectList(columns, storage.MessageColumns)
	if err != nil {
		return storage.Message{}, err
	}

	var r messageRow
	sql := `select ` + list + ` from "messages" where "id" = $1`
	err = s.db.QueryRow(ctx, sql, id).Scan(r.targets(selected(columns, storage.MessageColumns))...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Message{}, storage.ErrMessageNotFound
		}
		return storage.Message{}, err
	}
	return r.message(), nil
}

// CreateMessage inserts a message, foreign key violations are reported as ErrSenderNotExist or ErrReceiverNotExist
func (s *Store) CreateMessage(ctx context.Context, nm storage.NewMessage) (storage.Message, error) {
	s.logger.Debugf("Creating message from user (id: %d) to user (id: %d)", nm.SenderID, nm.ReceiverID)

	sender, receiver := nm.SenderID, nm.ReceiverID
	m := storage.Message{
		SenderID:   &sender,
		ReceiverID: &receiver,
		Subject:    nm.Subject,
		Body:       nm.Body,
		CreatedAt:  time.Now(),
	}
	sql := `insert into "messages" ("sender_id", "receiver_id", "subject", "body", "read", "created_at")
			values ($1, $2, $3, $4, false, $5)
			returning "id", "created_at"`
	err := s.db.QueryRow(ctx, sql, nm.SenderID, nm.ReceiverID, nm.Subject, nm.Body, m.CreatedAt).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			switch pgErr.ConstraintName {
			case "messages_sender_id_fkey":
				return storage.Message{}, storage.ErrSenderNotExist
			case "messages_receiver_id_fkey":
				return storage.Message{}, storage.ErrReceiverNotExist
			}
		}
		return storage.Message{}, err
	}

	return m, nil
}

// ModifyMessage locks the message row with select for update, runs fn over it and applies the returned action
func (s *Store) ModifyMessage(ctx context.Context, id int64, fn storage.ModifyFunc) (storage.Message, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storage.Message{}, err
	}
	defer tx.Rollback(context.Background())

	list, _ := storage.SelectList(nil, storage.MessageColumns)

	var r messageRow
	sql := `select ` + list + ` from "messages" where "id" = $1 for update`
	err = tx.QueryRow(ctx, sql, id).Scan(r.targets(storage.MessageColumns)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Message{}, storage.ErrMessageNotFound
		}
		return storage.Message{}, err
	}

	m := r.message()
	action, err := fn(&m)
	if err != nil {
		return storage.Message{}, err
	}

	switch action {
	case storage.Save:
		sql = `update "messages" set "sender_id" = $2, "receiver_id" = $3, "read" = $4 where "id" = $1`
		if _, err := tx.Exec(ctx, sql, id, m.SenderID, m.ReceiverID, m.Read); err != nil {
			return storage.Message{}, err
		}
	case storage.Purge:
		tag, err := tx.Exec(ctx, `delete from "messages" where "id" = $1`, id)
		if err != nil {
			return storage.Message{}, err
		}
		if tag.RowsAffected() == 0 {
			return storage.Message{}, storage.ErrDeleteFailed
		}
		s.logger.Debugf("Purged message (id: %d)", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.Message{}, err
	}
	return m, nil
}

// messageRow holds scan targets for a messages row, party ids are nullable
type messageRow struct {
	m        storage.Message
	sender   pgtype.Int8
	receiver pgtype.Int8
}

func (r *messageRow) targets(columns []string) []interface{} {
	targets := make([]interface{}, 0, len(columns))
	for _, c := range columns {
		switch c {
		case "id":
			targets = append(targets, &r.m.ID)
		case "sender_id":
			targets = append(targets, &r.sender)
		case "receiver_id":
			targets = append(targets, &r.receiver)
		case "subject":
			targets = append(targets, &r.m.Subject)
		case "body":
			targets = append(targets, &r.m.Body)
		case "read":
			targets = append(targets, &r.m.Read)
		case "created_at":
			targets = append(targets, &r.m.CreatedAt)
		}
	}
	return targets
}

func (r *messageRow) message() storage.Message {
	m := r.m
	m.SenderID = int8Ptr(r.sender)
	m.ReceiverID = int8Ptr(r.receiver)
	return m
}

func int8Ptr(v pgtype.Int8) *int64 {
	if v.Status != pgtype.Present {
		return nil
	}
	i := v.Int
	return &i
}

func userTargets(u *storage.User, columns []string) []interface{} {
	targets := make([]interface{}, 0, len(columns))
	for _, c := range columns {
		switch c {
		case "id":
			targets = append(targets, &u.ID)
		case "username":
			targets = append(targets, &u.Username)
		case "email":
			targets = append(targets, &u.Email)
		case "status":
			targets = append(targets, &u.Status)
		case "created_at":
			targets = append(targets, &u.CreatedAt)
		}
	}
	return targets
}

func selected(columns, all []string) []string {
	if len(columns) == 0 {
		return all
	}
	return columns
}
