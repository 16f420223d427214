package postgres

import (
	"context"
	"direct-messages-api/internal/storage"
	"github.com/jackc/pgx/v4"
	"time"
)

// TODO benchmark against batched inserts

// bulk feeds n rows produced by row to CopyFrom
type bulk struct {
	n   int
	idx int
	row func(i int) []interface{}
}

func copyFromBulk(n int, row func(i int) []interface{}) pgx.CopyFromSource {
	return &bulk{
		n:   n,
		idx: -1,
		row: row,
	}
}

func (b *bulk) Next() bool {
	b.idx++
	return b.idx < b.n
}

func (b *bulk) Values() ([]interface{}, error) {
	return b.row(b.idx), nil
}

func (b *bulk) Err() error {
	return nil
}

// BulkCreateUsers inserts users with a single COPY and returns number of inserted rows
func (s *Store) BulkCreateUsers(ctx context.Context, users []storage.NewUser) (int64, error) {
	now := time.Now()
	columns := []string{"username", "email", "password", "status", "created_at"}
	n, err := s.db.CopyFrom(ctx, pgx.Identifier{"users"}, columns, copyFromBulk(len(users), func(i int) []interface{} {
		u := users[i]
		return []interface{}{u.Username, u.Email, u.Password, u.Status, now}
	}))
	if err != nil {
		return 0, err
	}

	s.logger.Debugf("Copied %d users", n)

	return n, nil
}

// BulkCreateMessages inserts messages with a single COPY and returns number of inserted rows
func (s *Store) BulkCreateMessages(ctx context.Context, messages []storage.NewMessage) (int64, error) {
	now := time.Now()
	columns := []string{"sender_id", "receiver_id", "subject", "body", "read", "created_at"}
	n, err := s.db.CopyFrom(ctx, pgx.Identifier{"messages"}, columns, copyFromBulk(len(messages), func(i int) []interface{} {
		m := messages[i]
		return []interface{}{m.SenderID, m.ReceiverID, m.Subject, m.Body, false, now}
	}))
	if err != nil {
		return 0, err
	}

	s.logger.Debugf("Copied %d messages", n)

	return n, nil
}

// UserIDs returns ids of all users in ascending order
func (s *Store) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx, `select "id" from "users" order by "id"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
