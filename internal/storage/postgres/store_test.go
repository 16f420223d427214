package postgres

import (
	"context"
	"direct-messages-api/internal/storage"
	mytesting "direct-messages-api/internal/testing"
	"errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"os"
	"testing"
	"time"
)

// bootstrap connects to the database named by TEST_POSTGRES_DSN, tests are skipped without it
func bootstrap(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	s, err := New(context.Background(), logger.Sugar(), dsn, ConnectionTimeout(5*time.Second), MaxConns(4))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func createUser(t *testing.T, s *Store) storage.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), storage.NewUser{
		Username: mytesting.RandString(10),
		Email:    mytesting.RandEmail(),
		Password: "hash",
	})
	require.NoError(t, err)
	return u
}

func TestCopyFromBulk(t *testing.T) {
	rows := [][]interface{}{{1, "a"}, {2, "b"}}
	src := copyFromBulk(len(rows), func(i int) []interface{} { return rows[i] })

	var got [][]interface{}
	for src.Next() {
		v, err := src.Values()
		require.NoError(t, err)
		got = append(got, v)
	}
	require.NoError(t, src.Err())
	require.Equal(t, rows, got)
}

func TestSelected(t *testing.T) {
	require.Equal(t, storage.UserColumns, selected(nil, storage.UserColumns))
	require.Equal(t, []string{"id"}, selected([]string{"id"}, storage.UserColumns))
}

func TestMessageRowNullParties(t *testing.T) {
	var r messageRow
	targets := r.targets([]string{"id", "sender_id", "receiver_id"})
	require.Len(t, targets, 3)

	r.m.ID = 7
	require.NoError(t, r.receiver.Set(int64(3)))
	m := r.message()
	require.Equal(t, int64(7), m.ID)
	require.Nil(t, m.SenderID)
	require.NotNil(t, m.ReceiverID)
	require.Equal(t, int64(3), *m.ReceiverID)
}

func TestUsers(t *testing.T) {
	s := bootstrap(t)
	ctx := context.Background()

	u := createUser(t, s)
	require.NotZero(t, u.ID)

	ok, err := s.UserExists(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, ok)

	online := true
	got, err := s.UpdateUser(ctx, u.ID, storage.UserChanges{Status: &online})
	require.NoError(t, err)
	require.True(t, got.Status)
	require.Equal(t, u.Username, got.Username)

	got, err = s.FindUser(ctx, u.ID, []string{"email"})
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Zero(t, got.ID)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	require.True(t, errors.Is(s.DeleteUser(ctx, u.ID), storage.ErrUserNotFound))
	_, err = s.FindUser(ctx, u.ID, nil)
	require.True(t, errors.Is(err, storage.ErrUserNotFound))
}

func TestCreateMessageViolationFK(t *testing.T) {
	s := bootstrap(t)
	ctx := context.Background()
	u := createUser(t, s)

	_, err := s.CreateMessage(ctx, storage.NewMessage{SenderID: -1, ReceiverID: u.ID, Subject: "s", Body: "b"})
	require.Equal(t, storage.ErrSenderNotExist, err)

	_, err = s.CreateMessage(ctx, storage.NewMessage{SenderID: u.ID, ReceiverID: -1, Subject: "s", Body: "b"})
	require.Equal(t, storage.ErrReceiverNotExist, err)
}

func TestModifyMessage(t *testing.T) {
	s := bootstrap(t)
	ctx := context.Background()

	ids := []int64{createUser(t, s).ID, createUser(t, s).ID, createUser(t, s).ID}
	var messages []storage.NewMessage
	for _, p := range mytesting.Pairs(ids) {
		messages = append(messages, storage.NewMessage{SenderID: p.Sender, ReceiverID: p.Receiver, Subject: "s", Body: "b"})
	}
	n, err := s.BulkCreateMessages(ctx, messages)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	found, err := s.FindMessages(ctx, storage.Query{
		Where: []storage.Cond{{{Column: "sender_id", Value: ids[0]}}},
		Order: []storage.Order{{Column: "receiver_id", Desc: true}},
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, mytesting.Reverse(ids[1:]), []int64{*found[0].ReceiverID, *found[1].ReceiverID})

	id := found[0].ID
	m, err := s.ModifyMessage(ctx, id, func(m *storage.Message) (storage.Action, error) {
		m.ReceiverID = nil
		return storage.Save, nil
	})
	require.NoError(t, err)
	require.Nil(t, m.ReceiverID)

	_, err = s.ModifyMessage(ctx, id, func(m *storage.Message) (storage.Action, error) {
		m.SenderID = nil
		return storage.Purge, nil
	})
	require.NoError(t, err)

	_, err = s.FindMessage(ctx, id, nil)
	require.True(t, errors.Is(err, storage.ErrMessageNotFound))
}

func TestBulkCreateUsers(t *testing.T) {
	s := bootstrap(t)
	ctx := context.Background()

	before, err := s.UserIDs(ctx)
	require.NoError(t, err)

	users := make([]storage.NewUser, 5)
	for i := range users {
		users[i] = storage.NewUser{Username: mytesting.RandString(10), Email: mytesting.RandEmail(), Password: "hash"}
	}
	n, err := s.BulkCreateUsers(ctx, users)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	after, err := s.UserIDs(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(after), len(before)+5)
}
