package storage

import (
	"errors"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestSelectAllColumns(t *testing.T) {
	sql, args, err := Query{Limit: 10}.Select("users", UserColumns, sqlx.DOLLAR)
	require.NoError(t, err)
	require.Equal(t, `select "id", "username", "email", "status", "created_at" from "users" order by "id" asc limit 10`, sql)
	require.Empty(t, args)
}

func TestSelectWhereOrderOffset(t *testing.T) {
	q := Query{
		Columns: []string{"id", "subject"},
		Where: []Cond{
			{{Column: "sender_id", Value: int64(1)}, {Column: "receiver_id", Value: int64(1)}},
			{{Column: "read", Value: false}},
		},
		Order:  []Order{{Column: "created_at", Desc: true}},
		Offset: 20,
		Limit:  50,
	}
	sql, args, err := q.Select("messages", MessageColumns, sqlx.DOLLAR)
	require.NoError(t, err)
	require.Equal(t, `select "id", "subject" from "messages" where ("sender_id" = $1 or "receiver_id" = $2) and ("read" = $3) order by "created_at" desc, "id" asc limit 50 offset 20`, sql)
	require.Equal(t, []interface{}{int64(1), int64(1), false}, args)
}

func TestSelectQuestionPlaceholders(t *testing.T) {
	q := Query{Where: []Cond{{{Column: "status", Value: true}}}}
	sql, args, err := q.Select("users", UserColumns, sqlx.QUESTION)
	require.NoError(t, err)
	require.Equal(t, `select "id", "username", "email", "status", "created_at" from "users" where ("status" = ?) order by "id" asc`, sql)
	require.Equal(t, []interface{}{true}, args)
}

func TestSelectOrderByIDSkipsTiebreaker(t *testing.T) {
	q := Query{Order: []Order{{Column: "username"}, {Column: "id", Desc: true}}}
	sql, _, err := q.Select("users", UserColumns, sqlx.DOLLAR)
	require.NoError(t, err)
	require.Contains(t, sql, `order by "username" asc, "id" desc`)
	require.NotContains(t, sql, `"id" desc, "id" asc`)
}

func TestSelectUnknownColumn(t *testing.T) {
	cases := []Query{
		{Columns: []string{"password"}},
		{Where: []Cond{{{Column: "1=1; drop table users", Value: 1}}}},
		{Order: []Order{{Column: "bogus"}}},
	}
	for _, q := range cases {
		_, _, err := q.Select("users", UserColumns, sqlx.DOLLAR)
		require.True(t, errors.Is(err, ErrUnknownColumn))
	}
}

func TestWithColumns(t *testing.T) {
	require.Nil(t, WithColumns(nil, "sender_id"))
	require.Equal(t, []string{"subject", "sender_id", "receiver_id"}, WithColumns([]string{"subject", "sender_id"}, "sender_id", "receiver_id"))
}

func TestMessageParties(t *testing.T) {
	one, two := int64(1), int64(2)
	m := Message{SenderID: &one, ReceiverID: &two}
	require.True(t, m.BelongsTo(1))
	require.True(t, m.BelongsTo(2))
	require.False(t, m.BelongsTo(3))
	require.True(t, m.IsSender(1))
	require.True(t, m.IsReceiver(2))
	require.False(t, m.Orphaned())

	m.SenderID, m.ReceiverID = nil, nil
	require.True(t, m.Orphaned())
	require.False(t, m.BelongsTo(1))
}

func TestSetList(t *testing.T) {
	name, status := "bob", true
	columns, values := UserChanges{Username: &name, Status: &status}.Columns()
	require.Equal(t, []string{"username", "status"}, columns)
	require.Equal(t, []interface{}{"bob", true}, values)
	require.Equal(t, `"username" = ?, "status" = ?`, SetList(columns))
	require.Equal(t, `update "users" set "username" = $1, "status" = $2 where "id" = $3`,
		sqlx.Rebind(sqlx.DOLLAR, `update "users" set `+SetList(columns)+` where "id" = ?`))
	require.True(t, UserChanges{}.Empty())
}
