package provider

import (
	"context"
	"direct-messages-api/internal/options"
	"direct-messages-api/internal/storage/sqlite"
	mytesting "direct-messages-api/internal/testing"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"net/url"
	"testing"
)

type providers struct {
	store    *sqlite.Store
	users    *UsersProvider
	messages *MessagesProvider
}

func bootstrap(t *testing.T) providers {
	t.Helper()

	logger := zap.NewNop().Sugar()
	store, err := sqlite.New(context.Background(), logger, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return providers{
		store:    store,
		users:    NewUsers(logger, store, &BcryptHasher{Cost: bcrypt.MinCost}),
		messages: NewMessages(logger, store, store),
	}
}

func ptr[T any](v T) *T { return &v }

func (p providers) createUser(t *testing.T) int64 {
	t.Helper()

	u, err := p.users.Create(context.Background(), Credentials{
		Username: ptr(mytesting.RandString(10)),
		Email:    ptr(mytesting.RandEmail()),
		Password: ptr("secret"),
	})
	require.NoError(t, err)
	return u.ID
}

func (p providers) send(t *testing.T, from, to int64, subject string) int64 {
	t.Helper()

	m, err := p.messages.Create(context.Background(), from, MessageData{ReceiverID: &to, Subject: subject, Body: "body"}, nil)
	require.NoError(t, err)
	return m.ID
}

func messageOptions(query string) options.Options {
	raw, _ := url.ParseQuery(query)
	return options.Messages.Parse(raw, options.Limit, options.Offset, options.Sort, options.Fields, options.Type, options.Status)
}

func userOptions(query string) options.Options {
	raw, _ := url.ParseQuery(query)
	return options.Users.Parse(raw, options.Limit, options.Offset, options.Sort, options.Fields, options.Type)
}
