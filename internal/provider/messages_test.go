package provider

import (
	"context"
	"direct-messages-api/internal/storage"
	mytesting "direct-messages-api/internal/testing"
	"errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"sync"
	"testing"
)

func TestMessagesCreate(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	a, b := p.createUser(t), p.createUser(t)

	m, err := p.messages.Create(ctx, a, MessageData{Subject: "hi", Body: "hello"}, &b)
	require.NoError(t, err)
	require.True(t, m.IsSender(a))
	require.True(t, m.IsReceiver(b))
	require.False(t, m.Read)

	_, err = p.messages.Create(ctx, a, MessageData{Subject: "hi", Body: "hello"}, nil)
	require.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestMessagesCreateReceiverFromDataFirst(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	a, b, c := p.createUser(t), p.createUser(t), p.createUser(t)

	m, err := p.messages.Create(ctx, a, MessageData{ReceiverID: &b, Subject: "hi", Body: "hello"}, &c)
	require.NoError(t, err)
	require.True(t, m.IsReceiver(b))
}

func TestMessagesCreateChecksSenderFirst(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	a := p.createUser(t)
	missingSender, missingReceiver := a+10, a+20

	_, err := p.messages.Create(ctx, missingSender, MessageData{Subject: "s", Body: "b"}, &missingReceiver)
	require.True(t, errors.Is(err, ErrNotFound))
	require.EqualError(t, err, "A user with ID: 11 not found")

	_, err = p.messages.Create(ctx, a, MessageData{Subject: "s", Body: "b"}, &missingReceiver)
	require.EqualError(t, err, "A user with ID: 21 not found")
}

func TestMessagesGet(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	a, b, c := p.createUser(t), p.createUser(t), p.createUser(t)
	id := p.send(t, a, b, "hi")

	for _, user := range []int64{a, b} {
		m, err := p.messages.Get(ctx, user, id, messageOptions("fields=subject"))
		require.NoError(t, err)
		require.Equal(t, "hi", m.Subject)
	}

	_, err := p.messages.Get(ctx, c, id, messageOptions(""))
	require.True(t, errors.Is(err, ErrNotOwner))
	require.EqualError(t, err, "The message with ID: 1 does not belong to user with ID: 3")

	_, err = p.messages.Get(ctx, a, id+1, messageOptions(""))
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = p.messages.Get(ctx, c+1, id, messageOptions(""))
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMessagesList(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	ids := []int64{p.createUser(t), p.createUser(t), p.createUser(t)}

	var sent []int64
	for _, pair := range mytesting.Pairs(ids) {
		sent = append(sent, p.send(t, pair.Sender, pair.Receiver, "out"))
		p.send(t, pair.Swapped().Sender, pair.Swapped().Receiver, "reply")
	}
	// a message user 1 is not party to
	p.send(t, ids[1], ids[2], "other")

	all, err := p.messages.List(ctx, ids[0], messageOptions(""))
	require.NoError(t, err)
	require.Len(t, all, 4)

	outbox, err := p.messages.List(ctx, ids[0], messageOptions("type=sent&sort=id:asc"))
	require.NoError(t, err)
	require.Len(t, outbox, 2)
	require.Equal(t, sent, []int64{outbox[0].ID, outbox[1].ID})

	inbox, err := p.messages.List(ctx, ids[0], messageOptions("type=inbox&sort=user:desc"))
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	require.Equal(t, mytesting.Reverse(ids[1:]), []int64{*inbox[0].SenderID, *inbox[1].SenderID})

	_, err = p.messages.Update(ctx, ids[0], inbox[0].ID, MessageUpdate{Read: true})
	require.NoError(t, err)

	unread, err := p.messages.List(ctx, ids[0], messageOptions("type=inbox&status=unread"))
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.Equal(t, inbox[1].ID, unread[0].ID)

	limited, err := p.messages.List(ctx, ids[0], messageOptions("limit=1&offset=1&fields=id"))
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Empty(t, limited[0].Subject)

	_, err = p.messages.List(ctx, 100, messageOptions(""))
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMessagesUpdateOnlyReceiver(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	a, b, c := p.createUser(t), p.createUser(t), p.createUser(t)
	id := p.send(t, a, b, "hi")

	_, err := p.messages.Update(ctx, a, id, MessageUpdate{Read: true})
	require.True(t, errors.Is(err, ErrNotOwner))

	_, err = p.messages.Update(ctx, c, id, MessageUpdate{Read: true})
	require.True(t, errors.Is(err, ErrNotOwner))

	m, err := p.messages.Update(ctx, b, id, MessageUpdate{Read: true})
	require.NoError(t, err)
	require.True(t, m.Read)

	_, err = p.messages.Update(ctx, b, id+1, MessageUpdate{Read: true})
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMessagesDeleteTwoPhase(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	a, b := p.createUser(t), p.createUser(t)
	id := p.send(t, a, b, "hi")

	ok, err := p.messages.Delete(ctx, b, id)
	require.NoError(t, err)
	require.True(t, ok)

	m, err := p.messages.Get(ctx, a, id, messageOptions(""))
	require.NoError(t, err)
	require.Nil(t, m.ReceiverID)
	require.True(t, m.IsSender(a))

	_, err = p.messages.Get(ctx, b, id, messageOptions(""))
	require.True(t, errors.Is(err, ErrNotOwner))

	ok, err = p.messages.Delete(ctx, a, id)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = p.messages.Delete(ctx, a, id)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMessagesDeleteByStranger(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	a, b, c := p.createUser(t), p.createUser(t), p.createUser(t)
	id := p.send(t, a, b, "hi")

	ok, err := p.messages.Delete(ctx, c, id)
	require.NoError(t, err)
	require.True(t, ok)

	m, err := p.messages.Get(ctx, a, id, messageOptions(""))
	require.NoError(t, err)
	require.True(t, m.IsSender(a))
	require.True(t, m.IsReceiver(b))
}

func TestMessagesDeleteSelfAddressed(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	a := p.createUser(t)
	id := p.send(t, a, a, "note")

	// receiver side is cleared first, the sender side on the next call
	_, err := p.messages.Delete(ctx, a, id)
	require.NoError(t, err)
	m, err := p.messages.Get(ctx, a, id, messageOptions(""))
	require.NoError(t, err)
	require.Nil(t, m.ReceiverID)

	_, err = p.messages.Delete(ctx, a, id)
	require.NoError(t, err)
	_, err = p.messages.Get(ctx, a, id, messageOptions(""))
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMessagesDeleteByBothPartiesConcurrently(t *testing.T) {
	p := bootstrap(t)
	ctx := context.Background()
	a, b := p.createUser(t), p.createUser(t)

	for i := 0; i < 20; i++ {
		id := p.send(t, a, b, "hi")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, user := range []int64{a, b} {
			wg.Add(1)
			go func(j int, user int64) {
				defer wg.Done()
				_, errs[j] = p.messages.Delete(ctx, user, id)
			}(j, user)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		_, err := p.messages.Get(ctx, a, id, messageOptions(""))
		require.True(t, errors.Is(err, ErrNotFound))
	}

	left, err := p.store.FindMessages(ctx, storage.Query{})
	require.NoError(t, err)
	require.Empty(t, left)
}

// purgeFailingStore hands out a fixed message and reports every purge as failed
type purgeFailingStore struct {
	MessageStore
	message storage.Message
}

func (s *purgeFailingStore) ModifyMessage(_ context.Context, _ int64, fn storage.ModifyFunc) (storage.Message, error) {
	m := s.message
	action, err := fn(&m)
	if err != nil {
		return storage.Message{}, err
	}
	if action == storage.Purge {
		return storage.Message{}, storage.ErrDeleteFailed
	}
	s.message = m
	return m, nil
}

type existingUsers struct{}

func (existingUsers) UserExists(context.Context, int64) (bool, error) { return true, nil }

func TestMessagesDeletePurgeFailed(t *testing.T) {
	sender := int64(1)
	store := &purgeFailingStore{message: storage.Message{ID: 5, SenderID: &sender}}
	p := NewMessages(zap.NewNop().Sugar(), store, existingUsers{})

	_, err := p.Delete(context.Background(), sender, 5)
	require.True(t, errors.Is(err, ErrNotOwner))
	require.EqualError(t, err, "The message with ID: 5 does not belong to user with ID: 1")
	require.NotNil(t, store.message.SenderID)
}

func TestMessageOrder(t *testing.T) {
	require.Equal(t, []storage.Order{{Column: "created_at", Desc: true}}, messageOrder(messageOptions("")))
	require.Equal(t, []storage.Order{{Column: "created_at"}}, messageOrder(messageOptions("sort=date:asc")))
	require.Equal(t,
		[]storage.Order{{Column: "sender_id"}, {Column: "created_at", Desc: true}},
		messageOrder(messageOptions("type=inbox&sort=user:asc")))
	require.Equal(t,
		[]storage.Order{{Column: "id", Desc: true}, {Column: "created_at", Desc: true}},
		messageOrder(messageOptions("type=all&sort=user:asc,id:desc")))
}
