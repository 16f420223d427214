package provider

import (
	"context"
	"direct-messages-api/internal/options"
	"direct-messages-api/internal/storage"
	"errors"
	"fmt"
	"go.uber.org/zap"
)

// MessageData holds fields of a new message sent by a client
type MessageData struct {
	ReceiverID *int64
	Subject    string
	Body       string
}

// MessageUpdate holds fields a receiver may change
type MessageUpdate struct {
	Read bool
}

// Messages applies query options and ownership rules to messages storage
type Messages interface {
	List(ctx context.Context, userID int64, o options.Options) ([]storage.Message, error)
	Get(ctx context.Context, userID, messageID int64, o options.Options) (storage.Message, error)
	Create(ctx context.Context, senderID int64, data MessageData, receiverID *int64) (storage.Message, error)
	Update(ctx context.Context, userID, messageID int64, data MessageUpdate) (storage.Message, error)
	Delete(ctx context.Context, userID, messageID int64) (bool, error)
}

// MessagesProvider is the Messages implementation over a MessageStore
type MessagesProvider struct {
	logger *zap.SugaredLogger
	store  MessageStore
	users  userChecker
}

func NewMessages(logger *zap.SugaredLogger, store MessageStore, users userChecker) *MessagesProvider {
	return &MessagesProvider{
		logger: logger,
		store:  store,
		users:  users,
	}
}

// List returns messages of userID: all of them, inbox or sent depending on o.Type.
// Without requested sort messages go from newest to oldest.
func (p *MessagesProvider) List(ctx context.Context, userID int64, o options.Options) ([]storage.Message, error) {
	if err := p.userExists(ctx, userID); err != nil {
		return nil, err
	}

	q := storage.Query{
		Columns: o.Fields,
		Offset:  o.Offset,
		Limit:   o.Limit,
	}

	switch o.Type {
	case options.TypeInbox:
		q.Where = []storage.Cond{{{Column: "receiver_id", Value: userID}}}
	case options.TypeSent:
		q.Where = []storage.Cond{{{Column: "sender_id", Value: userID}}}
	default:
		q.Where = []storage.Cond{{{Column: "sender_id", Value: userID}, {Column: "receiver_id", Value: userID}}}
	}

	switch o.Status {
	case options.Unread:
		q.Where = append(q.Where, storage.Cond{{Column: "read", Value: false}})
	case options.Read:
		q.Where = append(q.Where, storage.Cond{{Column: "read", Value: true}})
	}

	q.Order = messageOrder(o)

	p.logger.Debugf("Listing messages for user (id: %d, type: %s)", userID, o.Type)

	messages, err := p.store.FindMessages(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing messages of user %d: %w", userID, err)
	}

	p.logger.Debugf("Retrieved %d messages", len(messages))

	return messages, nil
}

// messageOrder maps sort keys to columns. "user" sorts by the counterpart: sender for inbox,
// receiver for sent and is ignored for all. Creation time descending is the default order
// and the last key unless creation time was requested explicitly.
func messageOrder(o options.Options) []storage.Order {
	var order []storage.Order
	for _, s := range o.Sort {
		switch s.Field {
		case "user":
			switch o.Type {
			case options.TypeInbox:
				order = appendOrder(order, "sender_id", s.Desc())
			case options.TypeSent:
				order = appendOrder(order, "receiver_id", s.Desc())
			}
		case "date":
			order = appendOrder(order, "created_at", s.Desc())
		default:
			order = appendOrder(order, s.Field, s.Desc())
		}
	}
	if _, ok := o.SortDirection("date"); ok {
		return order
	}
	return appendOrder(order, "created_at", true)
}

// Get returns message if it belongs to userID. Party ids are always loaded for the ownership check.
func (p *MessagesProvider) Get(ctx context.Context, userID, messageID int64, o options.Options) (storage.Message, error) {
	if err := p.userExists(ctx, userID); err != nil {
		return storage.Message{}, err
	}

	columns := storage.WithColumns(o.Fields, "sender_id", "receiver_id")
	m, err := p.store.FindMessage(ctx, messageID, columns)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			return storage.Message{}, messageNotFound(messageID)
		}
		return storage.Message{}, fmt.Errorf("getting message %d: %w", messageID, err)
	}

	if !m.BelongsTo(userID) {
		return storage.Message{}, notOwner(messageID, userID)
	}
	return m, nil
}

// Create sends a message from senderID. Receiver is taken from data first, then from receiverID.
// Sender existence is checked before receiver existence.
func (p *MessagesProvider) Create(ctx context.Context, senderID int64, data MessageData, receiverID *int64) (storage.Message, error) {
	receiver := data.ReceiverID
	if receiver == nil {
		receiver = receiverID
	}
	if receiver == nil {
		return storage.Message{}, invalidArgument("Passed receiver ID must be a number and be greater than 0")
	}

	if err := p.userExists(ctx, senderID); err != nil {
		return storage.Message{}, err
	}
	if err := p.userExists(ctx, *receiver); err != nil {
		return storage.Message{}, err
	}

	p.logger.Debugf("Creating message from user (id: %d) to user (id: %d)", senderID, *receiver)

	m, err := p.store.CreateMessage(ctx, storage.NewMessage{
		SenderID:   senderID,
		ReceiverID: *receiver,
		Subject:    data.Subject,
		Body:       data.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrSenderNotExist):
			return storage.Message{}, userNotFound(senderID)
		case errors.Is(err, storage.ErrReceiverNotExist):
			return storage.Message{}, userNotFound(*receiver)
		default:
			return storage.Message{}, internal("Cannot create new message", err)
		}
	}
	return m, nil
}

// Update lets only the receiver change the message, the sender gets ownership violation too
func (p *MessagesProvider) Update(ctx context.Context, userID, messageID int64, data MessageUpdate) (storage.Message, error) {
	if err := p.userExists(ctx, userID); err != nil {
		return storage.Message{}, err
	}

	m, err := p.store.ModifyMessage(ctx, messageID, func(m *storage.Message) (storage.Action, error) {
		if !m.IsReceiver(userID) {
			return storage.Keep, notOwner(messageID, userID)
		}
		m.Read = data.Read
		return storage.Save, nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			return storage.Message{}, messageNotFound(messageID)
		}
		return storage.Message{}, err
	}
	return m, nil
}

// Delete detaches userID from the message: receiver side first, sender side otherwise.
// The message is purged once both sides are detached. A user who is neither party detaches nothing.
func (p *MessagesProvider) Delete(ctx context.Context, userID, messageID int64) (bool, error) {
	if err := p.userExists(ctx, userID); err != nil {
		return false, err
	}

	p.logger.Debugf("Deleting message (id: %d) for user (id: %d)", messageID, userID)

	_, err := p.store.ModifyMessage(ctx, messageID, func(m *storage.Message) (storage.Action, error) {
		switch {
		case m.IsReceiver(userID):
			m.ReceiverID = nil
		case m.IsSender(userID):
			m.SenderID = nil
		default:
			return storage.Keep, nil
		}
		if m.Orphaned() {
			return storage.Purge, nil
		}
		return storage.Save, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrMessageNotFound):
			return false, messageNotFound(messageID)
		case errors.Is(err, storage.ErrDeleteFailed):
			// purge failure is reported with the ownership violation kind
			return false, notOwner(messageID, userID)
		default:
			return false, fmt.Errorf("deleting message %d: %w", messageID, err)
		}
	}
	return true, nil
}

func (p *MessagesProvider) userExists(ctx context.Context, id int64) error {
	ok, err := p.users.UserExists(ctx, id)
	if err != nil {
		return fmt.Errorf("checking user %d: %w", id, err)
	}
	if !ok {
		return userNotFound(id)
	}
	return nil
}
