package provider

import (
	"context"
	"direct-messages-api/internal/storage"
)

// UserStore is the part of a storage backend users provider relies on
type UserStore interface {
	FindUsers(ctx context.Context, q storage.Query) ([]storage.User, error)
	FindUser(ctx context.Context, id int64, columns []string) (storage.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	CreateUser(ctx context.Context, u storage.NewUser) (storage.User, error)
	UpdateUser(ctx context.Context, id int64, c storage.UserChanges) (storage.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// MessageStore is the part of a storage backend messages provider relies on
type MessageStore interface {
	FindMessages(ctx context.Context, q storage.Query) ([]storage.Message, error)
	FindMessage(ctx context.Context, id int64, columns []string) (storage.Message, error)
	CreateMessage(ctx context.Context, m storage.NewMessage) (storage.Message, error)
	// ModifyMessage locks the message, passes it to fn and applies returned action in one transaction
	ModifyMessage(ctx context.Context, id int64, fn storage.ModifyFunc) (storage.Message, error)
}

type userChecker interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}
