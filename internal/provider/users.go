package provider

import (
	"context"
	"direct-messages-api/internal/options"
	"direct-messages-api/internal/storage"
	"errors"
	"fmt"
	"go.uber.org/zap"
)

// Credentials holds user fields sent by a client, nil means not sent
type Credentials struct {
	Username *string
	Email    *string
	Password *string
	Status   *bool
}

// Users applies query options and domain rules to users storage
type Users interface {
	List(ctx context.Context, o options.Options) ([]storage.User, error)
	Get(ctx context.Context, id int64, o options.Options) (storage.User, error)
	Create(ctx context.Context, c Credentials) (storage.User, error)
	Update(ctx context.Context, id int64, c Credentials) (storage.User, error)
	Delete(ctx context.Context, id int64) error
}

// UsersProvider is the Users implementation over a UserStore
type UsersProvider struct {
	logger *zap.SugaredLogger
	store  UserStore
	hasher Hasher
}

func NewUsers(logger *zap.SugaredLogger, store UserStore, hasher Hasher) *UsersProvider {
	return &UsersProvider{
		logger: logger,
		store:  store,
		hasher: hasher,
	}
}

// List returns users filtered by type (online/offline/all), sorted, paginated and projected to selected fields
func (p *UsersProvider) List(ctx context.Context, o options.Options) ([]storage.User, error) {
	q := storage.Query{
		Columns: o.Fields,
		Offset:  o.Offset,
		Limit:   o.Limit,
	}

	switch o.Type {
	case options.TypeOnline:
		q.Where = []storage.Cond{{{Column: "status", Value: true}}}
	case options.TypeOffline:
		q.Where = []storage.Cond{{{Column: "status", Value: false}}}
	}

	for _, s := range o.Sort {
		q.Order = appendOrder(q.Order, userSortColumn(s.Field), s.Desc())
	}

	p.logger.Debugf("Listing users (type: %s, offset: %d, limit: %d)", o.Type, o.Offset, o.Limit)

	users, err := p.store.FindUsers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (p *UsersProvider) Get(ctx context.Context, id int64, o options.Options) (storage.User, error) {
	u, err := p.store.FindUser(ctx, id, o.Fields)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.User{}, userNotFound(id)
		}
		return storage.User{}, fmt.Errorf("getting user %d: %w", id, err)
	}
	return u, nil
}

// Create requires username, email and password to be set, status defaults to offline
func (p *UsersProvider) Create(ctx context.Context, c Credentials) (storage.User, error) {
	if c.Username == nil || c.Email == nil || c.Password == nil {
		return storage.User{}, invalidArgument("Username, email and password are required to create a user")
	}

	hash, err := p.hasher.Hash(*c.Password)
	if err != nil {
		return storage.User{}, internal("Cannot create new user", err)
	}

	nu := storage.NewUser{
		Username: *c.Username,
		Email:    *c.Email,
		Password: hash,
	}
	if c.Status != nil {
		nu.Status = *c.Status
	}

	p.logger.Debugf("Creating user (%s)", nu.Username)

	u, err := p.store.CreateUser(ctx, nu)
	if err != nil {
		return storage.User{}, internal("Cannot create new user", err)
	}

	p.logger.Debugf("Created user (%s) with id %d", u.Username, u.ID)

	return u, nil
}

// Update changes only fields set in c. NotFound is returned for unknown id, creating instead is up to the caller.
func (p *UsersProvider) Update(ctx context.Context, id int64, c Credentials) (storage.User, error) {
	changes := storage.UserChanges{
		Username: c.Username,
		Email:    c.Email,
		Status:   c.Status,
	}
	if c.Password != nil {
		hash, err := p.hasher.Hash(*c.Password)
		if err != nil {
			return storage.User{}, fmt.Errorf("hashing password: %w", err)
		}
		changes.Password = &hash
	}

	p.logger.Debugf("Updating user (id: %d)", id)

	u, err := p.store.UpdateUser(ctx, id, changes)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.User{}, userNotFound(id)
		}
		return storage.User{}, fmt.Errorf("updating user %d: %w", id, err)
	}
	return u, nil
}

func (p *UsersProvider) Delete(ctx context.Context, id int64) error {
	p.logger.Debugf("Deleting user (id: %d)", id)

	if err := p.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return userNotFound(id)
		}
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	return nil
}

func userSortColumn(key string) string {
	if key == "date" {
		return "created_at"
	}
	return key
}

// appendOrder adds column to order unless it is already there
func appendOrder(order []storage.Order, column string, desc bool) []storage.Order {
	for _, o := range order {
		if o.Column == column {
			return order
		}
	}
	return append(order, storage.Order{Column: column, Desc: desc})
}
