package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrMessageNotFound  = fmt.Errorf("message %w", ErrNotFound)
	ErrSenderNotExist   = errors.New("sender does not exist")
	ErrReceiverNotExist = errors.New("receiver does not exist")
	ErrDeleteFailed     = errors.New("delete affected no rows")
	ErrUnknownColumn    = errors.New("unknown column")
)
