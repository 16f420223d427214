package provider

import "golang.org/x/crypto/bcrypt"

// Hasher turns a plain password into its stored form
type Hasher interface {
	Hash(password string) (string, error)
}

// BcryptHasher implements Hasher using bcrypt
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns BcryptHasher with bcrypt.DefaultCost
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
