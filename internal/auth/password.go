package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidPassword is returned by AdminCredentials.Check on a mismatch.
var ErrInvalidPassword = errors.New("auth: invalid password")

// maxPasswordBytes is where bcrypt stops reading its input.
const maxPasswordBytes = 72

const defaultCost = 12

// PasswordService hashes and verifies bcrypt passwords at a fixed cost.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest lets other packages' tests use bcrypt.MinCost.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt encoding of plaintext, salt and cost included.
// Passwords longer than bcrypt's 72-byte input are refused rather than
// silently truncated.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns ErrInvalidPassword when plaintext does not match hash.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidPassword
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}

// AdminCredentials checks the single admin password.
type AdminCredentials struct {
	passwords *PasswordService
	hash      string
}

// NewAdminCredentials prefers a pre-computed bcrypt hash
// (ADMIN_PASSWORD_HASH). A plaintext ADMIN_PASSWORD is hashed once at
// startup and dropped. With neither, ok is false and admin login is off.
func NewAdminCredentials(passwords *PasswordService, hash, plaintext string) (creds *AdminCredentials, ok bool, err error) {
	if hash == "" && plaintext == "" {
		return nil, false, nil
	}
	if hash == "" {
		hash, err = passwords.Hash(plaintext)
		if err != nil {
			return nil, false, fmt.Errorf("auth: hashing admin password: %w", err)
		}
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, false, fmt.Errorf("auth: ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}
	return &AdminCredentials{passwords: passwords, hash: hash}, true, nil
}

// Check returns nil when password is the admin password.
func (c *AdminCredentials) Check(password string) error {
	return c.passwords.Verify(c.hash, password)
}
