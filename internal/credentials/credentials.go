// Package credentials checks password strength and handles hashing.
package credentials

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var strengthRules = []struct {
	ok  func(string) bool
	msg string
}{
	{func(p string) bool { return len(p) >= 8 }, "password must be at least 8 characters long"},
	{regexp.MustCompile(`[0-9]`).MatchString, "password must contain at least one digit"},
	{regexp.MustCompile(`[A-Z]`).MatchString, "password must contain at least one uppercase letter"},
	{regexp.MustCompile(`[a-z]`).MatchString, "password must contain at least one lowercase letter"},
	{regexp.MustCompile(`[^a-zA-Z0-9]`).MatchString, "password must contain at least one special character"},
}

// Validator enforces the strength rules and wraps bcrypt.
type Validator struct {
	cost int
}

// NewValidator uses the default bcrypt cost.
func NewValidator() *Validator {
	return &Validator{cost: bcrypt.DefaultCost}
}

// ValidateStrength returns the first failed rule's message, or nil.
func (v *Validator) ValidateStrength(password string) error {
	for _, rule := range strengthRules {
		if !rule.ok(password) {
			return errors.New(rule.msg)
		}
	}
	return nil
}

// Hash produces an opaque password hash.
func (v *Validator) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash.
func (v *Validator) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
