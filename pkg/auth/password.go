package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// placeholderHash is compared against when a username is unknown so that
// lookups for missing and existing accounts take similar time.
var placeholderHash, _ = bcrypt.GenerateFromPassword([]byte("knowledge-galaxy-placeholder"), bcrypt.DefaultCost)

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
// An empty stored hash is checked against a placeholder and never matches.
func CheckPassword(password, stored string) bool {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		_ = bcrypt.CompareHashAndPassword(placeholderHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
