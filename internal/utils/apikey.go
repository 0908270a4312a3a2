package utils

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewAPIKey returns a fresh tenant API key. The plaintext is shown to the
// caller exactly once; only the bcrypt hash is persisted.
func NewAPIKey() string {
	return "nk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func HashAPIKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}

func CheckAPIKey(hash, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}
