package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"photovote/apperr"
	"photovote/config"
)

var ErrAdminNotConfigured = errors.New("Missing ADMIN_KEY")

// Admin is the capability required to change settings. It can only be obtained
// by presenting the configured ADMIN_KEY (directly or through a logged in session).
type Admin struct {
	granted bool
	Via     string
}

func (a *Admin) Valid() bool {
	return a != nil && a.granted
}

// VerifyAdminKey grants the admin capability if key matches ADMIN_KEY
func VerifyAdminKey(key string) (*Admin, error) {
	if config.ADMIN_KEY == "" {
		return nil, ErrAdminNotConfigured
	}
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(config.ADMIN_KEY)) != 1 {
		return nil, apperr.ErrUnauthorized
	}
	return &Admin{granted: true, Via: "key"}, nil
}

// adminFingerprint is stored in the session instead of a plain flag, so rotating ADMIN_KEY logs everyone out
func adminFingerprint() string {
	sum := sha256.Sum256([]byte("admin:" + config.ADMIN_KEY))
	return hex.EncodeToString(sum[:16])
}
