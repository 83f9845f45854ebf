package auth

import (
	"fmt"
	"photovote/apperr"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	VoterKeyHeader = "X-Voter-Key"

	// Generated keys are UUIDs; shorter keys are too easy to guess or collide
	minVoterKeyLen = 8
	maxVoterKeyLen = 100
)

// Identity resolves who is voting. ClientKey trusts a random token kept by the client;
// a stronger scheme (login, signed tokens) can replace it without touching vote accounting.
type Identity interface {
	// VoterKey returns the voter identifier of the request. claimed is the key from the request body, if any.
	VoterKey(c *gin.Context, claimed string) (string, error)
}

// ClientKey takes the key from the body, the X-Voter-Key header or the voter_key query parameter
type ClientKey struct{}

func (ClientKey) VoterKey(c *gin.Context, claimed string) (string, error) {
	key := strings.TrimSpace(claimed)
	if key == "" {
		key = strings.TrimSpace(c.GetHeader(VoterKeyHeader))
	}
	if key == "" {
		key = strings.TrimSpace(c.Query("voter_key"))
	}
	if key == "" {
		return "", fmt.Errorf("%w: voter_key is required", apperr.ErrValidation)
	}
	if !ValidVoterKey(key) {
		return "", fmt.Errorf("%w: voter_key is invalid", apperr.ErrValidation)
	}
	return key, nil
}

func ValidVoterKey(key string) bool {
	if len(key) < minVoterKeyLen || len(key) > maxVoterKeyLen {
		return false
	}
	for _, c := range key {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// NewVoterKey returns a fresh random key for clients that can't generate their own
func NewVoterKey() string {
	return uuid.NewString()
}
