package auth

import (
	"fmt"

	"github.com/hako/branca"
	"github.com/ripplechat/ripple/errs"
)

// Codec issues and verifies bearer tokens carrying the user ID. Session
// issuance itself (login, signup) belongs to the auth collaborator; this
// only lets the API resolve a token back to an identity.
type Codec struct {
	branca *branca.Branca
}

// NewCodec requires a 32-byte secret key.
func NewCodec(key string, ttl uint32) (*Codec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("branca key must be exactly 32 bytes, got %d", len(key))
	}

	b := branca.NewBranca(key)
	b.SetTTL(ttl)

	return &Codec{branca: b}, nil
}

func (c *Codec) IssueToken(userID string) (string, error) {
	token, err := c.branca.EncodeToString(userID)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}

	return token, nil
}

func (c *Codec) VerifyToken(token string) (string, error) {
	userID, err := c.branca.DecodeToString(token)
	if err != nil {
		return "", errs.NewUnauthenticatedError("invalid or expired token")
	}

	return userID, nil
}
