package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// KindDrive is the only remote kind the service operates on.
const KindDrive = "drive"

// Remote is one named credential set inside a decrypted session configuration.
// ClientID and ClientSecret are optional; when empty the process-wide default
// pair is substituted at refresh time.
type Remote struct {
	Name         string
	Kind         string
	ClientID     string
	ClientSecret string
	Token        string // raw token JSON exactly as stored in the configuration text
}

// Token is the OAuth token material carried inside Remote.Token, in the
// rclone on-disk layout.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

// Valid reports whether the access token can still be used at now.
// A zero expiry counts as stale: without an expiry we cannot prove freshness.
func (t Token) Valid(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return false
	}
	return now.Before(t.Expiry)
}

// ParseToken decodes the raw token JSON of a remote.
func ParseToken(raw string) (Token, error) {
	var t Token
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if t.AccessToken == "" && t.RefreshToken == "" {
		return Token{}, fmt.Errorf("%w: no token material", ErrTokenMalformed)
	}
	return t, nil
}

// Encode serializes the token back into the configuration's JSON layout.
func (t Token) Encode() (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return string(raw), nil
}
