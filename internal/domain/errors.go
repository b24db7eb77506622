package domain

import "errors"

var (
	// ErrSessionExpired signals a session that is absent from the store or past its TTL.
	ErrSessionExpired = errors.New("session: expired or not found")
	// ErrSessionCorrupt signals a session blob that failed the integrity check on decrypt.
	ErrSessionCorrupt = errors.New("session: blob failed integrity check")
	// ErrRemoteNotFound signals a remote name missing from the configuration or of an unsupported kind.
	ErrRemoteNotFound = errors.New("session: remote not found")
	// ErrTokenMalformed signals a remote whose stored token material is not well-formed.
	ErrTokenMalformed = errors.New("session: token malformed")
	// ErrNoUsableRemote signals an uploaded configuration with no drive remote carrying a token.
	ErrNoUsableRemote = errors.New("session: configuration has no usable drive remote")
	// ErrRefreshDenied signals the identity provider rejected the refresh-token grant.
	ErrRefreshDenied = errors.New("oauth: refresh denied")
	// ErrRefreshUnreachable signals a transport failure reaching the token endpoint.
	ErrRefreshUnreachable = errors.New("oauth: token endpoint unreachable")
)
