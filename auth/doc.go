// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth issues and verifies the bearer tokens that identify callers.

# Tokens

Tokens are HS256 JWTs. The subject is the caller principal, the issuer is
always "ballot" and an expiry is required:

	tokens, err := auth.NewTokens(secret, 24*time.Hour)
	token, err := tokens.Issue("0xadmin")
	principal, err := tokens.Verify(token)

Verify rejects other signing methods, other issuers, expired tokens and
subjects that are not well-formed principals.

# Headers

BearerToken pulls the token out of an Authorization header:

	token, err := auth.BearerToken(r.Header.Get("Authorization"))

The scheme is matched case-insensitively. A missing header, another scheme or
an empty token all return ErrMissingToken.

# Secrets

Secrets shorter than MinSecretLength bytes are refused. The secret comes from
JWT_SECRET; the token command and the server must share it.
*/
package auth
