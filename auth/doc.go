// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing, session tokens and ID generation.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(hash, password) // ErrInvalidCredentials on mismatch

# Session Tokens

Session tokens are HS256 JWTs signed with the configured session secret.
The subject is the user ID; the role claim selects the profile record:

	token, err := auth.IssueToken(auth.Identity{UserID: id, Username: name, Role: models.RoleStudent}, secret, ttl)
	id, err := auth.ParseToken(token, secret)

Expired, tampered or foreign tokens all yield ErrInvalidToken.

# Request Identity

Middleware stores the parsed identity on the request context:

	ctx = auth.WithIdentity(ctx, id)
	id, ok := auth.IdentityFrom(r.Context())

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
