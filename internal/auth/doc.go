// Package auth implements bearer-token verification for the read-only
// operational surface. Tokens are JWTs signed with HS256 (shared secret)
// or RS256 (PEM public key); the only scopes are read and telemetry.
package auth
