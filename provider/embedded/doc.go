// Package embedded is an in-process auth provider backed by bun. It exists
// for development and integration tests: the full state store runs against
// it with no network and no hosted project.
//
// Accounts live in the auth_accounts table with bcrypt password hashes;
// access tokens are HS256 JWTs signed with the configured key; refresh
// tokens rotate in memory and do not survive a restart.
package embedded
