//go:build race

package embedded

import "golang.org/x/crypto/bcrypt"

// Race-enabled test binaries hash slowly enough that cost 14 blows past
// per-test timeouts, so they fall back to the bcrypt default.
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
