package embedded

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// refreshRegistry tracks issued refresh tokens in memory. Tokens are
// single-use: a rotation burns the old token and issues a replacement.
type refreshRegistry struct {
	mu     sync.Mutex
	tokens map[string]refreshGrant
}

type refreshGrant struct {
	accountID uuid.UUID
	issuedAt  time.Time
}

func newRefreshRegistry() *refreshRegistry {
	return &refreshRegistry{
		tokens: make(map[string]refreshGrant),
	}
}

func (r *refreshRegistry) issue(accountID uuid.UUID) string {
	token := uuid.NewString()

	r.mu.Lock()
	r.tokens[token] = refreshGrant{accountID: accountID, issuedAt: time.Now()}
	r.mu.Unlock()

	return token
}

// rotate burns token and issues a replacement for the same account.
func (r *refreshRegistry) rotate(token string) (uuid.UUID, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	grant, ok := r.tokens[token]
	if !ok {
		return uuid.Nil, "", false
	}

	delete(r.tokens, token)

	next := uuid.NewString()
	r.tokens[next] = refreshGrant{accountID: grant.accountID, issuedAt: time.Now()}

	return grant.accountID, next, true
}

func (r *refreshRegistry) revokeAccount(accountID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, grant := range r.tokens {
		if grant.accountID == accountID {
			delete(r.tokens, token)
		}
	}
}
