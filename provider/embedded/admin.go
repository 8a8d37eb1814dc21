package embedded

import (
	"context"
	"time"

	"github.com/goliatone/go-auth-state"
	goerrors "github.com/goliatone/go-errors"
)

// adminAPI implements authstate.AdminAPI directly against the accounts
// table.
type adminAPI struct {
	client *Client
}

// CreateUser provisions an auth account. The id derives from the email, so
// provisioning the same address twice targets the same row and fails on the
// unique constraint rather than forking accounts.
func (a *adminAPI) CreateUser(ctx context.Context, input authstate.CreateUserInput) (*authstate.User, error) {
	if input.Email == "" {
		return nil, goerrors.New("email is required", goerrors.CategoryBadInput).
			WithTextCode("EMAIL_REQUIRED")
	}
	if input.Password == "" {
		return nil, goerrors.New("password is required", goerrors.CategoryBadInput).
			WithTextCode("PASSWORD_REQUIRED")
	}

	hash, err := HashPassword(input.Password, a.client.cfg.BcryptCost)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		UserMetadata: input.UserMetadata,
		AppMetadata:  input.AppMetadata,
	}

	if input.EmailConfirm {
		now := time.Now()
		account.EmailConfirmedAt = &now
	}

	if flag, ok := input.AppMetadata[authstate.AppMetadataPasswordChangeRequired].(bool); ok {
		account.PasswordChangeRequired = flag
	}

	created, err := a.client.accounts.Create(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	return created.User(), nil
}
