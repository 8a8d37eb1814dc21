package authstate

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type CreateClientMessage struct {
	Email    string `json:"email" example:"client@example.com" doc:"Client account email"`
	Password string `json:"password" example:"some_secret_word" doc:"Temporary password, rotated on first sign-in"`
	FullName string `json:"full_name" example:"Ada Lovelace" doc:"Display name"`
	Phone    string `json:"phone" example:"+15005550006" doc:"Optional phone number"`
}

func (e CreateClientMessage) Type() string { return "client.create" }

type CreateClientHandler struct {
	store  *Store
	logger Logger
}

// NewCreateClientHandler creates a handler with sane defaults. Provisioning
// activity is recorded by the store's own sink.
func NewCreateClientHandler(store *Store) *CreateClientHandler {
	return &CreateClientHandler{
		store:  store,
		logger: defaultLogger(),
	}
}

// WithLogger overrides the logger used by the handler.
func (h *CreateClientHandler) WithLogger(logger Logger) *CreateClientHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CreateClientHandler) Execute(ctx context.Context, event CreateClientMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during client provisioning",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateClientHandler) execute(ctx context.Context, event CreateClientMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, _, err := h.store.CreateClient(ctx, CreateClientInput{
		Email:    event.Email,
		Password: event.Password,
		FullName: event.FullName,
		Phone:    event.Phone,
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "client provisioning failed")
	}

	h.logger.Info("client account provisioned",
		"user_id", user.ID.String(),
		"email", event.Email,
	)

	return nil
}
