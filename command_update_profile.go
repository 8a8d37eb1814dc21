package authstate

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type UpdateProfileMessage struct {
	FullName *string `json:"full_name,omitempty" example:"Ada Lovelace" doc:"New display name"`
	Email    *string `json:"email,omitempty" example:"ada@example.com" doc:"New contact email"`
}

func (e UpdateProfileMessage) Type() string { return "profile.update" }

type UpdateProfileHandler struct {
	store  *Store
	logger Logger
}

// NewUpdateProfileHandler creates a handler with sane defaults.
func NewUpdateProfileHandler(store *Store) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		store:  store,
		logger: defaultLogger(),
	}
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateProfileHandler) WithLogger(logger Logger) *UpdateProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	profile, err := h.store.UpdateProfile(ctx, ProfileChanges{
		FullName: event.FullName,
		Email:    event.Email,
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile update failed")
	}

	h.logger.Debug("profile updated", "profile_id", profile.ID.String())

	return nil
}
