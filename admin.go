package authstate

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// AppMetadataPasswordChangeRequired flags provisioned accounts that must
// rotate their password on first sign-in. Stored in provider app metadata so
// end users cannot clear it.
const AppMetadataPasswordChangeRequired = "password_change_required"

// CreateClientInput is the payload for administrative client provisioning.
type CreateClientInput struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	FullName string `form:"full_name" json:"full_name"`
	Phone    string `form:"phone" json:"phone"`
}

// Validate will run validation rules
func (i CreateClientInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(
			&i.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&i.Password,
			validation.Required,
			validation.Length(8, 128),
		),
		validation.Field(
			&i.FullName,
			validation.Length(0, 255),
		),
	)
}

// CreateClient provisions a client account: a provider-side user flagged for
// a first-login password change, then a profile row with the client role.
// Either step failing aborts and returns the error. There is no compensating
// rollback of the provider account when the profile insert fails. The
// store's own session state is never touched.
func (s *Store) CreateClient(ctx context.Context, input CreateClientInput) (*User, *Profile, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryValidation, "invalid client account payload").
			WithCode(errors.CodeBadRequest)
	}

	userMeta := map[string]any{}
	if input.FullName != "" {
		userMeta["full_name"] = input.FullName
	}

	user, err := s.client.Admin().CreateUser(ctx, CreateUserInput{
		Email:        input.Email,
		Password:     input.Password,
		Phone:        input.Phone,
		EmailConfirm: true,
		UserMetadata: userMeta,
		AppMetadata: map[string]any{
			AppMetadataPasswordChangeRequired: true,
		},
	})
	if err != nil {
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventClientCreateFailure,
			Metadata:  map[string]any{"step": "create_user", "email": input.Email},
		})
		return nil, nil, errors.Wrap(err, errors.CategoryOperation, "provider account creation failed")
	}

	profile, err := s.client.Profiles().Insert(ctx, &Profile{
		ID:       user.ID,
		Email:    input.Email,
		FullName: input.FullName,
		Role:     RoleClient,
	})
	if err != nil {
		s.logger.Error("profile insert failed after account creation, account left without profile",
			"user_id", user.ID.String(),
			"error", err,
		)
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventClientCreateFailure,
			UserID:    user.ID.String(),
			Metadata:  map[string]any{"step": "insert_profile"},
		})
		return nil, nil, errors.Wrap(err, errors.CategoryOperation, "profile creation failed").
			WithMetadata(map[string]any{"user_id": user.ID.String()})
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventClientCreated,
		UserID:    user.ID.String(),
	})

	return user, profile, nil
}
