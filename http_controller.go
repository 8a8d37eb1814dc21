package authstate

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/nyaruka/phonenumbers"
)

type Middleware interface {
	ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
	AdminRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

var _ Middleware = (*RouteSession)(nil)

func RegisterStateRoutes[T any](app router.Router[T], opts ...StateControllerOption) {

	controller := NewStateController(opts...)

	app.
		Get(controller.Routes.State, controller.StateShow).
		SetName("auth-state.get")

	app.
		Get(controller.Routes.Login,
			controller.LoginShow,
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.Login,
			controller.LoginPost,
		).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	app.Get(controller.Routes.Profile, controller.ProfileShow).
		SetName("profile.get")
	app.Post(controller.Routes.Profile, controller.ProfileUpdate).
		SetName("profile.post")

	app.Get(controller.Routes.Clients, controller.ClientsShow).
		SetName("admin-clients.get")
	app.Post(controller.Routes.Clients, controller.ClientCreate).
		SetName("admin-clients.post")
}

type StateControllerRoutes struct {
	State   string
	Login   string
	Logout  string
	Profile string
	Clients string
}

type StateControllerViews struct {
	Login   string
	Profile string
	Clients string
}

type StateController struct {
	Debug bool
	// ExposeTokens keeps the raw tokens in the state endpoint payload.
	// Off by default; the snapshot carries expiry metadata only.
	ExposeTokens bool
	Logger       Logger
	Store        *Store
	Session      *RouteSession
	Gate         gate.FeatureGate
	Routes       *StateControllerRoutes
	Views        *StateControllerViews
	ErrorHandler router.ErrorHandler
}

type StateControllerOption func(*StateController) *StateController

func NewStateController(opts ...StateControllerOption) *StateController {
	c := &StateController{
		Logger:       defaultLogger(),
		ErrorHandler: defaultErrHandler,
		Routes: &StateControllerRoutes{
			State:   "/auth/state",
			Login:   "/login",
			Logout:  "/logout",
			Profile: "/profile",
			Clients: "/admin/clients",
		},
		Views: &StateControllerViews{
			Login:   "login",
			Profile: "profile",
			Clients: "admin_clients",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Store == nil {
		panic("Missing Store in auth state controller...")
	}

	if c.Session == nil {
		panic("Missing RouteSession in auth state controller...")
	}

	return c
}

// StateShow serializes the current snapshot so clients can hydrate without
// waiting for the next auth event. The session is redacted to its expiry
// metadata unless ExposeTokens is set.
func (a *StateController) StateShow(ctx router.Context) error {
	state := a.Store.Snapshot()

	if !a.ExposeTokens && state.Session != nil {
		state.Session = &Session{
			TokenType: state.Session.TokenType,
			ExpiresIn: state.Session.ExpiresIn,
			ExpiresAt: state.Session.ExpiresAt,
		}
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"state": state,
		"view":  ResolveView(state),
	})
}

func (a *StateController) LoginShow(ctx router.Context) error {
	state := a.Store.Snapshot()
	if view := ResolveView(state); view != ViewLogin && view != ViewLoading {
		return ctx.Redirect(RouteFor(view), router.StatusSeeOther)
	}

	errors := map[string]string{}
	if state.Error != "" {
		errors["auth"] = state.Error
	}

	return ctx.Render(a.Views.Login, MergeTemplateData(ctx, router.ViewContext{
		"errors": errors,
		"record": nil,
	}))
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession will return the remember me flag
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *StateController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errors := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, MergeTemplateData(ctx, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		}))
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	if err := a.Session.Login(ctx, payload); err != nil {
		errors["authentication"] = "Authentication Error"
		return ctx.Render(a.Views.Login, MergeTemplateData(ctx, router.ViewContext{
			"errors":  errors,
			"payload": payload,
		}))
	}

	redirect := a.Session.GetRedirectOrDefault(ctx)

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *StateController) LogOut(ctx router.Context) error {
	if err := a.Store.SignOut(ctx.Context()); err != nil {
		a.Logger.Warn("sign out finished with provider error", "error", err)
	}

	a.Session.Logout(ctx)

	return ctx.Redirect(RouteFor(ViewLogin), router.StatusTemporaryRedirect)
}

func (a *StateController) ProfileShow(ctx router.Context) error {
	state := a.Store.Snapshot()
	if !state.IsAuthenticated() {
		return ctx.Redirect(RouteFor(ViewLogin), router.StatusSeeOther)
	}

	return ctx.Render(a.Views.Profile, MergeTemplateData(ctx, router.ViewContext{
		"errors":  map[string]string{},
		"record":  state.Profile,
		"user":    state.User,
		"pending": !state.HasProfile(),
	}))
}

// ProfileUpdatePayload is the form paylaod
type ProfileUpdatePayload struct {
	FullName string `form:"full_name" json:"full_name"`
	Email    string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Length(1, 255)),
		validation.Field(&r.Email, validation.Length(6, 100), is.Email),
	)
}

func (r ProfileUpdatePayload) changes() ProfileChanges {
	changes := ProfileChanges{}
	if r.FullName != "" {
		changes.FullName = &r.FullName
	}
	if r.Email != "" {
		changes.Email = &r.Email
	}
	return changes
}

func (a *StateController) ProfileUpdate(ctx router.Context) error {
	payload := new(ProfileUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		errors := map[string]string{}
		errors["form"] = "Failed to parse form"
		a.Logger.Error("profile update parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Profile, MergeTemplateData(ctx, router.ViewContext{
			"errors": errors,
			"record": payload,
		}))
	}

	if err := payload.Validate(); err != nil {
		errors := FormatValidationErrorToMap(err)
		a.Logger.Error("profile update validate payload: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Profile, MergeTemplateData(ctx, router.ViewContext{
			"record":     payload,
			"validation": errors,
		}))
	}

	changes := payload.changes()
	if changes.IsZero() {
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": "Nothing to update",
		}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
	}

	updateProfile := NewUpdateProfileHandler(a.Store).WithLogger(a.Logger)
	if err := updateProfile.Execute(ctx.Context(), UpdateProfileMessage{
		FullName: changes.FullName,
		Email:    changes.Email,
	}); err != nil {
		a.Logger.Error("profile update error: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error updating profile",
		}).Render(a.Views.Profile, MergeTemplateData(ctx, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		}))
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Profile updated",
	}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
}

func (a *StateController) ClientsShow(ctx router.Context) error {
	state := a.Store.Snapshot()
	if !state.IsAdmin() {
		return a.ErrorHandler(ctx, ErrAdminRequired)
	}

	return ctx.Render(a.Views.Clients, MergeTemplateData(ctx, router.ViewContext{
		"errors": map[string]string{},
		"record": ClientCreatePayload{},
	}))
}

// ClientCreatePayload is the form paylaod
type ClientCreatePayload struct {
	FullName        string `form:"full_name" json:"full_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r ClientCreatePayload) Validate() error {

	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Length(1, 255)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber(defaultPhoneRegion))),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(8, 128),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *StateController) ClientCreate(ctx router.Context) error {
	state := a.Store.Snapshot()
	if !state.IsAdmin() {
		return a.ErrorHandler(ctx, ErrAdminRequired)
	}

	if err := requireClientCreateGate(ctx.Context(), a.Gate); err != nil {
		a.Logger.Warn("client create blocked by feature gate", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  "Client account creation is disabled",
			"system_message": "Feature disabled",
		}).Status(fiber.StatusForbidden).Render(a.Views.Clients, MergeTemplateData(ctx, router.ViewContext{
			"errors": map[string]string{"gate": "Client account creation is disabled"},
		}))
	}

	payload := new(ClientCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		errors := map[string]string{}
		errors["form"] = "Failed to parse form"
		a.Logger.Error("client create parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Clients, MergeTemplateData(ctx, router.ViewContext{
			"errors": errors,
			"record": payload,
		}))
	}

	if err := payload.Validate(); err != nil {
		errors := FormatValidationErrorToMap(err)
		a.Logger.Error("client create validate payload: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Clients, MergeTemplateData(ctx, router.ViewContext{
			"record":     payload,
			"validation": errors,
		}))
	}

	req := CreateClientMessage{
		Email:    payload.Email,
		Password: payload.Password,
		FullName: payload.FullName,
		Phone:    payload.Phone,
	}

	createClient := NewCreateClientHandler(a.Store).WithLogger(a.Logger)
	if err := createClient.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("client create error: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating client account",
		}).Render(a.Views.Clients, MergeTemplateData(ctx, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		}))
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Client account created",
	}).Redirect(a.Routes.Clients, fiber.StatusSeeOther)
}

// FormatValidationErrorToMap flattens field validation failures into a
// field to message map for view rendering.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if fieldErrs, ok := err.(validation.Errors); ok {
		for field, ferr := range fieldErrs {
			if ferr == nil {
				continue
			}
			out[field] = ferr.Error()
		}
		return out
	}

	out["form"] = err.Error()
	return out
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// defaultPhoneRegion is the region numbers without a +country prefix are
// parsed against.
const defaultPhoneRegion = "US"

// ValidatePhoneNumber checks the value parses as a dialable phone number.
// Empty values pass; pair with validation.Required when the field is
// mandatory.
func ValidatePhoneNumber(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		num, err := phonenumbers.Parse(s, region)
		if err != nil {
			return errors.New("must be a valid phone number")
		}
		if !phonenumbers.IsValidNumber(num) {
			return errors.New("must be a valid phone number")
		}
		return nil
	}
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", MergeTemplateData(c, router.ViewContext{
		"message": err.Error(),
	}))
}
