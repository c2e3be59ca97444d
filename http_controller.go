package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ResetNotifier delivers a freshly minted password reset token to the
// account holder, typically over email. The HTTP response never carries it.
type ResetNotifier func(ctx context.Context, reset *PasswordResetToken) error

// AuthResponse is the JSON body returned by every successful sign in flow.
type AuthResponse struct {
	Token    string `json:"token"`
	Message  string `json:"message"`
	Role     Role   `json:"role"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AuthControllerRoutes struct {
	SignUp         string
	SignIn         string
	GoogleSignIn   string
	AdminSignIn    string
	Logout         string
	ForgotPassword string
	ResetPassword  string
}

type AuthController struct {
	Debug         bool
	Logger        Logger
	Repo          RepositoryManager
	Routes        *AuthControllerRoutes
	Auther        *RouteAuthenticator
	Assertions    AssertionVerifier
	ResetNotifier ResetNotifier
	ErrorHandler  router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerAssertions(verifier AssertionVerifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Assertions = verifier
		return c
	}
}

func WithControllerResetNotifier(notifier ResetNotifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ResetNotifier = notifier
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			SignUp:         "/auth/signup",
			SignIn:         "/auth/signin",
			GoogleSignIn:   "/auth/google",
			AdminSignIn:    "/auth/admin/signin",
			Logout:         "/auth/logout",
			ForgotPassword: "/auth/forgot-password",
			ResetPassword:  "/auth/reset-password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.errorJSON
	}

	return c
}

// RegisterAuthRoutes mounts the authentication API. Everything under /auth/
// sits inside the public prefix; the handlers themselves decide who gets a
// token.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.SignUp, controller.SignUp).SetName("auth.signup")
	app.Post(controller.Routes.SignIn, controller.SignIn).SetName("auth.signin")
	app.Post(controller.Routes.GoogleSignIn, controller.GoogleSignIn).SetName("auth.google")
	app.Post(controller.Routes.AdminSignIn, controller.AdminSignIn).SetName("auth.admin-signin")
	app.Post(controller.Routes.Logout, controller.LogOut).SetName("auth.logout")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).SetName("auth.forgot-password")
	app.Post(controller.Routes.ResetPassword, controller.ResetPassword).SetName("auth.reset-password")

	return controller
}

// SignUpPayload is the registration body.
type SignUpPayload struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
	Role     Role   `json:"role" form:"role"`
}

// Validate will validate the payload
func (r SignUpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Role, validation.By(validRegistrationRole)),
	)
}

func (a *AuthController) SignUp(ctx router.Context) error {
	payload := new(SignUpPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload: %s", err)
		return a.badRequest(ctx, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload: %s", err)
		return a.validationError(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("signup payload: %s", print.MaybePrettyJSON(payload))
	}

	registerUser := NewRegisterUserHandler(a.Repo).WithLogger(a.Logger)
	user, err := registerUser.Execute(ctx.Context(), RegisterUserMessage{
		FullName: payload.FullName,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Role:     payload.Role,
	})
	if err != nil {
		a.Logger.Error("signup execute: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	// sign the fresh account in so the client holds a session immediately
	token, principal, err := a.Auther.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, AuthResponse{
		Token:    token,
		Message:  "Registration successful",
		Role:     principal.PrimaryRole(),
		FullName: user.FullName,
		Email:    principal.Email,
	})
}

// SignInPayload is the credential body shared by the customer and admin
// sign in routes.
type SignInPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload
func (r SignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) SignIn(ctx router.Context) error {
	payload := new(SignInPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signin parse payload: %s", err)
		return a.badRequest(ctx, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	token, principal, err := a.Auther.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, a.authResponse(ctx.Context(), token, principal, "Login successful"))
}

func (a *AuthController) AdminSignIn(ctx router.Context) error {
	payload := new(SignInPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("admin signin parse payload: %s", err)
		return a.badRequest(ctx, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	token, principal, err := a.Auther.AdminLogin(ctx, payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, a.authResponse(ctx.Context(), token, principal, "Admin login successful"))
}

// GoogleSignInPayload carries the Google issued ID token.
type GoogleSignInPayload struct {
	IDToken string `json:"idToken" form:"idToken"`
}

// Validate will validate the payload
func (r GoogleSignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDToken, validation.Required),
	)
}

func (a *AuthController) GoogleSignIn(ctx router.Context) error {
	if a.Assertions == nil {
		return a.ErrorHandler(ctx, ErrWrongAuthMethod)
	}

	payload := new(GoogleSignInPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("google signin parse payload: %s", err)
		return a.badRequest(ctx, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	assertion, err := a.Assertions.VerifyAssertion(ctx.Context(), payload.IDToken)
	if err != nil {
		a.Logger.Error("google signin assertion: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	token, principal, err := a.Auther.LoginFederated(ctx, assertion)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, a.authResponse(ctx.Context(), token, principal, "Login successful"))
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, MessageResponse{Message: "Logged out"})
}

func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(InitializePasswordResetMessage)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload: %s", err)
		return a.badRequest(ctx, "Error parsing body")
	}

	reset, err := NewInitializePasswordResetHandler(a.Repo).
		WithLogger(a.Logger).
		Execute(ctx.Context(), *payload)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			return a.validationError(ctx, err)
		}
		a.Logger.Error("forgot password execute: %s", err)
	}

	if reset != nil && a.ResetNotifier != nil {
		if err := a.ResetNotifier(ctx.Context(), reset); err != nil {
			a.Logger.Error("reset notifier: %s", err)
		}
	}

	// the response is identical for known and unknown emails
	return ctx.JSON(router.StatusOK, MessageResponse{
		Message: "If the email is registered, reset instructions have been sent",
	})
}

func (a *AuthController) ResetPassword(ctx router.Context) error {
	payload := new(FinalizePasswordResetMessage)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: %s", err)
		return a.badRequest(ctx, "Error parsing body")
	}

	err := NewFinalizePasswordResetHandler(a.Repo).
		WithLogger(a.Logger).
		Execute(ctx.Context(), *payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, MessageResponse{Message: "Password updated"})
}

// authResponse shapes the sign in body, filling the display name from the
// account record when available.
func (a *AuthController) authResponse(ctx context.Context, token string, principal *Principal, message string) AuthResponse {
	resp := AuthResponse{
		Token:   token,
		Message: message,
		Role:    principal.PrimaryRole(),
		Email:   principal.Email,
	}

	if user, err := a.Repo.Users().GetByEmail(ctx, principal.Email); err == nil {
		resp.FullName = user.FullName
	}

	return resp
}

func (a *AuthController) badRequest(ctx router.Context, message string) error {
	return ctx.JSON(router.StatusBadRequest, MessageResponse{Message: message})
}

func (a *AuthController) validationError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"message":    "Validation failed",
		"validation": FormatValidationErrorToMap(err),
	})
}

func (a *AuthController) errorJSON(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	message := richErr.Message
	if richErr.Category == goerrors.CategoryInternal {
		message = "An unexpected server error occurred"
	}

	return ctx.JSON(richErr.Code, errorResponse{
		Message:  message,
		TextCode: richErr.TextCode,
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if goerrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
