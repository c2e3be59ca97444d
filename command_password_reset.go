package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// resetTokenTTL is deliberately much shorter than the session TTL.
const resetTokenTTL = time.Hour

type InitializePasswordResetMessage struct {
	Email string `json:"email" doc:"Account email requesting the reset"`
}

func (e InitializePasswordResetMessage) Type() string { return "password_reset.initialize" }

// Validate will validate the payload
func (e InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// InitializePasswordResetHandler mints a single use, time boxed reset token
// for a local account. The caller is responsible for delivering the token;
// an unknown email yields no token and no error so the endpoint cannot be
// used to enumerate accounts.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	clock    Clock
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		clock:    time.Now,
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, mostly for tests.
func (h *InitializePasswordResetHandler) WithClock(clock Clock) *InitializePasswordResetHandler {
	if clock != nil {
		h.clock = clock
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) (*PasswordResetToken, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) (*PasswordResetToken, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			h.logger.Debug("password reset requested for unknown email")
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not resolve account for reset")
	}

	if user.IsFederated() {
		h.logger.Debug("password reset requested for federated account %s", user.Email)
		return nil, nil
	}

	now := h.clock()
	reset := &PasswordResetToken{
		ID:        uuid.New(),
		Token:     uuid.NewString(),
		UserID:    &user.ID,
		Email:     user.Email,
		ExpiresAt: now.Add(resetTokenTTL),
	}

	if _, err := h.repo.PasswordResets().Create(ctx, reset); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create password reset request")
	}

	return reset, nil
}

type FinalizePasswordResetMessage struct {
	Token    string `json:"token" doc:"Reset password token"`
	Password string `json:"password" doc:"New password"`
}

func (e FinalizePasswordResetMessage) Type() string { return "password_reset.finalize" }

// Validate will validate the payload
func (e FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

// FinalizePasswordResetHandler consumes a reset token and replaces the
// account's password hash. The token check, the hash swap, and the consumed
// mark share one transaction.
type FinalizePasswordResetHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	clock    Clock
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		clock:    time.Now,
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, mostly for tests.
func (h *FinalizePasswordResetHandler) WithClock(clock Clock) *FinalizePasswordResetHandler {
	if clock != nil {
		h.clock = clock
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	reset := &PasswordResetToken{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reset, err = h.repo.PasswordResets().GetByIdentifier(ctx, event.Token)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrResetTokenInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve password reset request")
		}

		if reset.IsConsumed() {
			return ErrResetTokenConsumed
		}

		if reset.IsExpired(h.clock()) {
			return ErrResetTokenExpired
		}

		if reset.UserID == nil {
			return goerrors.New("password reset record is not associated with a user", goerrors.CategoryInternal)
		}

		passwordHash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		if err := h.repo.Users().ResetPasswordTx(ctx, tx, *reset.UserID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password in database")
		}

		consumedAt := h.clock()
		reset.ConsumedAt = &consumedAt
		if _, err := h.repo.PasswordResets().UpdateTx(ctx, tx, reset); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark password reset as used")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	h.recordActivity(ctx, reset)

	return nil
}

func (h *FinalizePasswordResetHandler) recordActivity(ctx context.Context, reset *PasswordResetToken) {
	if reset == nil || reset.UserID == nil {
		return
	}

	event := ActivityEvent{
		EventType: ActivityEventPasswordReset,
		Actor: ActorRef{
			ID:   reset.UserID.String(),
			Type: "user",
		},
		Email: reset.Email,
		Metadata: map[string]any{
			"password_reset_id": reset.ID.String(),
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during password reset: %v", err)
	}
}
