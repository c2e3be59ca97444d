package auth

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`
	Password  string `json:"password"`
	UseHashid bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will validate the payload
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Phone, validation.By(validPhoneNumber)),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&e.Role, validation.By(validRegistrationRole)),
	)
}

// RegisterUserHandler creates the account and its cart shell in a single
// transaction.
type RegisterUserHandler struct {
	repo   RepositoryManager
	sink   ActivitySink
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *RegisterUserHandler) WithLogger(l Logger) *RegisterUserHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err == nil && existing != nil {
			return ErrEmailTaken
		}
		if err != nil && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = event.Phone
		user.FullName = event.FullName
		user.Role = event.Role
		user.Provider = ProviderLocal
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		// a cart failure rolls the whole registration back
		if _, err = h.repo.Carts().ProvisionTx(ctx, tx, &Cart{CustomerID: user.ID}); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not provision cart")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if err := h.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserRegistered,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		Email:      user.Email,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}

	return user, nil
}

func validPhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}

// validRegistrationRole rejects self assigned admin accounts. An empty role
// defaults to customer at persistence time.
func validRegistrationRole(value any) error {
	role, _ := value.(Role)
	if role == "" {
		return nil
	}

	switch role {
	case RoleCustomer, RoleRestaurantOwner:
		return nil
	default:
		return fmt.Errorf("must be one of %s, %s", RoleCustomer, RoleRestaurantOwner)
	}
}
