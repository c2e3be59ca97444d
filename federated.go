package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// FederatedUserStore is the account access the federated flow needs. The bun
// backed Users repository satisfies it.
type FederatedUserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	SaveProfile(ctx context.Context, user *User) (*User, error)
}

// CartStore provisions the cart shell paired with every new account.
type CartStore interface {
	ProvisionTx(ctx context.Context, tx bun.IDB, cart *Cart) (*Cart, error)
}

// TxRunner runs a unit of work inside a single database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

// FederatedProvider resolves a verified identity assertion to a local
// account, provisioning one on first sign in.
type FederatedProvider struct {
	db          TxRunner
	users       FederatedUserStore
	carts       CartStore
	defaultRole Role
	sink        ActivitySink
	logger      Logger
}

var _ FederatedVerifier = (*FederatedProvider)(nil)

// NewFederatedProvider will create a new FederatedProvider
func NewFederatedProvider(db TxRunner, users FederatedUserStore, carts CartStore) *FederatedProvider {
	return &FederatedProvider{
		db:          db,
		users:       users,
		carts:       carts,
		defaultRole: RoleCustomer,
		sink:        noopActivitySink{},
		logger:      defLogger{},
	}
}

func (f *FederatedProvider) WithLogger(l Logger) *FederatedProvider {
	if l != nil {
		f.logger = l
	}
	return f
}

func (f *FederatedProvider) WithActivitySink(s ActivitySink) *FederatedProvider {
	f.sink = normalizeActivitySink(s)
	return f
}

// VerifyFederated maps an already verified assertion to a principal. Three
// outcomes: an existing federated account signs in (profile refreshed best
// effort), an existing local account is a conflict and nothing is written,
// an unknown email provisions account plus cart in one transaction.
func (f *FederatedProvider) VerifyFederated(ctx context.Context, assertion IdentityAssertion) (*Principal, error) {
	if assertion.Email == "" {
		return nil, errors.New("identity assertion missing email", errors.CategoryBadInput)
	}

	user, err := f.users.GetByEmail(ctx, assertion.Email)
	if err != nil && !errors.IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve federated account")
	}

	if user != nil && err == nil {
		if !user.IsFederated() {
			f.emit(ctx, ActivityEvent{
				EventType: ActivityEventLoginFailure,
				Email:     assertion.Email,
				Metadata:  map[string]any{"reason": TextCodeProviderConflict},
			})
			return nil, ErrProviderConflict
		}

		f.refreshProfile(ctx, user, assertion)

		f.emit(ctx, ActivityEvent{
			EventType: ActivityEventFederatedLogin,
			Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
			Email:     user.Email,
		})

		return user.AsPrincipal(), nil
	}

	created, err := f.provision(ctx, assertion)
	if err != nil {
		return nil, err
	}

	f.emit(ctx, ActivityEvent{
		EventType: ActivityEventFederatedSignup,
		Actor:     ActorRef{ID: created.ID.String(), Type: "user"},
		Email:     created.Email,
	})

	return created.AsPrincipal(), nil
}

// provision creates the account row and its cart shell. Both writes share a
// transaction: a cart failure rolls the account back so no half provisioned
// customer exists.
func (f *FederatedProvider) provision(ctx context.Context, assertion IdentityAssertion) (*User, error) {
	user := &User{
		Email:        assertion.Email,
		FullName:     assertion.Name,
		Role:         f.defaultRole,
		Provider:     assertion.Provider,
		ProviderID:   assertion.ProviderID,
		ProfileImage: assertion.ProfileImage,
		PasswordHash: RandomPasswordHash(),
	}
	user.EnsureDefaults()

	if id, err := hashid.NewUUID(assertion.Email); err == nil {
		user.ID = id
	}

	err := f.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := f.users.RegisterTx(ctx, tx, user)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to provision federated account")
		}
		user = record

		if _, err := f.carts.ProvisionTx(ctx, tx, &Cart{CustomerID: user.ID}); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to provision cart for new account")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// refreshProfile keeps name and picture current with the provider. Failures
// are logged and never block sign in.
func (f *FederatedProvider) refreshProfile(ctx context.Context, user *User, assertion IdentityAssertion) {
	changed := false

	if assertion.Name != "" && assertion.Name != user.FullName {
		user.FullName = assertion.Name
		changed = true
	}
	if assertion.ProfileImage != "" && assertion.ProfileImage != user.ProfileImage {
		user.ProfileImage = assertion.ProfileImage
		changed = true
	}
	if assertion.ProviderID != "" && user.ProviderID == "" {
		user.ProviderID = assertion.ProviderID
		changed = true
	}

	if !changed {
		return
	}

	if _, err := f.users.SaveProfile(ctx, user); err != nil {
		f.logger.Warn("failed to refresh federated profile for %s: %s", user.Email, err)
	}
}

func (f *FederatedProvider) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := f.sink.Record(ctx, event); err != nil {
		f.logger.Warn("failed to record activity event %s: %s", event.EventType, err)
	}
}
