// Package session orchestrates the account registry, the resource meter
// and the daily reset policy behind the operations the UI calls. One
// controller owns at most one active account at a time.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"proai/internal/catalog"
	"proai/internal/domain"
	"proai/internal/history"
	"proai/internal/meter"
	"proai/internal/payment"
	"proai/internal/registry"
	"proai/internal/storage"
)

// activePointerKey persists which account was logged in across process
// restarts.
const activePointerKey = "session:active"

// GeneratorCall is the external generation a Generate invocation brackets
// with consume and, on failure, refund.
type GeneratorCall func(ctx context.Context) (string, error)

// Controller is the session state machine: LoggedOut until Login, Resume
// or Activate succeeds, LoggedOut again after Logout.
type Controller struct {
	registry *registry.Registry
	catalog  *catalog.Catalog
	history  *history.Log
	payments payment.Processor
	store    storage.DurableStore
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	active   *domain.Account
	inFlight bool
}

// NewController wires the collaborators together. The store is only used
// for the active-session pointer; account records go through the registry.
func NewController(reg *registry.Registry, cat *catalog.Catalog, hist *history.Log, payments payment.Processor, store storage.DurableStore, logger zerolog.Logger) *Controller {
	return &Controller{
		registry: reg,
		catalog:  cat,
		history:  hist,
		payments: payments,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// LoggedIn reports whether an account is active.
func (c *Controller) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Account returns a snapshot of the active account.
func (c *Controller) Account() (domain.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.Account{}, domain.ErrNotLoggedIn
	}
	snapshot := *c.active
	snapshot.Profile = c.active.Profile.Clone()
	return snapshot, nil
}

// Signup registers the account but does not log it in; the user signs in
// separately afterwards.
func (c *Controller) Signup(ctx context.Context, name, email, credential string) error {
	return c.registry.Signup(ctx, name, email, credential)
}

// Login authenticates, activates the account, applies a pending daily
// reset, and records the active-session pointer.
func (c *Controller) Login(ctx context.Context, email, credential string) (domain.Account, error) {
	account, err := c.registry.Login(ctx, email, credential)
	if err != nil {
		return domain.Account{}, err
	}
	return c.activate(ctx, account, true)
}

// Activate binds an already-authenticated account (JWT-authenticated
// request, resumed session) and applies a pending daily reset.
func (c *Controller) Activate(ctx context.Context, email string) (domain.Account, error) {
	account, err := c.registry.FindByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}
	return c.activate(ctx, account, false)
}

// Resume restores the session recorded by the last Login, if any. It
// reports whether a session was restored.
func (c *Controller) Resume(ctx context.Context) (bool, error) {
	data, err := c.store.Get(ctx, activePointerKey)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("session: read pointer: %w", err)
	}
	var email string
	if err := json.Unmarshal(data, &email); err != nil || email == "" {
		return false, nil
	}
	if _, err := c.Activate(ctx, email); err != nil {
		return false, err
	}
	return true, nil
}

// Logout clears the active account and the persisted pointer. No network
// call is involved.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
	if err := c.setPointer(ctx, ""); err != nil {
		c.logger.Warn().Err(err).Msg("failed to clear session pointer")
	}
}

// Refresh applies the daily reset if one is due. Safe to call on every
// request; a second call on the same day is a no-op.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.ErrNotLoggedIn
	}
	return c.refreshLocked(ctx)
}

// Generate meters one generation attempt: consume, persist the debited
// profile, run the external call, and refund if it fails. The caller is
// charged only when the call succeeds, and exactly one consume with at
// most one matching refund happens per invocation.
func (c *Controller) Generate(ctx context.Context, categoryID string, call GeneratorCall) (string, error) {
	cat, err := c.catalog.ByID(categoryID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return "", domain.ErrNotLoggedIn
	}
	if c.inFlight {
		c.mu.Unlock()
		return "", domain.ErrGenerationInFlight
	}
	if cat.Premium && !c.active.Profile.Premium {
		c.mu.Unlock()
		return "", domain.ErrPremiumRequired
	}
	if err := c.refreshLocked(ctx); err != nil {
		c.mu.Unlock()
		return "", err
	}
	debited, err := meter.Consume(c.active.Profile, cat)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	if err := c.persistLocked(ctx, debited); err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.inFlight = true
	email := c.active.Email
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	result, callErr := call(ctx)
	if callErr != nil {
		// Refund the current, already-debited profile exactly once and
		// re-signal the original failure. Only the account that was
		// debited gets the refund; a different account may have been
		// activated while the call ran.
		c.mu.Lock()
		if c.active != nil && c.active.Email == email {
			restored := meter.Refund(c.active.Profile, cat)
			if err := c.persistLocked(ctx, restored); err != nil {
				c.logger.Error().Err(err).Str("category", cat.ID).Msg("failed to persist refund")
			}
			c.mu.Unlock()
			return "", callErr
		}
		c.mu.Unlock()
		// Session ended mid-flight; refund straight through the registry.
		if account, err := c.registry.FindByEmail(ctx, email); err == nil {
			account.Profile = meter.Refund(account.Profile, cat)
			if err := c.registry.Save(ctx, account); err != nil {
				c.logger.Error().Err(err).Str("category", cat.ID).Msg("failed to persist refund")
			}
		}
		return "", callErr
	}

	if _, err := c.history.Append(ctx, email, cat.Name, result); err != nil {
		c.logger.Warn().Err(err).Msg("failed to record history")
	}
	return result, nil
}

// UpgradeToPremium switches the active account to the premium tier.
func (c *Controller) UpgradeToPremium(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.ErrNotLoggedIn
	}
	return c.persistLocked(ctx, meter.Upgrade(c.active.Profile))
}

// AddCredits grants a top-up to the active account.
func (c *Controller) AddCredits(ctx context.Context, amount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.ErrNotLoggedIn
	}
	next, err := meter.AddCredits(c.active.Profile, amount)
	if err != nil {
		return err
	}
	return c.persistLocked(ctx, next)
}

// Checkout charges through the payment processor and applies the result:
// a settled subscription upgrades the tier, a settled top-up grants its
// credits. A declined charge changes nothing.
func (c *Controller) Checkout(ctx context.Context, req payment.Request) (*domain.PaymentResult, error) {
	if !c.LoggedIn() {
		return nil, domain.ErrNotLoggedIn
	}
	result, err := c.payments.Charge(ctx, req)
	if err != nil {
		return nil, err
	}
	switch result.Mode {
	case domain.PaymentModeSubscription:
		err = c.UpgradeToPremium(ctx)
	case domain.PaymentModeTopUp:
		err = c.AddCredits(ctx, result.CreditsGranted)
	default:
		err = fmt.Errorf("session: unexpected payment mode %q", result.Mode)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Controller) activate(ctx context.Context, account *domain.Account, persistPointer bool) (domain.Account, error) {
	c.mu.Lock()
	c.active = account
	if err := c.refreshLocked(ctx); err != nil {
		c.active = nil
		c.mu.Unlock()
		return domain.Account{}, err
	}
	snapshot := *c.active
	snapshot.Profile = c.active.Profile.Clone()
	c.mu.Unlock()
	if persistPointer {
		if err := c.setPointer(ctx, snapshot.Email); err != nil {
			c.logger.Warn().Err(err).Msg("failed to persist session pointer")
		}
	}
	return snapshot, nil
}

// refreshLocked applies the daily reset when due and persists it. Caller
// holds c.mu with an active account.
func (c *Controller) refreshLocked(ctx context.Context) error {
	now := c.now()
	if !meter.ResetDue(c.active.Profile, now) {
		return nil
	}
	reset := meter.ResetDaily(c.active.Profile, c.catalog.Categories(), now)
	if err := c.persistLocked(ctx, reset); err != nil {
		return err
	}
	c.logger.Info().Str("email", c.active.Email).Msg("daily quota reset applied")
	return nil
}

// persistLocked replaces the active profile atomically and saves the
// account. Caller holds c.mu with an active account.
func (c *Controller) persistLocked(ctx context.Context, next domain.ResourceProfile) error {
	previous := c.active.Profile
	c.active.Profile = next
	if err := c.registry.Save(ctx, c.active); err != nil {
		c.active.Profile = previous
		return err
	}
	return nil
}

func (c *Controller) setPointer(ctx context.Context, email string) error {
	data, err := json.Marshal(email)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, activePointerKey, data)
}
