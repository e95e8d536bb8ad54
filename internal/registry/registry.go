// Package registry maps account identities to their resource profiles in
// the durable store. It owns signup, login and persistence of profile
// updates; which account is "active" is the session controller's concern.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"proai/internal/catalog"
	"proai/internal/domain"
	"proai/internal/meter"
	"proai/internal/storage"
)

const accountKeyPrefix = "account:"

// Registry stores one account record per case-folded email.
type Registry struct {
	store   storage.DurableStore
	catalog *catalog.Catalog
	now     func() time.Time
}

// New builds a Registry over the given store and category catalog.
func New(store storage.DurableStore, cat *catalog.Catalog) *Registry {
	return &Registry{store: store, catalog: cat, now: time.Now}
}

// WithClock overrides the wall clock, for tests.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// NormalizeEmail folds an email for case-insensitive identity comparison.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

func accountKey(email string) string {
	return accountKeyPrefix + NormalizeEmail(email)
}

// Signup registers a new account with a freshly initialized free-tier
// profile. It does not log the account in.
func (r *Registry) Signup(ctx context.Context, name, email, credential string) error {
	if strings.TrimSpace(email) == "" || credential == "" {
		return domain.ErrInvalidCredentials
	}
	if _, err := r.FindByEmail(ctx, email); err == nil {
		return domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUnknownAccount) {
		return err
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("registry: hash credential: %w", err)
	}
	now := r.now()
	account := &domain.Account{
		Email:            NormalizeEmail(email),
		Name:             strings.TrimSpace(name),
		CredentialDigest: string(digest),
		Profile:          meter.NewProfile(r.catalog.Categories(), now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return r.write(ctx, account)
}

// Login verifies the credential against the stored digest and returns the
// account. Unknown emails and wrong credentials are indistinguishable to
// the caller.
func (r *Registry) Login(ctx context.Context, email, credential string) (*domain.Account, error) {
	account, err := r.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAccount) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.CredentialDigest), []byte(credential)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return account, nil
}

// FindByEmail looks an account up case-insensitively.
func (r *Registry) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	data, err := r.store.Get(ctx, accountKey(email))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, domain.ErrUnknownAccount
		}
		return nil, fmt.Errorf("registry: load account: %w", err)
	}
	var account domain.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("registry: decode account: %w", err)
	}
	return &account, nil
}

// Save persists an updated profile for an existing account.
func (r *Registry) Save(ctx context.Context, account *domain.Account) error {
	if _, err := r.FindByEmail(ctx, account.Email); err != nil {
		return err
	}
	account.UpdatedAt = r.now()
	return r.write(ctx, account)
}

// Emails lists every registered email, sorted. Used by the admin CLI.
func (r *Registry) Emails(ctx context.Context) ([]string, error) {
	keys, err := r.store.Keys(ctx, accountKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("registry: list accounts: %w", err)
	}
	emails := make([]string, 0, len(keys))
	for _, key := range keys {
		emails = append(emails, strings.TrimPrefix(key, accountKeyPrefix))
	}
	return emails, nil
}

func (r *Registry) write(ctx context.Context, account *domain.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("registry: encode account: %w", err)
	}
	if err := r.store.Set(ctx, accountKey(account.Email), data); err != nil {
		return fmt.Errorf("registry: persist account: %w", err)
	}
	return nil
}
