// Package history keeps each account's recently generated prompts in the
// durable store, isolated per account under a key derived from its email.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"proai/internal/domain"
	"proai/internal/registry"
	"proai/internal/storage"
)

const keyPrefix = "history:"

// ErrItemNotFound is returned when a favorite toggle references an entry
// that has already rotated out of the log.
var ErrItemNotFound = errors.New("history: item not found")

// Log is the per-account generation history, newest first, capped at
// domain.HistoryLimit entries.
type Log struct {
	store storage.DurableStore
	now   func() time.Time
}

// New builds a Log over the given store.
func New(store storage.DurableStore) *Log {
	return &Log{store: store, now: time.Now}
}

// WithClock overrides the wall clock, for tests.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

func historyKey(email string) string {
	return keyPrefix + registry.NormalizeEmail(email)
}

// List returns the account's history, newest first.
func (l *Log) List(ctx context.Context, email string) ([]domain.HistoryItem, error) {
	data, err := l.store.Get(ctx, historyKey(email))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: load: %w", err)
	}
	var items []domain.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("history: decode: %w", err)
	}
	return items, nil
}

// Append records a generated prompt at the head of the log, evicting the
// oldest entry beyond the cap.
func (l *Log) Append(ctx context.Context, email, category, prompt string) (domain.HistoryItem, error) {
	items, err := l.List(ctx, email)
	if err != nil {
		return domain.HistoryItem{}, err
	}
	item := domain.HistoryItem{
		ID:        uuid.NewString(),
		Category:  category,
		Prompt:    prompt,
		CreatedAt: l.now(),
	}
	items = append([]domain.HistoryItem{item}, items...)
	if len(items) > domain.HistoryLimit {
		items = items[:domain.HistoryLimit]
	}
	if err := l.write(ctx, email, items); err != nil {
		return domain.HistoryItem{}, err
	}
	return item, nil
}

// ToggleFavorite flips the favorite flag of one entry.
func (l *Log) ToggleFavorite(ctx context.Context, email, id string) error {
	items, err := l.List(ctx, email)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			items[i].Favorite = !items[i].Favorite
			return l.write(ctx, email, items)
		}
	}
	return ErrItemNotFound
}

func (l *Log) write(ctx context.Context, email string, items []domain.HistoryItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if err := l.store.Set(ctx, historyKey(email), data); err != nil {
		return fmt.Errorf("history: persist: %w", err)
	}
	return nil
}
