package domain

import "time"

// HistoryLimit caps how many generated prompts are retained per account.
const HistoryLimit = 20

// HistoryItem is one generated prompt kept for later reuse.
type HistoryItem struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Prompt    string    `json:"prompt"`
	Favorite  bool      `json:"is_favorite"`
	CreatedAt time.Time `json:"created_at"`
}
