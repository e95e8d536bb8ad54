package domain

// Category describes one entry of the prompt catalog. Catalog data is
// supplied at startup and read-only afterwards.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreditCost  int    `json:"credit_cost"`
	DailyLimit  *int   `json:"daily_limit,omitempty"`
	Premium     bool   `json:"is_premium,omitempty"`
}

// HasDailyLimit reports whether free-tier accounts may attempt this
// category at all. A category without a daily limit is premium territory
// even when its Premium flag is unset.
func (c Category) HasDailyLimit() bool {
	return c.DailyLimit != nil
}

// PromptRequest carries the form inputs a user fills in before a
// generation attempt.
type PromptRequest struct {
	UseCase     string `json:"use_case"`
	Industry    string `json:"industry"`
	Style       string `json:"style"`
	Platform    string `json:"platform"`
	Constraints string `json:"constraints"`
}
