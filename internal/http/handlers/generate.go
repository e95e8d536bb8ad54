package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"proai/internal/domain"
)

type generateRequest struct {
	CategoryID  string `json:"category_id"`
	UseCase     string `json:"use_case"`
	Industry    string `json:"industry"`
	Style       string `json:"style"`
	Platform    string `json:"platform"`
	Constraints string `json:"constraints"`
}

type generateResponse struct {
	Prompt string     `json:"prompt"`
	User   profileDTO `json:"user"`
}

type keywordsRequest struct {
	UseCase string `json:"use_case"`
}

type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	email := a.currentEmail(r)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.CategoryID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "category_id required")
		return
	}
	cat, err := a.Catalog.ByID(req.CategoryID)
	if err != nil {
		a.error(w, http.StatusNotFound, "unknown_category", "unknown category")
		return
	}

	ctrl := a.controllerFor(email)
	if _, err := ctrl.Activate(r.Context(), email); err != nil {
		if errors.Is(err, domain.ErrUnknownAccount) {
			a.error(w, http.StatusNotFound, "not_found", "account not found")
			return
		}
		a.Logger.Error().Err(err).Msg("activate account failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load account")
		return
	}

	promptReq := domain.PromptRequest{
		UseCase:     req.UseCase,
		Industry:    req.Industry,
		Style:       req.Style,
		Platform:    req.Platform,
		Constraints: req.Constraints,
	}
	result, err := ctrl.Generate(r.Context(), cat.ID, func(ctx context.Context) (string, error) {
		return a.Generator.Generate(ctx, cat, promptReq)
	})
	if err != nil {
		a.generateError(w, err)
		return
	}

	account, err := ctrl.Account()
	if err != nil {
		a.Logger.Error().Err(err).Msg("load account snapshot failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load account")
		return
	}
	a.json(w, http.StatusOK, generateResponse{Prompt: result, User: a.profileDTO(account)})
}

func (a *App) generateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits")
	case errors.Is(err, domain.ErrDailyLimitReached):
		a.error(w, http.StatusTooManyRequests, "daily_limit_reached", "daily limit reached for this category")
	case errors.Is(err, domain.ErrPremiumRequired):
		a.error(w, http.StatusForbidden, "premium_required", "premium subscription required")
	case errors.Is(err, domain.ErrGenerationInFlight):
		a.error(w, http.StatusConflict, "generation_in_flight", "another generation is already running")
	case errors.Is(err, domain.ErrNotLoggedIn):
		a.error(w, http.StatusUnauthorized, "unauthorized", "not logged in")
	default:
		a.Logger.Error().Err(err).Msg("generation failed")
		a.error(w, http.StatusBadGateway, "provider_error", "prompt generation failed")
	}
}

// Keywords runs the debounced suggestion lookup. Rapid calls from the
// same account coalesce: only the request that survives the quiesce
// window reaches the provider, superseded ones end with their client
// context.
func (a *App) Keywords(w http.ResponseWriter, r *http.Request) {
	email := a.currentEmail(r)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req keywordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.UseCase == "" {
		a.Suggest.Cancel(email)
		a.json(w, http.StatusOK, keywordsResponse{Keywords: nil})
		return
	}

	type outcome struct {
		keywords []string
		err      error
	}
	done := make(chan outcome, 1)
	a.Suggest.Trigger(r.Context(), email, req.UseCase, func(keywords []string, err error) {
		done <- outcome{keywords: keywords, err: err}
	})

	select {
	case <-r.Context().Done():
		return
	case out := <-done:
		if out.err != nil {
			a.Logger.Warn().Err(out.err).Msg("keyword suggestion failed")
			a.error(w, http.StatusBadGateway, "provider_error", "keyword suggestion failed")
			return
		}
		a.json(w, http.StatusOK, keywordsResponse{Keywords: out.keywords})
	}
}
