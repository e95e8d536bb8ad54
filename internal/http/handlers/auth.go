package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"proai/internal/domain"
	"proai/internal/middleware"
	"proai/internal/registry"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  profileDTO `json:"user"`
}

type quotaDTO struct {
	CategoryID string `json:"category_id"`
	CreditCost int    `json:"credit_cost"`
	UsedToday  int    `json:"used_today"`
	DailyLimit *int   `json:"daily_limit,omitempty"`
	Remaining  *int   `json:"remaining,omitempty"`
}

type profileDTO struct {
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Plan      string     `json:"plan"`
	Credits   int        `json:"credits"`
	LastReset string     `json:"last_reset_date"`
	Quotas    []quotaDTO `json:"quotas"`
}

func (a *App) profileDTO(account domain.Account) profileDTO {
	plan := "free"
	if account.Profile.Premium {
		plan = "premium"
	}
	cats := a.Catalog.Categories()
	quotas := make([]quotaDTO, 0, len(cats))
	for _, cat := range cats {
		q := quotaDTO{
			CategoryID: cat.ID,
			CreditCost: cat.CreditCost,
			UsedToday:  account.Profile.UsedToday(cat.ID),
			DailyLimit: cat.DailyLimit,
		}
		if !account.Profile.Premium && cat.HasDailyLimit() {
			left := *cat.DailyLimit - q.UsedToday
			if left < 0 {
				left = 0
			}
			q.Remaining = &left
		}
		quotas = append(quotas, q)
	}
	return profileDTO{
		Email:     account.Email,
		Name:      account.Name,
		Plan:      plan,
		Credits:   account.Profile.Credits,
		LastReset: account.Profile.LastReset,
		Quotas:    quotas,
	}
}

func (a *App) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "email and password required")
		return
	}
	if err := a.Registry.Signup(r.Context(), req.Name, req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			a.error(w, http.StatusConflict, "duplicate_email", "email already registered")
		case errors.Is(err, domain.ErrInvalidCredentials):
			a.error(w, http.StatusBadRequest, "bad_request", "email and password required")
		default:
			a.Logger.Error().Err(err).Msg("signup failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to register account")
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	email := registry.NormalizeEmail(req.Email)
	account, err := a.controllerFor(email).Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
			return
		}
		a.Logger.Error().Err(err).Msg("login failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to log in")
		return
	}
	plan := "free"
	if account.Profile.Premium {
		plan = "premium"
	}
	token, err := middleware.SignJWT(a.Config.JWTSecret, middleware.TokenClaims{
		Sub:      account.Email,
		Plan:     plan,
		Exp:      time.Now().Add(24 * time.Hour).Unix(),
		Issuer:   "proai",
		Audience: "proai-web",
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign jwt failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, loginResponse{Token: token, User: a.profileDTO(account)})
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	email := a.currentEmail(r)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	a.controllerFor(email).Logout(r.Context())
	a.releaseController(email)
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	email := a.currentEmail(r)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	account, err := a.controllerFor(email).Activate(r.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAccount) {
			a.error(w, http.StatusNotFound, "not_found", "account not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load account failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load account")
		return
	}
	a.json(w, http.StatusOK, a.profileDTO(account))
}
