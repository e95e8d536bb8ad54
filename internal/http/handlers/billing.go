package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"proai/internal/domain"
	"proai/internal/payment"
)

type checkoutRequest struct {
	Mode        string `json:"mode"`
	PackCredits int    `json:"pack_credits"`
}

type checkoutResponse struct {
	Result *domain.PaymentResult `json:"result"`
	User   profileDTO            `json:"user"`
}

func (a *App) Packs(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"packs": payment.TopUpPacks})
}

func (a *App) Checkout(w http.ResponseWriter, r *http.Request) {
	email := a.currentEmail(r)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	mode := domain.PaymentMode(req.Mode)
	if mode != domain.PaymentModeSubscription && mode != domain.PaymentModeTopUp {
		a.error(w, http.StatusBadRequest, "bad_request", "mode must be subscription or topup")
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

	result, err := ctrl.Checkout(r.Context(), payment.Request{Mode: mode, PackCredits: req.PackCredits})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentDeclined):
			a.error(w, http.StatusPaymentRequired, "payment_declined", "payment was declined")
		case errors.Is(err, domain.ErrInvalidAmount):
			a.error(w, http.StatusBadRequest, "bad_request", "credit amount must be positive")
		default:
			a.Logger.Error().Err(err).Msg("checkout failed")
			a.error(w, http.StatusBadRequest, "bad_request", "checkout failed")
		}
		return
	}

	account, err := ctrl.Account()
	if err != nil {
		a.Logger.Error().Err(err).Msg("load account snapshot failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load account")
		return
	}
	a.json(w, http.StatusOK, checkoutResponse{Result: result, User: a.profileDTO(account)})
}
