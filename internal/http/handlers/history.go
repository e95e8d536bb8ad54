package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"proai/internal/domain"
	"proai/internal/history"
)

type historyResponse struct {
	Items []domain.HistoryItem `json:"items"`
}

func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	email := a.currentEmail(r)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	items, err := a.History.List(r.Context(), email)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list history failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	if items == nil {
		items = []domain.HistoryItem{}
	}
	a.json(w, http.StatusOK, historyResponse{Items: items})
}

func (a *App) HistoryFavorite(w http.ResponseWriter, r *http.Request) {
	email := a.currentEmail(r)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.History.ToggleFavorite(r.Context(), email, id); err != nil {
		if errors.Is(err, history.ErrItemNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "history item not found")
			return
		}
		a.Logger.Error().Err(err).Msg("toggle favorite failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
