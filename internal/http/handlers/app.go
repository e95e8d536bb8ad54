package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"proai/internal/catalog"
	"proai/internal/history"
	"proai/internal/infra"
	"proai/internal/middleware"
	"proai/internal/payment"
	"proai/internal/providers/prompt"
	"proai/internal/registry"
	"proai/internal/session"
	"proai/internal/storage"
	"proai/internal/suggest"
)

// App bundles the wired services the HTTP handlers dispatch into. One
// session controller is kept per account so in-flight generation guards
// hold across concurrent requests from the same user.
type App struct {
	Logger    zerolog.Logger
	Config    *infra.Config
	Store     storage.DurableStore
	Registry  *registry.Registry
	Catalog   *catalog.Catalog
	History   *history.Log
	Payments  payment.Processor
	Generator prompt.Generator
	Suggest   *suggest.Debouncer

	mu          sync.Mutex
	controllers map[string]*session.Controller
}

// NewApp wires the handler container.
func NewApp(cfg *infra.Config, logger zerolog.Logger, store storage.DurableStore, reg *registry.Registry, cat *catalog.Catalog, hist *history.Log, payments payment.Processor, generator prompt.Generator) *App {
	return &App{
		Logger:      logger,
		Config:      cfg,
		Store:       store,
		Registry:    reg,
		Catalog:     cat,
		History:     hist,
		Payments:    payments,
		Generator:   generator,
		Suggest:     suggest.NewDebouncer(generator, cfg.SuggestDebounce),
		controllers: make(map[string]*session.Controller),
	}
}

// controllerFor returns the per-account session controller, creating it
// on first use. Entries live until the account logs out; see
// releaseController.
func (a *App) controllerFor(email string) *session.Controller {
	a.mu.Lock()
	defer a.mu.Unlock()
	ctrl, ok := a.controllers[email]
	if !ok {
		ctrl = session.NewController(a.Registry, a.Catalog, a.History, a.Payments, a.Store, a.Logger)
		a.controllers[email] = ctrl
	}
	return ctrl
}

// releaseController evicts the account's controller so the map stays
// bounded by the set of logged-in accounts. An operation still holding
// the old pointer finishes safely on it.
func (a *App) releaseController(email string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.controllers, email)
}

func (a *App) currentEmail(r *http.Request) string {
	return middleware.AccountEmailFromContext(r.Context())
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"code": code, "message": message})
}
