// Package handlers contains the view-layer controllers. Every mutation goes
// to the API first and is mirrored into the local stores only once the
// server has confirmed it.
package handlers

import (
	"errors"
	"io"
	"log"
	"time"

	"github.com/findosh/moneymanager/internal/api"
	"github.com/findosh/moneymanager/internal/config"
	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/services/capture"
	"github.com/findosh/moneymanager/internal/services/importer"
	"github.com/findosh/moneymanager/internal/store"
)

var (
	ErrNotAuthenticated = errors.New("you must be logged in")
	ErrNotAdmin         = errors.New("administrator access required")
)

// Handler contains all controllers and their dependencies
type Handler struct {
	cfg        *config.Config
	client     *api.Client
	sessions   *store.SessionStore
	expenses   *store.Collection[models.Expense]
	categories *store.Collection[models.Category]
	prefs      *store.PreferenceStore
	capture    *capture.Service
	statements *importer.Service
	logger     *log.Logger
	now        func() time.Time
}

// New creates a new handler with all dependencies
func New(
	cfg *config.Config,
	client *api.Client,
	sessions *store.SessionStore,
	expenses *store.Collection[models.Expense],
	categories *store.Collection[models.Category],
	prefs *store.PreferenceStore,
	captureService *capture.Service,
	logger *log.Logger,
) *Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Handler{
		cfg:        cfg,
		client:     client,
		sessions:   sessions,
		expenses:   expenses,
		categories: categories,
		prefs:      prefs,
		capture:    captureService,
		statements: importer.NewService(),
		logger:     logger,
		now:        time.Now,
	}
}

// Sessions returns the session store
func (h *Handler) Sessions() *store.SessionStore {
	return h.sessions
}

// Expenses returns the cached expense collection
func (h *Handler) Expenses() *store.Collection[models.Expense] {
	return h.expenses
}

// Categories returns the cached category collection
func (h *Handler) Categories() *store.Collection[models.Category] {
	return h.categories
}

// Preferences returns the preference store
func (h *Handler) Preferences() *store.PreferenceStore {
	return h.prefs
}

func (h *Handler) requireAuth() error {
	if !h.sessions.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

func (h *Handler) requireAdmin() error {
	if err := h.requireAuth(); err != nil {
		return err
	}
	if !h.sessions.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// checkExpired ends the session when the server no longer accepts its token
func (h *Handler) checkExpired(err error) error {
	if errors.Is(err, api.ErrUnauthorized) && h.sessions.IsAuthenticated() {
		h.logger.Printf("session rejected by server, logging out: %v", err)
		h.Logout()
	}
	return err
}
