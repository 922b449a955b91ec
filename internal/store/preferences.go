package store

import (
	"log"
	"sync"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
)

// ThemeSurface is the rendering surface that carries the root theme flag
type ThemeSurface interface {
	ApplyTheme(models.Theme)
}

// PreferenceOption configures a PreferenceStore
type PreferenceOption func(*PreferenceStore)

// WithPreferenceLogger sets the logger for persistence failures
func WithPreferenceLogger(logger *log.Logger) PreferenceOption {
	return func(s *PreferenceStore) {
		s.logger = logger
	}
}

// PreferenceStore holds the display theme and currency. None of its
// operations can fail: persistence problems are logged and the in-memory
// state still changes.
type PreferenceStore struct {
	mu      sync.RWMutex
	pref    models.Preference
	slot    Snapshotter[models.Preference]
	surface ThemeSurface
	logger  *log.Logger
	subs    subscribers[models.Preference]
}

// NewPreferenceStore creates a store starting from the defaults. Call Load
// once at startup to rehydrate.
func NewPreferenceStore(slot Snapshotter[models.Preference], surface ThemeSurface, opts ...PreferenceOption) *PreferenceStore {
	s := &PreferenceStore{
		pref:    models.DefaultPreference(),
		slot:    slot,
		surface: surface,
		logger:  discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load rehydrates the persisted preference and applies its theme to the
// surface once
func (s *PreferenceStore) Load() models.Preference {
	pref := models.DefaultPreference()
	if saved, ok, err := s.slot.Load(); err != nil {
		s.logger.Printf("failed to load preferences, using defaults: %v", err)
	} else if ok {
		pref = saved.Normalize()
	}

	s.mu.Lock()
	s.pref = pref
	s.mu.Unlock()

	s.applyTheme(pref.Theme)
	s.subs.notify(pref)
	return pref
}

// Preference returns the current preference
func (s *PreferenceStore) Preference() models.Preference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pref
}

// SetTheme persists theme, makes it current and applies it to the surface
func (s *PreferenceStore) SetTheme(theme models.Theme) {
	if theme != models.ThemeLight && theme != models.ThemeDark {
		s.logger.Printf("ignoring unknown theme %q", theme)
		return
	}
	s.mutate(func(p *models.Preference) { p.Theme = theme })
	s.applyTheme(theme)
}

// ToggleTheme flips between light and dark
func (s *PreferenceStore) ToggleTheme() models.Theme {
	s.mu.Lock()
	next := s.pref
	next.Theme = next.Theme.Toggled()
	s.commitLocked(next)
	s.mu.Unlock()

	s.applyTheme(next.Theme)
	s.subs.notify(next)
	return next.Theme
}

// SetCurrency persists code and makes it current. Amounts are not converted.
func (s *PreferenceStore) SetCurrency(code models.Currency) {
	if _, ok := currencyFormats[code]; !ok {
		s.logger.Printf("ignoring unsupported currency %q", code)
		return
	}
	s.mutate(func(p *models.Preference) { p.Currency = code })
}

// FormatCurrency renders amount in the current currency
func (s *PreferenceStore) FormatCurrency(amount decimal.Decimal) string {
	return FormatAmount(s.Preference().Currency, amount)
}

// CurrencySymbol returns the symbol of the current currency
func (s *PreferenceStore) CurrencySymbol() string {
	return CurrencySymbol(s.Preference().Currency)
}

// Subscribe registers fn to receive the preference after every change
func (s *PreferenceStore) Subscribe(fn func(models.Preference)) (unsubscribe func()) {
	return s.subs.add(fn)
}

func (s *PreferenceStore) mutate(change func(*models.Preference)) {
	s.mu.Lock()
	next := s.pref
	change(&next)
	s.commitLocked(next)
	s.mu.Unlock()
	s.subs.notify(next)
}

// commitLocked writes next through to storage before installing it
func (s *PreferenceStore) commitLocked(next models.Preference) {
	if err := s.slot.Save(next); err != nil {
		s.logger.Printf("failed to persist preferences: %v", err)
	}
	s.pref = next
}

func (s *PreferenceStore) applyTheme(theme models.Theme) {
	if s.surface != nil {
		s.surface.ApplyTheme(theme)
	}
}
