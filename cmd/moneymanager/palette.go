package main

import (
	"io"
	"os"
	"sync"

	"github.com/findosh/moneymanager/internal/models"
	"golang.org/x/term"
)

// ANSI SGR codes per theme
type colors struct {
	heading string
	amount  string
	muted   string
	success string
	failure string
}

var themeColors = map[models.Theme]colors{
	models.ThemeLight: {heading: "1;34", amount: "32", muted: "2", success: "32", failure: "31"},
	models.ThemeDark:  {heading: "1;96", amount: "92", muted: "90", success: "92", failure: "91"},
}

// palette is the terminal's theme surface. Colors are only emitted when
// writing to a terminal and NO_COLOR is unset.
type palette struct {
	mu      sync.RWMutex
	theme   models.Theme
	enabled bool
}

func newPalette(w io.Writer) *palette {
	enabled := false
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		enabled = os.Getenv("NO_COLOR") == ""
	}
	return &palette{theme: models.DefaultPreference().Theme, enabled: enabled}
}

// ApplyTheme switches the palette
func (p *palette) ApplyTheme(theme models.Theme) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.theme = theme
}

// Theme returns the active theme
func (p *palette) Theme() models.Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

func (p *palette) paint(pick func(colors) string, s string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled {
		return s
	}
	return "\x1b[" + pick(themeColors[p.theme]) + "m" + s + "\x1b[0m"
}

func (p *palette) Heading(s string) string {
	return p.paint(func(c colors) string { return c.heading }, s)
}

func (p *palette) Amount(s string) string {
	return p.paint(func(c colors) string { return c.amount }, s)
}

func (p *palette) Muted(s string) string {
	return p.paint(func(c colors) string { return c.muted }, s)
}

func (p *palette) Success(s string) string {
	return p.paint(func(c colors) string { return c.success }, s)
}

func (p *palette) Failure(s string) string {
	return p.paint(func(c colors) string { return c.failure }, s)
}
