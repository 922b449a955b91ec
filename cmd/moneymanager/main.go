// moneymanager is a terminal client for the expense tracking API
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/findosh/moneymanager/internal/api"
	"github.com/findosh/moneymanager/internal/config"
	"github.com/findosh/moneymanager/internal/handlers"
	"github.com/findosh/moneymanager/internal/middleware"
	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/services/auth"
	"github.com/findosh/moneymanager/internal/services/capture"
	"github.com/findosh/moneymanager/internal/storage"
	"github.com/findosh/moneymanager/internal/store"
	"golang.org/x/term"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{
		stdin:   stdin,
		in:      bufio.NewReader(stdin),
		stdout:  stdout,
		stderr:  stderr,
		palette: newPalette(stdout),
	}
	defer a.close()

	registry := NewCommandRegistry(VersionInfo{Version: version, Commit: commit, Date: date})
	registerCommands(registry, a)
	return registry.Execute(args, stdout, stderr)
}

// describe adds a hint to errors the user can act on
func describe(err error) string {
	switch {
	case errors.Is(err, handlers.ErrNotAuthenticated):
		return err.Error() + " (run 'moneymanager login')"
	case api.IsTransport(err):
		return err.Error() + " (is the API running? set MONEYMANAGER_API_URL)"
	}
	return err.Error()
}

// app is the state shared by every command. The state database and stores
// are opened on first use so help and version work without them.
type app struct {
	stdin   io.Reader
	in      *bufio.Reader
	stdout  io.Writer
	stderr  io.Writer
	palette *palette

	cfg     *config.Config
	logger  *log.Logger
	db      *storage.DB
	demo    *auth.DemoDirectory
	handler *handlers.Handler
}

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if path := os.Getenv("MONEYMANAGER_CONFIG"); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (a *app) open() error {
	if a.handler != nil {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = log.New(io.Discard, "", 0)
	if cfg.Verbose {
		a.logger = log.New(a.stderr, "moneymanager: ", log.LstdFlags)
	}

	db, err := storage.Open(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	a.db = db

	var sessions *store.SessionStore
	client := api.New(cfg, middleware.TokenFunc(func() string { return sessions.Token() }), api.WithLogger(a.logger))

	opts := []store.SessionOption{store.WithSessionLogger(a.logger)}
	if cfg.DemoFallback {
		demo, err := auth.NewDemoDirectory(cfg.DemoSecret)
		if err != nil {
			return fmt.Errorf("failed to set up demo accounts: %w", err)
		}
		a.demo = demo
		opts = append(opts, store.WithFallback(demo))
	}
	sessions = store.NewSessionStore(client, storage.NewSlot[models.Session](db.Namespace("session"), "current"), opts...)
	sessions.Load()

	prefs := store.NewPreferenceStore(
		storage.NewSlot[models.Preference](db.Namespace("preferences"), "current"),
		a.palette,
		store.WithPreferenceLogger(a.logger),
	)
	prefs.Load()

	a.handler = handlers.New(
		cfg,
		client,
		sessions,
		store.NewExpenses(),
		store.NewCategories(),
		prefs,
		capture.NewService(client, cfg, a.logger),
		a.logger,
	)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// withState opens the stores before running fn
func (a *app) withState(fn func(args []string) error) func(args []string) error {
	return func(args []string) error {
		if err := a.open(); err != nil {
			return err
		}
		return fn(args)
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

// prompt reads one line of input
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.stdout, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads a password without echo when stdin is a terminal
func (a *app) readPassword(label string) (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.stdout, label)
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stdout)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	password, err := a.prompt(label)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(a.stdout)
	return password, nil
}

// confirm asks a yes/no question, defaulting to no
func (a *app) confirm(question string) (bool, error) {
	answer, err := a.prompt(question + " [y/N] ")
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
