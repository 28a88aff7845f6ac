// Package cli implements the command-line sub-commands. Each command parses
// its own flags, opens the library database, runs once and closes it.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/mymanga/internal/auth"
	"github.com/mrlokans/mymanga/internal/config"
	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/database/accounts"
	"github.com/mrlokans/mymanga/internal/database/catalog"
	"github.com/mrlokans/mymanga/internal/database/chapters"
	"github.com/mrlokans/mymanga/internal/database/pages"
	progressdb "github.com/mrlokans/mymanga/internal/database/progress"
	"github.com/mrlokans/mymanga/internal/ingest"
	"github.com/mrlokans/mymanga/internal/services"
)

// library bundles the repositories and services a command works with.
type library struct {
	db       *database.Database
	catalog  *catalog.Repository
	chapters *chapters.Repository
	pages    *pages.Repository
	accounts *accounts.Repository
	progress *progressdb.Repository
	auth     *auth.Service
	service  *services.LibraryService
	ingester *ingest.Ingester
}

func openLibrary(cfg *config.Config, dbPath string) (*library, error) {
	logLevel := logger.Silent
	if cfg.Log.Level <= slog.LevelDebug {
		logLevel = logger.Info
	}
	db, err := database.NewDatabase(dbPath,
		database.WithBusyTimeout(cfg.Database.BusyTimeout),
		database.WithLogLevel(logLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	lib := &library{
		db:       db,
		catalog:  catalog.NewRepository(db),
		chapters: chapters.NewRepository(db),
		pages:    pages.NewRepository(db),
		accounts: accounts.NewRepository(db),
		progress: progressdb.NewRepository(db),
	}
	lib.auth = auth.NewService(lib.accounts, cfg.Auth)
	lib.service = services.NewLibraryService(lib.catalog, lib.chapters, lib.pages)
	lib.ingester = ingest.NewIngester(lib.catalog, lib.chapters,
		ingest.WithMinPageBytes(cfg.Ingest.MinPageBytes),
		ingest.WithEncodeWorkers(cfg.Ingest.EncodeWorkers))
	return lib, nil
}

func (l *library) Close() error {
	return l.db.Close()
}

// loginAdmin signs in and checks the account may manage the catalog.
func (l *library) loginAdmin(ctx context.Context, c credentials) (*auth.Session, error) {
	session, err := l.auth.Login(ctx, c.Email, c.Password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err := auth.RequireAdmin(session); err != nil {
		return nil, err
	}
	return session, nil
}

// credentials are the -email and -password flags shared by commands that
// act on behalf of an account.
type credentials struct {
	Email    string
	Password string
}

func (c *credentials) register(fs *flag.FlagSet) {
	fs.StringVar(&c.Email, "email", "", "Account email")
	fs.StringVar(&c.Password, "password", "", "Account password")
}

func (c *credentials) provided() bool {
	return c.Email != ""
}

func (c *credentials) require() error {
	if c.Email == "" || c.Password == "" {
		return fmt.Errorf("required flags -email and -password not provided")
	}
	return nil
}

func usage(fs *flag.FlagSet, synopsis, description string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s\n\n", os.Args[0], synopsis)
		fmt.Fprintf(os.Stderr, "%s\n\n", description)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
