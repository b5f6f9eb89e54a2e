// Command pricelist-admin manages accounts directly against the database.
//
//	pricelist-admin create-user -email a@b.c -password secret123 [-name Owner]
//	pricelist-admin check-user -email a@b.c [-password secret123]
//
// The database comes from DB_DRIVER and DB_DSN, as for the server, unless
// -driver or -dsn are given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vbonduro/pricelist/internal/auth"
	"github.com/vbonduro/pricelist/internal/config"
	"github.com/vbonduro/pricelist/internal/db"
	"github.com/vbonduro/pricelist/internal/store"
	"github.com/vbonduro/pricelist/internal/validation"
)

const usage = "usage: pricelist-admin <create-user|check-user> [flags]"

var errUsage = errors.New(usage)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	driver   string
	dsn      string
	email    string
	password string
	name     string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts := options{driver: cfg.DBDriver, dsn: cfg.DBDSN}
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.driver, "driver", opts.driver, "database driver (sqlite or pgx)")
	fs.StringVar(&opts.dsn, "dsn", opts.dsn, "database DSN; a file path for sqlite")
	fs.StringVar(&opts.email, "email", "", "account email")
	fs.StringVar(&opts.password, "password", "", "account password")
	fs.StringVar(&opts.name, "name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.email == "" {
		return fmt.Errorf("%s: -email is required", cmd)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	switch cmd {
	case "create-user":
		if opts.password == "" {
			return fmt.Errorf("%s: -password is required", cmd)
		}
		return withDB(opts, func(users *store.UserStore, svc *auth.Service) error {
			return createUser(ctx, svc, opts, stdout)
		}, logger)
	case "check-user":
		return withDB(opts, func(users *store.UserStore, svc *auth.Service) error {
			return checkUser(ctx, users, svc, opts, stdout)
		}, logger)
	default:
		return errUsage
	}
}

func withDB(opts options, fn func(*store.UserStore, *auth.Service) error, logger *slog.Logger) error {
	database, err := db.Open(opts.driver, opts.dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	users := store.NewUserStore(database)
	// No sessions are issued here, so the signing secret is never used.
	svc := auth.NewService(users, store.NewSessionStore(database), nil, 0, logger)
	return fn(users, svc)
}

func createUser(ctx context.Context, svc *auth.Service, opts options, stdout io.Writer) error {
	user, err := svc.CreateUser(ctx, opts.email, opts.password, opts.name)
	if errors.Is(err, auth.ErrEmailTaken) {
		return fmt.Errorf("user %s already exists", opts.email)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Fprintf(stdout, "created user %s (%s)\n", user.Email, user.ID)
	return nil
}

func checkUser(ctx context.Context, users *store.UserStore, svc *auth.Service, opts options, stdout io.Writer) error {
	if opts.password != "" {
		user, err := svc.VerifyPassword(ctx, opts.email, opts.password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return fmt.Errorf("invalid email or password for %s", opts.email)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "password ok for %s (%s)\n", user.Email, user.ID)
		return nil
	}

	user, err := users.GetByEmail(ctx, validation.NormalizeEmail(opts.email))
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", opts.email)
	}
	fmt.Fprintf(stdout, "user %s (%s) name=%q created=%s\n",
		user.Email, user.ID, user.Name, user.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
