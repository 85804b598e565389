// provision-admin creates an ADMIN account, or promotes an existing account to
// ADMIN. Self-registration never grants ADMIN, so the first administrator is
// bootstrapped with this binary against the service database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// passwordEnv lets the password stay out of shell history.
const passwordEnv = "HELPDESK_ADMIN_PASSWORD"

type options struct {
	name     string
	email    string
	password string
	timeout  time.Duration
	migrate  bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Getenv)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, "provision-admin")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if opts.migrate {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: repository.NewUserRepository(pg.PoolHandle()),
	})
	user, created, err := authService.ProvisionAdmin(ctx, opts.name, opts.email, opts.password)
	if err != nil {
		return err
	}

	action := "promoted"
	if created {
		action = "created"
	}
	logger.Info("admin provisioned",
		zap.String("action", action),
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email))
	fmt.Printf("%s admin %s (id %d)\n", action, user.Email, user.ID)
	return nil
}

func parseFlags(args []string, getenv func(string) string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("provision-admin", pflag.ContinueOnError)
	flagSet.StringVar(&opts.name, "name", "Administrator", "display name for a newly created admin")
	flagSet.StringVar(&opts.email, "email", "", "admin email address (required)")
	flagSet.StringVar(&opts.password, "password", "", "admin password; defaults to $"+passwordEnv)
	flagSet.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall deadline for the operation")
	flagSet.BoolVar(&opts.migrate, "migrate", false, "apply schema migrations before provisioning")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: provision-admin --email EMAIL [--name NAME] [--password PASSWORD]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if opts.password == "" {
		opts.password = getenv(passwordEnv)
	}
	if opts.email == "" {
		return opts, errors.New("--email is required")
	}
	if opts.password == "" {
		return opts, fmt.Errorf("--password or $%s is required", passwordEnv)
	}
	return opts, nil
}
