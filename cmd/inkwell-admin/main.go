package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/spf13/pflag"

	"github.com/inkwell-blog/inkwell/cmd/inkwell-admin/cli"
	"github.com/inkwell-blog/inkwell/internal/app"
	"github.com/inkwell-blog/inkwell/internal/platform/db"
	"github.com/inkwell-blog/inkwell/internal/users"
	"github.com/inkwell-blog/inkwell/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("inkwell-admin", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(stderr)
	flags.BoolP("help", "h", false, "show help")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(stderr)
			return 0
		}
		_, _ = fmt.Fprintf(stderr, "inkwell-admin: %v\n", err)
		return 2
	}
	if help, _ := flags.GetBool("help"); help || flags.NArg() == 0 {
		printHelp(stderr)
		return 0
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "inkwell-admin: load config: %v\n", err)
		return 1
	}
	logger := app.NewLogger(cfg)

	rest := flags.Args()
	switch rest[0] {
	case "createsuperuser":
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			return 1
		}
		defer pool.Close()
		service := users.NewService(users.NewRepository(pool), nil, logger)
		return cli.NewSuperuserCLI(service).CreateCommand(ctx, rest[1:], stdout, stderr)
	case "migrate":
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			return 1
		}
		defer pool.Close()
		applied, err := db.Migrate(ctx, pool)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "migrate: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "applied %d migration(s)\n", len(applied))
		return 0
	case "jobs":
		return runJobs(ctx, cfg, rest[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "inkwell-admin: unknown command %q\n", rest[0])
		printHelp(stderr)
		return 2
	}
}

func runJobs(ctx context.Context, cfg *app.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stderr, "jobs: expected subcommand trigger or stats")
		return 2
	}
	switch args[0] {
	case "trigger":
		client, err := jobs.NewClient(cfg.AsynqRedis())
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs: %v\n", err)
			return 1
		}
		defer client.Close()
		return cli.NewJobsCLI(client, nil).TriggerCommand(ctx, args[1:], stdout, stderr)
	case "stats":
		inspector := asynq.NewInspector(cfg.AsynqRedis())
		defer inspector.Close()
		return cli.NewJobsCLI(nil, inspector).StatsCommand(ctx, args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "jobs: unknown subcommand %q\n", args[0])
		return 2
	}
}

func printHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `Inkwell administration tool.

Usage:
  inkwell-admin <command> [flags]

Commands:
  createsuperuser --email E --username U [--password P] [--json]
      Create a staff and superuser account with an API token.
      The password may be supplied through $INKWELL_ADMIN_PASSWORD.
  migrate
      Apply pending database migrations.
  jobs trigger <task>
      Enqueue a background task (auth:tokens:purge).
  jobs stats [--json]
      Print default queue statistics.

Configuration is read from the same environment variables as the server.
`)
}
